package places_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"therapyfinder/internal/places"
	"therapyfinder/internal/services"
	"therapyfinder/internal/testsupport"
)

func TestSearchTextSendsQueryAndHeaders(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/places:searchText" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Goog-Api-Key") != "secret" {
			t.Fatalf("missing api key header")
		}
		if mask := r.Header.Get("X-Goog-FieldMask"); !strings.Contains(mask, "places.id") || !strings.Contains(mask, "nextPageToken") {
			t.Fatalf("unexpected field mask %q", mask)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_, _ = w.Write(testsupport.SearchResponse(t, "next-1",
			testsupport.Place{ID: "a", Name: "Alpha Counseling"},
			testsupport.Place{ID: "b", Name: "Beta Therapy"},
		))
	}))
	defer server.Close()

	client, err := places.New("secret", server.URL+"/v1/", places.WithPageSize(10))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	page, err := client.SearchText(context.Background(), places.SearchRequest{Query: "therapist in Austin, TX", PageToken: "tok"})
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if len(page.Places) != 2 || page.NextPageToken != "next-1" {
		t.Fatalf("unexpected page %+v", page)
	}
	if gotBody["textQuery"] != "therapist in Austin, TX" || gotBody["pageToken"] != "tok" || gotBody["pageSize"] != float64(10) {
		t.Fatalf("unexpected request body %v", gotBody)
	}
}

func TestSearchTextClassifiesFailures(t *testing.T) {
	tests := []struct {
		status int
		marker error
		level  services.Level
	}{
		{http.StatusForbidden, services.ErrQuotaExceeded, services.LevelRun},
		{http.StatusTooManyRequests, services.ErrQuotaExceeded, services.LevelRun},
		{http.StatusInternalServerError, services.ErrSourceAPI, services.LevelScope},
		{http.StatusBadRequest, services.ErrSourceAPI, services.LevelScope},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))
		client, err := places.New("secret", server.URL)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		_, err = client.SearchText(context.Background(), places.SearchRequest{Query: "q"})
		server.Close()

		if !errors.Is(err, tt.marker) {
			t.Fatalf("status %d: expected %v, got %v", tt.status, tt.marker, err)
		}
		var apiErr *places.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status || apiErr.Body != "nope" {
			t.Fatalf("status %d: expected APIError, got %#v", tt.status, err)
		}
		if got := services.FailureLevel(err); got != tt.level {
			t.Fatalf("status %d: level %s, want %s", tt.status, got, tt.level)
		}
	}
}

func TestSearchTextRejectsEmptyQuery(t *testing.T) {
	client, err := places.New("secret", "http://127.0.0.1:0")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.SearchText(context.Background(), places.SearchRequest{Query: "  "}); err == nil {
		t.Fatal("expected empty query error")
	}
}

func TestNewRequiresKeyAndURL(t *testing.T) {
	if _, err := places.New("", "http://example.test"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing key, got %v", err)
	}
	if _, err := places.New("key", " "); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing url, got %v", err)
	}
}

func TestFetchPhoto(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/places/abc/photos/xyz/media" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("maxWidthPx") != "400" || r.URL.Query().Get("maxHeightPx") != "400" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = io.WriteString(w, "jpegbytes")
	}))
	defer server.Close()

	client, err := places.New("secret", server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, contentType, err := client.FetchPhoto(context.Background(), "places/abc/photos/xyz", 400)
	if err != nil {
		t.Fatalf("FetchPhoto: %v", err)
	}
	if string(data) != "jpegbytes" || contentType != "image/jpeg" {
		t.Fatalf("unexpected photo %q %q", data, contentType)
	}
}

func TestFetchPhotoRejectsOversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(bytes.Repeat([]byte{0xff}, places.MaxPhotoBytes+1))
	}))
	defer server.Close()

	client, err := places.New("secret", server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, _, err := client.FetchPhoto(context.Background(), "places/abc/photos/big", 0)
	if !errors.Is(err, services.ErrSourceAPI) {
		t.Fatalf("expected source error for oversized photo, got %v", err)
	}
	if data != nil {
		t.Fatalf("expected no data, got %d bytes", len(data))
	}
}

func TestCancelledContextIsNotASourceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client, err := places.New("secret", server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.SearchText(ctx, places.SearchRequest{Query: "q"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if services.FailureLevel(err) != services.LevelRun {
		t.Fatalf("cancellation should stop the run")
	}
}
