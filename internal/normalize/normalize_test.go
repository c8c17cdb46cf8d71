package normalize_test

import (
	"errors"
	"testing"

	"therapyfinder/internal/normalize"
	"therapyfinder/internal/services"
	"therapyfinder/internal/testsupport"
)

func TestNormalizeV1Payload(t *testing.T) {
	raw := []byte(`{
		"id": "ChIJabc123",
		"displayName": {"text": "  Calm Minds Counseling ", "languageCode": "en"},
		"formattedAddress": "100 Congress Ave, Austin, TX 78701",
		"location": {"latitude": 30.26, "longitude": -97.74},
		"rating": 4.8,
		"userRatingCount": 37,
		"websiteUri": "https://calmminds.example",
		"nationalPhoneNumber": "(512) 555-0100",
		"types": ["psychologist", "health", "point_of_interest"],
		"primaryType": "psychologist",
		"photos": [{"name": "places/ChIJabc123/photos/AAA", "widthPx": 800}]
	}`)

	rec, err := normalize.Normalize(raw, normalize.SchemaAuto)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.SourceID != "ChIJabc123" || rec.Name != "Calm Minds Counseling" {
		t.Fatalf("unexpected identity %q %q", rec.SourceID, rec.Name)
	}
	if rec.Lat == nil || *rec.Lat != 30.26 || rec.Lng == nil || *rec.Lng != -97.74 {
		t.Fatalf("unexpected coordinates %v %v", rec.Lat, rec.Lng)
	}
	if rec.Rating == nil || *rec.Rating != 4.8 {
		t.Fatalf("unexpected rating %v", rec.Rating)
	}
	if rec.ReviewCount == nil || *rec.ReviewCount != 37 {
		t.Fatalf("unexpected review count %v", rec.ReviewCount)
	}
	if rec.PhotoRef != "places/ChIJabc123/photos/AAA" {
		t.Fatalf("unexpected photo ref %q", rec.PhotoRef)
	}
	if rec.Phone != "(512) 555-0100" || rec.Website != "https://calmminds.example" {
		t.Fatalf("unexpected contact fields %q %q", rec.Phone, rec.Website)
	}
	hints := rec.Hints()
	if len(hints) != 3 || hints[0] != "psychologist" {
		t.Fatalf("unexpected hints %v", hints)
	}
	if rec.RawJSON == "" {
		t.Fatal("expected raw payload to be retained")
	}
}

func TestNormalizeLegacyPayload(t *testing.T) {
	raw := []byte(`{
		"place_id": "legacy-1",
		"name": "Hyde Park Therapy",
		"formatted_address": "4300 Speedway, Austin, TX",
		"geometry": {"location": {"lat": 30.3, "lng": -97.73}},
		"rating": 4.2,
		"user_ratings_total": 9,
		"formatted_phone_number": "512-555-0199",
		"photos": [{"photo_reference": "ref-1"}]
	}`)

	for _, version := range []string{normalize.SchemaAuto, normalize.SchemaLegacy} {
		rec, err := normalize.Normalize(raw, version)
		if err != nil {
			t.Fatalf("Normalize(%s): %v", version, err)
		}
		if rec.SourceID != "legacy-1" || rec.Name != "Hyde Park Therapy" {
			t.Fatalf("%s: unexpected identity %+v", version, rec)
		}
		if rec.Lat == nil || rec.Lng == nil || rec.PhotoRef != "ref-1" {
			t.Fatalf("%s: unexpected optional fields %+v", version, rec)
		}
		if rec.ReviewCount == nil || *rec.ReviewCount != 9 {
			t.Fatalf("%s: unexpected review count %v", version, rec.ReviewCount)
		}
	}
}

func TestNormalizeMissingOptionalFieldsStayAbsent(t *testing.T) {
	raw := testsupport.Place{ID: "p-1", Name: "Bare Practice"}.JSON(t)

	rec, err := normalize.Normalize(raw, normalize.SchemaV1)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Rating != nil || rec.ReviewCount != nil || rec.Lat != nil || rec.Lng != nil {
		t.Fatalf("expected absent numeric fields, got %+v", rec)
	}
	if rec.Address != "" || rec.Website != "" || rec.Phone != "" || rec.PhotoRef != "" {
		t.Fatalf("expected absent text fields, got %+v", rec)
	}
}

func TestNormalizeMalformedOptionalFieldIsDropped(t *testing.T) {
	raw := []byte(`{"id": "p-2", "displayName": {"text": "Odd"}, "rating": "five", "location": {"latitude": 1.5}}`)
	rec, err := normalize.Normalize(raw, normalize.SchemaAuto)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Rating != nil {
		t.Fatalf("expected malformed rating to be absent, got %v", *rec.Rating)
	}
	if rec.Lat != nil || rec.Lng != nil {
		t.Fatal("expected half a coordinate pair to be dropped")
	}
}

func TestNormalizeRejectsMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"no id", `{"displayName": {"text": "Nameless Id"}}`, "id"},
		{"blank name", `{"id": "p-3", "displayName": {"text": "   "}}`, "name"},
		{"legacy no name", `{"place_id": "p-4"}`, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalize.Normalize([]byte(tt.raw), normalize.SchemaAuto)
			if err == nil {
				t.Fatal("expected error")
			}
			var nerr *normalize.Error
			if !errors.As(err, &nerr) || nerr.Field != tt.field {
				t.Fatalf("expected field %q error, got %v", tt.field, err)
			}
			if !errors.Is(err, services.ErrMissingRequiredField) || !errors.Is(err, services.ErrNormalization) {
				t.Fatalf("expected both markers, got %v", err)
			}
			if !normalize.IsMissingField(err) {
				t.Fatal("IsMissingField should report true")
			}
			if services.FailureLevel(err) != services.LevelRecord {
				t.Fatalf("expected record-level failure, got %s", services.FailureLevel(err))
			}
		})
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "[1,2]", "not json"} {
		_, err := normalize.Normalize([]byte(raw), normalize.SchemaAuto)
		if !errors.Is(err, services.ErrNormalization) {
			t.Fatalf("%q: expected normalization error, got %v", raw, err)
		}
		if normalize.IsMissingField(err) {
			t.Fatalf("%q: decode failures are not missing-field errors", raw)
		}
	}
}

func TestNormalizeRejectsUnknownSchema(t *testing.T) {
	_, err := normalize.Normalize([]byte(`{"id":"x"}`), "places.v9")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
