package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"therapyfinder/internal/services"
)

// MaxPageSize is the largest page the search endpoint returns.
const MaxPageSize = 20

// MaxPhotoBytes bounds a downloaded photo. Places media is resized server-side,
// so anything larger is not an image we asked for.
const MaxPhotoBytes = 10 << 20

// searchFieldMask lists the response fields requested from searchText.
const searchFieldMask = "places.id,places.displayName,places.formattedAddress,places.location," +
	"places.rating,places.userRatingCount,places.websiteUri,places.nationalPhoneNumber," +
	"places.types,places.primaryType,places.photos,nextPageToken"

// SearchRequest is one page request against the text search endpoint.
type SearchRequest struct {
	Query     string
	PageToken string
	PageSize  int
}

// Page is one page of search results.
type Page struct {
	Places        []json.RawMessage `json:"places"`
	NextPageToken string            `json:"nextPageToken"`
}

// Searcher defines the source operations used by the batch orchestrator.
type Searcher interface {
	SearchText(ctx context.Context, req SearchRequest) (*Page, error)
}

// PhotoFetcher downloads place photos.
type PhotoFetcher interface {
	FetchPhoto(ctx context.Context, photoRef string, maxPx int) ([]byte, string, error)
}

// Client talks to the Places API over HTTP.
type Client struct {
	apiKey     string
	baseURL    string
	pageSize   int
	timeout    time.Duration
	httpClient *http.Client
}

var (
	_ Searcher     = (*Client)(nil)
	_ PhotoFetcher = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPageSize sets the default page size for requests that leave it unset.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 && size <= MaxPageSize {
			c.pageSize = size
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client. It has no effect
// when WithHTTPClient supplies a client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// New creates a Places client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "places", "new client", "api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "places", "new client", "base url required", nil)
	}
	client := &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: MaxPageSize,
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: client.timeout}
	}
	return client, nil
}

type searchBody struct {
	TextQuery string `json:"textQuery"`
	PageSize  int    `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

// SearchText fetches one page of text search results.
func (c *Client) SearchText(ctx context.Context, req SearchRequest) (*Page, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	size := req.PageSize
	if size <= 0 || size > MaxPageSize {
		size = c.pageSize
	}
	body, err := json.Marshal(searchBody{TextQuery: query, PageSize: size, PageToken: strings.TrimSpace(req.PageToken)})
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", searchFieldMask)

	resp, latency, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp, "search", latency)
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %w", services.ErrSourceAPI, err)
	}
	return &page, nil
}

// FetchPhoto downloads the media for a photo reference, returning the bytes
// and their content type.
func (c *Client) FetchPhoto(ctx context.Context, photoRef string, maxPx int) ([]byte, string, error) {
	photoRef = strings.Trim(strings.TrimSpace(photoRef), "/")
	if photoRef == "" {
		return nil, "", errors.New("photo reference must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/" + photoRef + "/media")
	if err != nil {
		return nil, "", fmt.Errorf("parse photo url: %w", err)
	}
	params := url.Values{}
	if maxPx > 0 {
		params.Set("maxWidthPx", strconv.Itoa(maxPx))
		params.Set("maxHeightPx", strconv.Itoa(maxPx))
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, latency, err := c.do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", newAPIError(resp, "photo", latency)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxPhotoBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read photo body: %w", services.ErrSourceAPI, err)
	}
	if len(data) > MaxPhotoBytes {
		return nil, "", fmt.Errorf("%w: photo exceeds %d bytes", services.ErrSourceAPI, MaxPhotoBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) do(req *http.Request) (*http.Response, time.Duration, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, latency, ctxErr
		}
		return nil, latency, fmt.Errorf("%w: execute request (latency=%v): %w", services.ErrSourceAPI, latency, err)
	}
	return resp, latency, nil
}
