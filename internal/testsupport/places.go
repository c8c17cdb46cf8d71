package testsupport

import (
	"encoding/json"
	"testing"
)

// Place describes a Places API (v1) search result for fixtures.
type Place struct {
	ID      string
	Name    string
	Address string
	Rating  float64
	Reviews int
	Types   []string
	Photo   string
}

// JSON renders the place in the v1 wire layout.
func (p Place) JSON(t testing.TB) json.RawMessage {
	t.Helper()

	payload := map[string]any{}
	if p.ID != "" {
		payload["id"] = p.ID
	}
	if p.Name != "" {
		payload["displayName"] = map[string]any{"text": p.Name, "languageCode": "en"}
	}
	if p.Address != "" {
		payload["formattedAddress"] = p.Address
	}
	if p.Rating > 0 {
		payload["rating"] = p.Rating
	}
	if p.Reviews > 0 {
		payload["userRatingCount"] = p.Reviews
	}
	if len(p.Types) > 0 {
		payload["types"] = p.Types
		payload["primaryType"] = p.Types[0]
	}
	if p.Photo != "" {
		payload["photos"] = []map[string]any{{"name": p.Photo, "widthPx": 800, "heightPx": 600}}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal place fixture: %v", err)
	}
	return data
}

// SearchResponse renders a searchText response body.
func SearchResponse(t testing.TB, nextPageToken string, places ...Place) []byte {
	t.Helper()

	items := make([]json.RawMessage, 0, len(places))
	for _, p := range places {
		items = append(items, p.JSON(t))
	}
	body := map[string]any{"places": items}
	if nextPageToken != "" {
		body["nextPageToken"] = nextPageToken
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal search response: %v", err)
	}
	return data
}
