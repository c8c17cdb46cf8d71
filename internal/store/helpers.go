package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
	uniqueFailedPrefix         = "UNIQUE constraint failed: "
)

const providerColumns = "id, source_id, slug, name, address, lat, lng, rating, review_count, website, phone, photo_ref, raw_json, city_id, neighborhood_id, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProvider(scanner rowScanner) (*Provider, error) {
	var (
		p            Provider
		address      sql.NullString
		lat, lng     sql.NullFloat64
		rating       sql.NullFloat64
		reviewCount  sql.NullInt64
		website      sql.NullString
		phone        sql.NullString
		photoRef     sql.NullString
		rawJSON      sql.NullString
		neighborhood sql.NullInt64
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&p.ID,
		&p.SourceID,
		&p.Slug,
		&p.Name,
		&address,
		&lat,
		&lng,
		&rating,
		&reviewCount,
		&website,
		&phone,
		&photoRef,
		&rawJSON,
		&p.CityID,
		&neighborhood,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	p.Address = address.String
	p.Lat = floatPtr(lat)
	p.Lng = floatPtr(lng)
	p.Rating = floatPtr(rating)
	if reviewCount.Valid {
		v := reviewCount.Int64
		p.ReviewCount = &v
	}
	p.Website = website.String
	p.Phone = phone.String
	p.PhotoRef = photoRef.String
	p.RawJSON = rawJSON.String
	if neighborhood.Valid {
		v := neighborhood.Int64
		p.NeighborhoodID = &v
	}
	if t, err := parseTimeString(createdRaw); err == nil {
		p.CreatedAt = t
	}
	if t, err := parseTimeString(updatedRaw); err == nil {
		p.UpdatedAt = t
	}
	return &p, nil
}

func scanProviders(rows *sql.Rows) ([]*Provider, error) {
	defer rows.Close()
	var out []*Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func encodeList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// mergeList appends additions not already present (case-insensitive),
// preserving existing order.
func mergeList(existing, additions []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(additions))
	out := make([]string, 0, len(existing)+len(additions))
	for _, list := range [][]string{existing, additions} {
		for _, value := range list {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			key := strings.ToLower(value)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, value)
		}
	}
	return out
}

// uniqueViolation reports whether err is a uniqueness failure and, when the
// driver names it, the first offending column without its table prefix.
func uniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	msg := err.Error()
	unique := strings.Contains(msg, uniqueFailedPrefix)
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		switch coder.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			unique = true
		}
	}
	if !unique {
		return "", false
	}
	idx := strings.Index(msg, uniqueFailedPrefix)
	if idx < 0 {
		return "", true
	}
	fields := strings.Fields(msg[idx+len(uniqueFailedPrefix):])
	if len(fields) == 0 {
		return "", true
	}
	column := strings.TrimRight(fields[0], ",")
	if dot := strings.LastIndex(column, "."); dot >= 0 {
		column = column[dot+1:]
	}
	return column, true
}
