package normalize

import (
	"bytes"
	"strings"

	"github.com/antonholmquist/jason"

	"therapyfinder/internal/services"
)

type layout struct {
	id       []string
	name     []string
	address  []string
	lat      []string
	lng      []string
	rating   []string
	reviews  []string
	website  []string
	phone    []string
	photoKey string
	types    []string
	primary  []string
}

var (
	v1Layout = layout{
		id:       []string{"id"},
		name:     []string{"displayName", "text"},
		address:  []string{"formattedAddress"},
		lat:      []string{"location", "latitude"},
		lng:      []string{"location", "longitude"},
		rating:   []string{"rating"},
		reviews:  []string{"userRatingCount"},
		website:  []string{"websiteUri"},
		phone:    []string{"nationalPhoneNumber"},
		photoKey: "name",
		types:    []string{"types"},
		primary:  []string{"primaryType"},
	}
	legacyLayout = layout{
		id:       []string{"place_id"},
		name:     []string{"name"},
		address:  []string{"formatted_address"},
		lat:      []string{"geometry", "location", "lat"},
		lng:      []string{"geometry", "location", "lng"},
		rating:   []string{"rating"},
		reviews:  []string{"user_ratings_total"},
		website:  []string{"website"},
		phone:    []string{"formatted_phone_number"},
		photoKey: "photo_reference",
		types:    []string{"types"},
	}
)

// Normalize decodes one raw place payload using the given schema version.
// An empty version behaves like SchemaAuto.
func Normalize(raw []byte, version string) (Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Record{}, &Error{Reason: "empty payload"}
	}
	obj, err := jason.NewObjectFromBytes(trimmed)
	if err != nil {
		return Record{}, &Error{Reason: "payload is not a json object", Err: err}
	}

	var l layout
	switch strings.TrimSpace(version) {
	case "", SchemaAuto:
		l = detect(obj)
	case SchemaV1:
		l = v1Layout
	case SchemaLegacy:
		l = legacyLayout
	default:
		return Record{}, &Error{Field: "schema_version", Reason: "unsupported schema version " + version, Err: services.ErrConfiguration}
	}

	rec := Record{RawJSON: string(trimmed)}
	rec.SourceID = stringAt(obj, l.id)
	if rec.SourceID == "" {
		return Record{}, &Error{Field: "id", Reason: "source identifier missing", Err: services.ErrMissingRequiredField}
	}
	rec.Name = stringAt(obj, l.name)
	if rec.Name == "" {
		return Record{}, &Error{Field: "name", Reason: "display name missing", Err: services.ErrMissingRequiredField}
	}

	rec.Address = stringAt(obj, l.address)
	rec.Website = stringAt(obj, l.website)
	rec.Phone = stringAt(obj, l.phone)
	rec.PrimaryType = stringAt(obj, l.primary)
	rec.Rating = floatAt(obj, l.rating)
	rec.ReviewCount = intAt(obj, l.reviews)

	// A coordinate pair is only useful whole.
	if lat, lng := floatAt(obj, l.lat), floatAt(obj, l.lng); lat != nil && lng != nil {
		rec.Lat, rec.Lng = lat, lng
	}
	if types, err := obj.GetStringArray(l.types...); err == nil {
		for _, t := range types {
			if t = strings.TrimSpace(t); t != "" {
				rec.Types = append(rec.Types, t)
			}
		}
	}
	if photos, err := obj.GetObjectArray("photos"); err == nil && len(photos) > 0 {
		if ref, err := photos[0].GetString(l.photoKey); err == nil {
			rec.PhotoRef = strings.TrimSpace(ref)
		}
	}
	return rec, nil
}

func detect(obj *jason.Object) layout {
	if _, err := obj.GetString("place_id"); err == nil {
		return legacyLayout
	}
	return v1Layout
}

func stringAt(obj *jason.Object, keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	value, err := obj.GetString(keys...)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

func floatAt(obj *jason.Object, keys []string) *float64 {
	value, err := obj.GetFloat64(keys...)
	if err != nil {
		return nil
	}
	return &value
}

func intAt(obj *jason.Object, keys []string) *int64 {
	value, err := obj.GetInt64(keys...)
	if err != nil {
		f, ferr := obj.GetFloat64(keys...)
		if ferr != nil || f < 0 {
			return nil
		}
		value = int64(f)
	}
	return &value
}
