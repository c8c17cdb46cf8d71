// Package places wraps the Google Places text search and photo media
// endpoints.
//
// The client returns raw place payloads untouched; decoding them into
// provider records is the normalize package's job. Quota and permission
// responses (HTTP 403 and 429) unwrap to services.ErrQuotaExceeded, every
// other failure to services.ErrSourceAPI.
package places
