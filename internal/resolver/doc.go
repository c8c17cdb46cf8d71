// Package resolver turns normalized source records into provider rows.
//
// The source identifier is the dedup key: a record seen before updates its
// mutable fields in place and keeps its slug, a new record is minted a slug
// and inserted. Category links and neighborhood assignment are separate,
// idempotent operations on an existing provider.
package resolver
