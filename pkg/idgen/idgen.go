// Package idgen provides ID generation utilities for the application.
// It keeps the xid dependency behind a small API so callers never import it directly.
package idgen

import (
	"github.com/rs/xid"
)

// NewID generates a new globally unique, sortable identifier.
// Returns a 20-character string using xid format.
// The generated ID is:
// - Globally unique
// - Sortable by creation time
// - URL-safe (base32 encoded)
// - 20 characters long
func NewID() string {
	return xid.New().String()
}

// NewReportID generates a unique ID for stored footprint reports.
func NewReportID() string {
	return NewID()
}

// NewRequestID generates a unique ID for request tracking.
func NewRequestID() string {
	return NewID()
}

// IsValid reports whether id parses as an xid.
// Used by the API to reject malformed report IDs before touching the database.
func IsValid(id string) bool {
	_, err := xid.FromString(id)
	return err == nil
}
