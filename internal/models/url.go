// Package models contains the data models of the application.
package models

import (
	"database/sql"
	"time"
)

// URLMapping is the durable record of a shortening.
//   - ID: store-assigned row identifier, never exposed externally.
//   - LongURL: the original URL.
//   - URLHash: 64-bit fingerprint of LongURL, unique, encoded as the slug.
//   - CreatedOn: creation time of the current row.
//   - RequestedFrom: client address of the shorten request; written to the
//     usage info row, not to the mapping itself.
type URLMapping struct {
	ID            int64     `json:"-"`
	LongURL       string    `json:"long_url"`
	URLHash       int64     `json:"-"`
	CreatedOn     time.Time `json:"created_on"`
	RequestedFrom string    `json:"-"`
}

// NewMapping creates a mapping that is not stored yet.
func NewMapping(longURL string, urlHash int64, requestedFrom string) *URLMapping {
	return &URLMapping{
		LongURL:       longURL,
		URLHash:       urlHash,
		RequestedFrom: requestedFrom,
	}
}

// URLMappingInfo holds usage counters of a mapping.
type URLMappingInfo struct {
	ID                int64          `json:"-"`
	MappingsID        int64          `json:"-"`
	CreatedOn         time.Time      `json:"created_on"`
	RequestedFrom     sql.NullString `json:"-"`
	DuplicateRequests int64          `json:"duplicate_requests"`
	RedirectsServed   int64          `json:"redirects_served"`
	MarkedForDeletion sql.NullTime   `json:"-"`
}

// Link is the listing projection of a mapping.
type Link struct {
	Slug    string `json:"slug"`
	LongURL string `json:"long_url"`
}
