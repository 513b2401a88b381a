package models

import "time"

// URL represents a shortened URL and its associated metadata.
type URL struct {
	// ID is the sequence value the short code was derived from.
	ID int64
	// ShortCode is the base-62 code associated with the original URL.
	ShortCode string
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// Clicks tracks the number of times the short code has been resolved.
	Clicks int64
	// CreatedAt is the timestamp indicating when the record was created.
	CreatedAt time.Time
}
