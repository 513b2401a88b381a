package database

import "errors"

var (
	// ErrShortCodeExists is returned when an attempt is made to create
	// a url record with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when no url record matches the given
	// short code or original URL.
	ErrURLNotFound = errors.New("url not found")
	// ErrStorageUnavailable is returned when the backing store is
	// unreachable or the operation timed out.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
