package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCatalogEntry indicates a raw catalog entry lacks its uuid or name.
	ErrInvalidCatalogEntry = errors.New("invalid catalog entry")
)
