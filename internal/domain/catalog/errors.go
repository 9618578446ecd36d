package catalog

import "errors"

// Sentinel errors for catalog lookups.
var (
	ErrUnknownCard  = errors.New("unknown card")
	ErrNoSource     = errors.New("catalog source is nil")
	ErrEmptyCatalog = errors.New("catalog source returned no cards")
)
