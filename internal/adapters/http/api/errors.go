package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrServe           = errors.New("api serve failed")
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("missing user identity")
	ErrNotFound        = errors.New("not found")
	ErrUpstream        = errors.New("upstream service failed")
	ErrStorageDisabled = errors.New("saved items storage is disabled")
)
