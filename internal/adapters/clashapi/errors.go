package clashapi

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidTag     = errors.New("invalid player tag")
	ErrUpstreamStatus = errors.New("unexpected upstream status")
	ErrNoCards        = errors.New("no card source returned cards")
	ErrInvalidQuery   = errors.New("invalid feed query")
	ErrFeedDisabled   = errors.New("deck feeds are disabled")
)

var errNotFound = fmt.Errorf("%w: 404", ErrUpstreamStatus)
