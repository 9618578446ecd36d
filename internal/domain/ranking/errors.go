package ranking

import "errors"

// ErrInvalidDeck is returned when the deck violates the selection invariant.
var ErrInvalidDeck = errors.New("invalid deck")
