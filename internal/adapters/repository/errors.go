package repository

import "errors"

// Sentinel kinds for saved item errors.
var (
	ErrNotFound     = errors.New("saved item not found")
	ErrAlreadySaved = errors.New("item already saved")
	ErrInvalidItem  = errors.New("invalid saved item")
	ErrNoUser       = errors.New("user id is required")
)
