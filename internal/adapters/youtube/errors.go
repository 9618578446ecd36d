package youtube

import "errors"

// Sentinel errors. Pipeline callers never see them; the passthrough endpoints do.
var (
	ErrNoAPIKey       = errors.New("youtube api key is not configured")
	ErrUpstreamStatus = errors.New("unexpected upstream status")
	ErrNoTranscript   = errors.New("no transcript available")
	ErrBadDuration    = errors.New("malformed video duration")
)
