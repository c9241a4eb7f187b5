package status

import "codeberg.org/mutker/brewmon/internal/errors"

const (
	// Decoding errors
	ErrDecodeFailed     = errors.ErrorCode("status_decode_failed")
	ErrInvalidState     = errors.ErrorCode("status_invalid_brew_state")
	ErrInvalidMetric    = errors.ErrorCode("status_invalid_metric")
	ErrInvalidTimestamp = errors.ErrorCode("status_invalid_timestamp")
)
