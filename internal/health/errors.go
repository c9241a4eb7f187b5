package health

import "codeberg.org/mutker/brewmon/internal/errors"

const (
	ErrDecodeFailed   = errors.ErrorCode("health_decode_failed")
	ErrInvalidFactory = errors.ErrorCode("health_invalid_transport_factory")
)
