package channel

import "codeberg.org/mutker/brewmon/internal/errors"

const (
	ErrInvalidFactory = errors.ErrorCode("channel_invalid_transport_factory")
)
