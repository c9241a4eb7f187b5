package transport

import "codeberg.org/mutker/brewmon/internal/errors"

const (
	// Connection errors
	ErrDialFailed       = errors.ErrorCode("transport_dial_failed")
	ErrUnexpectedStatus = errors.ErrorCode("transport_unexpected_status")
	ErrAlreadyConnected = errors.ErrorCode("transport_already_connected")

	// Endpoint errors
	ErrInvalidBaseURL = errors.ErrorCode("transport_invalid_base_url")
)
