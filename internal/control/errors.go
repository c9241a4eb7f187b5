package control

import "codeberg.org/mutker/brewmon/internal/errors"

const (
	// ErrRateLimited marks an HTTP 429 response: the controller wants
	// the caller to retry later. Distinct from generic failure so
	// callers can back off differently.
	ErrRateLimited = errors.ErrorCode("control_rate_limited")

	// ErrRequestFailed marks any other non-2xx response; the status
	// text rides along as data.
	ErrRequestFailed = errors.ErrorCode("control_request_failed")

	ErrBuildRequest = errors.ErrorCode("control_build_request_failed")
	ErrSendRequest  = errors.ErrorCode("control_send_request_failed")
)
