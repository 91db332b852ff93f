package diag

import "errors"

var (
	// ErrInvalidInput means validation failed; nothing was executed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrToolUnavailable means the required external binary is missing.
	ErrToolUnavailable = errors.New("diagnostic tool unavailable")
	// ErrTooManyRequests means the system-wide concurrency cap was hit.
	ErrTooManyRequests = errors.New("too many concurrent diagnostics")
	// ErrTimeout means the tool exceeded its wall-clock bound and the
	// process group was killed.
	ErrTimeout = errors.New("diagnostic timed out")

	errUnknownTool = errors.New("unknown diagnostic tool")
)
