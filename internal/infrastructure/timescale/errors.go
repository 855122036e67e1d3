package timescale

import "errors"

// Domain-specific errors for storage sink operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConnectionFailed is returned when TimescaleDB cannot be reached.
	ErrConnectionFailed = errors.New("timescale: connection failed")

	// ErrNotConnected is returned when a write is attempted while the
	// client has no usable pool (mid-reconnect).
	ErrNotConnected = errors.New("timescale: not connected")

	// ErrWriteFailed is returned when an insert fails or times out.
	ErrWriteFailed = errors.New("timescale: write failed")
)
