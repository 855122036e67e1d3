package bridge

import "errors"

// Domain-specific errors for session operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConnectTimeout is returned when the broker does not answer the
	// connect request within the connect timeout.
	ErrConnectTimeout = errors.New("bridge: connect timed out")

	// ErrSubscribeFailed is returned when a subscription request fails
	// or times out after a successful connect.
	ErrSubscribeFailed = errors.New("bridge: subscribe failed")
)
