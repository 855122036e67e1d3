package configdb

import "errors"

// Domain-specific errors for config store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConnectionFailed is returned when the store cannot be reached.
	ErrConnectionFailed = errors.New("configdb: connection failed")

	// ErrNoConfig is returned when the MqttConfig row does not exist yet.
	// The bridge treats this as "not configured" and keeps waiting.
	ErrNoConfig = errors.New("configdb: no mqtt config row")
)
