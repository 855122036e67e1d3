// Package ingest implements the per-message processing pipeline of the
// storage bridge.
//
// Each inbound MQTT message runs through:
//
//	parse JSON → deduplicate → transform → persist
//
// with three process-lifetime counters (received, written, errors) and a
// progress log line every tenth received message.
//
// # Deduplication
//
// Readings are keyed by canonical point name plus timestamp truncated to
// one-second resolution. The cache is a bounded insertion-ordered set:
// past 1000 entries the 100 oldest are evicted in one batch. This is a
// best-effort suppression window — no persistence across restarts, no
// cross-instance sharing, and delivery remains at-least-once overall.
//
// # Failure Handling
//
// A malformed payload drops that one message (counted and logged, never
// retried). A failed storage write drops the reading, counts the error,
// and triggers a storage reconnect so the next write has a chance of
// succeeding. Neither failure touches the broker session.
package ingest
