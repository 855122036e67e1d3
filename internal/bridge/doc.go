// Package bridge manages the MQTT broker session for the storage bridge.
//
// This package owns:
//   - The session state machine (Disconnected, Connecting, Connected, Error)
//   - TLS and authentication setup from the stored broker configuration
//   - Subscription of the configured topic patterns on every (re)connect
//   - Mirroring of the connection status into the config store
//   - The reconciliation loop that polls the config store and drives
//     connect, retry, and live reconfiguration
//
// # Architecture
//
// The broker parameters are not process configuration: they live in a
// single-row table in the config store and can be edited at runtime. The
// reconciliation loop re-reads them on a fixed tick and rebuilds the
// session when the broker address, port, or TLS flag changes.
//
//	Config Store → Reconciliation Loop → Manager → MQTT session → handler
//
// # Known Limitation
//
// Only address, port, and the TLS flag are treated as material changes.
// Editing the topic patterns or QoS level alone does not rebuild the
// session or resubscribe; such changes take effect on the next rebuild
// triggered by a material change or broker disconnect. This matches the
// long-standing behaviour of the deployed bridge.
//
// # Concurrency
//
// Session state and the active configuration are guarded by one mutex so
// that a reconfiguration from the loop cannot race an in-flight connect or
// disconnect callback from the transport. Message handlers run on the
// transport's delivery goroutine and must not block indefinitely.
package bridge
