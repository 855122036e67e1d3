// Package timescale is the adapter to the TimescaleDB storage sink.
//
// One row is inserted into the sensor_readings hypertable per normalized
// reading, bounded by a write timeout so a stalled database can never
// stall message delivery indefinitely. There is no batching and no retry
// of a failed row: on a write fault the caller triggers Reconnect, which
// tears down and redials the pool so the next write has a chance of
// succeeding, and the failed reading is lost. Delivery is best-effort
// at-least-once end to end; the dedup window upstream keeps replays out.
package timescale
