// Package influxdb mirrors the bridge's running statistics into an
// InfluxDB v2 bucket.
//
// This is optional self-telemetry (disabled by default): one point per
// interval carrying the pipeline counters and the broker connection
// state. It is purely additive — operational faults remain observable
// through logs and the connection-status field in the config store, and a
// missing or failing InfluxDB never affects ingestion.
package influxdb
