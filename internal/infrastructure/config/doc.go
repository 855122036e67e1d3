// Package config provides configuration loading for the storage bridge.
//
// Process-level configuration (database endpoints, loop intervals, logging)
// is loaded once at startup from an optional YAML file with environment
// variable overrides. It is distinct from the MQTT broker configuration,
// which lives in the config store and is re-read at runtime by the
// reconciliation loop — broker settings can change without a restart,
// process settings cannot.
//
// # Loading Order
//
//  1. Hardcoded defaults
//  2. YAML file (path from BRIDGE_CONFIG, default configs/bridge.yaml)
//  3. Environment variables (TIMESCALE_*, CONFIG_DB_*, BRIDGE_*)
//
// A missing YAML file is not an error; container deployments typically
// configure the bridge through the environment alone.
package config
