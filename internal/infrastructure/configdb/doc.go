// Package configdb is the adapter to the external configuration store.
//
// The store is a Postgres database owned by the management UI. The bridge
// reads a single row ("MqttConfig", id = 1) holding the desired broker
// connection parameters, and writes back a connection status plus a
// last-connected timestamp as transitions happen. Status write failures
// are reported to the caller, which logs and swallows them — the store
// being briefly unreachable must never affect the broker session.
//
// The bridge does not own the schema; the table is created and migrated
// by the management application.
package configdb
