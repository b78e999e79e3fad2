// Package store provides the key-value storage port used by the access gate
// and its concrete backends.
//
// # Backends
//
//   - [Memory]: process-local map, used by tests and single-user CLI runs.
//   - [Redis]: shared store for the HTTP service; keys carry a fixed prefix.
//   - [SQLite]: durable single-host store backed by one table.
//
// Values are opaque strings. Callers encode integers as decimal text and
// flags as the literal "true", matching the browser local-storage layout.
//
// # What this package must NOT do
//
//   - Interpret values or apply gate policy.
//   - Import goGate or any internal package.
package store
