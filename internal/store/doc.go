// Package store provides SQLite-backed persistent storage for
// configuration metadata, so a large configuration is imported once and
// then served to the type checker without reparsing CUE sources.
//
// # Layout
//
//   - objects: one row per catalog, document or register, keyed by kind
//     and folded name, with a content fingerprint
//   - sections: tabular sections in declaration order
//   - attributes: attributes, dimensions, resources and section
//     attributes in declaration order
//   - imports: one row per import run, identified by a UUIDv7
//
// # Deterministic Query Results
//
// Every multi-row read orders by a declared position or by name with
// COLLATE BINARY, so identical databases list identical results.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
