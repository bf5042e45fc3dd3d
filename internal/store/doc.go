// Package store provides the SQLite-backed firing log.
//
// Every rule set firing the dispatcher performs is appended as one row in
// firings, and every effect invocation of an executed firing as one row in
// effects. The log is append-only.
//
// # Ordering
//
// Rows carry the dispatcher's logical seq. All reads order by
// seq ASC, id COLLATE BINARY ASC so identical runs list identically
// regardless of wall time.
//
// # Identity
//
// A firing is identified by a UUIDv7 and is unique per (chain_id, seq).
// Re-recording the same chain step is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Participants are stored as canonical JSON produced by ir.MarshalCanonical.
package store
