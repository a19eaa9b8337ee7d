// Package store persists ordered command lists.
//
// Two backends are provided:
//   - Scripts: plain-text files, one command per line (load/save)
//   - Session log: a SQLite database recording every command of every shell
//     session, plus a snapshot of the working set when the session ends
//
// # Ordering
//
//   - Sessions and commands carry seq INTEGER logical clocks, never
//     timestamps
//   - All queries ORDER BY seq ASC so replays see commands in the order they
//     were typed
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// FD content IDs and snapshot hashes come from internal/ir/hash.go.
package store
