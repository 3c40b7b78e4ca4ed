// Package registry provides SQLite-backed storage for the installed-app
// set and the lifecycle operations log.
//
// The registry replaces the older JSON-file-plus-lock-file state with a
// single embedded database:
//   - Apps: one row per installed app (the installed set)
//   - Operations: an append-only audit log of lifecycle actions
//
// Every installed-set mutation and its operation record commit in one
// transaction, so concurrent installs and uninstalls serialize on the
// database instead of a busy-polled lock file, and a crash never leaves
// the set and the log disagreeing.
//
// Operation IDs are UUIDv7, so ordering the log by id matches ordering by
// time. Queries that list rows always order by the primary key for stable
// output.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package registry
