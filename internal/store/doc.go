// Package store provides SQLite-backed durable storage for datoms.
//
// Layout:
//   - datoms: the current value of every (e, a), one row per asserted value
//   - timelined_transactions: the append-only log of every assertion and
//     retraction, with a timeline column (0 = main)
//   - transactions: view of the log restricted to the main timeline
//   - known_parts / parts: partition ranges; the next free id of each
//     partition is derived from the main-timeline log
//
// # Uniqueness
//
// Attributes with :db/unique carry unique_value = 1 on their rows, and a
// partial UNIQUE index on (a, value_type_tag, v) rejects a second entity
// asserting the same value. Constraint failures surface as STORE_ERROR.
//
// # Deterministic Results
//
// Every read orders its rows explicitly: datoms by (e, a, value_type_tag, v),
// log rows by (tx, e, a, value_type_tag, v, added).
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout: Wait for locks (default 5 seconds)
//   - foreign_keys=ON
//
// All writes go through a Tx so a transaction either fully commits or
// leaves no trace.
package store
