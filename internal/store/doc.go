// Package store provides SQLite-backed persistence for snmpcore.
//
// Two kinds of records are kept:
//   - mib_rows: the committed state of every row of a persistent table,
//     keyed by (context, table, index)
//   - set_requests: an audit log of SET requests and their outcome
//
// Column values and varbinds are stored BER-encoded, so a stored row keeps
// the exact SMI syntax of each value.
//
// # Ordering
//
// Records carry the seq of the request that produced them (the
// coordinator's logical clock). Queries order by seq, never by wall time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Store implements request.Journal: Apply writes the changes of one
// committed request in a single transaction.
package store
