// Package table implements conceptual rows and the ordered, index-keyed row
// collections that hold them.
//
// A Table knows nothing about SET semantics. It offers the primitives the
// two-phase request protocol builds on: lookup, insertion and removal by
// index, ordered scans with a row filter, and keyed per-row locks that
// serialize concurrent requests touching the same row.
//
// # Locking
//
// The row collection is guarded by a RWMutex. Scans hold the read lock for
// the whole enumeration, Add and Remove take the write lock. Row values have
// their own lock so that a scan never observes a torn write. Callers that
// mutate a row across several steps hold that row's key lock (LockRows) for
// the duration; key locks are always acquired before the collection lock.
package table
