// Package rowstatus implements the RFC 2579 RowStatus lifecycle as a
// request.Column.
//
// The column enforces the fixed transition adjacency, the readiness rule for
// activation, and dispatches lifecycle events to an explicit subscriber list:
// a deniable StatusChanging before a transition is accepted at prepare, and a
// non-deniable StatusChanged after commit, after compensating undo steps and
// after the lazy notReady→notInService promotion performed on reads.
package rowstatus
