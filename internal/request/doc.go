// Package request implements the two-phase SET protocol that gives one
// incoming multi-varbind request all-or-nothing semantics.
//
// A Request is decomposed into one Subrequest per (row, column) write.
// The Coordinator drives the phases strictly in order across the whole
// request:
//
//  1. Prepare every subrequest. Values are validated in isolation and staged
//     in the per-row ChangeSet; no table is mutated.
//  2. Commit every subrequest, only if all prepared cleanly.
//  3. Undo every committed subrequest, in reverse order, if any commit (or
//     the post-commit Journal) failed.
//  4. Cleanup every subrequest regardless of outcome.
//
// Columns take part through the Column interface. ValueColumn covers plain
// read-write columns; lifecycle-governed columns (RowStatus) live in their
// own package and plug in the same way.
//
// Validation failures are expected outcomes and are carried as
// smi.ErrorStatus on the subrequest. CommitFailed and UndoFailed mean table
// state diverged from what prepare observed; they are logged at error level
// and, in strict mode, panic.
package request
