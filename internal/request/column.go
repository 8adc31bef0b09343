package request

import (
	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/table"
)

// Column is the capability a columnar object offers the two-phase protocol.
// Implementations report failures with Subrequest.SetError and never panic
// on bad input.
type Column interface {
	Prepare(sub *Subrequest)
	Commit(sub *Subrequest)
	Undo(sub *Subrequest)
	Cleanup(sub *Subrequest)
}

// Reader is implemented by columns whose GET path is more than a plain
// value read.
type Reader interface {
	Read(row *table.Row) smi.Variable
}

// ValueColumn is the generic mutable column: constraint validation at
// prepare, a direct write at commit and restoration of the previous value at
// undo.
type ValueColumn struct {
	Def      *table.ColumnDef
	Position int
}

func (c *ValueColumn) Prepare(sub *Subrequest) {
	if !c.Def.Access.Writable() {
		sub.SetError(smi.NotWritable)
		return
	}
	if status := c.Def.Validate(sub.Value()); status.Failed() {
		sub.SetError(status)
		return
	}
	sub.ChangeSet().Set(c.Position, sub.Value())
}

func (c *ValueColumn) Commit(sub *Subrequest) {
	sub.undoValue = sub.Row().SetValue(c.Position, sub.Value())
}

func (c *ValueColumn) Undo(sub *Subrequest) {
	sub.Row().SetValue(c.Position, sub.undoValue)
}

func (c *ValueColumn) Cleanup(sub *Subrequest) {
	sub.undoValue = nil
}
