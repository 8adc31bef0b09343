package request

import (
	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/table"
)

// Subrequest is one (row, column) write of a request.
type Subrequest struct {
	// ID is the 1-based position of the varbind in the request.
	ID      int
	VarBind smi.VarBind

	group    *rowGroup
	position int

	status     smi.ErrorStatus
	committed  bool
	userObject any
	undoValue  smi.Variable
}

// Value returns the value being written.
func (s *Subrequest) Value() smi.Variable { return s.VarBind.Value }

// Position returns the targeted column position.
func (s *Subrequest) Position() int { return s.position }

// Column returns the schema definition of the targeted column.
func (s *Subrequest) Column() *table.ColumnDef {
	return &s.group.table.Table.Schema().Columns[s.position]
}

// Table returns the managed table the write addresses.
func (s *Subrequest) Table() *ManagedTable { return s.group.table }

// Rows returns the mutation path of the addressed table.
func (s *Subrequest) Rows() table.Rows { return s.group.table.Rows() }

// Row returns the addressed row. For rows being created it is the new,
// possibly not yet inserted, row.
func (s *Subrequest) Row() *table.Row { return s.group.row }

// RowIndex returns the addressed row's index.
func (s *Subrequest) RowIndex() smi.OID { return s.group.index }

// NewRow reports whether the row did not exist when the request started.
func (s *Subrequest) NewRow() bool { return s.group.isNew }

// ChangeSet returns the values staged for the row by this request.
func (s *Subrequest) ChangeSet() *ChangeSet { return s.group.changes }

// SetError records the outcome of a phase. The first error sticks.
func (s *Subrequest) SetError(status smi.ErrorStatus) {
	if s.status == smi.NoError {
		s.status = status
	}
}

// Status returns the recorded error status.
func (s *Subrequest) Status() smi.ErrorStatus { return s.status }

// HasError reports whether any phase failed this subrequest.
func (s *Subrequest) HasError() bool { return s.status != smi.NoError }

// RowFailed reports whether any subrequest addressing the same row failed.
func (s *Subrequest) RowFailed() bool {
	for _, other := range s.group.subs {
		if other.HasError() {
			return true
		}
	}
	return false
}

// SetUserObject stashes per-subrequest state between phases, such as an undo
// payload. It is dropped at cleanup.
func (s *Subrequest) SetUserObject(v any) { s.userObject = v }

// UserObject returns what SetUserObject stored.
func (s *Subrequest) UserObject() any { return s.userObject }

// rowGroup collects the subrequests of one request that address one row.
type rowGroup struct {
	table   *ManagedTable
	index   smi.OID
	row     *table.Row
	isNew   bool
	added   bool
	changes *ChangeSet
	subs    []*Subrequest
}

// statusSub returns the write to the row's status column, if any.
func (g *rowGroup) statusSub() *Subrequest {
	status := g.table.Table.Schema().StatusColumn
	if status < 0 {
		return nil
	}
	for _, s := range g.subs {
		if s.position == status {
			return s
		}
	}
	return nil
}

// ordered returns the row's subrequests with the status column last.
func (g *rowGroup) ordered() []*Subrequest {
	status := g.statusSub()
	out := make([]*Subrequest, 0, len(g.subs))
	for _, s := range g.subs {
		if s != status {
			out = append(out, s)
		}
	}
	if status != nil {
		out = append(out, status)
	}
	return out
}

// creates reports whether the request asks for the row to be created.
func (g *rowGroup) creates() bool {
	s := g.statusSub()
	if s == nil {
		return false
	}
	v, ok := s.Value().(smi.Integer)
	return ok && (smi.RowStatus(v) == smi.CreateAndGo || smi.RowStatus(v) == smi.CreateAndWait)
}
