package rowstatus

import (
	"fmt"

	"github.com/roach88/snmpcore/internal/request"
	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/table"
)

// Column is the RowStatus column of one table.
type Column struct {
	table     *table.Table
	pos       int
	listeners listeners
}

// New creates the RowStatus column for t. It panics if t's schema has no
// status column; schemas are static program data.
func New(t *table.Table) *Column {
	pos := t.Schema().StatusColumn
	if pos < 0 {
		panic(fmt.Sprintf("table %s has no status column", t.Name()))
	}
	return &Column{table: t, pos: pos}
}

// Manage wraps t for SET processing with a RowStatus column installed.
func Manage(t *table.Table, opts ...request.TableOption) (*request.ManagedTable, *Column) {
	c := New(t)
	subID := t.Schema().Columns[c.pos].SubID
	opts = append([]request.TableOption{request.WithColumn(subID, c)}, opts...)
	return request.Manage(t, opts...), c
}

// Position returns the status column's position in the schema.
func (c *Column) Position() int { return c.pos }

// Filter returns the predicate selecting active rows of this table.
func (c *Column) Filter() ActiveRowsFilter { return ActiveRowsFilter{Column: c.pos} }

// AddListener subscribes l to this table's lifecycle events.
func (c *Column) AddListener(l Listener) { c.listeners.add(l) }

// RemoveListener unsubscribes l.
func (c *Column) RemoveListener(l Listener) { c.listeners.remove(l) }

// IsReady reports whether every mandatory writable column other than the
// status column has a value, taken from the row or, failing that, from the
// staged changes.
func (c *Column) IsReady(row *table.Row, changes *request.ChangeSet) bool {
	for _, pos := range c.table.Schema().RequiredColumns() {
		v := row.Value(pos)
		if smi.IsNull(v) {
			v = changes.Value(pos)
		}
		if smi.IsNull(v) {
			return false
		}
	}
	return true
}

// undoState is the per-subrequest payload kept between commit and undo.
type undoState struct {
	previous smi.Variable
	removed  *table.Row
}

func (c *Column) Prepare(sub *request.Subrequest) {
	v, ok := sub.Value().(smi.Integer)
	if !ok {
		sub.SetError(smi.WrongType)
		return
	}
	next := smi.RowStatus(v)
	if !next.Valid() {
		sub.SetError(smi.WrongValue)
		return
	}
	row := sub.Row()
	current := c.current(sub)
	if !Legal(current, next) {
		sub.SetError(smi.WrongValue)
		return
	}
	if needsReadiness(current, next) && !c.IsReady(row, sub.ChangeSet()) {
		sub.SetError(smi.InconsistentValue)
		return
	}
	ev := &Event{Table: c.table, Row: row, Old: current, New: next, ChangeSet: sub.ChangeSet()}
	if denial := c.listeners.changing(ev); denial.Failed() {
		sub.SetError(denial)
		return
	}
	sub.ChangeSet().Set(c.pos, v)
}

func (c *Column) Commit(sub *request.Subrequest) {
	if sub.RowFailed() {
		return
	}
	row := sub.Row()
	next := smi.RowStatus(sub.Value().(smi.Integer))
	current := c.current(sub)
	state := &undoState{previous: row.Value(c.pos)}
	sub.SetUserObject(state)

	stored := next
	switch next {
	case smi.Destroy:
		if sub.NewRow() {
			return // nothing existed, nothing to remove
		}
		removed, ok := sub.Rows().Remove(sub.RowIndex())
		if !ok {
			sub.SetError(smi.CommitFailed)
			return
		}
		state.removed = removed
	case smi.CreateAndWait:
		stored = smi.NotReady
		if c.IsReady(row, sub.ChangeSet()) {
			stored = smi.NotInService
		}
	case smi.CreateAndGo:
		stored = smi.Active
	}
	row.SetValue(c.pos, smi.Integer(stored))
	c.listeners.changed(&Event{Table: c.table, Row: row, Old: current, New: next, ChangeSet: sub.ChangeSet()})
}

func (c *Column) Undo(sub *request.Subrequest) {
	state, ok := sub.UserObject().(*undoState)
	if !ok {
		return
	}
	row := sub.Row()
	switch smi.RowStatus(sub.Value().(smi.Integer)) {
	case smi.Destroy:
		if state.removed == nil {
			return
		}
		if !sub.Rows().Add(state.removed) {
			sub.SetError(smi.UndoFailed)
			return
		}
		state.removed.SetValue(c.pos, state.previous)
		restored, _ := smi.RowStatusOf(state.previous)
		c.listeners.changed(&Event{Table: c.table, Row: state.removed, Old: smi.Destroy, New: restored, Undo: true})
	case smi.CreateAndGo, smi.CreateAndWait:
		removed, ok := sub.Rows().Remove(sub.RowIndex())
		if !ok {
			sub.SetError(smi.UndoFailed)
			return
		}
		c.listeners.changed(&Event{Table: c.table, Row: removed, Old: removed.Status(c.pos), New: smi.NotExistant, Undo: true})
	default:
		row.SetValue(c.pos, state.previous)
	}
}

func (c *Column) Cleanup(sub *request.Subrequest) {}

// Read implements request.Reader: reading the status promotes a notReady
// row that has since become ready to notInService.
func (c *Column) Read(row *table.Row) smi.Variable {
	if row.Value(c.pos) == nil {
		return nil
	}
	return smi.Integer(c.Promote(row))
}

// Promote re-checks readiness of a notReady row and upgrades it to
// notInService. The caller must hold the row's key lock.
func (c *Column) Promote(row *table.Row) smi.RowStatus {
	status := row.Status(c.pos)
	if status != smi.NotReady || !c.IsReady(row, nil) {
		return status
	}
	row.SetValue(c.pos, smi.Integer(smi.NotInService))
	c.listeners.changed(&Event{Table: c.table, Row: row, Old: smi.NotReady, New: smi.NotInService})
	return smi.NotInService
}

// Activate sets the status of a row that bypasses SNMP (administrative
// creation), applying the same legality and readiness rules as a SET.
// The caller must hold the row's key lock.
func (c *Column) Activate(row *table.Row, next smi.RowStatus) smi.ErrorStatus {
	return c.ActivateWith(row, next, nil)
}

// ActivateWith is Activate for a change that also inserts or removes the
// row. place runs after the listeners admitted the change and the status
// is written; when it reports false the previous status is restored, no
// StatusChanged event is sent and the result is CommitFailed.
func (c *Column) ActivateWith(row *table.Row, next smi.RowStatus, place func() bool) smi.ErrorStatus {
	current := row.Status(c.pos)
	if !next.Valid() || !Legal(current, next) {
		return smi.WrongValue
	}
	if needsReadiness(current, next) && !c.IsReady(row, nil) {
		return smi.InconsistentValue
	}
	ev := &Event{Table: c.table, Row: row, Old: current, New: next}
	if denial := c.listeners.changing(ev); denial.Failed() {
		return denial
	}
	stored := next
	switch next {
	case smi.CreateAndGo:
		stored = smi.Active
	case smi.CreateAndWait:
		stored = smi.NotReady
		if c.IsReady(row, nil) {
			stored = smi.NotInService
		}
	}
	previous := row.Value(c.pos)
	row.SetValue(c.pos, smi.Integer(stored))
	if place != nil && !place() {
		row.SetValue(c.pos, previous)
		return smi.CommitFailed
	}
	c.listeners.changed(ev)
	return smi.NoError
}

func (c *Column) current(sub *request.Subrequest) smi.RowStatus {
	if sub.NewRow() {
		return smi.NotExistant
	}
	return sub.Row().Status(c.pos)
}

// ActiveRowsFilter passes rows whose status column holds active(1).
type ActiveRowsFilter struct {
	Column int
}

// Passes implements table.RowFilter.
func (f ActiveRowsFilter) Passes(r *table.Row) bool {
	return r.Status(f.Column) == smi.Active
}
