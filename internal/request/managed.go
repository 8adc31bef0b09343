package request

import (
	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/table"
)

// ManagedTable binds a table to the columns that handle SETs on it.
type ManagedTable struct {
	Table *table.Table

	rows       table.Rows
	columns    []Column
	persistent bool
	validIndex func(index smi.OID) error
}

// TableOption configures a ManagedTable.
type TableOption func(*ManagedTable)

// WithRows routes row insertions and removals through r instead of the
// table itself, for example to let a storage layer veto them.
func WithRows(r table.Rows) TableOption {
	return func(m *ManagedTable) {
		m.rows = r
	}
}

// WithColumn installs c as the handler for the column with sub-identifier subID.
func WithColumn(subID uint32, c Column) TableOption {
	return func(m *ManagedTable) {
		if pos, ok := m.Table.Schema().Position(subID); ok {
			m.columns[pos] = c
		}
	}
}

// WithIndexValidator rejects the creation of rows whose index does not
// decode, with NoCreation.
func WithIndexValidator(fn func(index smi.OID) error) TableOption {
	return func(m *ManagedTable) {
		m.validIndex = fn
	}
}

// Persistent marks the table's rows for the post-commit Journal.
func Persistent() TableOption {
	return func(m *ManagedTable) {
		m.persistent = true
	}
}

// Manage wraps t. Columns without an explicit handler get a ValueColumn.
func Manage(t *table.Table, opts ...TableOption) *ManagedTable {
	schema := t.Schema()
	m := &ManagedTable{
		Table:   t,
		rows:    t,
		columns: make([]Column, len(schema.Columns)),
	}
	for _, opt := range opts {
		opt(m)
	}
	for i := range m.columns {
		if m.columns[i] == nil {
			m.columns[i] = &ValueColumn{Def: &schema.Columns[i], Position: i}
		}
	}
	return m
}

// Name returns the table name.
func (m *ManagedTable) Name() string { return m.Table.Name() }

// Rows returns the mutation path for rows.
func (m *ManagedTable) Rows() table.Rows { return m.rows }

// Column returns the handler at position pos.
func (m *ManagedTable) Column(pos int) Column { return m.columns[pos] }

// IsPersistent reports whether committed rows go to the Journal.
func (m *ManagedTable) IsPersistent() bool { return m.persistent }

// ValidIndex checks index against the table's validator, if any.
func (m *ManagedTable) ValidIndex(index smi.OID) error {
	if m.validIndex == nil {
		return nil
	}
	return m.validIndex(index)
}
