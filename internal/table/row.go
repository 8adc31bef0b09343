package table

import (
	"sync"

	"github.com/roach88/snmpcore/internal/smi"
)

// Row is a conceptual row: an index and a positional list of column values.
// A nil value means the column has never been set.
type Row struct {
	index smi.OID

	mu     sync.RWMutex
	values []smi.Variable
}

// NewRow creates a detached row with n empty columns.
func NewRow(index smi.OID, n int) *Row {
	return &Row{index: index.Copy(), values: make([]smi.Variable, n)}
}

// Index returns the row's instance index.
func (r *Row) Index() smi.OID { return r.index }

// Value returns the value at column position pos.
func (r *Row) Value(pos int) smi.Variable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if pos < 0 || pos >= len(r.values) {
		return nil
	}
	return r.values[pos]
}

// SetValue stores v at column position pos and returns the previous value.
func (r *Row) SetValue(pos int, v smi.Variable) smi.Variable {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.values[pos]
	r.values[pos] = v
	return old
}

// Values returns a copy of all column values.
func (r *Row) Values() []smi.Variable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]smi.Variable, len(r.values))
	copy(out, r.values)
	return out
}

// Status reads the RowStatus held at pos; a missing value reads as NotExistant.
func (r *Row) Status(pos int) smi.RowStatus {
	s, _ := smi.RowStatusOf(r.Value(pos))
	return s
}

// RowFilter selects rows during scans.
type RowFilter interface {
	Passes(r *Row) bool
}

// RowFilterFunc adapts a function to RowFilter.
type RowFilterFunc func(r *Row) bool

func (f RowFilterFunc) Passes(r *Row) bool { return f(r) }

// All is the filter that passes every row.
var All RowFilter = RowFilterFunc(func(*Row) bool { return true })
