package table

import (
	"slices"
	"sync"

	"github.com/roach88/snmpcore/internal/smi"
)

// Rows is the minimal row-collection contract the lifecycle code mutates
// through. *Table implements it; decorators may veto changes.
type Rows interface {
	Get(index smi.OID) (*Row, bool)
	Add(row *Row) bool
	Remove(index smi.OID) (*Row, bool)
}

// Table is an ordered set of conceptual rows sharing one schema.
type Table struct {
	name   string
	entry  smi.OID
	schema *Schema

	mu   sync.RWMutex
	rows []*Row // ascending by index

	keys keyLocks
}

// New creates an empty table. entry is the OID of the table's entry object;
// instance OIDs are entry.column.index.
func New(name string, entry smi.OID, schema *Schema) *Table {
	return &Table{
		name:   name,
		entry:  entry.Copy(),
		schema: schema,
		keys:   keyLocks{locks: make(map[string]*keyLock)},
	}
}

func (t *Table) Name() string    { return t.name }
func (t *Table) Entry() smi.OID  { return t.entry }
func (t *Table) Schema() *Schema { return t.schema }

// NewRow creates a detached row for index with column defaults applied.
func (t *Table) NewRow(index smi.OID) *Row {
	r := NewRow(index, len(t.schema.Columns))
	for i, c := range t.schema.Columns {
		if c.Default != nil {
			r.values[i] = c.Default
		}
	}
	return r
}

func (t *Table) search(index smi.OID) (int, bool) {
	return slices.BinarySearchFunc(t.rows, index, func(r *Row, idx smi.OID) int {
		return r.index.Compare(idx)
	})
}

// Get returns the row stored under index.
func (t *Table) Get(index smi.OID) (*Row, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.search(index)
	if !ok {
		return nil, false
	}
	return t.rows[i], true
}

// Add inserts row. It returns false if a row with the same index exists.
func (t *Table) Add(row *Row) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.search(row.index)
	if ok {
		return false
	}
	t.rows = slices.Insert(t.rows, i, row)
	return true
}

// Remove deletes and returns the row stored under index.
func (t *Table) Remove(index smi.OID) (*Row, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.search(index)
	if !ok {
		return nil, false
	}
	row := t.rows[i]
	t.rows = slices.Delete(t.rows, i, i+1)
	return row, true
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Scan calls fn for every row whose index starts with prefix and that passes
// filter, in ascending index order, until fn returns false. The collection
// read lock is held for the whole scan; fn must not add or remove rows.
func (t *Table) Scan(prefix smi.OID, filter RowFilter, fn func(*Row) bool) {
	if filter == nil {
		filter = All
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	start, _ := t.search(prefix)
	for _, r := range t.rows[start:] {
		if !r.index.HasPrefix(prefix) {
			return
		}
		if filter.Passes(r) && !fn(r) {
			return
		}
	}
}

// Snapshot returns the rows passing filter in index order.
func (t *Table) Snapshot(filter RowFilter) []*Row {
	var out []*Row
	t.Scan(nil, filter, func(r *Row) bool {
		out = append(out, r)
		return true
	})
	return out
}

// Next returns the first row whose index sorts strictly after index.
func (t *Table) Next(index smi.OID) (*Row, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.search(index)
	if ok {
		i++
	}
	if i >= len(t.rows) {
		return nil, false
	}
	return t.rows[i], true
}

// LockRows acquires the key locks of the given indexes, which need not
// exist yet, in ascending index order. The returned function releases them.
func (t *Table) LockRows(indexes ...smi.OID) (unlock func()) {
	sorted := slices.Clone(indexes)
	slices.SortFunc(sorted, smi.OID.Compare)
	sorted = slices.CompactFunc(sorted, smi.OID.Equal)
	held := make([]*keyLock, 0, len(sorted))
	for _, idx := range sorted {
		held = append(held, t.keys.acquire(idx.String()))
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			t.keys.release(held[i])
		}
	}
}

type keyLock struct {
	key  string
	mu   sync.Mutex
	refs int
}

// keyLocks hands out one mutex per row key and forgets it once unused.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

func (k *keyLocks) acquire(key string) *keyLock {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{key: key}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return l
}

func (k *keyLocks) release(l *keyLock) {
	l.mu.Unlock()

	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, l.key)
	}
}
