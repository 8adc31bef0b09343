package request

import (
	"github.com/roach88/snmpcore/internal/smi"
)

// ChangeSet holds the values staged for one row by one in-flight request,
// keyed by column position. It is never visible outside the request.
type ChangeSet struct {
	values map[int]smi.Variable
}

func newChangeSet() *ChangeSet {
	return &ChangeSet{values: make(map[int]smi.Variable)}
}

// Value returns the staged value for pos, or nil.
func (c *ChangeSet) Value(pos int) smi.Variable {
	if c == nil {
		return nil
	}
	return c.values[pos]
}

// Set stages v for pos.
func (c *ChangeSet) Set(pos int, v smi.Variable) {
	c.values[pos] = v
}

// Len returns the number of staged columns.
func (c *ChangeSet) Len() int {
	if c == nil {
		return 0
	}
	return len(c.values)
}
