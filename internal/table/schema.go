package table

import (
	"fmt"

	"github.com/roach88/snmpcore/internal/smi"
)

// Access is the MAX-ACCESS of a column.
type Access int

const (
	NotAccessible Access = iota
	ReadOnly
	ReadWrite
	ReadCreate
)

// Writable reports whether a SET may target the column.
func (a Access) Writable() bool {
	return a == ReadWrite || a == ReadCreate
}

// Range is an inclusive integer range constraint.
type Range struct {
	Min, Max int64
}

// ColumnDef describes one columnar object of a table entry.
type ColumnDef struct {
	SubID  uint32
	Name   string
	Syntax smi.Syntax
	Access Access

	// Mandatory columns have no default and must hold a value before the
	// row may become active.
	Mandatory bool
	Default   smi.Variable

	// Size constraint for OCTET STRING columns; MaxLen 0 means unbounded.
	MinLen, MaxLen int

	Range *Range
	Enum  []int64
}

// Validate checks v against the column's syntax and constraints in isolation
// and returns the error status a SET of v would fail with.
func (c *ColumnDef) Validate(v smi.Variable) smi.ErrorStatus {
	if v == nil || v.Syntax() != c.Syntax {
		return smi.WrongType
	}
	switch x := v.(type) {
	case smi.OctetString:
		if len(x) < c.MinLen || (c.MaxLen > 0 && len(x) > c.MaxLen) {
			return smi.WrongLength
		}
	case smi.OID:
		if len(x) > 128 {
			return smi.WrongLength
		}
	case smi.Integer:
		if !c.allows(int64(x)) {
			return smi.WrongValue
		}
	case smi.Gauge32:
		if !c.allows(int64(x)) {
			return smi.WrongValue
		}
	}
	return smi.NoError
}

func (c *ColumnDef) allows(n int64) bool {
	if c.Range != nil && (n < c.Range.Min || n > c.Range.Max) {
		return false
	}
	if len(c.Enum) == 0 {
		return true
	}
	for _, e := range c.Enum {
		if e == n {
			return true
		}
	}
	return false
}

// Schema is the fixed, positional column layout of a table.
type Schema struct {
	Columns []ColumnDef

	// StatusColumn is the position of the RowStatus column, or -1.
	StatusColumn int

	bySubID map[uint32]int
}

// NewSchema builds a schema. status is the sub-identifier of the RowStatus
// column, or 0 when the table has none.
func NewSchema(status uint32, columns ...ColumnDef) (*Schema, error) {
	s := &Schema{
		Columns:      columns,
		StatusColumn: -1,
		bySubID:      make(map[uint32]int, len(columns)),
	}
	for i, c := range columns {
		if c.SubID == 0 {
			return nil, fmt.Errorf("column %q: sub-identifier 0 is reserved", c.Name)
		}
		if _, dup := s.bySubID[c.SubID]; dup {
			return nil, fmt.Errorf("column %q: duplicate sub-identifier %d", c.Name, c.SubID)
		}
		s.bySubID[c.SubID] = i
		if c.SubID == status {
			s.StatusColumn = i
		}
	}
	if status != 0 && s.StatusColumn < 0 {
		return nil, fmt.Errorf("status column %d not in schema", status)
	}
	return s, nil
}

// MustSchema is NewSchema for package-level table definitions.
func MustSchema(status uint32, columns ...ColumnDef) *Schema {
	s, err := NewSchema(status, columns...)
	if err != nil {
		panic(err)
	}
	return s
}

// Position maps a column sub-identifier to its position.
func (s *Schema) Position(subID uint32) (int, bool) {
	i, ok := s.bySubID[subID]
	return i, ok
}

// HasStatus reports whether rows of this schema are lifecycle-managed.
func (s *Schema) HasStatus() bool { return s.StatusColumn >= 0 }

// RequiredColumns lists the positions of the mandatory writable columns other
// than the status column. These decide readiness.
func (s *Schema) RequiredColumns() []int {
	var out []int
	for i, c := range s.Columns {
		if i == s.StatusColumn || !c.Mandatory || !c.Access.Writable() {
			continue
		}
		out = append(out, i)
	}
	return out
}
