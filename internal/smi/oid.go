package smi

import (
	"fmt"
	"strconv"
	"strings"
)

// OID is an object identifier: a sequence of non-negative arcs.
type OID []uint32

// ParseOID parses the dotted decimal form ("1.3.6.1.2.1" or ".1.3.6.1").
// The empty string yields the zero-length OID.
func ParseOID(s string) (OID, error) {
	s = strings.Trim(strings.TrimSpace(s), ".")
	if s == "" {
		return OID{}, nil
	}
	parts := strings.Split(s, ".")
	oid := make(OID, len(parts))
	for i, p := range parts {
		arc, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse oid %q: arc %d: %w", s, i, err)
		}
		oid[i] = uint32(arc)
	}
	return oid, nil
}

// MustParseOID is ParseOID for constants; it panics on malformed input.
func MustParseOID(s string) OID {
	oid, err := ParseOID(s)
	if err != nil {
		panic(err)
	}
	return oid
}

// String returns the dotted decimal form.
func (o OID) String() string {
	var b strings.Builder
	for i, arc := range o {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(uint64(arc), 10))
	}
	return b.String()
}

// Compare orders OIDs lexicographically arc by arc; a proper prefix sorts
// before its extensions. It returns -1, 0 or +1.
func (o OID) Compare(other OID) int {
	n := min(len(o), len(other))
	for i := 0; i < n; i++ {
		switch {
		case o[i] < other[i]:
			return -1
		case o[i] > other[i]:
			return 1
		}
	}
	switch {
	case len(o) < len(other):
		return -1
	case len(o) > len(other):
		return 1
	}
	return 0
}

// Equal reports whether both OIDs have the same arcs.
func (o OID) Equal(other OID) bool {
	return o.Compare(other) == 0
}

// HasPrefix reports whether prefix is a (not necessarily proper) prefix of o.
func (o OID) HasPrefix(prefix OID) bool {
	if len(o) < len(prefix) {
		return false
	}
	for i, arc := range prefix {
		if o[i] != arc {
			return false
		}
	}
	return true
}

// Append returns a new OID with arcs appended; o is never modified.
func (o OID) Append(arcs ...uint32) OID {
	out := make(OID, 0, len(o)+len(arcs))
	out = append(out, o...)
	return append(out, arcs...)
}

// Copy returns an independent copy of o.
func (o OID) Copy() OID {
	if o == nil {
		return nil
	}
	out := make(OID, len(o))
	copy(out, o)
	return out
}

// Syntax implements Variable so an OID can be used as an OBJECT IDENTIFIER value.
func (o OID) Syntax() Syntax { return SyntaxObjectIdentifier }

// EqualValue implements Variable.
func (o OID) EqualValue(v Variable) bool {
	other, ok := v.(OID)
	return ok && o.Equal(other)
}
