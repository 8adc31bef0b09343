package smi

import (
	"errors"
	"fmt"
)

// ErrIndexTruncated is returned when an index ends inside a component.
var ErrIndexTruncated = errors.New("index truncated")

// StringIndex encodes an octet string as a length-prefixed index component.
func StringIndex(s []byte) OID {
	out := make(OID, 0, len(s)+1)
	out = append(out, uint32(len(s)))
	for _, c := range s {
		out = append(out, uint32(c))
	}
	return out
}

// OIDIndex encodes an object identifier as a length-prefixed index component.
func OIDIndex(o OID) OID {
	out := make(OID, 0, len(o)+1)
	out = append(out, uint32(len(o)))
	return append(out, o...)
}

// Index concatenates index components.
func Index(parts ...OID) OID {
	var out OID
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// IndexDecoder reads index components in order. The first failure sticks
// and is reported by Err.
type IndexDecoder struct {
	rest OID
	err  error
}

// NewIndexDecoder starts decoding idx.
func NewIndexDecoder(idx OID) *IndexDecoder {
	return &IndexDecoder{rest: idx}
}

// Int reads a single-arc integer component.
func (d *IndexDecoder) Int() int {
	if d.err != nil {
		return 0
	}
	if len(d.rest) == 0 {
		d.err = ErrIndexTruncated
		return 0
	}
	v := d.rest[0]
	d.rest = d.rest[1:]
	return int(v)
}

// Octets reads a length-prefixed octet string component.
func (d *IndexDecoder) Octets() []byte {
	n := d.Int()
	if d.err != nil {
		return nil
	}
	if len(d.rest) < n {
		d.err = ErrIndexTruncated
		return nil
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		if d.rest[i] > 0xff {
			d.err = fmt.Errorf("index arc %d is not an octet", d.rest[i])
			return nil
		}
		out[i] = byte(d.rest[i])
	}
	d.rest = d.rest[n:]
	return out
}

// OID reads a length-prefixed object identifier component.
func (d *IndexDecoder) OID() OID {
	n := d.Int()
	if d.err != nil {
		return nil
	}
	if len(d.rest) < n {
		d.err = ErrIndexTruncated
		return nil
	}
	out := d.rest[:n].Copy()
	d.rest = d.rest[n:]
	return out
}

// Err returns the first decoding error, or an error when arcs are left over.
func (d *IndexDecoder) Err() error {
	if d.err != nil {
		return d.err
	}
	if len(d.rest) > 0 {
		return fmt.Errorf("index has %d trailing arcs", len(d.rest))
	}
	return nil
}
