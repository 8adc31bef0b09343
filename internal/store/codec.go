package store

import (
	"bytes"
	"fmt"
	"math"

	ASNber "github.com/OlegPowerC/asn1modsnmp"

	"github.com/roach88/snmpcore/internal/smi"
)

// Application tags of RFC 2578 (SNMPv2-SMI).
const (
	tagIPAddress = 0
	tagCounter32 = 1
	tagGauge32   = 2
	tagTimeTicks = 3
	tagOpaque    = 4
	tagCounter64 = 6
)

// tagUnset marks a column that has never been set.
const tagUnset = 0

// encodeVariable converts v to a BER value. A nil v is encoded as an empty
// context-specific [0] element.
func encodeVariable(v smi.Variable) (ASNber.RawValue, error) {
	switch x := v.(type) {
	case nil:
		return ASNber.RawValue{Class: ASNber.ClassContextSpecific, Tag: tagUnset}, nil
	case smi.Integer:
		b, err := ASNber.Marshal(int64(x))
		if err != nil {
			return ASNber.RawValue{}, fmt.Errorf("encode integer: %w", err)
		}
		return ASNber.RawValue{FullBytes: b}, nil
	case smi.OctetString:
		return ASNber.RawValue{Class: ASNber.ClassUniversal, Tag: ASNber.TagOctetString, Bytes: bytes.Clone(x)}, nil
	case smi.Null:
		return ASNber.NullRawValue, nil
	case smi.OID:
		arcs := make(ASNber.ObjectIdentifier, len(x))
		for i, a := range x {
			arcs[i] = int(a)
		}
		b, err := ASNber.Marshal(arcs)
		if err != nil {
			return ASNber.RawValue{}, fmt.Errorf("encode oid %s: %w", x, err)
		}
		return ASNber.RawValue{FullBytes: b}, nil
	case smi.IPAddress:
		return application(tagIPAddress, x[:]), nil
	case smi.Counter32:
		return application(tagCounter32, unsigned(uint64(x))), nil
	case smi.Gauge32:
		return application(tagGauge32, unsigned(uint64(x))), nil
	case smi.TimeTicks:
		return application(tagTimeTicks, unsigned(uint64(x))), nil
	case smi.Opaque:
		return application(tagOpaque, bytes.Clone(x)), nil
	case smi.Counter64:
		return application(tagCounter64, unsigned(uint64(x))), nil
	}
	return ASNber.RawValue{}, fmt.Errorf("encode: unsupported syntax %s", v.Syntax())
}

func application(tag int, b []byte) ASNber.RawValue {
	return ASNber.RawValue{Class: ASNber.ClassApplication, Tag: tag, Bytes: b}
}

// unsigned encodes n as a minimal non-negative two's complement integer.
func unsigned(n uint64) []byte {
	var buf [9]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte(n)
		n >>= 8
		if n == 0 {
			break
		}
	}
	if buf[i]&0x80 != 0 {
		i--
		buf[i] = 0
	}
	return bytes.Clone(buf[i:])
}

func decodeUnsigned(b []byte, max uint64) (uint64, error) {
	if len(b) == 0 || len(b) > 9 || (len(b) == 9 && b[0] != 0) {
		return 0, fmt.Errorf("bad unsigned length %d", len(b))
	}
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	if n > max {
		return 0, fmt.Errorf("value %d out of range", n)
	}
	return n, nil
}

// decodeVariable is the inverse of encodeVariable.
func decodeVariable(rv ASNber.RawValue) (smi.Variable, error) {
	switch rv.Class {
	case ASNber.ClassContextSpecific:
		if rv.Tag == tagUnset {
			return nil, nil
		}
	case ASNber.ClassUniversal:
		switch rv.Tag {
		case ASNber.TagInteger:
			var n int64
			if _, err := ASNber.Unmarshal(rv.FullBytes, &n); err != nil {
				return nil, fmt.Errorf("decode integer: %w", err)
			}
			if n < math.MinInt32 || n > math.MaxInt32 {
				return nil, fmt.Errorf("decode integer: %d out of range", n)
			}
			return smi.Integer(n), nil
		case ASNber.TagOctetString:
			return smi.OctetString(bytes.Clone(rv.Bytes)), nil
		case ASNber.TagNull:
			return smi.Null{}, nil
		case ASNber.TagOID:
			var arcs ASNber.ObjectIdentifier
			if _, err := ASNber.Unmarshal(rv.FullBytes, &arcs); err != nil {
				return nil, fmt.Errorf("decode oid: %w", err)
			}
			oid := make(smi.OID, len(arcs))
			for i, a := range arcs {
				oid[i] = uint32(a)
			}
			return oid, nil
		}
	case ASNber.ClassApplication:
		switch rv.Tag {
		case tagIPAddress:
			if len(rv.Bytes) != 4 {
				return nil, fmt.Errorf("decode ip address: length %d", len(rv.Bytes))
			}
			var ip smi.IPAddress
			copy(ip[:], rv.Bytes)
			return ip, nil
		case tagOpaque:
			return smi.Opaque(bytes.Clone(rv.Bytes)), nil
		case tagCounter32, tagGauge32, tagTimeTicks:
			n, err := decodeUnsigned(rv.Bytes, 1<<32-1)
			if err != nil {
				return nil, fmt.Errorf("decode application tag %d: %w", rv.Tag, err)
			}
			switch rv.Tag {
			case tagCounter32:
				return smi.Counter32(n), nil
			case tagGauge32:
				return smi.Gauge32(n), nil
			}
			return smi.TimeTicks(n), nil
		case tagCounter64:
			n, err := decodeUnsigned(rv.Bytes, 1<<64-1)
			if err != nil {
				return nil, fmt.Errorf("decode counter64: %w", err)
			}
			return smi.Counter64(n), nil
		}
	}
	return nil, fmt.Errorf("decode: unsupported class %d tag %d", rv.Class, rv.Tag)
}

// marshalColumns encodes a row's values as a BER SEQUENCE.
func marshalColumns(values []smi.Variable) ([]byte, error) {
	raws := make([]ASNber.RawValue, len(values))
	for i, v := range values {
		rv, err := encodeVariable(v)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		raws[i] = rv
	}
	b, err := ASNber.Marshal(raws)
	if err != nil {
		return nil, fmt.Errorf("marshal columns: %w", err)
	}
	return b, nil
}

// unmarshalColumns decodes what marshalColumns produced.
func unmarshalColumns(data []byte) ([]smi.Variable, error) {
	var raws []ASNber.RawValue
	rest, err := ASNber.Unmarshal(data, &raws)
	if err != nil {
		return nil, fmt.Errorf("unmarshal columns: %w", err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unmarshal columns: %d trailing bytes", len(rest))
	}
	values := make([]smi.Variable, len(raws))
	for i, rv := range raws {
		v, err := decodeVariable(rv)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

// varBind is the BER layout of one audited varbind.
type varBind struct {
	Name  ASNber.ObjectIdentifier
	Value ASNber.RawValue
}

func marshalVarBinds(vbs []smi.VarBind) ([]byte, error) {
	out := make([]varBind, len(vbs))
	for i, vb := range vbs {
		rv, err := encodeVariable(vb.Value)
		if err != nil {
			return nil, fmt.Errorf("varbind %d: %w", i+1, err)
		}
		name := make(ASNber.ObjectIdentifier, len(vb.OID))
		for j, a := range vb.OID {
			name[j] = int(a)
		}
		out[i] = varBind{Name: name, Value: rv}
	}
	b, err := ASNber.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal varbinds: %w", err)
	}
	return b, nil
}

func unmarshalVarBinds(data []byte) ([]smi.VarBind, error) {
	var raws []varBind
	if _, err := ASNber.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("unmarshal varbinds: %w", err)
	}
	out := make([]smi.VarBind, len(raws))
	for i, r := range raws {
		v, err := decodeVariable(r.Value)
		if err != nil {
			return nil, fmt.Errorf("varbind %d: %w", i+1, err)
		}
		oid := make(smi.OID, len(r.Name))
		for j, a := range r.Name {
			oid[j] = uint32(a)
		}
		out[i] = smi.VarBind{OID: oid, Value: v}
	}
	return out, nil
}
