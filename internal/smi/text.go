package smi

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Unset is the text form of a column that holds no value.
const Unset = "unset"

// ParseTypedValue parses "T:text", T being a ParseVariable type letter.
// The exception names, "opaque:<hex>" and Unset are also accepted; Unset
// yields a nil Variable.
func ParseTypedValue(s string) (Variable, error) {
	s = strings.TrimSpace(s)
	switch s {
	case Unset:
		return nil, nil
	case SyntaxNoSuchObject.String():
		return NoSuchObject, nil
	case SyntaxNoSuchInstance.String():
		return NoSuchInstance, nil
	case SyntaxEndOfMibView.String():
		return EndOfMibView, nil
	}
	kind, text, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("value %q: want TYPE:VALUE", s)
	}
	if kind == "opaque" {
		b, err := hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("parse Opaque %q: %w", text, err)
		}
		return Opaque(b), nil
	}
	return ParseVariable(kind, text)
}

// ParseVarBind parses "OID=T:text".
func ParseVarBind(s string) (VarBind, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return VarBind{}, fmt.Errorf("varbind %q: want OID=TYPE:VALUE", s)
	}
	oid, err := ParseOID(name)
	if err != nil {
		return VarBind{}, err
	}
	v, err := ParseTypedValue(value)
	if err != nil {
		return VarBind{}, fmt.Errorf("varbind %s: %w", oid, err)
	}
	return VarBind{OID: oid, Value: v}, nil
}

// FormatVariable renders v in the form ParseTypedValue reads.
func FormatVariable(v Variable) string {
	switch x := v.(type) {
	case nil:
		return Unset
	case Integer:
		return "i:" + x.String()
	case Gauge32:
		return "u:" + x.String()
	case Counter32:
		return "c:" + x.String()
	case Counter64:
		return "C:" + x.String()
	case TimeTicks:
		return "t:" + x.String()
	case IPAddress:
		return "a:" + x.String()
	case OID:
		return "o:" + x.String()
	case Null:
		return "n:"
	case Opaque:
		return "opaque:" + hex.EncodeToString(x)
	case OctetString:
		if text := x.String(); !strings.HasPrefix(text, "0x") {
			return "s:" + text
		}
		return "x:" + hex.EncodeToString(x)
	case Exception:
		return x.String()
	}
	return v.String()
}

// FormatVarBind renders vb in the form ParseVarBind reads.
func FormatVarBind(vb VarBind) string {
	return vb.OID.String() + "=" + FormatVariable(vb.Value)
}
