package smi

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"unicode/utf8"
)

// Syntax identifies the SMI base type of a variable.
type Syntax int

const (
	SyntaxNull Syntax = iota
	SyntaxInteger
	SyntaxOctetString
	SyntaxObjectIdentifier
	SyntaxIPAddress
	SyntaxCounter32
	SyntaxGauge32
	SyntaxTimeTicks
	SyntaxOpaque
	SyntaxCounter64
	SyntaxNoSuchObject
	SyntaxNoSuchInstance
	SyntaxEndOfMibView
)

var syntaxNames = map[Syntax]string{
	SyntaxNull:             "NULL",
	SyntaxInteger:          "INTEGER",
	SyntaxOctetString:      "OCTET STRING",
	SyntaxObjectIdentifier: "OBJECT IDENTIFIER",
	SyntaxIPAddress:        "IpAddress",
	SyntaxCounter32:        "Counter32",
	SyntaxGauge32:          "Gauge32",
	SyntaxTimeTicks:        "TimeTicks",
	SyntaxOpaque:           "Opaque",
	SyntaxCounter64:        "Counter64",
	SyntaxNoSuchObject:     "noSuchObject",
	SyntaxNoSuchInstance:   "noSuchInstance",
	SyntaxEndOfMibView:     "endOfMibView",
}

func (s Syntax) String() string {
	if name, ok := syntaxNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Syntax(%d)", int(s))
}

// IsException reports whether s is one of the SNMPv2 varbind exceptions.
func (s Syntax) IsException() bool {
	return s == SyntaxNoSuchObject || s == SyntaxNoSuchInstance || s == SyntaxEndOfMibView
}

// Variable is a typed SNMP value. A nil Variable means "no value".
type Variable interface {
	Syntax() Syntax
	String() string
	EqualValue(Variable) bool
}

// IsNull reports whether v carries no value (nil or an explicit NULL).
func IsNull(v Variable) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// VarBind pairs an instance OID with a value.
type VarBind struct {
	OID   OID
	Value Variable
}

func (vb VarBind) String() string {
	if vb.Value == nil {
		return vb.OID.String() + " = <nil>"
	}
	return fmt.Sprintf("%s = %s: %s", vb.OID, vb.Value.Syntax(), vb.Value)
}

type (
	Integer     int32
	OctetString []byte
	Null        struct{}
	IPAddress   [4]byte
	Counter32   uint32
	Gauge32     uint32
	TimeTicks   uint32
	Opaque      []byte
	Counter64   uint64
	// Exception is one of noSuchObject, noSuchInstance or endOfMibView.
	Exception Syntax
)

var (
	NoSuchObject   = Exception(SyntaxNoSuchObject)
	NoSuchInstance = Exception(SyntaxNoSuchInstance)
	EndOfMibView   = Exception(SyntaxEndOfMibView)
)

func (Integer) Syntax() Syntax     { return SyntaxInteger }
func (OctetString) Syntax() Syntax { return SyntaxOctetString }
func (Null) Syntax() Syntax        { return SyntaxNull }
func (IPAddress) Syntax() Syntax   { return SyntaxIPAddress }
func (Counter32) Syntax() Syntax   { return SyntaxCounter32 }
func (Gauge32) Syntax() Syntax     { return SyntaxGauge32 }
func (TimeTicks) Syntax() Syntax   { return SyntaxTimeTicks }
func (Opaque) Syntax() Syntax      { return SyntaxOpaque }
func (Counter64) Syntax() Syntax   { return SyntaxCounter64 }
func (e Exception) Syntax() Syntax { return Syntax(e) }

func (v Integer) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Counter32) String() string { return strconv.FormatUint(uint64(v), 10) }
func (v Gauge32) String() string   { return strconv.FormatUint(uint64(v), 10) }
func (v TimeTicks) String() string { return strconv.FormatUint(uint64(v), 10) }
func (v Counter64) String() string { return strconv.FormatUint(uint64(v), 10) }
func (Null) String() string        { return "NULL" }
func (v IPAddress) String() string { return net.IP(v[:]).String() }
func (v Opaque) String() string    { return hex.EncodeToString(v) }
func (e Exception) String() string { return Syntax(e).String() }

// String prints printable UTF-8 as text and anything else as hex.
func (v OctetString) String() string {
	if utf8.Valid(v) {
		printable := true
		for _, r := range string(v) {
			if r < 0x20 || r == 0x7f {
				printable = false
				break
			}
		}
		if printable {
			return string(v)
		}
	}
	return "0x" + hex.EncodeToString(v)
}

func (v Integer) EqualValue(o Variable) bool   { x, ok := o.(Integer); return ok && x == v }
func (v Counter32) EqualValue(o Variable) bool { x, ok := o.(Counter32); return ok && x == v }
func (v Gauge32) EqualValue(o Variable) bool   { x, ok := o.(Gauge32); return ok && x == v }
func (v TimeTicks) EqualValue(o Variable) bool { x, ok := o.(TimeTicks); return ok && x == v }
func (v Counter64) EqualValue(o Variable) bool { x, ok := o.(Counter64); return ok && x == v }
func (Null) EqualValue(o Variable) bool        { _, ok := o.(Null); return ok }
func (v IPAddress) EqualValue(o Variable) bool { x, ok := o.(IPAddress); return ok && x == v }
func (e Exception) EqualValue(o Variable) bool { x, ok := o.(Exception); return ok && x == e }

func (v OctetString) EqualValue(o Variable) bool {
	x, ok := o.(OctetString)
	return ok && bytes.Equal(x, v)
}

func (v Opaque) EqualValue(o Variable) bool {
	x, ok := o.(Opaque)
	return ok && bytes.Equal(x, v)
}

// EqualVariables compares two possibly nil variables.
func EqualVariables(a, b Variable) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.EqualValue(b)
}

// ParseVariable builds a variable from a net-snmp style type letter and text:
// i INTEGER, u Gauge32, c Counter32, C Counter64, t TimeTicks, a IpAddress,
// o OBJECT IDENTIFIER, s OCTET STRING, x hex OCTET STRING, n NULL.
func ParseVariable(kind, text string) (Variable, error) {
	switch kind {
	case "i":
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse INTEGER %q: %w", text, err)
		}
		return Integer(n), nil
	case "u", "c", "t":
		n, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse unsigned %q: %w", text, err)
		}
		switch kind {
		case "u":
			return Gauge32(n), nil
		case "c":
			return Counter32(n), nil
		}
		return TimeTicks(n), nil
	case "C":
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse Counter64 %q: %w", text, err)
		}
		return Counter64(n), nil
	case "a":
		ip := net.ParseIP(text).To4()
		if ip == nil {
			return nil, fmt.Errorf("parse IpAddress %q: not an IPv4 address", text)
		}
		var a IPAddress
		copy(a[:], ip)
		return a, nil
	case "o":
		return ParseOID(text)
	case "s":
		return OctetString(text), nil
	case "x":
		b, err := hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("parse hex string %q: %w", text, err)
		}
		return OctetString(b), nil
	case "n":
		return Null{}, nil
	}
	return nil, fmt.Errorf("unknown value type %q", kind)
}
