package smi

import (
	"fmt"
	"strconv"
	"strings"
)

// SecurityModel identifies a security model (RFC 3411 SnmpSecurityModel).
type SecurityModel int

const (
	SecurityModelAny SecurityModel = 0
	SecurityModelV1  SecurityModel = 1
	SecurityModelV2c SecurityModel = 2
	SecurityModelUSM SecurityModel = 3
	SecurityModelTSM SecurityModel = 4
)

var securityModelNames = map[SecurityModel]string{
	SecurityModelAny: "any",
	SecurityModelV1:  "v1",
	SecurityModelV2c: "v2c",
	SecurityModelUSM: "usm",
	SecurityModelTSM: "tsm",
}

func (m SecurityModel) String() string {
	if name, ok := securityModelNames[m]; ok {
		return name
	}
	return fmt.Sprintf("securityModel(%d)", int(m))
}

// ParseSecurityModel accepts the names printed by String or a decimal number.
func ParseSecurityModel(s string) (SecurityModel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range securityModelNames {
		if name == s {
			return m, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return SecurityModel(n), nil
	}
	return 0, fmt.Errorf("unknown security model %q", s)
}

// SecurityLevel is the SnmpSecurityLevel textual convention; levels are
// ordered so that a larger value is a stronger level.
type SecurityLevel int

const (
	NoAuthNoPriv SecurityLevel = 1
	AuthNoPriv   SecurityLevel = 2
	AuthPriv     SecurityLevel = 3
)

func (l SecurityLevel) String() string {
	switch l {
	case NoAuthNoPriv:
		return "noAuthNoPriv"
	case AuthNoPriv:
		return "authNoPriv"
	case AuthPriv:
		return "authPriv"
	}
	return fmt.Sprintf("securityLevel(%d)", int(l))
}

// Valid reports whether l is one of the three defined levels.
func (l SecurityLevel) Valid() bool {
	return l >= NoAuthNoPriv && l <= AuthPriv
}

// ParseSecurityLevel accepts noAuthNoPriv, authNoPriv and authPriv in any case.
func ParseSecurityLevel(s string) (SecurityLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "noauthnopriv", "1":
		return NoAuthNoPriv, nil
	case "authnopriv", "2":
		return AuthNoPriv, nil
	case "authpriv", "3":
		return AuthPriv, nil
	}
	return 0, fmt.Errorf("unknown security level %q", s)
}
