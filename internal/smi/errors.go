package smi

import "fmt"

// ErrorStatus is a PDU error-status value (RFC 3416 §3).
// Per-varbind validation outcomes travel as ErrorStatus, not as Go errors.
type ErrorStatus int

const (
	NoError             ErrorStatus = 0
	TooBig              ErrorStatus = 1
	NoSuchName          ErrorStatus = 2
	BadValue            ErrorStatus = 3
	ReadOnly            ErrorStatus = 4
	GenErr              ErrorStatus = 5
	NoAccess            ErrorStatus = 6
	WrongType           ErrorStatus = 7
	WrongLength         ErrorStatus = 8
	WrongEncoding       ErrorStatus = 9
	WrongValue          ErrorStatus = 10
	NoCreation          ErrorStatus = 11
	InconsistentValue   ErrorStatus = 12
	ResourceUnavailable ErrorStatus = 13
	CommitFailed        ErrorStatus = 14
	UndoFailed          ErrorStatus = 15
	AuthorizationError  ErrorStatus = 16
	NotWritable         ErrorStatus = 17
	InconsistentName    ErrorStatus = 18
)

var errorStatusNames = [...]string{
	NoError:             "noError",
	TooBig:              "tooBig",
	NoSuchName:          "noSuchName",
	BadValue:            "badValue",
	ReadOnly:            "readOnly",
	GenErr:              "genErr",
	NoAccess:            "noAccess",
	WrongType:           "wrongType",
	WrongLength:         "wrongLength",
	WrongEncoding:       "wrongEncoding",
	WrongValue:          "wrongValue",
	NoCreation:          "noCreation",
	InconsistentValue:   "inconsistentValue",
	ResourceUnavailable: "resourceUnavailable",
	CommitFailed:        "commitFailed",
	UndoFailed:          "undoFailed",
	AuthorizationError:  "authorizationError",
	NotWritable:         "notWritable",
	InconsistentName:    "inconsistentName",
}

func (e ErrorStatus) String() string {
	if e >= 0 && int(e) < len(errorStatusNames) {
		return errorStatusNames[e]
	}
	return fmt.Sprintf("errorStatus(%d)", int(e))
}

// Failed reports whether e is anything other than NoError.
func (e ErrorStatus) Failed() bool { return e != NoError }

// Structural reports whether e signals that table state diverged between
// phases (commitFailed, undoFailed) rather than bad input.
func (e ErrorStatus) Structural() bool {
	return e == CommitFailed || e == UndoFailed
}
