package smi

import (
	"fmt"
	"strings"
)

// RowStatus is the RFC 2579 RowStatus textual convention.
// NotExistant is never stored; it stands for "no row".
type RowStatus int

const (
	NotExistant   RowStatus = 0
	Active        RowStatus = 1
	NotInService  RowStatus = 2
	NotReady      RowStatus = 3
	CreateAndGo   RowStatus = 4
	CreateAndWait RowStatus = 5
	Destroy       RowStatus = 6
)

var rowStatusNames = [...]string{
	NotExistant:   "notExistant",
	Active:        "active",
	NotInService:  "notInService",
	NotReady:      "notReady",
	CreateAndGo:   "createAndGo",
	CreateAndWait: "createAndWait",
	Destroy:       "destroy",
}

func (s RowStatus) String() string {
	if s >= 0 && int(s) < len(rowStatusNames) {
		return rowStatusNames[s]
	}
	return fmt.Sprintf("rowStatus(%d)", int(s))
}

// Valid reports whether s may be written by a manager (1..6).
func (s RowStatus) Valid() bool {
	return s >= Active && s <= Destroy
}

// ParseRowStatus accepts the RFC 2579 names or their numbers.
func ParseRowStatus(text string) (RowStatus, error) {
	for i, name := range rowStatusNames {
		if strings.EqualFold(name, text) || fmt.Sprint(i) == text {
			return RowStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown row status %q", text)
}

// RowStatusOf reads a RowStatus from a stored column value; nil reads as
// NotExistant.
func RowStatusOf(v Variable) (RowStatus, bool) {
	if v == nil {
		return NotExistant, true
	}
	i, ok := v.(Integer)
	if !ok {
		return NotExistant, false
	}
	return RowStatus(i), true
}

// StorageType is the RFC 2579 StorageType textual convention.
type StorageType int

const (
	StorageOther       StorageType = 1
	StorageVolatile    StorageType = 2
	StorageNonVolatile StorageType = 3
	StoragePermanent   StorageType = 4
	StorageReadOnly    StorageType = 5
)

func (t StorageType) String() string {
	switch t {
	case StorageOther:
		return "other"
	case StorageVolatile:
		return "volatile"
	case StorageNonVolatile:
		return "nonVolatile"
	case StoragePermanent:
		return "permanent"
	case StorageReadOnly:
		return "readOnly"
	}
	return fmt.Sprintf("storageType(%d)", int(t))
}

// Persistent reports whether rows of this storage type survive a restart.
func (t StorageType) Persistent() bool {
	return t >= StorageNonVolatile
}

// ParseStorageType accepts the RFC 2579 names.
func ParseStorageType(text string) (StorageType, error) {
	for t := StorageOther; t <= StorageReadOnly; t++ {
		if strings.EqualFold(t.String(), text) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown storage type %q", text)
}
