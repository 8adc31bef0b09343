package vacm

import (
	"fmt"
	"strings"

	"github.com/roach88/snmpcore/internal/smi"
)

// Verdict is the outcome of an access query. Negative verdicts are ordinary
// results, not errors.
type Verdict int

const (
	Ok Verdict = iota
	NoSuchContext
	NoGroupName
	NoAccessEntry
	NoSuchView
	NotInView
)

var verdictNames = [...]string{
	Ok:            "ok",
	NoSuchContext: "noSuchContext",
	NoGroupName:   "noGroupName",
	NoAccessEntry: "noAccessEntry",
	NoSuchView:    "noSuchView",
	NotInView:     "notInView",
}

func (v Verdict) String() string {
	if v >= 0 && int(v) < len(verdictNames) {
		return verdictNames[v]
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// ViewType selects which view of an access entry applies.
type ViewType int

const (
	Read ViewType = iota
	Write
	Notify
)

func (t ViewType) String() string {
	switch t {
	case Read:
		return "read"
	case Write:
		return "write"
	case Notify:
		return "notify"
	}
	return fmt.Sprintf("viewType(%d)", int(t))
}

// ParseViewType accepts read, write and notify.
func ParseViewType(s string) (ViewType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read":
		return Read, nil
	case "write":
		return Write, nil
	case "notify":
		return Notify, nil
	}
	return 0, fmt.Errorf("unknown view type %q", s)
}

// MatchType is vacmAccessContextMatch.
type MatchType int

const (
	Exact  MatchType = 1
	Prefix MatchType = 2
)

func (m MatchType) String() string {
	switch m {
	case Exact:
		return "exact"
	case Prefix:
		return "prefix"
	}
	return fmt.Sprintf("match(%d)", int(m))
}

// ParseMatchType accepts exact and prefix.
func ParseMatchType(s string) (MatchType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return Exact, nil
	case "prefix":
		return Prefix, nil
	}
	return 0, fmt.Errorf("unknown context match %q", s)
}

// Kind is vacmViewTreeFamilyType.
type Kind int

const (
	Included Kind = 1
	Excluded Kind = 2
)

func (k Kind) String() string {
	switch k {
	case Included:
		return "included"
	case Excluded:
		return "excluded"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts included and excluded.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "included":
		return Included, nil
	case "excluded":
		return Excluded, nil
	}
	return 0, fmt.Errorf("unknown view family type %q", s)
}

// GroupMapping is a row of vacmSecurityToGroupTable.
type GroupMapping struct {
	Model        smi.SecurityModel
	SecurityName string
	Group        string
	Storage      smi.StorageType
	Status       smi.RowStatus
}

// AccessEntry is a row of vacmAccessTable.
type AccessEntry struct {
	Group         string
	ContextPrefix string
	Model         smi.SecurityModel
	Level         smi.SecurityLevel

	Match      MatchType
	ReadView   string
	WriteView  string
	NotifyView string
	Storage    smi.StorageType
	Status     smi.RowStatus
}

// View returns the view name the entry grants for t; empty means no access.
func (e AccessEntry) View(t ViewType) string {
	switch t {
	case Read:
		return e.ReadView
	case Write:
		return e.WriteView
	case Notify:
		return e.NotifyView
	}
	return ""
}

// names reports whether any of the entry's views is view.
func (e AccessEntry) names(view string) bool {
	return e.ReadView == view || e.WriteView == view || e.NotifyView == view
}

// ViewTreeFamily is a row of vacmViewTreeFamilyTable.
type ViewTreeFamily struct {
	View    string
	Subtree smi.OID
	Mask    []byte
	Kind    Kind
	Storage smi.StorageType
	Status  smi.RowStatus
}
