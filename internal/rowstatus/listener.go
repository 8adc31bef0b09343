package rowstatus

import (
	"slices"
	"sync"

	"github.com/roach88/snmpcore/internal/request"
	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/table"
)

// Event describes a row status transition.
type Event struct {
	Table *table.Table
	Row   *table.Row
	Old   smi.RowStatus
	New   smi.RowStatus

	// ChangeSet is the requesting SET's staged values; nil for transitions
	// not caused by a SET (promotion on read).
	ChangeSet *request.ChangeSet

	// Undo marks compensating events: a destroyed row re-inserted or a
	// created row removed.
	Undo bool
}

// Listener observes row lifecycle transitions.
type Listener interface {
	// StatusChanging is called at prepare. A result other than NoError
	// vetoes the transition and becomes the subrequest's error.
	StatusChanging(ev *Event) smi.ErrorStatus
	// StatusChanged is called after the transition took effect.
	StatusChanged(ev *Event)
}

// ListenerFuncs adapts plain functions to Listener; nil fields are no-ops.
type ListenerFuncs struct {
	Changing func(ev *Event) smi.ErrorStatus
	Changed  func(ev *Event)
}

func (l *ListenerFuncs) StatusChanging(ev *Event) smi.ErrorStatus {
	if l.Changing == nil {
		return smi.NoError
	}
	return l.Changing(ev)
}

func (l *ListenerFuncs) StatusChanged(ev *Event) {
	if l.Changed != nil {
		l.Changed(ev)
	}
}

type listeners struct {
	mu   sync.RWMutex
	list []Listener
}

func (ls *listeners) add(l Listener) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.list = append(ls.list, l)
}

func (ls *listeners) remove(l Listener) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.list = slices.DeleteFunc(ls.list, func(x Listener) bool { return x == l })
}

func (ls *listeners) snapshot() []Listener {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return slices.Clone(ls.list)
}

// changing stops at the first veto.
func (ls *listeners) changing(ev *Event) smi.ErrorStatus {
	for _, l := range ls.snapshot() {
		if denial := l.StatusChanging(ev); denial.Failed() {
			return denial
		}
	}
	return smi.NoError
}

func (ls *listeners) changed(ev *Event) {
	for _, l := range ls.snapshot() {
		l.StatusChanged(ev)
	}
}
