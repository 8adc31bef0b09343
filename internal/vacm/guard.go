package vacm

import (
	"github.com/roach88/snmpcore/internal/rowstatus"
	"github.com/roach88/snmpcore/internal/smi"
)

// ReferenceGuard keeps views that Active access entries name from losing
// their last Active family: deactivating or destroying that family fails
// with InconsistentValue.
type ReferenceGuard struct {
	store *Store
}

// NewReferenceGuard creates a guard over store. NewStore installs one when
// given WithReferenceGuard.
func NewReferenceGuard(store *Store) *ReferenceGuard {
	return &ReferenceGuard{store: store}
}

func (g *ReferenceGuard) StatusChanging(ev *rowstatus.Event) smi.ErrorStatus {
	if ev.Old != smi.Active || ev.New == smi.Active {
		return smi.NoError
	}
	family, err := decodeViewIndex(ev.Row.Index())
	if err != nil {
		return smi.NoError
	}
	for _, f := range g.store.ActiveFamilies(family.View) {
		if !f.Subtree.Equal(family.Subtree) {
			return smi.NoError
		}
	}
	if g.referenced(family.View) {
		return smi.InconsistentValue
	}
	return smi.NoError
}

func (g *ReferenceGuard) StatusChanged(*rowstatus.Event) {}

func (g *ReferenceGuard) referenced(view string) bool {
	for _, e := range g.store.AccessEntries() {
		if e.Status == smi.Active && e.names(view) {
			return true
		}
	}
	return false
}
