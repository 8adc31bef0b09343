package rowstatus

import "github.com/roach88/snmpcore/internal/smi"

// adjacency lists the legal next states per current state.
var adjacency = map[smi.RowStatus][]smi.RowStatus{
	smi.NotExistant:   {smi.CreateAndGo, smi.CreateAndWait, smi.Destroy},
	smi.NotReady:      {smi.Destroy, smi.Active, smi.NotInService},
	smi.Active:        {smi.Active, smi.NotInService, smi.Destroy},
	smi.NotInService:  {smi.NotInService, smi.Active, smi.Destroy},
	smi.CreateAndWait: {smi.CreateAndWait, smi.Destroy},
	smi.CreateAndGo:   {smi.CreateAndGo, smi.Destroy},
	smi.Destroy:       {smi.Destroy},
}

// Legal reports whether a row in state from may be set to to.
func Legal(from, to smi.RowStatus) bool {
	for _, next := range adjacency[from] {
		if next == to {
			return true
		}
	}
	return false
}

// needsReadiness reports whether the transition activates (or stages for
// activation) a row that has not been ready before.
func needsReadiness(from, to smi.RowStatus) bool {
	switch from {
	case smi.NotExistant, smi.NotReady, smi.CreateAndGo:
	default:
		return false
	}
	switch to {
	case smi.CreateAndGo, smi.NotInService, smi.Active:
		return true
	}
	return false
}
