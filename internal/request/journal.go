package request

import (
	"context"

	"github.com/roach88/snmpcore/internal/smi"
)

// Change is the committed state of one row of a persistent table.
type Change struct {
	Context string
	Table   string
	Index   smi.OID
	Values  []smi.Variable
	Removed bool
}

// Journal receives the row changes of every successful commit phase. An
// error aborts the request: all committed subrequests are undone and the
// request fails with CommitFailed.
type Journal interface {
	Apply(ctx context.Context, seq int64, changes []Change) error
}
