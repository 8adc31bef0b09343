package request

import (
	"slices"

	"github.com/roach88/snmpcore/internal/smi"
)

// Request is one incoming SET, decomposed into subrequests.
type Request struct {
	ID      string
	Seq     int64
	Context string

	subs   []*Subrequest
	groups []*rowGroup
}

// Add appends a write of vb to the column subID of row index in t. Unknown
// columns are recorded as NotWritable.
func (r *Request) Add(t *ManagedTable, subID uint32, index smi.OID, vb smi.VarBind) *Subrequest {
	sub := &Subrequest{ID: len(r.subs) + 1, VarBind: vb}
	r.subs = append(r.subs, sub)

	pos, ok := t.Table.Schema().Position(subID)
	if !ok {
		sub.group = &rowGroup{table: t, index: index, changes: newChangeSet()}
		sub.SetError(smi.NotWritable)
		return sub
	}
	sub.position = pos
	sub.group = r.group(t, index)
	sub.group.subs = append(sub.group.subs, sub)
	return sub
}

// AddFailed appends a varbind that could not be resolved to any table.
func (r *Request) AddFailed(vb smi.VarBind, status smi.ErrorStatus) *Subrequest {
	sub := &Subrequest{ID: len(r.subs) + 1, VarBind: vb, group: &rowGroup{changes: newChangeSet()}}
	sub.SetError(status)
	r.subs = append(r.subs, sub)
	return sub
}

func (r *Request) group(t *ManagedTable, index smi.OID) *rowGroup {
	for _, g := range r.groups {
		if g.table == t && g.index.Equal(index) {
			return g
		}
	}
	g := &rowGroup{table: t, index: index.Copy(), changes: newChangeSet()}
	r.groups = append(r.groups, g)
	return g
}

// Subrequests returns the subrequests in varbind order.
func (r *Request) Subrequests() []*Subrequest { return r.subs }

// Len returns the number of varbinds.
func (r *Request) Len() int { return len(r.subs) }

// executionOrder lists subrequests row by row, in first-seen row order, with
// the status column last within each row.
func (r *Request) executionOrder() []*Subrequest {
	out := make([]*Subrequest, 0, len(r.subs))
	for _, g := range r.groups {
		out = append(out, g.ordered()...)
	}
	return out
}

// firstError returns the failing subrequest with the lowest varbind index.
func (r *Request) firstError() *Subrequest {
	idx := slices.IndexFunc(r.subs, (*Subrequest).HasError)
	if idx < 0 {
		return nil
	}
	return r.subs[idx]
}

// Response is the outcome of a request.
type Response struct {
	RequestID string
	Seq       int64

	Status smi.ErrorStatus
	// Index is the 1-based varbind index Status refers to, 0 on success.
	Index    int
	VarBinds []smi.VarBind
}

// OK reports whether the request succeeded.
func (r Response) OK() bool { return r.Status == smi.NoError }
