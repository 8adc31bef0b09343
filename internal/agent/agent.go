package agent

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/snmpcore/internal/request"
	"github.com/roach88/snmpcore/internal/rowstatus"
	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/table"
	"github.com/roach88/snmpcore/internal/vacm"
)

// Principal is the authenticated identity behind a request.
type Principal struct {
	SecurityName string
	Model        smi.SecurityModel
	Level        smi.SecurityLevel
}

// AuditLog records the outcome of every SET.
type AuditLog interface {
	WriteRequest(ctx context.Context, contextName, securityName string, resp request.Response) error
}

// Agent dispatches GET, SET and walk requests to registered tables.
//
// Thread-safety: Agent is safe for concurrent use once configured.
type Agent struct {
	logger   *slog.Logger
	contexts *Contexts
	coord    *request.Coordinator
	acl      *vacm.Store
	engine   *vacm.Engine
	audit    AuditLog

	mu      sync.RWMutex
	tables  map[string][]*request.ManagedTable // per context, by entry OID
	watched map[*rowstatus.Column]bool
	statusL rowstatus.Listener
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = l
	}
}

// WithCoordinator sets the SET coordinator. Default: a coordinator logging
// through the agent's logger.
func WithCoordinator(c *request.Coordinator) Option {
	return func(a *Agent) {
		a.coord = c
	}
}

// WithAccessControl enforces VACM decisions over store on every request.
// Without it every principal may access everything.
func WithAccessControl(store *vacm.Store) Option {
	return func(a *Agent) {
		a.acl = store
	}
}

// WithAuditLog records every SET outcome in log.
func WithAuditLog(log AuditLog) Option {
	return func(a *Agent) {
		a.audit = log
	}
}

// New creates an agent serving contexts.
func New(contexts *Contexts, opts ...Option) *Agent {
	a := &Agent{
		logger:   slog.Default(),
		contexts: contexts,
		tables:   make(map[string][]*request.ManagedTable),
		watched:  make(map[*rowstatus.Column]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.acl != nil {
		a.engine = vacm.NewEngine(a.acl, a.contexts, vacm.WithLogger(a.logger))
	}
	if a.coord == nil {
		a.coord = request.NewCoordinator(request.WithLogger(a.logger))
	}
	a.statusL = &rowstatus.ListenerFuncs{Changed: a.logStatus}
	return a
}

// Contexts returns the agent's context registry.
func (a *Agent) Contexts() *Contexts { return a.contexts }

// Engine returns the access control engine, or nil without access control.
func (a *Agent) Engine() *vacm.Engine { return a.engine }

// Register makes m addressable in contextName.
func (a *Agent) Register(contextName string, m *request.ManagedTable) error {
	if !a.contexts.Supported(contextName) {
		return unknownContext(contextName)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	entry := m.Table.Entry()
	tables := a.tables[contextName]
	for _, other := range tables {
		if entry.HasPrefix(other.Table.Entry()) || other.Table.Entry().HasPrefix(entry) {
			return &DispatchError{
				Code:    ErrCodeTableOverlap,
				Context: contextName,
				Table:   m.Name(),
				Message: "entry " + entry.String() + " overlaps " + other.Name(),
			}
		}
	}
	i, _ := slices.BinarySearchFunc(tables, entry, func(t *request.ManagedTable, e smi.OID) int {
		return t.Table.Entry().Compare(e)
	})
	a.tables[contextName] = slices.Insert(tables, i, m)

	if pos := m.Table.Schema().StatusColumn; pos >= 0 {
		if col, ok := m.Column(pos).(*rowstatus.Column); ok && !a.watched[col] {
			col.AddListener(a.statusL)
			a.watched[col] = true
		}
	}
	a.logger.Debug("table registered", "context", contextName, "table", m.Name(), "entry", entry.String())
	return nil
}

// Tables returns the tables registered in contextName in entry OID order.
func (a *Agent) Tables(contextName string) []*request.ManagedTable {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.tables[contextName])
}

// Table returns the table registered in contextName under name.
func (a *Agent) Table(contextName, name string) (*request.ManagedTable, bool) {
	for _, m := range a.Tables(contextName) {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// target is an OID resolved to a column instance.
type target struct {
	table *request.ManagedTable
	subID uint32
	pos   int
	index smi.OID
}

// resolve splits oid into entry.column.index of a registered table.
func (a *Agent) resolve(contextName string, oid smi.OID) (target, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, m := range a.tables[contextName] {
		entry := m.Table.Entry()
		if len(oid) <= len(entry)+1 || !oid.HasPrefix(entry) {
			continue
		}
		t := target{table: m, subID: oid[len(entry)], index: oid[len(entry)+1:]}
		pos, ok := m.Table.Schema().Position(t.subID)
		if !ok {
			return t, false
		}
		t.pos = pos
		return t, true
	}
	return target{}, false
}

// authorize checks oid against the principal's view. It returns NoError,
// or the status a varbind fails with, or a DispatchError when the
// principal has no access at all.
func (a *Agent) authorize(p Principal, contextName string, viewType vacm.ViewType, oid smi.OID) (smi.ErrorStatus, error) {
	if a.engine == nil {
		return smi.NoError, nil
	}
	switch verdict := a.engine.IsAccessAllowed(contextName, p.SecurityName, p.Model, p.Level, viewType, oid); verdict {
	case vacm.Ok:
		return smi.NoError, nil
	case vacm.NotInView:
		return smi.NoAccess, nil
	default:
		return smi.AuthorizationError, &DispatchError{
			Code:    ErrCodeAuthorization,
			Context: contextName,
			Status:  smi.AuthorizationError,
			Message: p.SecurityName + ": " + verdict.String(),
		}
	}
}

// Set runs a SET of vbs in contextName on behalf of p. Per-varbind failures
// are reported in the response; the error is non-nil only for an unknown
// context.
func (a *Agent) Set(ctx context.Context, p Principal, contextName string, vbs []smi.VarBind) (request.Response, error) {
	if !a.contexts.Supported(contextName) {
		return request.Response{}, unknownContext(contextName)
	}
	req := a.coord.NewRequest(contextName)
	for _, vb := range vbs {
		status, err := a.authorize(p, contextName, vacm.Write, vb.OID)
		if err != nil {
			a.logger.Info("set refused", "request", req.ID, "context", contextName, "security_name", p.SecurityName, "error", err)
		}
		if status.Failed() {
			req.AddFailed(vb, status)
			continue
		}
		t, ok := a.resolve(contextName, vb.OID)
		if !ok {
			req.AddFailed(vb, smi.NotWritable)
			continue
		}
		req.Add(t.table, t.subID, t.index, vb)
	}
	resp := a.coord.Execute(ctx, req)

	if a.audit != nil {
		if err := a.audit.WriteRequest(ctx, contextName, p.SecurityName, resp); err != nil {
			a.logger.Warn("audit write failed", "request", resp.RequestID, "error", err)
		}
	}
	return resp, nil
}

// Get reads oids in contextName on behalf of p. Missing objects and
// instances, and objects outside the principal's read view, come back as
// exception values.
func (a *Agent) Get(ctx context.Context, p Principal, contextName string, oids []smi.OID) ([]smi.VarBind, error) {
	if !a.contexts.Supported(contextName) {
		return nil, unknownContext(contextName)
	}
	out := make([]smi.VarBind, 0, len(oids))
	for _, oid := range oids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		status, err := a.authorize(p, contextName, vacm.Read, oid)
		if err != nil {
			return nil, err
		}
		if status.Failed() {
			out = append(out, smi.VarBind{OID: oid, Value: smi.NoSuchObject})
			continue
		}
		out = append(out, smi.VarBind{OID: oid, Value: a.read(contextName, oid)})
	}
	return out, nil
}

func (a *Agent) read(contextName string, oid smi.OID) smi.Variable {
	t, ok := a.resolve(contextName, oid)
	if !ok || t.table.Table.Schema().Columns[t.pos].Access == table.NotAccessible {
		return smi.NoSuchObject
	}
	unlock := t.table.Table.LockRows(t.index)
	defer unlock()
	row, ok := t.table.Rows().Get(t.index)
	if !ok {
		return smi.NoSuchInstance
	}
	if v := readColumn(t.table, t.pos, row); v != nil {
		return v
	}
	return smi.NoSuchInstance
}

// readLocked reads column pos of the row at index under its key lock. A
// row removed since the caller listed it reads as nil.
func (a *Agent) readLocked(m *request.ManagedTable, pos int, index smi.OID) smi.Variable {
	unlock := m.Table.LockRows(index)
	defer unlock()
	row, ok := m.Rows().Get(index)
	if !ok {
		return nil
	}
	return readColumn(m, pos, row)
}

// readColumn reads through the column handler so that status columns
// promote. The caller holds the row's key lock.
func readColumn(m *request.ManagedTable, pos int, row *table.Row) smi.Variable {
	if r, ok := m.Column(pos).(request.Reader); ok {
		return r.Read(row)
	}
	return row.Value(pos)
}

// Walk returns every readable instance under root in contextName, in OID
// order, skipping instances outside the principal's read view.
func (a *Agent) Walk(ctx context.Context, p Principal, contextName string, root smi.OID) ([]smi.VarBind, error) {
	if !a.contexts.Supported(contextName) {
		return nil, unknownContext(contextName)
	}
	var out []smi.VarBind
	for _, m := range a.Tables(contextName) {
		entry := m.Table.Entry()
		if !entry.HasPrefix(root) && !root.HasPrefix(entry) {
			continue
		}
		for _, pos := range readableColumns(m.Table.Schema()) {
			colOID := entry.Append(m.Table.Schema().Columns[pos].SubID)
			if !colOID.HasPrefix(root) && !root.HasPrefix(colOID) {
				continue
			}
			for _, row := range m.Table.Snapshot(nil) {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				oid := colOID.Append(row.Index()...)
				if !oid.HasPrefix(root) {
					continue
				}
				status, err := a.authorize(p, contextName, vacm.Read, oid)
				if err != nil {
					return nil, err
				}
				if status.Failed() {
					continue
				}
				v := a.readLocked(m, pos, row.Index())
				if v != nil {
					out = append(out, smi.VarBind{OID: oid, Value: v})
				}
			}
		}
	}
	return out, nil
}

// readableColumns lists accessible column positions by ascending sub-identifier.
func readableColumns(s *table.Schema) []int {
	var out []int
	for i, c := range s.Columns {
		if c.Access != table.NotAccessible {
			out = append(out, i)
		}
	}
	slices.SortFunc(out, func(x, y int) int {
		return cmp.Compare(s.Columns[x].SubID, s.Columns[y].SubID)
	})
	return out
}

func (a *Agent) logStatus(ev *rowstatus.Event) {
	a.logger.Debug("row status changed",
		"table", ev.Table.Name(),
		"index", ev.Row.Index().String(),
		"old", ev.Old.String(),
		"new", ev.New.String(),
		"undo", ev.Undo,
	)
}
