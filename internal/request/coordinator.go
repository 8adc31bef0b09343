package request

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/table"
)

// Coordinator runs requests through prepare, commit, undo and cleanup.
//
// Thread-safety: Execute may be called from many goroutines. Requests that
// touch disjoint rows proceed independently; requests touching the same row
// are serialized by the row key locks, taken for the whole request.
type Coordinator struct {
	logger  *slog.Logger
	clock   *Clock
	ids     IDGenerator
	journal Journal
	strict  bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// WithClock sets the logical clock, e.g. one resumed from the store.
func WithClock(clock *Clock) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

// WithIDGenerator overrides the UUIDv7 request id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Coordinator) {
		c.ids = g
	}
}

// WithJournal installs the post-commit journal.
func WithJournal(j Journal) Option {
	return func(c *Coordinator) {
		c.journal = j
	}
}

// WithStrict makes CommitFailed and UndoFailed panic after logging.
// Intended for tests and debug builds.
func WithStrict(strict bool) Option {
	return func(c *Coordinator) {
		c.strict = strict
	}
}

// NewCoordinator creates a coordinator.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		logger: slog.Default(),
		clock:  NewClock(),
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clock returns the coordinator's logical clock.
func (c *Coordinator) Clock() *Clock { return c.clock }

// NewRequest starts a request addressed to the named context.
func (c *Coordinator) NewRequest(contextName string) *Request {
	return &Request{
		ID:      c.ids.Generate(),
		Seq:     c.clock.Next(),
		Context: contextName,
	}
}

// Execute runs req to completion and returns its outcome.
func (c *Coordinator) Execute(ctx context.Context, req *Request) Response {
	unlock := lockRows(req)
	defer unlock()

	c.logger.Debug("set request", "request", req.ID, "seq", req.Seq, "context", req.Context, "varbinds", req.Len())

	c.resolveRows(req)
	order := req.executionOrder()

	c.prepare(req, order)
	if failed := req.firstError(); failed != nil {
		c.cleanup(order)
		return c.respond(req, failed)
	}

	committed, ok := c.commit(req)
	var journalErr error
	if ok && c.journal != nil {
		if ch := changes(req); len(ch) > 0 {
			if journalErr = c.journal.Apply(ctx, req.Seq, ch); journalErr != nil {
				ok = false
			}
		}
	}
	if !ok {
		c.undo(req, committed)
		if journalErr != nil {
			c.logger.Error("journal rejected commit", "request", req.ID, "error", journalErr)
			sub := firstJournaled(req)
			sub.SetError(smi.CommitFailed)
			c.fail(req, sub, journalErr)
		}
	}
	c.cleanup(order)
	return c.respond(req, req.firstError())
}

func (c *Coordinator) resolveRows(req *Request) {
	for _, g := range req.groups {
		if row, ok := g.table.Rows().Get(g.index); ok {
			g.row = row
			continue
		}
		g.row = g.table.Table.NewRow(g.index)
		g.isNew = true
	}
}

func (c *Coordinator) prepare(req *Request, order []*Subrequest) {
	for _, g := range req.groups {
		if !g.isNew {
			continue
		}
		if !g.table.Table.Schema().HasStatus() {
			for _, s := range g.subs {
				s.SetError(smi.NoCreation)
			}
			continue
		}
		if err := g.table.ValidIndex(g.index); err != nil {
			c.logger.Debug("invalid row index", "request", req.ID, "table", g.table.Name(), "index", g.index.String(), "error", err)
			for _, s := range g.subs {
				s.SetError(smi.NoCreation)
			}
			continue
		}
		if g.creates() {
			continue
		}
		status := g.statusSub()
		for _, s := range g.subs {
			if s != status {
				s.SetError(smi.InconsistentName)
			}
		}
	}

	for _, s := range order {
		if s.HasError() {
			continue
		}
		s.Table().Column(s.position).Prepare(s)
		if s.HasError() {
			c.logger.Debug("prepare rejected", "request", req.ID, "varbind", s.ID, "oid", s.VarBind.OID.String(), "status", s.Status().String())
		}
	}
}

// commit stops at the first failure and returns what committed so far.
func (c *Coordinator) commit(req *Request) ([]*Subrequest, bool) {
	var committed []*Subrequest
	for _, g := range req.groups {
		ordered := g.ordered()
		if g.isNew && g.creates() {
			if !g.table.Rows().Add(g.row) {
				ordered[0].SetError(smi.CommitFailed)
				c.fail(req, ordered[0], fmt.Errorf("row %s appeared concurrently", g.index))
				return committed, false
			}
			g.added = true
		}
		for _, s := range ordered {
			s.Table().Column(s.position).Commit(s)
			if s.HasError() {
				c.fail(req, s, nil)
				return committed, false
			}
			s.committed = true
			committed = append(committed, s)
		}
	}
	return committed, true
}

func (c *Coordinator) undo(req *Request, committed []*Subrequest) {
	for i := len(committed) - 1; i >= 0; i-- {
		s := committed[i]
		s.Table().Column(s.position).Undo(s)
		if s.Status() == smi.UndoFailed {
			c.fail(req, s, nil)
		}
	}
	for _, g := range req.groups {
		if !g.added {
			continue
		}
		if status := g.statusSub(); status != nil && status.committed {
			continue // the status column's undo removed the row
		}
		g.table.Rows().Remove(g.index)
	}
}

func (c *Coordinator) cleanup(order []*Subrequest) {
	for _, s := range order {
		s.Table().Column(s.position).Cleanup(s)
		s.userObject = nil
	}
}

func (c *Coordinator) respond(req *Request, failed *Subrequest) Response {
	resp := Response{RequestID: req.ID, Seq: req.Seq}
	resp.VarBinds = make([]smi.VarBind, len(req.subs))
	for i, s := range req.subs {
		resp.VarBinds[i] = s.VarBind
	}
	if failed == nil {
		c.logger.Debug("set committed", "request", req.ID, "seq", req.Seq)
		return resp
	}
	// undoFailed wins: the agent is no longer in its pre-request state.
	for _, s := range req.subs {
		if s.Status() == smi.UndoFailed {
			failed = s
			break
		}
	}
	resp.Status, resp.Index = failed.Status(), failed.ID
	c.logger.Debug("set failed", "request", req.ID, "status", resp.Status.String(), "index", resp.Index)
	return resp
}

// fail reports a structural failure of a subrequest.
func (c *Coordinator) fail(req *Request, s *Subrequest, cause error) {
	attrs := []any{
		"request", req.ID,
		"varbind", s.ID,
		"oid", s.VarBind.OID.String(),
		"status", s.Status().String(),
	}
	if cause != nil {
		attrs = append(attrs, "error", cause)
	}
	c.logger.Error("two-phase request diverged from prepared state", attrs...)
	if c.strict {
		panic(fmt.Sprintf("request %s varbind %d: %s", req.ID, s.ID, s.Status()))
	}
}

// changes collects the committed state of every touched persistent row.
func changes(req *Request) []Change {
	var out []Change
	for _, g := range req.groups {
		if !journaled(g) {
			continue
		}
		ch := Change{Context: req.Context, Table: g.table.Name(), Index: g.index}
		if _, ok := g.table.Rows().Get(g.index); ok {
			ch.Values = g.row.Values()
		} else {
			ch.Removed = true
		}
		out = append(out, ch)
	}
	return out
}

// journaled reports whether g's row goes to the Journal.
func journaled(g *rowGroup) bool {
	return g.table.IsPersistent() && (!g.isNew || g.added)
}

// firstJournaled returns the earliest varbind of the request whose row
// went to the Journal.
func firstJournaled(req *Request) *Subrequest {
	var first *Subrequest
	for _, g := range req.groups {
		if !journaled(g) {
			continue
		}
		for _, s := range g.subs {
			if first == nil || s.ID < first.ID {
				first = s
			}
		}
	}
	return first
}

// lockRows takes the key locks of every addressed row, table by table in
// name order and ascending index order within a table.
func lockRows(req *Request) func() {
	byTable := make(map[*table.Table][]smi.OID)
	var tables []*table.Table
	for _, g := range req.groups {
		t := g.table.Table
		if _, seen := byTable[t]; !seen {
			tables = append(tables, t)
		}
		byTable[t] = append(byTable[t], g.index)
	}
	slices.SortStableFunc(tables, func(a, b *table.Table) int {
		return strings.Compare(a.Name(), b.Name())
	})

	unlocks := make([]func(), 0, len(tables))
	for _, t := range tables {
		unlocks = append(unlocks, t.LockRows(byTable[t]...))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}
