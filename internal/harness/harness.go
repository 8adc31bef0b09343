package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/snmpcore/internal/agent"
	"github.com/roach88/snmpcore/internal/config"
	"github.com/roach88/snmpcore/internal/request"
	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/store"
	"github.com/roach88/snmpcore/internal/testutil"
	"github.com/roach88/snmpcore/internal/vacm"
)

// Harness is the test execution engine. It owns one fully wired agent and
// its store for the duration of a scenario.
type Harness struct {
	store      *store.Store
	agent      *agent.Agent
	clock      *testutil.ManualClock
	principals map[string]agent.Principal
	logger     *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
//  1. Create fresh in-memory database, contexts and coordinator
//  2. Load the VACM bootstrap, if any, and register its tables in ""
//  3. Register fixture tables
//  4. Execute steps, checking expect clauses
//  5. Evaluate assertions
//
// An error is returned only when the scenario cannot be set up; failed
// expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(scenario, st)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	actx := &AssertionContext{Store: st, Agent: h.agent, Ctx: ctx}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func newHarness(scenario *Scenario, st *store.Store) (*Harness, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	clock := testutil.NewManualClock(time.Time{})

	contexts := agent.NewContexts(clock.Now)
	for _, name := range scenario.ContextNames() {
		if !contexts.Register(name) {
			return nil, fmt.Errorf("duplicate context %q", name)
		}
	}

	coord := request.NewCoordinator(
		request.WithLogger(logger),
		request.WithClock(request.NewClock()),
		request.WithIDGenerator(testutil.NewSequentialIDs("req")),
		request.WithJournal(st),
	)
	opts := []agent.Option{
		agent.WithLogger(logger),
		agent.WithCoordinator(coord),
		agent.WithAuditLog(st),
	}

	var acl *vacm.Store
	if scenario.VACM != "" {
		boot, err := config.LoadVACM(scenario.VACM)
		if err != nil {
			return nil, err
		}
		acl = vacm.NewStore(
			vacm.WithReferenceGuard(),
			vacm.WithTableOptions(request.Persistent()),
		)
		if _, err := boot.Apply(acl); err != nil {
			return nil, fmt.Errorf("apply vacm bootstrap: %w", err)
		}
		opts = append(opts, agent.WithAccessControl(acl))
	}

	ag := agent.New(contexts, opts...)
	if acl != nil && contexts.Supported("") {
		for _, m := range acl.Tables() {
			if err := ag.Register("", m); err != nil {
				return nil, err
			}
		}
	}

	for _, spec := range scenario.Tables {
		names := spec.Contexts
		if len(names) == 0 {
			names = scenario.ContextNames()
		}
		for _, name := range names {
			m, err := buildTable(spec)
			if err != nil {
				return nil, err
			}
			if err := ag.Register(name, m); err != nil {
				return nil, fmt.Errorf("register %s: %w", spec.Name, err)
			}
		}
	}

	principals := make(map[string]agent.Principal, len(scenario.Principals))
	for _, p := range scenario.Principals {
		model, _ := smi.ParseSecurityModel(p.Model)
		level, _ := smi.ParseSecurityLevel(p.Level)
		principals[p.Name] = agent.Principal{SecurityName: p.Name, Model: model, Level: level}
	}

	return &Harness{
		store:      st,
		agent:      ag,
		clock:      clock,
		principals: principals,
		logger:     logger,
	}, nil
}

// executeStep runs one step, records it and checks its expect clause.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	var ev TraceEvent
	switch {
	case step.Set != nil:
		ev = h.set(ctx, step.Set)
	case step.Get != nil:
		ev = h.get(ctx, step.Get)
	case step.Walk != nil:
		ev = h.walk(ctx, step.Walk)
	case step.Access != nil:
		ev = h.access(step.Access)
	case step.Advance != "":
		ev = h.advance(step.Advance)
	}
	ev.Step = i + 1
	result.AddTrace(ev)

	if step.Expect != nil {
		for _, msg := range checkExpect(ev, step.Expect) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", ev.Step, ev.Op, msg))
		}
	}

	h.logger.Info("step completed",
		"step", ev.Step,
		"op", ev.Op,
		"status", ev.Status,
		"request_id", ev.RequestID,
	)
}

func (h *Harness) set(ctx context.Context, s *SetStep) TraceEvent {
	ev := TraceEvent{Op: OpSet, Context: s.Context, SecurityName: s.As}
	vbs := make([]smi.VarBind, len(s.VarBinds))
	for i, text := range s.VarBinds {
		vbs[i], _ = smi.ParseVarBind(text) // validated on load
	}
	resp, err := h.agent.Set(ctx, h.principals[s.As], s.Context, vbs)
	if err != nil {
		ev.Error = errorCode(err)
		return ev
	}
	ev.RequestID = resp.RequestID
	ev.Seq = resp.Seq
	ev.Status = resp.Status.String()
	ev.Index = resp.Index
	ev.VarBinds = formatVarBinds(resp.VarBinds)
	return ev
}

func (h *Harness) get(ctx context.Context, s *GetStep) TraceEvent {
	ev := TraceEvent{Op: OpGet, Context: s.Context, SecurityName: s.As}
	oids := make([]smi.OID, len(s.OIDs))
	for i, text := range s.OIDs {
		oids[i], _ = smi.ParseOID(text)
	}
	vbs, err := h.agent.Get(ctx, h.principals[s.As], s.Context, oids)
	if err != nil {
		ev.Error = errorCode(err)
		return ev
	}
	ev.VarBinds = formatVarBinds(vbs)
	return ev
}

func (h *Harness) walk(ctx context.Context, s *WalkStep) TraceEvent {
	ev := TraceEvent{Op: OpWalk, Context: s.Context, SecurityName: s.As}
	root, _ := smi.ParseOID(s.Root)
	vbs, err := h.agent.Walk(ctx, h.principals[s.As], s.Context, root)
	if err != nil {
		ev.Error = errorCode(err)
		return ev
	}
	ev.VarBinds = formatVarBinds(vbs)
	return ev
}

func (h *Harness) access(s *AccessStep) TraceEvent {
	ev := TraceEvent{Op: OpAccess, Context: s.Context, SecurityName: s.As}
	engine := h.agent.Engine()
	if engine == nil {
		ev.Error = "no access control configured"
		return ev
	}
	viewType, err := vacm.ParseViewType(s.ViewType)
	if err != nil {
		ev.Error = err.Error()
		return ev
	}
	oid, _ := smi.ParseOID(s.OID)
	p := h.principals[s.As]
	ev.Status = engine.IsAccessAllowed(s.Context, p.SecurityName, p.Model, p.Level, viewType, oid).String()
	ev.VarBinds = []string{oid.String()}
	return ev
}

func (h *Harness) advance(text string) TraceEvent {
	d, _ := time.ParseDuration(text)
	h.clock.Advance(d)
	ev := TraceEvent{Op: OpAdvance}
	if ticks, ok := h.agent.Contexts().UpTime(""); ok {
		ev.UpTime = int64(ticks)
	}
	return ev
}

// checkExpect compares a step's outcome with its expect clause.
func checkExpect(ev TraceEvent, exp *Expect) []string {
	var msgs []string
	if exp.Error != "" || ev.Error != "" {
		if exp.Error != ev.Error {
			msgs = append(msgs, fmt.Sprintf("error = %q, want %q", ev.Error, exp.Error))
		}
		return msgs
	}
	if exp.Status != "" && !strings.EqualFold(exp.Status, ev.Status) {
		msgs = append(msgs, fmt.Sprintf("status = %s, want %s", ev.Status, exp.Status))
	}
	if exp.Index != 0 && exp.Index != ev.Index {
		msgs = append(msgs, fmt.Sprintf("index = %d, want %d", ev.Index, exp.Index))
	}
	if exp.Verdict != "" && !strings.EqualFold(exp.Verdict, ev.Status) {
		msgs = append(msgs, fmt.Sprintf("verdict = %s, want %s", ev.Status, exp.Verdict))
	}
	if exp.Values != nil {
		if len(exp.Values) != len(ev.VarBinds) {
			msgs = append(msgs, fmt.Sprintf("got %d values %v, want %d %v",
				len(ev.VarBinds), ev.VarBinds, len(exp.Values), exp.Values))
			return msgs
		}
		for i, text := range exp.Values {
			want, _ := smi.ParseVarBind(text)
			got, err := smi.ParseVarBind(ev.VarBinds[i])
			if err != nil || !got.OID.Equal(want.OID) || !smi.EqualVariables(got.Value, want.Value) {
				msgs = append(msgs, fmt.Sprintf("values[%d] = %s, want %s", i, ev.VarBinds[i], text))
			}
		}
	}
	return msgs
}

func formatVarBinds(vbs []smi.VarBind) []string {
	out := make([]string, len(vbs))
	for i, vb := range vbs {
		out[i] = smi.FormatVarBind(vb)
	}
	return out
}

// errorCode reduces a dispatch error to its code so traces stay stable.
func errorCode(err error) string {
	var de *agent.DispatchError
	if errors.As(err, &de) {
		return string(de.Code)
	}
	return err.Error()
}
