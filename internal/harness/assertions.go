package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/snmpcore/internal/agent"
	"github.com/roach88/snmpcore/internal/request"
	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", event.Step, event.Op, event.Status, strings.Join(event.VarBinds, " "))
		}
	}

	return buf.String()
}

// matchesEvent reports whether event is an op step with the given status
// (any status when status is empty).
func matchesEvent(event TraceEvent, op, status string) bool {
	return event.Op == op && (status == "" || strings.EqualFold(event.Status, status))
}

// assertTraceContains checks if the trace contains a matching step.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matchesEvent(event, assertion.Op, assertion.Status) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s step with status %q", assertion.Op, assertion.Status),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if ops appear in the specified order.
// Ops don't need to be consecutive (intervening steps are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(assertion.Ops) && event.Op == assertion.Ops[next] {
			next++
		}
	}
	if next == len(assertion.Ops) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
		Actual:   fmt.Sprintf("only %v found in order", assertion.Ops[:next]),
		Trace:    trace,
	}
}

// assertTraceCount checks if exactly Count steps match.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matchesEvent(event, assertion.Op, assertion.Status) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s steps with status %q", assertion.Count, assertion.Op, assertion.Status),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// lookupTable finds a registered table by name.
func lookupTable(ag *agent.Agent, assertion Assertion) (*request.ManagedTable, error) {
	m, ok := ag.Table(assertion.Context, assertion.Table)
	if !ok {
		return nil, &AssertionError{
			Type:     assertion.Type,
			Expected: fmt.Sprintf("table %s in context %q", assertion.Table, assertion.Context),
			Actual:   "table not registered",
		}
	}
	return m, nil
}

// assertFinalState checks a live row's column values using subset
// semantics. Columns are read through their handlers, so status columns
// report what a GET would.
func assertFinalState(ag *agent.Agent, assertion Assertion) error {
	m, err := lookupTable(ag, assertion)
	if err != nil {
		return err
	}
	index, _ := smi.ParseOID(assertion.Index)
	row, ok := m.Rows().Get(index)
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row %s in %s", index, assertion.Table),
			Actual:   "row not found",
		}
	}

	schema := m.Table.Schema()
	names := make([]string, 0, len(assertion.Expect))
	for name := range assertion.Expect {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic error order

	for _, name := range names {
		pos := -1
		for i, c := range schema.Columns {
			if c.Name == name {
				pos = i
				break
			}
		}
		if pos < 0 {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("column %q in %s", name, assertion.Table),
				Actual:   "no such column",
			}
		}

		want, _ := smi.ParseTypedValue(assertion.Expect[name])
		unlock := m.Table.LockRows(index)
		var got smi.Variable
		if r, ok := m.Column(pos).(request.Reader); ok {
			got = r.Read(row)
		} else {
			got = row.Value(pos)
		}
		unlock()
		if !smi.EqualVariables(got, want) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %s", name, index, assertion.Expect[name]),
				Actual:   fmt.Sprintf("%s.%s = %s", name, index, smi.FormatVariable(got)),
			}
		}
	}

	return nil
}

// assertRowCount checks the number of live rows.
func assertRowCount(ag *agent.Agent, assertion Assertion) error {
	m, err := lookupTable(ag, assertion)
	if err != nil {
		return err
	}
	if n := m.Table.Len(); n != assertion.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s", assertion.Count, assertion.Table),
			Actual:   fmt.Sprintf("%d rows", n),
		}
	}
	return nil
}

// assertStoredRows checks the number of persisted rows.
func assertStoredRows(ctx context.Context, st *store.Store, assertion Assertion) error {
	rows, err := st.LoadRows(ctx, assertion.Context, assertion.Table)
	if err != nil {
		return fmt.Errorf("stored_rows: %w", err)
	}
	if len(rows) != assertion.Count {
		return &AssertionError{
			Type:     AssertStoredRows,
			Expected: fmt.Sprintf("%d stored rows of %s", assertion.Count, assertion.Table),
			Actual:   fmt.Sprintf("%d rows", len(rows)),
		}
	}
	return nil
}

// assertAuditCount checks the number of audited SET requests.
func assertAuditCount(ctx context.Context, st *store.Store, assertion Assertion) error {
	records, err := st.Requests(ctx)
	if err != nil {
		return fmt.Errorf("audit_count: %w", err)
	}
	if len(records) != assertion.Count {
		return &AssertionError{
			Type:     AssertAuditCount,
			Expected: fmt.Sprintf("%d audited requests", assertion.Count),
			Actual:   fmt.Sprintf("%d requests", len(records)),
		}
	}
	return nil
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Agent *agent.Agent
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides the agent and database for state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState, AssertRowCount:
			if actx == nil || actx.Agent == nil {
				err = fmt.Errorf("assertion[%d]: %s requires an agent", i, assertion.Type)
			} else if assertion.Type == AssertFinalState {
				err = assertFinalState(actx.Agent, assertion)
			} else {
				err = assertRowCount(actx.Agent, assertion)
			}
		case AssertStoredRows, AssertAuditCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
			} else if assertion.Type == AssertStoredRows {
				err = assertStoredRows(actx.Ctx, actx.Store, assertion)
			} else {
				err = assertAuditCount(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
