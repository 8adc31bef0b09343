package rowstatus

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/snmpcore/internal/request"
	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/table"
)

var testEntry = smi.MustParseOID("1.3.6.1.4.1.99999.1.1")

const (
	colName   = 2
	colDescr  = 3
	colStatus = 4
)

func testTable() *table.Table {
	return table.New("testTable", testEntry, table.MustSchema(colStatus,
		table.ColumnDef{SubID: colName, Name: "name", Syntax: smi.SyntaxOctetString, Access: table.ReadCreate, Mandatory: true, MaxLen: 32},
		table.ColumnDef{SubID: colDescr, Name: "descr", Syntax: smi.SyntaxOctetString, Access: table.ReadCreate, Default: smi.OctetString("")},
		table.ColumnDef{SubID: colStatus, Name: "status", Syntax: smi.SyntaxInteger, Access: table.ReadCreate},
	))
}

type fixture struct {
	tbl   *table.Table
	m     *request.ManagedTable
	col   *Column
	coord *request.Coordinator
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, opts ...request.TableOption) *fixture {
	t.Helper()
	tbl := testTable()
	m, col := Manage(tbl, opts...)
	return &fixture{
		tbl:   tbl,
		m:     m,
		col:   col,
		coord: request.NewCoordinator(request.WithLogger(discardLogger())),
	}
}

func vb(col uint32, index string, v smi.Variable) smi.VarBind {
	return smi.VarBind{OID: testEntry.Append(col).Append(smi.MustParseOID(index)...), Value: v}
}

func status(s smi.RowStatus) smi.Variable { return smi.Integer(s) }

func (f *fixture) set(vbs ...smi.VarBind) request.Response {
	req := f.coord.NewRequest("")
	for _, b := range vbs {
		rest := b.OID[len(testEntry):]
		req.Add(f.m, rest[0], rest[1:], b)
	}
	return f.coord.Execute(context.Background(), req)
}

func (f *fixture) statusOf(t *testing.T, index string) smi.RowStatus {
	t.Helper()
	row, ok := f.tbl.Get(smi.MustParseOID(index))
	if !ok {
		return smi.NotExistant
	}
	return row.Status(f.col.Position())
}

func TestLegalMatchesAdjacencyTable(t *testing.T) {
	want := map[smi.RowStatus][]smi.RowStatus{
		smi.NotExistant:   {smi.CreateAndGo, smi.CreateAndWait, smi.Destroy},
		smi.NotReady:      {smi.Destroy, smi.Active, smi.NotInService},
		smi.Active:        {smi.Active, smi.NotInService, smi.Destroy},
		smi.NotInService:  {smi.NotInService, smi.Active, smi.Destroy},
		smi.CreateAndWait: {smi.CreateAndWait, smi.Destroy},
		smi.CreateAndGo:   {smi.CreateAndGo, smi.Destroy},
		smi.Destroy:       {smi.Destroy},
	}
	for from := smi.NotExistant; from <= smi.Destroy; from++ {
		for to := smi.NotExistant; to <= smi.Destroy; to++ {
			assert.Equal(t, contains(want[from], to), Legal(from, to), "%s -> %s", from, to)
		}
	}
}

func contains(list []smi.RowStatus, s smi.RowStatus) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func TestCreateAndGo(t *testing.T) {
	f := newFixture(t)

	resp := f.set(vb(colName, "1", smi.OctetString("one")), vb(colStatus, "1", status(smi.CreateAndGo)))
	require.True(t, resp.OK(), "status=%s", resp.Status)
	assert.Equal(t, smi.Active, f.statusOf(t, "1"))

	row, _ := f.tbl.Get(smi.OID{1})
	assert.Equal(t, smi.OctetString("one"), row.Value(0))
	assert.Equal(t, smi.OctetString(""), row.Value(1), "default applied on creation")
}

func TestCreateAndGoNotReady(t *testing.T) {
	f := newFixture(t)

	resp := f.set(vb(colStatus, "1", status(smi.CreateAndGo)))
	assert.Equal(t, smi.InconsistentValue, resp.Status)
	assert.Equal(t, 1, resp.Index)
	assert.Equal(t, 0, f.tbl.Len())
}

func TestCreateAndWaitThenLazyPromotion(t *testing.T) {
	f := newFixture(t)

	resp := f.set(vb(colStatus, "5", status(smi.CreateAndWait)))
	require.True(t, resp.OK())
	assert.Equal(t, smi.NotReady, f.statusOf(t, "5"))

	resp = f.set(vb(colName, "5", smi.OctetString("five")))
	require.True(t, resp.OK(), "status=%s", resp.Status)
	assert.Equal(t, smi.NotReady, f.statusOf(t, "5"), "no explicit status write yet")

	var promoted []*Event
	f.col.AddListener(&ListenerFuncs{Changed: func(ev *Event) { promoted = append(promoted, ev) }})

	row, _ := f.tbl.Get(smi.OID{5})
	assert.Equal(t, status(smi.NotInService), f.col.Read(row))
	assert.Equal(t, smi.NotInService, f.statusOf(t, "5"), "read stored the promotion")
	require.Len(t, promoted, 1)
	assert.Equal(t, smi.NotReady, promoted[0].Old)
	assert.Equal(t, smi.NotInService, promoted[0].New)

	resp = f.set(vb(colStatus, "5", status(smi.Active)))
	require.True(t, resp.OK())
	assert.Equal(t, smi.Active, f.statusOf(t, "5"))
}

func TestCreateAndWaitReadyGoesNotInService(t *testing.T) {
	f := newFixture(t)

	resp := f.set(vb(colStatus, "2", status(smi.CreateAndWait)), vb(colName, "2", smi.OctetString("two")))
	require.True(t, resp.OK())
	assert.Equal(t, smi.NotInService, f.statusOf(t, "2"))
}

func TestNotReadyCannotActivate(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.set(vb(colStatus, "3", status(smi.CreateAndWait))).OK())

	resp := f.set(vb(colStatus, "3", status(smi.Active)))
	assert.Equal(t, smi.InconsistentValue, resp.Status)
	assert.Equal(t, smi.NotReady, f.statusOf(t, "3"))
}

func TestPrepareRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		value smi.Variable
		want  smi.ErrorStatus
	}{
		{"not an integer", smi.OctetString("active"), smi.WrongType},
		{"notExistant is not settable", status(smi.NotExistant), smi.WrongValue},
		{"out of range", smi.Integer(7), smi.WrongValue},
		{"illegal transition", status(smi.CreateAndGo), smi.WrongValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.True(t, f.set(vb(colName, "1", smi.OctetString("x")), vb(colStatus, "1", status(smi.CreateAndGo))).OK())

			resp := f.set(vb(colStatus, "1", tt.value))
			assert.Equal(t, tt.want, resp.Status)
			assert.Equal(t, smi.Active, f.statusOf(t, "1"))
		})
	}
}

func TestNonStatusWriteToMissingRowIsInconsistentName(t *testing.T) {
	f := newFixture(t)

	resp := f.set(vb(colName, "9", smi.OctetString("nine")))
	assert.Equal(t, smi.InconsistentName, resp.Status)
	assert.Equal(t, 0, f.tbl.Len())

	resp = f.set(vb(colName, "9", smi.OctetString("nine")), vb(colStatus, "9", status(smi.Active)))
	assert.Equal(t, smi.InconsistentName, resp.Status, "first failing varbind is reported")
	assert.Equal(t, 1, resp.Index)
}

func TestDestroy(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.set(vb(colName, "1", smi.OctetString("x")), vb(colStatus, "1", status(smi.CreateAndGo))).OK())

	resp := f.set(vb(colStatus, "1", status(smi.Destroy)))
	require.True(t, resp.OK())
	assert.Equal(t, 0, f.tbl.Len())

	resp = f.set(vb(colStatus, "1", status(smi.Destroy)))
	assert.True(t, resp.OK(), "destroying a missing row is a no-op")
	assert.Equal(t, 0, f.tbl.Len())
}

type vetoRemoval struct {
	*table.Table
}

func (vetoRemoval) Remove(smi.OID) (*table.Row, bool) { return nil, false }

func TestDestroyRejectedByTableIsCommitFailed(t *testing.T) {
	tbl := testTable()
	m, col := Manage(tbl, request.WithRows(vetoRemoval{tbl}))
	coord := request.NewCoordinator(request.WithLogger(discardLogger()))
	f := &fixture{tbl: tbl, m: m, col: col, coord: coord}

	require.True(t, f.set(vb(colName, "1", smi.OctetString("x")), vb(colStatus, "1", status(smi.CreateAndGo))).OK())

	resp := f.set(vb(colDescr, "1", smi.OctetString("changed")), vb(colStatus, "1", status(smi.Destroy)))
	assert.Equal(t, smi.CommitFailed, resp.Status)
	assert.Equal(t, 2, resp.Index)
	assert.Equal(t, smi.Active, f.statusOf(t, "1"), "status column unchanged")

	row, _ := tbl.Get(smi.OID{1})
	assert.Equal(t, smi.OctetString(""), row.Value(1), "the value write in the same request was undone")
}

func TestStrictModePanicsOnCommitFailed(t *testing.T) {
	tbl := testTable()
	m, col := Manage(tbl, request.WithRows(vetoRemoval{tbl}))
	coord := request.NewCoordinator(request.WithLogger(discardLogger()), request.WithStrict(true))
	f := &fixture{tbl: tbl, m: m, col: col, coord: coord}
	require.True(t, f.set(vb(colName, "1", smi.OctetString("x")), vb(colStatus, "1", status(smi.CreateAndGo))).OK())

	assert.Panics(t, func() {
		f.set(vb(colStatus, "1", status(smi.Destroy)))
	})
}

// failingColumn prepares cleanly and fails at commit.
type failingColumn struct{}

func (failingColumn) Prepare(*request.Subrequest) {}
func (failingColumn) Commit(sub *request.Subrequest) {
	sub.SetError(smi.CommitFailed)
}
func (failingColumn) Undo(*request.Subrequest)    {}
func (failingColumn) Cleanup(*request.Subrequest) {}

func TestDestroyUndoRestoresRowExactly(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.set(
		vb(colName, "1", smi.OctetString("one")),
		vb(colDescr, "1", smi.OctetString("first row")),
		vb(colStatus, "1", status(smi.CreateAndGo)),
	).OK())
	before, _ := f.tbl.Get(smi.OID{1})
	beforeValues := before.Values()

	var events []*Event
	f.col.AddListener(&ListenerFuncs{Changed: func(ev *Event) { events = append(events, ev) }})

	// A second table whose only column fails at commit forces undo.
	other := table.New("failTable", smi.MustParseOID("1.3.6.1.4.1.99999.2.1"), table.MustSchema(0,
		table.ColumnDef{SubID: 1, Name: "x", Syntax: smi.SyntaxInteger, Access: table.ReadWrite},
	))
	require.True(t, other.Add(other.NewRow(smi.OID{1})))
	failing := request.Manage(other, request.WithColumn(1, failingColumn{}))

	req := f.coord.NewRequest("")
	b := vb(colStatus, "1", status(smi.Destroy))
	req.Add(f.m, colStatus, smi.OID{1}, b)
	req.Add(failing, 1, smi.OID{1}, smi.VarBind{OID: smi.MustParseOID("1.3.6.1.4.1.99999.2.1.1.1"), Value: smi.Integer(1)})
	resp := f.coord.Execute(context.Background(), req)

	assert.Equal(t, smi.CommitFailed, resp.Status)
	assert.Equal(t, 2, resp.Index)

	after, ok := f.tbl.Get(smi.OID{1})
	require.True(t, ok, "destroyed row re-inserted")
	assert.Equal(t, before.Index(), after.Index())
	assert.Equal(t, beforeValues, after.Values())

	require.Len(t, events, 2)
	assert.Equal(t, smi.Destroy, events[0].New)
	assert.False(t, events[0].Undo)
	assert.True(t, events[1].Undo)
	assert.Equal(t, smi.Active, events[1].New)
}

func TestCreateUndoRemovesRow(t *testing.T) {
	f := newFixture(t)
	other := table.New("failTable", smi.MustParseOID("1.3.6.1.4.1.99999.2.1"), table.MustSchema(0,
		table.ColumnDef{SubID: 1, Name: "x", Syntax: smi.SyntaxInteger, Access: table.ReadWrite},
	))
	require.True(t, other.Add(other.NewRow(smi.OID{1})))
	failing := request.Manage(other, request.WithColumn(1, failingColumn{}))

	var undone []*Event
	f.col.AddListener(&ListenerFuncs{Changed: func(ev *Event) {
		if ev.Undo {
			undone = append(undone, ev)
		}
	}})

	req := f.coord.NewRequest("")
	req.Add(f.m, colName, smi.OID{4}, vb(colName, "4", smi.OctetString("four")))
	req.Add(f.m, colStatus, smi.OID{4}, vb(colStatus, "4", status(smi.CreateAndGo)))
	req.Add(failing, 1, smi.OID{1}, smi.VarBind{OID: smi.MustParseOID("1.3.6.1.4.1.99999.2.1.1.1"), Value: smi.Integer(1)})
	resp := f.coord.Execute(context.Background(), req)

	assert.Equal(t, smi.CommitFailed, resp.Status)
	assert.Equal(t, 0, f.tbl.Len())
	require.Len(t, undone, 1)
	assert.Equal(t, smi.NotExistant, undone[0].New)
}

func TestListenerVeto(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.set(vb(colName, "1", smi.OctetString("x")), vb(colStatus, "1", status(smi.CreateAndGo))).OK())

	var changed int
	f.col.AddListener(&ListenerFuncs{
		Changing: func(ev *Event) smi.ErrorStatus {
			if ev.Old == smi.Active && ev.New != smi.Active {
				return smi.InconsistentValue
			}
			return smi.NoError
		},
		Changed: func(*Event) { changed++ },
	})

	resp := f.set(vb(colStatus, "1", status(smi.NotInService)))
	assert.Equal(t, smi.InconsistentValue, resp.Status)
	assert.Equal(t, smi.Active, f.statusOf(t, "1"))
	assert.Zero(t, changed, "no post-commit event for a vetoed transition")

	resp = f.set(vb(colStatus, "1", status(smi.Active)))
	assert.True(t, resp.OK())
	assert.Equal(t, 1, changed)
}

func TestRemoveListener(t *testing.T) {
	f := newFixture(t)
	var calls int
	l := &ListenerFuncs{Changed: func(*Event) { calls++ }}
	f.col.AddListener(l)
	f.col.RemoveListener(l)

	require.True(t, f.set(vb(colName, "1", smi.OctetString("x")), vb(colStatus, "1", status(smi.CreateAndGo))).OK())
	assert.Zero(t, calls)
}

func TestActiveRowsFilter(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.set(vb(colName, "1", smi.OctetString("a")), vb(colStatus, "1", status(smi.CreateAndGo))).OK())
	require.True(t, f.set(vb(colName, "2", smi.OctetString("b")), vb(colStatus, "2", status(smi.CreateAndWait))).OK())
	require.True(t, f.set(vb(colName, "3", smi.OctetString("c")), vb(colStatus, "3", status(smi.CreateAndGo))).OK())

	var active []string
	for _, r := range f.tbl.Snapshot(f.col.Filter()) {
		active = append(active, r.Index().String())
	}
	assert.Equal(t, []string{"1", "3"}, active)
}

func TestActivateAdministrative(t *testing.T) {
	tbl := testTable()
	col := New(tbl)

	row := tbl.NewRow(smi.OID{7})
	assert.Equal(t, smi.InconsistentValue, col.Activate(row, smi.CreateAndGo))
	row.SetValue(0, smi.OctetString("seven"))
	require.Equal(t, smi.NoError, col.Activate(row, smi.CreateAndGo))
	assert.Equal(t, smi.Active, row.Status(col.Position()))
	assert.Equal(t, smi.WrongValue, col.Activate(row, smi.CreateAndWait))
}

func TestActivateWithRestoresStatusWhenPlacementFails(t *testing.T) {
	tbl := testTable()
	col := New(tbl)
	row := tbl.NewRow(smi.OID{7})
	row.SetValue(0, smi.OctetString("seven"))
	require.Equal(t, smi.NoError, col.Activate(row, smi.CreateAndGo))

	var changed int
	col.AddListener(&ListenerFuncs{Changed: func(*Event) { changed++ }})
	assert.Equal(t, smi.CommitFailed, col.ActivateWith(row, smi.Destroy, func() bool { return false }))
	assert.Equal(t, smi.Active, row.Status(col.Position()))
	assert.Zero(t, changed)

	assert.Equal(t, smi.NoError, col.ActivateWith(row, smi.Destroy, func() bool { return true }))
	assert.Equal(t, 1, changed)
}

func TestConcurrentCreateOfSameRow(t *testing.T) {
	f := newFixture(t)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		oks int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := f.set(vb(colName, "1", smi.OctetString("x")), vb(colStatus, "1", status(smi.CreateAndGo)))
			mu.Lock()
			defer mu.Unlock()
			if resp.OK() {
				oks++
			} else {
				assert.Equal(t, smi.WrongValue, resp.Status)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, oks)
	assert.Equal(t, 1, f.tbl.Len())
}
