package vacm

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/snmpcore/internal/request"
	"github.com/roach88/snmpcore/internal/smi"
)

type contextSet map[string]bool

func (c contextSet) Supported(name string) bool { return c[name] }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// aliceStore holds group G for (USM, alice), one exact access entry and the
// view "all" with 1.3.6.1 excluded and 1.3.6.1.2.1 included.
func aliceStore(t *testing.T, opts ...StoreOption) *Store {
	t.Helper()
	s := NewStore(opts...)
	require.NoError(t, s.AddGroup(GroupMapping{Model: smi.SecurityModelUSM, SecurityName: "alice", Group: "G"}))
	require.NoError(t, s.AddViewTreeFamily(ViewTreeFamily{View: "all", Subtree: smi.MustParseOID("1.3.6.1"), Mask: []byte{0xff}, Kind: Excluded}))
	require.NoError(t, s.AddViewTreeFamily(ViewTreeFamily{View: "all", Subtree: smi.MustParseOID("1.3.6.1.2.1"), Mask: []byte{0xff}, Kind: Included}))
	require.NoError(t, s.AddAccess(AccessEntry{
		Group: "G", ContextPrefix: "", Model: smi.SecurityModelUSM, Level: smi.AuthNoPriv,
		Match: Exact, ReadView: "all",
	}))
	return s
}

func TestEndToEndAccess(t *testing.T) {
	e := NewEngine(aliceStore(t), contextSet{"": true}, WithLogger(discard()))
	sysDescr := smi.MustParseOID("1.3.6.1.2.1.1.1.0")

	assert.Equal(t, Ok, e.IsAccessAllowed("", "alice", smi.SecurityModelUSM, smi.AuthNoPriv, Read, sysDescr))
	assert.Equal(t, Ok, e.IsAccessAllowed("", "alice", smi.SecurityModelUSM, smi.AuthPriv, Read, sysDescr), "higher level satisfies a lower entry")
	assert.Equal(t, NotInView, e.IsAccessAllowed("", "alice", smi.SecurityModelUSM, smi.AuthNoPriv, Read, smi.MustParseOID("1.3.6.1.99")))
	assert.Equal(t, NoSuchView, e.IsAccessAllowed("", "alice", smi.SecurityModelUSM, smi.AuthNoPriv, Write, sysDescr))
	assert.Equal(t, NoAccessEntry, e.IsAccessAllowed("", "alice", smi.SecurityModelUSM, smi.NoAuthNoPriv, Read, sysDescr))
	assert.Equal(t, NoGroupName, e.IsAccessAllowed("", "bob", smi.SecurityModelUSM, smi.AuthNoPriv, Read, sysDescr))
	assert.Equal(t, NoGroupName, e.IsAccessAllowed("", "alice", smi.SecurityModelV2c, smi.AuthNoPriv, Read, sysDescr))
}

func TestUnknownContextIsNoSuchContext(t *testing.T) {
	e := NewEngine(aliceStore(t), contextSet{"": true}, WithLogger(discard()))
	for _, model := range []smi.SecurityModel{smi.SecurityModelV1, smi.SecurityModelUSM} {
		for _, level := range []smi.SecurityLevel{smi.NoAuthNoPriv, smi.AuthPriv} {
			assert.Equal(t, NoSuchContext, e.IsAccessAllowed("other", "alice", model, level, Read, smi.MustParseOID("1.3.6.1.2.1.1.0")))
		}
	}
}

func TestViewScenario(t *testing.T) {
	e := NewEngine(aliceStore(t), contextSet{}, WithLogger(discard()))

	assert.Equal(t, Ok, e.IsInView("all", smi.MustParseOID("1.3.6.1.2.1.1.0")))
	assert.Equal(t, NotInView, e.IsInView("all", smi.MustParseOID("1.3.6.1.99")))
	assert.Equal(t, NotInView, e.IsInView("all", smi.MustParseOID("1.2")), "no family matches")
	assert.Equal(t, NoSuchView, e.IsInView("none", smi.MustParseOID("1.3.6.1")))
}

func TestLastMatchingFamilyDecides(t *testing.T) {
	s := NewStore()
	// Index order sorts the 4-arc subtree before the 6-arc one whatever
	// the arcs, so the included family is consulted last.
	require.NoError(t, s.AddViewTreeFamily(ViewTreeFamily{View: "v", Subtree: smi.MustParseOID("1.3.6.1.2.1"), Mask: []byte{0xff}, Kind: Included}))
	require.NoError(t, s.AddViewTreeFamily(ViewTreeFamily{View: "v", Subtree: smi.MustParseOID("1.3.6.1"), Mask: []byte{0xff}, Kind: Excluded}))
	e := NewEngine(s, contextSet{}, WithLogger(discard()))

	assert.Equal(t, Ok, e.IsInView("v", smi.MustParseOID("1.3.6.1.2.1.4")))
	assert.Equal(t, NotInView, e.IsInView("v", smi.MustParseOID("1.3.6.1.4")))
}

func TestExactContextBeatsHigherLevelPrefix(t *testing.T) {
	s := aliceStore(t)
	require.NoError(t, s.AddAccess(AccessEntry{Group: "G", ContextPrefix: "ctx", Model: smi.SecurityModelUSM, Level: smi.NoAuthNoPriv, Match: Exact, ReadView: "exact"}))
	require.NoError(t, s.AddAccess(AccessEntry{Group: "G", ContextPrefix: "c", Model: smi.SecurityModelUSM, Level: smi.AuthPriv, Match: Prefix, ReadView: "prefix"}))
	e := NewEngine(s, contextSet{"": true, "ctx": true}, WithLogger(discard()))

	view, verdict := e.ViewName("ctx", "alice", smi.SecurityModelUSM, smi.AuthPriv, Read)
	assert.Equal(t, Ok, verdict)
	assert.Equal(t, "exact", view)
}

func TestInactiveRowsAreInert(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddGroup(GroupMapping{Model: smi.SecurityModelV2c, SecurityName: "public", Group: "ro", Status: smi.NotInService}))
	require.NoError(t, s.AddAccess(AccessEntry{Group: "ro", Model: smi.SecurityModelAny, Level: smi.NoAuthNoPriv, ReadView: "v"}))
	require.NoError(t, s.AddViewTreeFamily(ViewTreeFamily{View: "v", Subtree: smi.MustParseOID("1"), Status: smi.NotInService}))
	e := NewEngine(s, contextSet{"": true}, WithLogger(discard()))
	oid := smi.MustParseOID("1.3.6.1.2.1.1.0")

	assert.Equal(t, NoGroupName, e.IsAccessAllowed("", "public", smi.SecurityModelV2c, smi.NoAuthNoPriv, Read, oid))

	m := s.Tables()[0]
	coord := request.NewCoordinator(request.WithLogger(discard()))
	req := coord.NewRequest("")
	idx := GroupIndex(smi.SecurityModelV2c, "public")
	req.Add(m, 5, idx, smi.VarBind{OID: GroupEntryOID.Append(5).Append(idx...), Value: smi.Integer(smi.Active)})
	require.True(t, coord.Execute(context.Background(), req).OK())

	assert.Equal(t, NoSuchView, e.IsAccessAllowed("", "public", smi.SecurityModelV2c, smi.NoAuthNoPriv, Read, oid), "view has no active family")
}

func TestNotifyFilter(t *testing.T) {
	s := aliceStore(t)
	require.NoError(t, s.AddAccess(AccessEntry{Group: "G", Model: smi.SecurityModelUSM, Level: smi.AuthPriv, NotifyView: "all"}))
	e := NewEngine(s, contextSet{"": true}, WithLogger(discard()))

	f, verdict := e.NotifyFilter("", "alice", smi.SecurityModelUSM, smi.AuthPriv)
	require.Equal(t, Ok, verdict)
	assert.Equal(t, "all", f.View)
	assert.True(t, f.Allows(smi.MustParseOID("1.3.6.1.2.1.1.3.0")))
	assert.False(t, f.Allows(smi.MustParseOID("1.3.6.1.6.3.1.1.5.1")))
	assert.Equal(t, NotInView, f.Verdict(smi.MustParseOID("1.3.6.1.6")))

	_, verdict = e.NotifyFilter("", "alice", smi.SecurityModelUSM, smi.AuthNoPriv)
	assert.Equal(t, NoSuchView, verdict, "authNoPriv entry has no notify view")
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "ok", Ok.String())
	assert.Equal(t, "notInView", NotInView.String())
	assert.Equal(t, "verdict(42)", Verdict(42).String())
}
