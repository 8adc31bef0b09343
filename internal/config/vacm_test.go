package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/vacm"
)

func TestLoadVACM(t *testing.T) {
	b, err := LoadVACM("testdata/vacm.yaml")
	require.NoError(t, err)

	require.Len(t, b.Groups, 2)
	assert.Equal(t, vacm.GroupMapping{Model: smi.SecurityModelUSM, SecurityName: "alice", Group: "admins"}, b.Groups[0])
	assert.Equal(t, smi.StorageVolatile, b.Groups[1].Storage)

	require.Len(t, b.Views, 4)
	assert.Equal(t, []byte{0xff}, b.Views[0].Mask, "missing mask covers every arc")
	assert.Equal(t, vacm.Excluded, b.Views[2].Kind)
	assert.Equal(t, []byte{0xff, 0xa0}, b.Views[3].Mask)

	require.Len(t, b.Access, 2)
	assert.Equal(t, smi.SecurityModelAny, b.Access[0].Model)
	assert.Equal(t, smi.AuthNoPriv, b.Access[0].Level)
	assert.Equal(t, "system", b.Access[1].ReadView)
	assert.Empty(t, b.Access[1].WriteView)
}

func TestBootstrapApply(t *testing.T) {
	b, err := LoadVACM("testdata/vacm.yaml")
	require.NoError(t, err)

	store := vacm.NewStore()
	added, err := b.Apply(store)
	require.NoError(t, err)
	assert.Equal(t, 8, added)

	group, ok := store.Group(smi.SecurityModelUSM, "alice")
	require.True(t, ok)
	assert.Equal(t, "admins", group)
	assert.Len(t, store.ActiveFamilies("system"), 2)

	engine := vacm.NewEngine(store, contextSet{""})
	assert.Equal(t, vacm.Ok, engine.IsAccessAllowed("", "public", smi.SecurityModelV2c, smi.NoAuthNoPriv,
		vacm.Read, smi.MustParseOID("1.3.6.1.2.1.1.5.0")))
	assert.Equal(t, vacm.NotInView, engine.IsAccessAllowed("", "public", smi.SecurityModelV2c, smi.NoAuthNoPriv,
		vacm.Read, smi.MustParseOID("1.3.6.1.2.1.1.9.1.2.1")))
	assert.Equal(t, vacm.NoSuchView, engine.IsAccessAllowed("", "public", smi.SecurityModelV2c, smi.NoAuthNoPriv,
		vacm.Write, smi.MustParseOID("1.3.6.1.2.1.1.5.0")))

	// Rows already present are kept.
	added, err = b.Apply(store)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Len(t, store.GroupMappings(), 2)
}

func TestBootstrapApply_StopsOnRejectedRow(t *testing.T) {
	b := &Bootstrap{
		Groups: []vacm.GroupMapping{
			{Model: smi.SecurityModelUSM, SecurityName: "alice", Group: "admins"},
			{Model: smi.SecurityModelUSM, SecurityName: "bob", Group: "this-group-name-is-far-longer-than-32-octets"},
		},
	}
	added, err := b.Apply(vacm.NewStore())
	require.Error(t, err)
	assert.True(t, vacm.IsRejected(err))
	assert.Equal(t, 1, added)
}

func TestParseVACM_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"bad model", "groups:\n  - {model: v4, security_name: a, group: g}\n", "groups[0].model"},
		{"missing group", "groups:\n  - {model: usm, security_name: a}\n", "groups[0].group"},
		{"bad subtree", "views:\n  - {view: v, subtree: 1.x}\n", "views[0].subtree"},
		{"bad mask", "views:\n  - {view: v, subtree: 1.3, mask: zz}\n", "views[0].mask"},
		{"bad kind", "views:\n  - {view: v, subtree: 1.3, kind: maybe}\n", "views[0].kind"},
		{"bad level", "access:\n  - {group: g, context_prefix: '', model: any, level: high}\n", "access[0].level"},
		{"bad match", "access:\n  - {group: g, context_prefix: '', model: any, level: authPriv, match: fuzzy}\n", "access[0].match"},
		{"destroy status", "groups:\n  - {model: usm, security_name: a, group: g, status: destroy}\n", "groups[0].status"},
		{"bad storage", "groups:\n  - {model: usm, security_name: a, group: g, storage: forever}\n", "groups[0].storage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVACM([]byte(tt.yaml))
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParseVACM_UnknownField(t *testing.T) {
	_, err := ParseVACM([]byte("groups:\n  - {model: usm, securityname: a, group: g}\n"))
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
}

func TestParseVACM_EmptyMask(t *testing.T) {
	b, err := ParseVACM([]byte("views:\n  - {view: v, subtree: 1.3.6, mask: ''}\n"))
	require.NoError(t, err)
	assert.Empty(t, b.Views[0].Mask)
	assert.True(t, vacm.SubtreeMatches(b.Views[0].Subtree, b.Views[0].Mask, smi.MustParseOID("9.9.9")))
}

func TestParseMask(t *testing.T) {
	for in, want := range map[string][]byte{
		"ff":       {0xff},
		"FF:A0":    {0xff, 0xa0},
		"0xfe":     {0xfe},
		"ff a0 01": {0xff, 0xa0, 0x01},
		"":         {},
	} {
		got, err := ParseMask(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMask("fff")
	assert.Error(t, err)
	_, err = ParseMask("ffffffffffffffffffffffffffffffffff")
	assert.Error(t, err)
}

type contextSet []string

func (c contextSet) Supported(name string) bool {
	for _, n := range c {
		if n == name {
			return true
		}
	}
	return false
}
