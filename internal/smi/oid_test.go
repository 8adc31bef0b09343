package smi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOID(t *testing.T) {
	oid, err := ParseOID(".1.3.6.1.2.1.1.0")
	require.NoError(t, err)
	assert.Equal(t, OID{1, 3, 6, 1, 2, 1, 1, 0}, oid)
	assert.Equal(t, "1.3.6.1.2.1.1.0", oid.String())

	empty, err := ParseOID("")
	require.NoError(t, err)
	assert.Len(t, empty, 0)

	_, err = ParseOID("1.3.x")
	assert.Error(t, err)
	_, err = ParseOID("1.3.-1")
	assert.Error(t, err)
}

func TestOIDCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.3.6", "1.3.6", 0},
		{"1.3.6", "1.3.6.1", -1},
		{"1.3.6.1", "1.3.6", 1},
		{"1.3.7", "1.3.6.1", 1},
		{"1.3.6.1.2", "1.3.6.1.10", -1},
		{"", "0", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParseOID(tt.a).Compare(MustParseOID(tt.b)))
		})
	}
}

func TestOIDHasPrefix(t *testing.T) {
	oid := MustParseOID("1.3.6.1.2.1.1.0")
	assert.True(t, oid.HasPrefix(MustParseOID("1.3.6.1")))
	assert.True(t, oid.HasPrefix(oid))
	assert.True(t, oid.HasPrefix(OID{}))
	assert.False(t, oid.HasPrefix(MustParseOID("1.3.6.2")))
	assert.False(t, MustParseOID("1.3").HasPrefix(oid))
}

func TestOIDAppendDoesNotAlias(t *testing.T) {
	base := make(OID, 2, 8)
	base[0], base[1] = 1, 3
	a := base.Append(6)
	b := base.Append(7)
	assert.Equal(t, "1.3.6", a.String())
	assert.Equal(t, "1.3.7", b.String())
}

func TestIndexRoundTrip(t *testing.T) {
	idx := Index(
		StringIndex([]byte("G")),
		StringIndex(nil),
		OID{uint32(SecurityModelUSM)},
		OIDIndex(MustParseOID("1.3.6.1")),
	)
	assert.Equal(t, "1.71.0.3.4.1.3.6.1", idx.String())

	d := NewIndexDecoder(idx)
	assert.Equal(t, []byte("G"), d.Octets())
	assert.Equal(t, []byte{}, d.Octets())
	assert.Equal(t, 3, d.Int())
	assert.Equal(t, MustParseOID("1.3.6.1"), d.OID())
	assert.NoError(t, d.Err())
}

func TestIndexDecoderErrors(t *testing.T) {
	d := NewIndexDecoder(OID{3, 65, 66})
	d.Octets()
	assert.ErrorIs(t, d.Err(), ErrIndexTruncated)

	d = NewIndexDecoder(OID{1, 300})
	d.Octets()
	assert.Error(t, d.Err())

	d = NewIndexDecoder(OID{1, 65, 9})
	d.Octets()
	assert.Error(t, d.Err(), "trailing arcs must be reported")
}

func TestParseVariable(t *testing.T) {
	tests := []struct {
		kind, text string
		want       Variable
	}{
		{"i", "-5", Integer(-5)},
		{"u", "7", Gauge32(7)},
		{"c", "7", Counter32(7)},
		{"t", "100", TimeTicks(100)},
		{"C", "18446744073709551615", Counter64(18446744073709551615)},
		{"a", "10.0.0.1", IPAddress{10, 0, 0, 1}},
		{"o", "1.3.6", OID{1, 3, 6}},
		{"s", "all", OctetString("all")},
		{"x", "ff00", OctetString{0xff, 0x00}},
		{"n", "", Null{}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got, err := ParseVariable(tt.kind, tt.text)
			require.NoError(t, err)
			assert.True(t, tt.want.EqualValue(got), "got %v", got)
		})
	}

	_, err := ParseVariable("q", "1")
	assert.Error(t, err)
	_, err = ParseVariable("a", "::1")
	assert.Error(t, err)
}

func TestEnumsRoundTripThroughNames(t *testing.T) {
	for s := Active; s <= Destroy; s++ {
		got, err := ParseRowStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	for _, l := range []SecurityLevel{NoAuthNoPriv, AuthNoPriv, AuthPriv} {
		got, err := ParseSecurityLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	m, err := ParseSecurityModel("USM")
	require.NoError(t, err)
	assert.Equal(t, SecurityModelUSM, m)
	m, err = ParseSecurityModel("42")
	require.NoError(t, err)
	assert.Equal(t, SecurityModel(42), m)
	for st := StorageOther; st <= StorageReadOnly; st++ {
		got, err := ParseStorageType(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	_, err = ParseStorageType("forever")
	assert.Error(t, err)

	assert.Equal(t, "commitFailed", CommitFailed.String())
	assert.True(t, UndoFailed.Structural())
	assert.False(t, WrongValue.Structural())
	assert.Equal(t, "0x0001", OctetString{0, 1}.String())
}
