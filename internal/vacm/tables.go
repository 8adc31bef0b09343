package vacm

import (
	"bytes"
	"fmt"

	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/table"
)

// Entry OIDs of the VACM tables (SNMP-VIEW-BASED-ACM-MIB).
var (
	GroupEntryOID  = smi.MustParseOID("1.3.6.1.6.3.16.1.2.1")
	AccessEntryOID = smi.MustParseOID("1.3.6.1.6.3.16.1.4.1")
	ViewEntryOID   = smi.MustParseOID("1.3.6.1.6.3.16.1.5.2.1")
)

// Table names, used for persistence and diagnostics.
const (
	GroupTableName  = "vacmSecurityToGroupTable"
	AccessTableName = "vacmAccessTable"
	ViewTableName   = "vacmViewTreeFamilyTable"
)

// Column positions in the schemas below.
const (
	groupNamePos = iota
	groupStoragePos
	groupStatusPos
)

const (
	accessMatchPos = iota
	accessReadPos
	accessWritePos
	accessNotifyPos
	accessStoragePos
	accessStatusPos
)

const (
	viewMaskPos = iota
	viewKindPos
	viewStoragePos
	viewStatusPos
)

var storageRange = &table.Range{Min: int64(smi.StorageOther), Max: int64(smi.StorageReadOnly)}

func storageColumn(subID uint32, name string) table.ColumnDef {
	return table.ColumnDef{
		SubID: subID, Name: name, Syntax: smi.SyntaxInteger, Access: table.ReadCreate,
		Default: smi.Integer(smi.StorageNonVolatile), Range: storageRange,
	}
}

func statusColumn(subID uint32, name string) table.ColumnDef {
	return table.ColumnDef{SubID: subID, Name: name, Syntax: smi.SyntaxInteger, Access: table.ReadCreate}
}

func viewNameColumn(subID uint32, name string) table.ColumnDef {
	return table.ColumnDef{
		SubID: subID, Name: name, Syntax: smi.SyntaxOctetString, Access: table.ReadCreate,
		Default: smi.OctetString(""), MaxLen: 32,
	}
}

func newGroupTable() *table.Table {
	return table.New(GroupTableName, GroupEntryOID, table.MustSchema(5,
		table.ColumnDef{
			SubID: 3, Name: "vacmGroupName", Syntax: smi.SyntaxOctetString, Access: table.ReadCreate,
			Mandatory: true, MinLen: 1, MaxLen: 32,
		},
		storageColumn(4, "vacmSecurityToGroupStorageType"),
		statusColumn(5, "vacmSecurityToGroupStatus"),
	))
}

func newAccessTable() *table.Table {
	return table.New(AccessTableName, AccessEntryOID, table.MustSchema(9,
		table.ColumnDef{
			SubID: 4, Name: "vacmAccessContextMatch", Syntax: smi.SyntaxInteger, Access: table.ReadCreate,
			Default: smi.Integer(Exact), Enum: []int64{int64(Exact), int64(Prefix)},
		},
		viewNameColumn(5, "vacmAccessReadViewName"),
		viewNameColumn(6, "vacmAccessWriteViewName"),
		viewNameColumn(7, "vacmAccessNotifyViewName"),
		storageColumn(8, "vacmAccessStorageType"),
		statusColumn(9, "vacmAccessStatus"),
	))
}

func newViewTable() *table.Table {
	return table.New(ViewTableName, ViewEntryOID, table.MustSchema(6,
		table.ColumnDef{
			SubID: 3, Name: "vacmViewTreeFamilyMask", Syntax: smi.SyntaxOctetString, Access: table.ReadCreate,
			Default: smi.OctetString(""), MaxLen: 16,
		},
		table.ColumnDef{
			SubID: 4, Name: "vacmViewTreeFamilyType", Syntax: smi.SyntaxInteger, Access: table.ReadCreate,
			Default: smi.Integer(Included), Enum: []int64{int64(Included), int64(Excluded)},
		},
		storageColumn(5, "vacmViewTreeFamilyStorageType"),
		statusColumn(6, "vacmViewTreeFamilyStatus"),
	))
}

// GroupIndex encodes vacmSecurityModel.vacmSecurityName.
func GroupIndex(model smi.SecurityModel, securityName string) smi.OID {
	return smi.Index(smi.OID{uint32(model)}, smi.StringIndex([]byte(securityName)))
}

// AccessIndex encodes vacmGroupName.vacmAccessContextPrefix.vacmAccessSecurityModel.vacmAccessSecurityLevel.
func AccessIndex(group, contextPrefix string, model smi.SecurityModel, level smi.SecurityLevel) smi.OID {
	return smi.Index(
		smi.StringIndex([]byte(group)),
		smi.StringIndex([]byte(contextPrefix)),
		smi.OID{uint32(model), uint32(level)},
	)
}

// ViewIndex encodes vacmViewTreeFamilyViewName.vacmViewTreeFamilySubtree.
func ViewIndex(view string, subtree smi.OID) smi.OID {
	return smi.Index(smi.StringIndex([]byte(view)), smi.OIDIndex(subtree))
}

func decodeGroupIndex(idx smi.OID) (GroupMapping, error) {
	d := smi.NewIndexDecoder(idx)
	g := GroupMapping{Model: smi.SecurityModel(d.Int()), SecurityName: string(d.Octets())}
	if err := d.Err(); err != nil {
		return g, fmt.Errorf("group index %s: %w", idx, err)
	}
	return g, nil
}

func decodeAccessIndex(idx smi.OID) (AccessEntry, error) {
	d := smi.NewIndexDecoder(idx)
	e := AccessEntry{
		Group:         string(d.Octets()),
		ContextPrefix: string(d.Octets()),
		Model:         smi.SecurityModel(d.Int()),
		Level:         smi.SecurityLevel(d.Int()),
	}
	if err := d.Err(); err != nil {
		return e, fmt.Errorf("access index %s: %w", idx, err)
	}
	if !e.Level.Valid() {
		return e, fmt.Errorf("access index %s: %s", idx, e.Level)
	}
	return e, nil
}

func decodeViewIndex(idx smi.OID) (ViewTreeFamily, error) {
	d := smi.NewIndexDecoder(idx)
	f := ViewTreeFamily{View: string(d.Octets()), Subtree: d.OID()}
	if err := d.Err(); err != nil {
		return f, fmt.Errorf("view index %s: %w", idx, err)
	}
	return f, nil
}

func validGroupIndex(idx smi.OID) error {
	g, err := decodeGroupIndex(idx)
	if err == nil && (len(g.SecurityName) == 0 || len(g.SecurityName) > 32) {
		err = fmt.Errorf("group index %s: security name length %d", idx, len(g.SecurityName))
	}
	return err
}

func validAccessIndex(idx smi.OID) error {
	e, err := decodeAccessIndex(idx)
	if err == nil && (len(e.Group) == 0 || len(e.Group) > 32 || len(e.ContextPrefix) > 32) {
		err = fmt.Errorf("access index %s: name length out of range", idx)
	}
	return err
}

func validViewIndex(idx smi.OID) error {
	f, err := decodeViewIndex(idx)
	if err == nil && (len(f.View) == 0 || len(f.View) > 32 || len(f.Subtree) > 128) {
		err = fmt.Errorf("view index %s: component length out of range", idx)
	}
	return err
}

func groupFromRow(r *table.Row) (GroupMapping, error) {
	g, err := decodeGroupIndex(r.Index())
	if err != nil {
		return g, err
	}
	g.Group = octets(r.Value(groupNamePos))
	g.Storage = smi.StorageType(integer(r.Value(groupStoragePos)))
	g.Status = r.Status(groupStatusPos)
	return g, nil
}

func accessFromRow(r *table.Row) (AccessEntry, error) {
	e, err := decodeAccessIndex(r.Index())
	if err != nil {
		return e, err
	}
	e.Match = MatchType(integer(r.Value(accessMatchPos)))
	e.ReadView = octets(r.Value(accessReadPos))
	e.WriteView = octets(r.Value(accessWritePos))
	e.NotifyView = octets(r.Value(accessNotifyPos))
	e.Storage = smi.StorageType(integer(r.Value(accessStoragePos)))
	e.Status = r.Status(accessStatusPos)
	return e, nil
}

func viewFromRow(r *table.Row) (ViewTreeFamily, error) {
	f, err := decodeViewIndex(r.Index())
	if err != nil {
		return f, err
	}
	f.Mask = bytes.Clone(octetsValue(r.Value(viewMaskPos)))
	f.Kind = Kind(integer(r.Value(viewKindPos)))
	f.Storage = smi.StorageType(integer(r.Value(viewStoragePos)))
	f.Status = r.Status(viewStatusPos)
	return f, nil
}

func octets(v smi.Variable) string {
	return string(octetsValue(v))
}

func octetsValue(v smi.Variable) smi.OctetString {
	s, _ := v.(smi.OctetString)
	return s
}

func integer(v smi.Variable) int {
	i, _ := v.(smi.Integer)
	return int(i)
}

func storageOrDefault(t smi.StorageType) smi.Variable {
	if t == 0 {
		t = smi.StorageNonVolatile
	}
	return smi.Integer(t)
}
