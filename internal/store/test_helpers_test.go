package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/table"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTable returns a three-column table: name, port, status.
func createTestTable() *table.Table {
	schema := table.MustSchema(3,
		table.ColumnDef{SubID: 1, Name: "name", Syntax: smi.SyntaxOctetString, Access: table.ReadCreate},
		table.ColumnDef{SubID: 2, Name: "port", Syntax: smi.SyntaxInteger, Access: table.ReadCreate},
		table.ColumnDef{SubID: 3, Name: "status", Syntax: smi.SyntaxInteger, Access: table.ReadCreate},
	)
	return table.New("testTable", smi.MustParseOID("1.3.6.1.4.1.99999.9.1"), schema)
}
