package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/snmpcore/internal/request"
	"github.com/roach88/snmpcore/internal/rowstatus"
	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/table"
)

var syntaxByName = map[string]smi.Syntax{
	"integer":   smi.SyntaxInteger,
	"octets":    smi.SyntaxOctetString,
	"oid":       smi.SyntaxObjectIdentifier,
	"ipaddress": smi.SyntaxIPAddress,
	"counter32": smi.SyntaxCounter32,
	"gauge32":   smi.SyntaxGauge32,
	"timeticks": smi.SyntaxTimeTicks,
	"opaque":    smi.SyntaxOpaque,
	"counter64": smi.SyntaxCounter64,
}

var accessByName = map[string]table.Access{
	"not-accessible": table.NotAccessible,
	"read-only":      table.ReadOnly,
	"read-write":     table.ReadWrite,
	"read-create":    table.ReadCreate,
}

// columnDef converts a ColumnSpec.
func (c ColumnSpec) columnDef() (table.ColumnDef, error) {
	def := table.ColumnDef{
		SubID:     c.SubID,
		Name:      c.Name,
		Mandatory: c.Mandatory,
		MinLen:    c.MinLen,
		MaxLen:    c.MaxLen,
		Enum:      c.Enum,
	}
	var ok bool
	if def.Syntax, ok = syntaxByName[strings.ToLower(c.Syntax)]; !ok {
		return def, fmt.Errorf("column %q: unknown syntax %q", c.Name, c.Syntax)
	}
	if def.Access, ok = accessByName[strings.ToLower(c.Access)]; !ok {
		return def, fmt.Errorf("column %q: unknown access %q", c.Name, c.Access)
	}
	if c.Default != "" {
		v, err := smi.ParseTypedValue(c.Default)
		if err != nil {
			return def, fmt.Errorf("column %q: default: %w", c.Name, err)
		}
		def.Default = v
	}
	if c.Range != nil {
		if len(c.Range) != 2 || c.Range[0] > c.Range[1] {
			return def, fmt.Errorf("column %q: range must be [min, max]", c.Name)
		}
		def.Range = &table.Range{Min: c.Range[0], Max: c.Range[1]}
	}
	return def, nil
}

func buildSchema(spec TableSpec) (*table.Schema, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if _, err := smi.ParseOID(spec.Entry); err != nil {
		return nil, fmt.Errorf("table %s: entry: %w", spec.Name, err)
	}
	if len(spec.Columns) == 0 {
		return nil, fmt.Errorf("table %s: columns list is required", spec.Name)
	}
	defs := make([]table.ColumnDef, len(spec.Columns))
	for i, c := range spec.Columns {
		def, err := c.columnDef()
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", spec.Name, err)
		}
		defs[i] = def
	}
	schema, err := table.NewSchema(spec.Status, defs...)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", spec.Name, err)
	}
	return schema, nil
}

// buildTable creates a fresh managed table; status tables get a RowStatus
// column handler.
func buildTable(spec TableSpec) (*request.ManagedTable, error) {
	schema, err := buildSchema(spec)
	if err != nil {
		return nil, err
	}
	t := table.New(spec.Name, smi.MustParseOID(spec.Entry), schema)

	var opts []request.TableOption
	if spec.Persistent {
		opts = append(opts, request.Persistent())
	}
	if schema.HasStatus() {
		m, _ := rowstatus.Manage(t, opts...)
		return m, nil
	}
	return request.Manage(t, opts...), nil
}
