package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/roach88/snmpcore/internal/request"
	"github.com/roach88/snmpcore/internal/smi"
	"github.com/roach88/snmpcore/internal/table"
)

var _ request.Journal = (*Store)(nil)

// StoredRow is one committed row of a persistent table.
type StoredRow struct {
	Index  smi.OID
	Values []smi.Variable
	Seq    int64
}

// SaveRow upserts the committed values of one row.
func (s *Store) SaveRow(ctx context.Context, seq int64, contextName, tableName string, index smi.OID, values []smi.Variable) error {
	return saveRow(ctx, s.db, seq, contextName, tableName, index, values)
}

// DeleteRow removes a row. Deleting a missing row is not an error.
func (s *Store) DeleteRow(ctx context.Context, contextName, tableName string, index smi.OID) error {
	return deleteRow(ctx, s.db, contextName, tableName, index)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveRow(ctx context.Context, db execer, seq int64, contextName, tableName string, index smi.OID, values []smi.Variable) error {
	blob, err := marshalColumns(values)
	if err != nil {
		return fmt.Errorf("save row %s.%s: %w", tableName, index, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO mib_rows (context_name, table_name, row_index, columns, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(context_name, table_name, row_index)
		DO UPDATE SET columns = excluded.columns, seq = excluded.seq
	`, contextName, tableName, index.String(), blob, seq)
	if err != nil {
		return fmt.Errorf("save row %s.%s: %w", tableName, index, err)
	}
	return nil
}

func deleteRow(ctx context.Context, db execer, contextName, tableName string, index smi.OID) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM mib_rows
		WHERE context_name = ? AND table_name = ? AND row_index = ?
	`, contextName, tableName, index.String())
	if err != nil {
		return fmt.Errorf("delete row %s.%s: %w", tableName, index, err)
	}
	return nil
}

// Apply writes the changes of one committed request atomically.
func (s *Store) Apply(ctx context.Context, seq int64, changes []request.Change) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply seq %d: begin tx: %w", seq, err)
	}
	defer tx.Rollback() // No-op if committed

	for _, c := range changes {
		if c.Removed {
			err = deleteRow(ctx, tx, c.Context, c.Table, c.Index)
		} else {
			err = saveRow(ctx, tx, seq, c.Context, c.Table, c.Index, c.Values)
		}
		if err != nil {
			return fmt.Errorf("apply seq %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply seq %d: commit: %w", seq, err)
	}
	return nil
}

// LoadRows returns the stored rows of one table, ordered by index.
func (s *Store) LoadRows(ctx context.Context, contextName, tableName string) ([]StoredRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT row_index, columns, seq
		FROM mib_rows
		WHERE context_name = ? AND table_name = ?
	`, contextName, tableName)
	if err != nil {
		return nil, fmt.Errorf("load rows %s: %w", tableName, err)
	}
	defer rows.Close()

	var out []StoredRow
	for rows.Next() {
		var (
			indexText string
			blob      []byte
			r         StoredRow
		)
		if err := rows.Scan(&indexText, &blob, &r.Seq); err != nil {
			return nil, fmt.Errorf("load rows %s: scan: %w", tableName, err)
		}
		if r.Index, err = smi.ParseOID(indexText); err != nil {
			return nil, fmt.Errorf("load rows %s: index %q: %w", tableName, indexText, err)
		}
		if r.Values, err = unmarshalColumns(blob); err != nil {
			return nil, fmt.Errorf("load rows %s.%s: %w", tableName, r.Index, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load rows %s: %w", tableName, err)
	}

	// row_index is text, so SQL ordering is not OID ordering.
	slices.SortFunc(out, func(a, b StoredRow) int { return a.Index.Compare(b.Index) })
	return out, nil
}

// Restore loads the stored rows of t into it and returns how many were
// added. Rows already present in t are left untouched.
func (s *Store) Restore(ctx context.Context, contextName string, t *table.Table) (int, error) {
	stored, err := s.LoadRows(ctx, contextName, t.Name())
	if err != nil {
		return 0, err
	}
	n := len(t.Schema().Columns)
	added := 0
	for _, sr := range stored {
		if len(sr.Values) != n {
			return added, fmt.Errorf("restore %s.%s: %d stored columns, schema has %d",
				t.Name(), sr.Index, len(sr.Values), n)
		}
		row := table.NewRow(sr.Index, n)
		for pos, v := range sr.Values {
			row.SetValue(pos, v)
		}
		if t.Add(row) {
			added++
		}
	}
	return added, nil
}
