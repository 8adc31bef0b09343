package store

import (
	"context"
	"fmt"

	"github.com/roach88/snmpcore/internal/request"
	"github.com/roach88/snmpcore/internal/smi"
)

// RequestRecord is one audited SET request.
type RequestRecord struct {
	ID           string
	Seq          int64
	ContextName  string
	SecurityName string
	Status       smi.ErrorStatus
	Index        int
	VarBinds     []smi.VarBind
}

// WriteRequest appends a SET response to the audit log.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteRequest(ctx context.Context, contextName, securityName string, resp request.Response) error {
	blob, err := marshalVarBinds(resp.VarBinds)
	if err != nil {
		return fmt.Errorf("write request %s: %w", resp.RequestID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO set_requests
		(id, seq, context_name, security_name, error_status, error_index, varbinds)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		resp.RequestID,
		resp.Seq,
		contextName,
		securityName,
		int(resp.Status),
		resp.Index,
		blob,
	)
	if err != nil {
		return fmt.Errorf("write request %s: %w", resp.RequestID, err)
	}
	return nil
}

// Requests returns the audit log ordered by seq, then id.
func (s *Store) Requests(ctx context.Context) ([]RequestRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, context_name, security_name, error_status, error_index, varbinds
		FROM set_requests
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}
	defer rows.Close()

	var out []RequestRecord
	for rows.Next() {
		var (
			r      RequestRecord
			status int
			blob   []byte
		)
		if err := rows.Scan(&r.ID, &r.Seq, &r.ContextName, &r.SecurityName, &status, &r.Index, &blob); err != nil {
			return nil, fmt.Errorf("read requests: scan: %w", err)
		}
		r.Status = smi.ErrorStatus(status)
		if r.VarBinds, err = unmarshalVarBinds(blob); err != nil {
			return nil, fmt.Errorf("read request %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}
	return out, nil
}
