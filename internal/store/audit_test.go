package store

import (
	"context"
	"testing"

	"github.com/roach88/snmpcore/internal/request"
	"github.com/roach88/snmpcore/internal/smi"
)

func TestWriteRequest_ReadBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	vbs := []smi.VarBind{{OID: smi.MustParseOID("1.3.6.1.2.1.1.5.0"), Value: smi.OctetString("x")}}
	writes := []struct {
		ctxName string
		resp    request.Response
	}{
		{"", request.Response{RequestID: "b", Seq: 2, Status: smi.WrongValue, Index: 1, VarBinds: vbs}},
		{"ctx1", request.Response{RequestID: "a", Seq: 2, VarBinds: vbs}},
		{"", request.Response{RequestID: "c", Seq: 1, VarBinds: vbs}},
	}
	for _, w := range writes {
		if err := s.WriteRequest(ctx, w.ctxName, "alice", w.resp); err != nil {
			t.Fatalf("WriteRequest(%s) failed: %v", w.resp.RequestID, err)
		}
	}

	got, err := s.Requests(ctx)
	if err != nil {
		t.Fatalf("Requests() failed: %v", err)
	}
	order := []string{"c", "a", "b"}
	if len(got) != len(order) {
		t.Fatalf("got %d records, want %d", len(got), len(order))
	}
	for i, id := range order {
		if got[i].ID != id {
			t.Errorf("records[%d].ID = %s, want %s", i, got[i].ID, id)
		}
	}

	failed := got[2]
	if failed.Status != smi.WrongValue || failed.Index != 1 || failed.SecurityName != "alice" {
		t.Errorf("record b = %+v", failed)
	}
	if got[1].ContextName != "ctx1" {
		t.Errorf("record a context = %q, want ctx1", got[1].ContextName)
	}
	if len(failed.VarBinds) != 1 || !smi.EqualVariables(failed.VarBinds[0].Value, smi.OctetString("x")) {
		t.Errorf("record b varbinds = %v", failed.VarBinds)
	}
}

func TestWriteRequest_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	resp := request.Response{RequestID: "dup", Seq: 1}
	for i := 0; i < 2; i++ {
		if err := s.WriteRequest(ctx, "", "alice", resp); err != nil {
			t.Fatalf("WriteRequest() #%d failed: %v", i, err)
		}
	}
	got, _ := s.Requests(ctx)
	if len(got) != 1 {
		t.Errorf("got %d records, want 1", len(got))
	}
}
