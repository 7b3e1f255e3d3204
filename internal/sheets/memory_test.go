package sheets

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ppiankov/sponsorgrader/internal/model"
)

func newTestMemory() *Memory {
	return NewMemory(
		[]string{"Timestamp", "Company Name", "Website URL"},
		[]string{"t1", "Acme", "https://acme.test"},
		[]string{"t2", "Globex", "https://globex.test"},
	)
}

func TestMemory_EnsureColumnsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	for i := 0; i < 2; i++ {
		if err := m.EnsureColumns(ctx, model.RequiredColumns); err != nil {
			t.Fatalf("EnsureColumns failed: %v", err)
		}
	}

	header, _ := m.Header(ctx)
	want := []string{"Timestamp", "Company Name", "Website URL", "Research Notes", "Decision"}
	if !reflect.DeepEqual(header, want) {
		t.Errorf("header = %v, want %v", header, want)
	}
}

func TestMemory_UpdateSkipsUnknownColumns(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	_ = m.EnsureColumns(ctx, model.RequiredColumns)

	err := m.UpdateRecord(ctx, 2, map[string]string{
		"Nonexistent": "x",
		"Decision":    "Eligible Sponsor: ok",
	})
	if err != nil {
		t.Fatalf("unknown column should not fail the update: %v", err)
	}
	if got := m.Cell(2, "Decision"); got != "Eligible Sponsor: ok" {
		t.Errorf("Decision = %q", got)
	}
}

func TestMemory_UpdateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	_ = m.EnsureColumns(ctx, model.RequiredColumns)

	fields := map[string]string{"Research Notes": "notes", "Decision": "Rejected Sponsor: no"}
	_ = m.UpdateRecord(ctx, 3, fields)
	once := m.Snapshot()
	_ = m.UpdateRecord(ctx, 3, fields)

	if !reflect.DeepEqual(once, m.Snapshot()) {
		t.Error("second identical update changed the sheet")
	}
}

func TestMemory_UnprocessedNeverReturnsDecided(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	_ = m.EnsureColumns(ctx, model.RequiredColumns)
	_ = m.UpdateRecord(ctx, 2, map[string]string{"Decision": "Flagship Sponsor: yes"})

	pending, err := m.ListUnprocessedRecords(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, rec := range pending {
		if rec.Decision() != "" {
			t.Errorf("unprocessed record %d has a decision", rec.Row)
		}
	}
	if len(pending) != 1 || pending[0].Row != 3 {
		t.Errorf("expected only row 3, got %+v", pending)
	}
}

func TestMemory_RecordAt(t *testing.T) {
	m := newTestMemory()
	rec, err := m.RecordAt(context.Background(), 3)
	if err != nil {
		t.Fatalf("RecordAt failed: %v", err)
	}
	if rec.CompanyName() != "Globex" || rec.Row != 3 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestMemory_FailureIsGatewayError(t *testing.T) {
	m := newTestMemory()
	m.Fail["list"] = errors.New("quota exceeded")

	_, err := m.ListUnprocessedRecords(context.Background())
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *GatewayError, got %T", err)
	}
	if gwErr.Op != "list" {
		t.Errorf("expected op list, got %s", gwErr.Op)
	}
}
