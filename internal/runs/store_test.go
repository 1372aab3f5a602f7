package runs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/core"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "ledger", "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	created := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	run := &Run{
		ID:            "run-1",
		Kind:          "month",
		PeriodStart:   "2025-08-01",
		PeriodEnd:     "2025-08-31",
		Prefix:        "2025_08",
		Seed:          42,
		BatchesPerDay: 20,
		DataTypes:     JoinTypes([]core.DataType{core.DataTypeQC, core.DataTypeCAPA}),
		Status:        StatusQueued,
		CreatedAt:     created,
	}
	if err := s.Create(ctx, run); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.MarkRunning(ctx, "run-1", created.Add(time.Second)); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusRunning || got.StartedAt == nil {
		t.Fatalf("expected running with start time, got %+v", got)
	}

	counts := map[string]int{"qc": 620, "capa": 10}
	if err := s.Complete(ctx, "run-1", counts, "runs/run-1/apr_data_2025_08.zip", 1024, created.Add(time.Minute)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, err = s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusSucceeded || got.Records != 630 || got.Counts["qc"] != 620 {
		t.Fatalf("unexpected completed run %+v", got)
	}
	if got.ArchiveKey == "" || got.FinishedAt == nil || !got.Status.Done() {
		t.Fatalf("archive or finish time missing: %+v", got)
	}
	if types := got.Types(); len(types) != 2 || types[0] != core.DataTypeQC {
		t.Fatalf("types %v", types)
	}
}

func TestFailAndList(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := s.Create(ctx, &Run{ID: id, Status: StatusQueued, CreatedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if err := s.Fail(ctx, "b", "boom", base.Add(5*time.Hour)); err != nil {
		t.Fatalf("fail: %v", err)
	}

	list, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "c" || list[1].ID != "b" {
		t.Fatalf("unexpected order %+v", list)
	}
	if list[1].Status != StatusFailed || list[1].Error != "boom" {
		t.Fatalf("failure not recorded: %+v", list[1])
	}

	n, err := s.CountByStatus(ctx, StatusQueued)
	if err != nil || n != 2 {
		t.Fatalf("count queued: %d %v", n, err)
	}
}

func TestMissingRun(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.MarkRunning(ctx, "nope", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Complete(ctx, "nope", map[string]int{"qc": 1}, "runs/nope/a.zip", 1, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("complete: expected ErrNotFound, got %v", err)
	}
	if err := s.Fail(ctx, "nope", "boom", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("fail: expected ErrNotFound, got %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
