package jobs

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sebastiankruger/apr-datagen/internal/blob"
	"github.com/sebastiankruger/apr-datagen/internal/core"
	"github.com/sebastiankruger/apr-datagen/internal/generator"
	"github.com/sebastiankruger/apr-datagen/internal/metrics"
	"github.com/sebastiankruger/apr-datagen/internal/period"
	"github.com/sebastiankruger/apr-datagen/internal/runs"
)

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu       sync.Mutex
	notified []runs.Run
	runs     []runs.Run
	inFlight []int
}

func (r *recorder) SendRunUpdate(_ context.Context, run *runs.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, *run)
	return nil
}

func (r *recorder) PublishRun(run runs.Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
}

func (r *recorder) PublishJobsInFlight(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight = append(r.inFlight, n)
}

type fixture struct {
	runner  *Runner
	store   *runs.Store
	blobs   blob.Store
	metrics *metrics.Metrics
	rec     *recorder
}

func setupRunner(t *testing.T) fixture {
	t.Helper()
	return setupRunnerWith(t, blob.NewMemory())
}

func setupRunnerWith(t *testing.T, blobs blob.Store) fixture {
	t.Helper()
	store, err := runs.Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	f := fixture{store: store, blobs: blobs, metrics: metrics.New(), rec: &recorder{}}
	f.runner = NewRunner(Options{
		Store:            store,
		Blobs:            blobs,
		Metrics:          f.metrics,
		Notifier:         f.rec,
		Publisher:        f.rec,
		MaxWorkers:       1,
		GeneratorOptions: []generator.Option{generator.WithClock(func() time.Time { return fixedNow })},
		Now:              func() time.Time { return fixedNow },
	})
	return f
}

func augustSpec(t *testing.T) Spec {
	t.Helper()
	p, err := period.Month(2025, 8)
	if err != nil {
		t.Fatalf("period: %v", err)
	}
	return Spec{
		Period:        p,
		Seed:          42,
		BatchesPerDay: 2,
		DataTypes:     []core.DataType{core.DataTypeQC, core.DataTypeCAPA},
	}
}

func TestRunnerCompletesRun(t *testing.T) {
	f := setupRunner(t)
	ctx := context.Background()

	run, err := f.runner.Submit(ctx, augustSpec(t))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if run.Status != runs.StatusQueued || run.ID == "" {
		t.Fatalf("unexpected queued run %+v", run)
	}
	if run.DataTypes != "qc,capa" {
		t.Errorf("expected canonical type order, got %q", run.DataTypes)
	}
	f.runner.Stop()

	got, err := f.store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != runs.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s (%s)", got.Status, got.Error)
	}
	if got.Counts["qc"] != 62 || got.Counts["capa"] != 13 || got.Records != 75 {
		t.Errorf("unexpected counts %v records %d", got.Counts, got.Records)
	}

	wantKey := "runs/" + run.ID + "/apr_data_2025_08.zip"
	if got.ArchiveKey != wantKey {
		t.Errorf("expected archive key %s, got %s", wantKey, got.ArchiveKey)
	}
	info, rc, err := f.blobs.Get(ctx, wantKey)
	if err != nil {
		t.Fatalf("archive missing: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if int64(len(data)) != got.ArchiveSize || info.ContentType != "application/zip" {
		t.Errorf("archive size %d vs ledger %d, type %q", len(data), got.ArchiveSize, info.ContentType)
	}

	if len(f.rec.notified) != 1 || f.rec.notified[0].Status != runs.StatusSucceeded {
		t.Errorf("expected one succeeded notification, got %+v", f.rec.notified)
	}
	if len(f.rec.runs) != 1 {
		t.Errorf("expected one published run, got %d", len(f.rec.runs))
	}
	if f.runner.InFlight() != 0 {
		t.Errorf("expected no jobs in flight, got %d", f.runner.InFlight())
	}
	if v := testutil.ToFloat64(f.metrics.Generations.WithLabelValues("job", "success")); v != 1 {
		t.Errorf("expected one successful job generation, got %v", v)
	}
	if v := testutil.ToFloat64(f.metrics.Records.WithLabelValues("qc")); v != 62 {
		t.Errorf("expected 62 qc records counted, got %v", v)
	}
}

type failingStore struct {
	*blob.Memory
}

func (failingStore) Put(context.Context, string, io.Reader, blob.PutOptions) (blob.Info, error) {
	return blob.Info{}, errors.New("bucket unavailable")
}

func TestRunnerRecordsStorageFailure(t *testing.T) {
	f := setupRunnerWith(t, failingStore{blob.NewMemory()})
	ctx := context.Background()

	run, err := f.runner.Submit(ctx, augustSpec(t))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	f.runner.Stop()

	got, err := f.store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != runs.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if !strings.Contains(got.Error, "bucket unavailable") || got.FinishedAt == nil {
		t.Errorf("unexpected failure record %+v", got)
	}
	if len(f.rec.notified) != 1 || f.rec.notified[0].Status != runs.StatusFailed {
		t.Errorf("expected one failed notification, got %+v", f.rec.notified)
	}
	if v := testutil.ToFloat64(f.metrics.Generations.WithLabelValues("job", "failure")); v != 1 {
		t.Errorf("expected one failed job generation, got %v", v)
	}
}

func TestRunnerRejectsInvalidSpec(t *testing.T) {
	f := setupRunner(t)
	defer f.runner.Stop()

	spec := augustSpec(t)
	spec.DataTypes = []core.DataType{"lab_notebooks"}
	if _, err := f.runner.Submit(context.Background(), spec); !errors.Is(err, core.ErrUnknownDataType) {
		t.Fatalf("expected unknown data type, got %v", err)
	}

	spec = augustSpec(t)
	spec.BatchesPerDay = 0
	if _, err := f.runner.Submit(context.Background(), spec); err == nil {
		t.Fatal("expected error for zero batches per day")
	}

	list, err := f.store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("rejected specs must not be recorded, got %d runs", len(list))
	}
}

func TestRunnerRejectsAfterStop(t *testing.T) {
	f := setupRunner(t)
	f.runner.Stop()
	if _, err := f.runner.Submit(context.Background(), augustSpec(t)); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestRunnerSubmitConcurrentWithStop(t *testing.T) {
	f := setupRunner(t)
	ctx := context.Background()
	spec := augustSpec(t)
	spec.DataTypes = []core.DataType{core.DataTypeCAPA}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []string
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, err := f.runner.Submit(ctx, spec)
			if err != nil {
				if !errors.Is(err, ErrStopped) {
					t.Errorf("unexpected submit error: %v", err)
				}
				return
			}
			mu.Lock()
			accepted = append(accepted, run.ID)
			mu.Unlock()
		}()
	}
	f.runner.Stop()
	wg.Wait()

	for _, id := range accepted {
		run, err := f.store.Get(ctx, id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if run.Status != runs.StatusSucceeded {
			t.Errorf("accepted run %s ended %s", id, run.Status)
		}
	}
	queued, err := f.store.CountByStatus(ctx, runs.StatusQueued)
	if err != nil {
		t.Fatalf("count queued: %v", err)
	}
	if queued != 0 {
		t.Errorf("expected no runs left queued, got %d", queued)
	}
	if n := f.runner.InFlight(); n != 0 {
		t.Errorf("expected nothing in flight, got %d", n)
	}
}
