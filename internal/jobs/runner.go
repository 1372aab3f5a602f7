// Package jobs runs generations in the background on a bounded worker pool
// and keeps their archives in the blob store.
package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/apr-datagen/internal/blob"
	"github.com/sebastiankruger/apr-datagen/internal/core"
	"github.com/sebastiankruger/apr-datagen/internal/export"
	"github.com/sebastiankruger/apr-datagen/internal/generator"
	"github.com/sebastiankruger/apr-datagen/internal/metrics"
	"github.com/sebastiankruger/apr-datagen/internal/period"
	"github.com/sebastiankruger/apr-datagen/internal/runs"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("jobs: runner stopped")

// Notifier receives every finished run.
type Notifier interface {
	SendRunUpdate(ctx context.Context, run *runs.Run) error
}

// StatusPublisher mirrors run state somewhere observable, e.g. OPC UA.
type StatusPublisher interface {
	PublishRun(run runs.Run)
	PublishJobsInFlight(n int)
}

// Spec describes one background generation.
type Spec struct {
	Period        period.Period
	Seed          int64
	BatchesPerDay int
	DataTypes     []core.DataType
	ComplaintRate float64
	CAPABaseCount int
}

// Request converts the spec into a generator request.
func (s Spec) Request() generator.Request {
	return generator.Request{
		Start:         s.Period.Start,
		End:           s.Period.End,
		BatchesPerDay: s.BatchesPerDay,
		DataTypes:     s.DataTypes,
		ComplaintRate: s.ComplaintRate,
		CAPABaseCount: s.CAPABaseCount,
	}
}

// Options wires a Runner. Metrics, Notifier and Publisher are optional.
type Options struct {
	Store         *runs.Store
	Blobs         blob.Store
	Metrics       *metrics.Metrics
	Notifier      Notifier
	Publisher     StatusPublisher
	MaxWorkers    int
	ArchivePrefix string
	// GeneratorOptions are applied before the run seed.
	GeneratorOptions []generator.Option
	Now              func() time.Time
}

// Runner executes generation runs on a worker pool.
type Runner struct {
	opts Options
	pool *workerpool.WorkerPool

	mu       sync.Mutex
	inFlight int
	stopped  bool
}

// NewRunner starts the worker pool.
func NewRunner(opts Options) *Runner {
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	if opts.ArchivePrefix == "" {
		opts.ArchivePrefix = "apr_data"
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Runner{
		opts: opts,
		pool: workerpool.New(opts.MaxWorkers),
	}
}

// Submit validates spec, records a queued run and schedules it.
func (r *Runner) Submit(ctx context.Context, spec Spec) (runs.Run, error) {
	if err := spec.Request().Validate(); err != nil {
		return runs.Run{}, err
	}
	types, _ := core.ParseDataTypes(typeNames(spec.DataTypes))

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return runs.Run{}, ErrStopped
	}
	r.mu.Unlock()

	run := runs.Run{
		ID:            uuid.NewString(),
		Kind:          string(spec.Period.Kind),
		PeriodStart:   spec.Period.Start.Format(core.DateLayout),
		PeriodEnd:     spec.Period.End.Format(core.DateLayout),
		Prefix:        spec.Period.Prefix,
		Seed:          spec.Seed,
		BatchesPerDay: spec.BatchesPerDay,
		DataTypes:     runs.JoinTypes(types),
		Status:        runs.StatusQueued,
		CreatedAt:     r.opts.Now(),
	}
	if err := r.opts.Store.Create(ctx, &run); err != nil {
		return runs.Run{}, err
	}

	// mu stays held until the job is queued so Stop cannot close the pool in between.
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		if err := r.opts.Store.Fail(ctx, run.ID, ErrStopped.Error(), r.opts.Now()); err != nil {
			log.Warn().Err(err).Str("runId", run.ID).Msg("Failed to record rejected run")
		}
		return runs.Run{}, ErrStopped
	}
	r.inFlight++
	n := r.inFlight
	id := run.ID
	r.pool.Submit(func() {
		defer r.adjustInFlight(-1)
		r.execute(id, spec)
	})
	r.reportInFlight(1, n)
	r.mu.Unlock()

	log.Info().
		Str("runId", run.ID).
		Str("period", spec.Period.String()).
		Int64("seed", spec.Seed).
		Msg("Generation run queued")
	return run, nil
}

// InFlight returns the number of queued or running jobs.
func (r *Runner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

// Stop waits for queued jobs to finish and rejects new ones.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.pool.StopWait()
}

func (r *Runner) adjustInFlight(delta int) {
	r.mu.Lock()
	r.inFlight += delta
	n := r.inFlight
	r.mu.Unlock()
	r.reportInFlight(delta, n)
}

func (r *Runner) reportInFlight(delta, n int) {
	if r.opts.Metrics != nil {
		r.opts.Metrics.JobsInFlight.Add(float64(delta))
	}
	if r.opts.Publisher != nil {
		r.opts.Publisher.PublishJobsInFlight(n)
	}
}

func (r *Runner) execute(id string, spec Spec) {
	ctx := context.Background()
	logger := log.With().Str("runId", id).Logger()
	started := time.Now()

	if err := r.opts.Store.MarkRunning(ctx, id, r.opts.Now()); err != nil {
		logger.Error().Err(err).Msg("Failed to mark run as running")
		return
	}
	logger.Info().Msg("Generation run started")

	counts, key, size, err := r.generate(ctx, id, spec)
	if r.opts.Metrics != nil {
		r.opts.Metrics.ObserveGeneration("job", counts, time.Since(started), err)
		if err == nil {
			r.opts.Metrics.ArchiveBytes.Add(float64(size))
		}
	}

	if err != nil {
		logger.Error().Err(err).Msg("Generation run failed")
		if ferr := r.opts.Store.Fail(ctx, id, err.Error(), r.opts.Now()); ferr != nil {
			logger.Error().Err(ferr).Msg("Failed to record run failure")
		}
	} else {
		byName := make(map[string]int, len(counts))
		for dt, n := range counts {
			byName[string(dt)] = n
		}
		if cerr := r.opts.Store.Complete(ctx, id, byName, key, size, r.opts.Now()); cerr != nil {
			logger.Error().Err(cerr).Msg("Failed to record run completion")
			return
		}
		logger.Info().
			Str("archive", key).
			Int64("bytes", size).
			Dur("elapsed", time.Since(started)).
			Msg("Generation run succeeded")
	}

	r.finish(ctx, id)
}

// generate runs one generation, recovering panics as errors.
func (r *Runner) generate(ctx context.Context, id string, spec Spec) (counts map[core.DataType]int, key string, size int64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("generation panicked: %v", rec)
		}
	}()

	opts := append(append([]generator.Option{}, r.opts.GeneratorOptions...), generator.WithSeed(spec.Seed))
	ds, err := generator.New(opts...).Generate(spec.Request())
	if err != nil {
		return nil, "", 0, err
	}
	data, err := export.Archive(ds, spec.Period.Prefix)
	if err != nil {
		return nil, "", 0, fmt.Errorf("encode archive: %w", err)
	}

	key = ArchiveKey(id, spec.Period.ArchiveName(r.opts.ArchivePrefix))
	info, err := r.opts.Blobs.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: "application/zip",
		Metadata: map[string]string{
			"run-id": id,
			"period": spec.Period.Prefix,
		},
	})
	if err != nil {
		return nil, "", 0, fmt.Errorf("store archive: %w", err)
	}
	return ds.Counts(), info.Key, info.Size, nil
}

func (r *Runner) finish(ctx context.Context, id string) {
	if r.opts.Notifier == nil && r.opts.Publisher == nil {
		return
	}
	run, err := r.opts.Store.Get(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("runId", id).Msg("Failed to reload finished run")
		return
	}
	if r.opts.Publisher != nil {
		r.opts.Publisher.PublishRun(run)
	}
	if r.opts.Notifier != nil {
		if err := r.opts.Notifier.SendRunUpdate(ctx, &run); err != nil {
			log.Warn().Err(err).Str("runId", id).Msg("Failed to send run update")
		}
	}
}

// ArchiveKey is the blob key of a run's archive.
func ArchiveKey(runID, name string) string {
	return "runs/" + runID + "/" + name
}

func typeNames(types []core.DataType) []string {
	names := make([]string, len(types))
	for i, dt := range types {
		names[i] = string(dt)
	}
	return names
}
