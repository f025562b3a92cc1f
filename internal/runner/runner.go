// Package runner coordinates one sync run at a time: the portal fetch, the
// workbook parse and the worksheet overwrite, with optional run-history and
// event bookkeeping around it.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dporto/repspark-sync/internal/database"
	"github.com/dporto/repspark-sync/internal/events"
)

// ErrRunInProgress is returned when a sync is requested while one is running.
// The browser context and worksheet are exclusively owned by a single run.
var ErrRunInProgress = errors.New("a sync run is already in progress")

// Result is what a completed job reports back.
type Result struct {
	Artifact   string
	Attempts   int
	RowsSynced int
}

// Job performs the actual pipeline for one run.
type Job func(ctx context.Context) (Result, error)

// HistoryStore persists run records. Implemented by database.Store.
type HistoryStore interface {
	CreateRun(ctx context.Context, run *database.SyncRun) error
	FinishRun(ctx context.Context, run *database.SyncRun) error
}

// EventPublisher emits run-lifecycle events. Implemented by events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, evt *events.Event) error
}

type Runner struct {
	job    Job
	store  HistoryStore   // nil when history is disabled
	events EventPublisher // nil when events are disabled
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

func New(job Job, store HistoryStore, pub EventPublisher) *Runner {
	return &Runner{
		job:    job,
		store:  store,
		events: pub,
		logger: slog.Default().With("component", "runner"),
	}
}

// Run executes one sync run to completion. Only one run may be in flight.
func (r *Runner) Run(ctx context.Context) error {
	run, err := r.begin(ctx)
	if err != nil {
		return err
	}

	res, jobErr := r.job(ctx)
	r.finish(ctx, run, res, jobErr)
	return jobErr
}

// Start begins a run in the background and returns its ID immediately.
func (r *Runner) Start(ctx context.Context) (uuid.UUID, error) {
	run, err := r.begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		// Detached from the request context: an HTTP trigger returning must
		// not cancel the run.
		runCtx := context.Background()
		res, jobErr := r.job(runCtx)
		r.finish(runCtx, run, res, jobErr)
	}()

	return run.ID, nil
}

// Wait blocks until any background run started via Start has finished,
// including its history and event bookkeeping. Shutdown must call this so a
// run is never killed mid-pipeline.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Running reports whether a run is currently in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) begin(ctx context.Context) (*database.SyncRun, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrRunInProgress
	}
	r.running = true
	r.mu.Unlock()

	run := &database.SyncRun{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
		Status:    database.StatusRunning,
	}

	r.logger.Info("sync run started", "run_id", run.ID)

	// History and events are bookkeeping; their failures are logged, not
	// allowed to block the sync itself.
	if r.store != nil {
		if err := r.store.CreateRun(ctx, run); err != nil {
			r.logger.Error("failed to record run start", "run_id", run.ID, "error", err)
		}
	}
	if r.events != nil {
		if err := r.events.Publish(ctx, &events.Event{
			EventType: events.EventTypeRunStarted,
			RunID:     run.ID.String(),
		}); err != nil {
			r.logger.Error("failed to publish run started event", "run_id", run.ID, "error", err)
		}
	}

	return run, nil
}

func (r *Runner) finish(ctx context.Context, run *database.SyncRun, res Result, jobErr error) {
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Attempts = res.Attempts
	run.RowsSynced = res.RowsSynced
	run.Artifact = res.Artifact

	evt := &events.Event{
		RunID:      run.ID.String(),
		Attempts:   res.Attempts,
		RowsSynced: res.RowsSynced,
		Artifact:   res.Artifact,
	}

	if jobErr != nil {
		run.Status = database.StatusFailed
		run.Error = jobErr.Error()
		evt.EventType = events.EventTypeRunFailed
		evt.Error = jobErr.Error()
		r.logger.Error("sync run failed", "run_id", run.ID, "attempts", res.Attempts, "error", jobErr)
	} else {
		run.Status = database.StatusCompleted
		evt.EventType = events.EventTypeRunCompleted
		r.logger.Info("sync run completed", "run_id", run.ID,
			"attempts", res.Attempts, "rows_synced", res.RowsSynced, "artifact", res.Artifact)
	}

	if r.store != nil {
		if err := r.store.FinishRun(ctx, run); err != nil {
			r.logger.Error("failed to record run finish", "run_id", run.ID, "error", err)
		}
	}
	if r.events != nil {
		if err := r.events.Publish(ctx, evt); err != nil {
			r.logger.Error("failed to publish run finished event", "run_id", run.ID, "error", err)
		}
	}
}
