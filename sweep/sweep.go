// Package sweep runs periodic background maintenance over a set of
// owners, such as firing expiry checks or purging old dead letters.
// It is a thin ticker loop; the work itself is supplied as a Task.
package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// OwnerSource yields the owner IDs a sweep pass should visit.
type OwnerSource interface {
	OwnerIDs(ctx context.Context) ([]string, error)
}

// OwnerSourceFunc adapts a function to the OwnerSource interface.
type OwnerSourceFunc func(ctx context.Context) ([]string, error)

func (f OwnerSourceFunc) OwnerIDs(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// StaticOwners returns an OwnerSource over a fixed list.
func StaticOwners(ids ...string) OwnerSource {
	return OwnerSourceFunc(func(context.Context) ([]string, error) {
		return ids, nil
	})
}

// Task is the work performed for one owner per sweep pass.
type Task func(ctx context.Context, ownerID string) error

// Config holds runner configuration.
type Config struct {
	// Interval between sweep passes. Defaults to one minute.
	Interval time.Duration

	Source OwnerSource
	Task   Task
	Logger *slog.Logger
}

// Runner drives a Task over every owner at a fixed interval. Owners are
// isolated from each other: one owner's error or panic never stops the
// pass or the runner.
type Runner struct {
	interval time.Duration
	source   OwnerSource
	task     Task
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewRunner creates a sweep runner.
func NewRunner(cfg Config) *Runner {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		interval: interval,
		source:   cfg.Source,
		task:     cfg.Task,
		logger:   logger,
	}
}

// Start launches the sweep loop. It returns immediately; call Stop to
// shut the loop down. Starting a running runner is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	go r.loop(loopCtx)
}

// Stop halts the sweep loop and waits for the current pass to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	done := r.done
	r.running = false
	r.mu.Unlock()

	cancel()
	<-done
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over all owners immediately. Exposed for callers
// that schedule passes themselves.
func (r *Runner) Sweep(ctx context.Context) {
	owners, err := r.source.OwnerIDs(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "sweep owner listing failed", "error", err)
		return
	}

	for _, ownerID := range owners {
		if ctx.Err() != nil {
			return
		}
		r.runOne(ctx, ownerID)
	}
}

func (r *Runner) runOne(ctx context.Context, ownerID string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "sweep task panicked",
				"owner_id", ownerID, "panic", rec)
		}
	}()

	if err := r.task(ctx, ownerID); err != nil {
		r.logger.ErrorContext(ctx, "sweep task failed",
			"owner_id", ownerID, "error", err)
	}
}
