// Package scheduler runs the daily reset: instance generation keyed by a
// persisted "last reset date" so it happens at most once per local day.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/metrics"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

// Generator creates the instances for the day containing now.
type Generator interface {
	Generate(ctx context.Context, now time.Time) (int, error)
}

type Config struct {
	Location *time.Location
	// ResetAt is the local "HH:MM" after which the day's reset may run.
	ResetAt  string
	Interval time.Duration
}

// Orchestrator wraps the generator with day-keyed bookkeeping and a
// polling loop with an explicit start/stop lifecycle.
type Orchestrator struct {
	generator Generator
	settings  *store.SettingsStore
	loc       *time.Location
	resetAt   int
	interval  time.Duration
	now       func() time.Time
	logger    *slog.Logger

	runMu  sync.Mutex
	mu     sync.RWMutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Orchestrator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(gen Generator, settings *store.SettingsStore, cfg Config, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	resetAt := cfg.ResetAt
	if resetAt == "" {
		resetAt = "00:00"
	}
	hour, minute, ok := chore.ParseClock(resetAt)
	if !ok {
		return nil, fmt.Errorf("invalid reset time %q", cfg.ResetAt)
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	o := &Orchestrator{
		generator: gen,
		settings:  settings,
		loc:       loc,
		resetAt:   hour*60 + minute,
		interval:  interval,
		now:       time.Now,
		logger:    logger.With("component", "scheduler"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// IsResetNeeded reports whether no reset has been recorded for today. A
// recorded date after today counts as done.
func (o *Orchestrator) IsResetNeeded(ctx context.Context, today time.Time) (bool, error) {
	last, ok, err := o.settings.Lookup(ctx, store.KeyLastResetDate)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return last < today.In(o.loc).Format(model.DateLayout), nil
}

// RunIfNeeded generates today's instances unless today's reset already
// ran, and records the date. It returns 0 when nothing was needed.
func (o *Orchestrator) RunIfNeeded(ctx context.Context) (int, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	now := o.now().In(o.loc)
	needed, err := o.IsResetNeeded(ctx, now)
	if err != nil {
		metrics.ResetRuns.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("check daily reset: %w", err)
	}
	if !needed {
		metrics.ResetRuns.WithLabelValues("skipped").Inc()
		return 0, nil
	}
	return o.run(ctx, now)
}

// RunNow generates today's instances regardless of the recorded date.
// Generation is idempotent per user and task, so this only fills gaps.
func (o *Orchestrator) RunNow(ctx context.Context) (int, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	return o.run(ctx, o.now().In(o.loc))
}

func (o *Orchestrator) run(ctx context.Context, now time.Time) (int, error) {
	created, err := o.generator.Generate(ctx, now)
	if err != nil {
		metrics.ResetRuns.WithLabelValues("error").Inc()
		return 0, err
	}
	today := now.Format(model.DateLayout)
	if err := o.settings.Set(ctx, store.KeyLastResetDate, today); err != nil {
		metrics.ResetRuns.WithLabelValues("error").Inc()
		return created, fmt.Errorf("record daily reset: %w", err)
	}
	metrics.ResetRuns.WithLabelValues("ran").Inc()
	o.logger.Info("daily reset complete", "date", today, "created", created)
	return created, nil
}

// Start runs a reset check immediately and then on every tick once the
// local reset time has passed.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	ctx, o.cancel = context.WithCancel(ctx)
	o.done = make(chan struct{})
	o.mu.Unlock()

	if _, err := o.RunIfNeeded(ctx); err != nil {
		o.logger.Error("startup reset failed", "error", err)
	}

	go func() {
		defer close(o.done)
		ticker := time.NewTicker(o.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (o *Orchestrator) Stop() {
	o.mu.RLock()
	cancel := o.cancel
	done := o.done
	o.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (o *Orchestrator) tick(ctx context.Context) {
	if !o.pastResetTime(o.now()) {
		return
	}
	if _, err := o.RunIfNeeded(ctx); err != nil {
		o.logger.Error("daily reset failed", "error", err)
	}
}

func (o *Orchestrator) pastResetTime(now time.Time) bool {
	local := now.In(o.loc)
	return local.Hour()*60+local.Minute() >= o.resetAt
}
