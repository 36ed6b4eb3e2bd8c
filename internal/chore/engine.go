// Package chore turns task templates into daily work items and settles
// their completion into the points ledger.
package chore

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/dukerupert/chorechart/internal/event"
)

// Engine owns instance generation and the completion state machine. Every
// operation runs in a single database transaction; events are published
// only after it commits.
type Engine struct {
	db     *sql.DB
	loc    *time.Location
	now    func() time.Time
	events event.Publisher
	logger *slog.Logger
}

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an engine that reads calendar dates in loc.
func NewEngine(db *sql.DB, loc *time.Location, events event.Publisher, logger *slog.Logger, opts ...Option) *Engine {
	if events == nil {
		events = event.Discard{}
	}
	e := &Engine{
		db:     db,
		loc:    loc,
		now:    time.Now,
		events: events,
		logger: logger.With("component", "chore"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock's current time in its location.
func (e *Engine) Now() time.Time {
	return e.now().In(e.loc)
}

// Location is the zone calendar dates are computed in.
func (e *Engine) Location() *time.Location {
	return e.loc
}
