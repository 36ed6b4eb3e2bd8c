// Package event carries the records the core emits after a state change
// and fans them out to delivery sinks.
package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorechart/internal/metrics"
)

type Type string

const (
	TaskCompleted  Type = "task_completed"
	TaskInReview   Type = "task_in_review"
	TaskReviewed   Type = "task_reviewed"
	RewardRedeemed Type = "reward_redeemed"
)

const (
	OutcomeApproved = "approved"
	OutcomeRejected = "rejected"
)

// Event holds only the identifying fields downstream delivery needs.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       Type      `json:"type"`
	UserID     int64     `json:"user_id"`
	InstanceID *int64    `json:"instance_id,omitempty"`
	RewardID   *int64    `json:"reward_id,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Points     int       `json:"points"`
	At         time.Time `json:"at"`
}

func New(typ Type, userID int64, at time.Time) Event {
	return Event{
		ID:     uuid.New(),
		Type:   typ,
		UserID: userID,
		At:     at.UTC(),
	}
}

// ForInstance returns a copy of e referencing the given instance.
func (e Event) ForInstance(id int64) Event {
	e.InstanceID = &id
	return e
}

// ForReward returns a copy of e referencing the given reward.
func (e Event) ForReward(id int64) Event {
	e.RewardID = &id
	return e
}

// Publisher accepts events after the change they describe is committed.
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
}

type Sink interface {
	Handle(ctx context.Context, e Event) error
}

type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Handle(ctx context.Context, e Event) error {
	return f(ctx, e)
}

type namedSink struct {
	name string
	sink Sink
}

// Bus delivers every published event to each subscribed sink in order.
// A failing sink is logged and does not stop delivery to the others.
type Bus struct {
	sinks  []namedSink
	logger *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger.With("component", "events")}
}

// Subscribe must be called before the bus is shared.
func (b *Bus) Subscribe(name string, s Sink) {
	b.sinks = append(b.sinks, namedSink{name: name, sink: s})
}

func (b *Bus) Publish(ctx context.Context, events ...Event) {
	for _, e := range events {
		metrics.EventsPublished.WithLabelValues(string(e.Type)).Inc()
		for _, ns := range b.sinks {
			if err := ns.sink.Handle(ctx, e); err != nil {
				b.logger.Error("event sink failed", "sink", ns.name, "type", e.Type, "event_id", e.ID, "error", err)
			}
		}
	}
}

// LogSink writes each event to the logger at info level.
func LogSink(logger *slog.Logger) Sink {
	return SinkFunc(func(_ context.Context, e Event) error {
		logger.Info("event", "type", e.Type, "user_id", e.UserID, "outcome", e.Outcome, "points", e.Points)
		return nil
	})
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, ...Event) {}
