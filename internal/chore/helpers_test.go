package chore

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/chorechart/internal/database"
	"github.com/dukerupert/chorechart/internal/event"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type recorder struct {
	events []event.Event
}

func (r *recorder) Publish(_ context.Context, events ...event.Event) {
	r.events = append(r.events, events...)
}

type fixture struct {
	db     *sql.DB
	engine *Engine
	clock  *fakeClock
	events *recorder
}

func setupEngine(t *testing.T, now time.Time) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := &fakeClock{t: now}
	rec := &recorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		db:     db,
		engine: NewEngine(db, now.Location(), rec, logger, WithClock(clock.Now)),
		clock:  clock,
		events: rec,
	}
}

func (f *fixture) role(t *testing.T, name string, multiplier float64) *model.Role {
	t.Helper()
	r, err := store.NewRoleStore(f.db).Create(context.Background(), name, multiplier)
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	return r
}

func (f *fixture) user(t *testing.T, nickname string, roleID int64) *model.User {
	t.Helper()
	u, err := store.NewUserStore(f.db).Create(context.Background(), nickname, "hash", roleID)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) task(t *testing.T, task model.Task) *model.Task {
	t.Helper()
	if task.BasePoints == 0 {
		task.BasePoints = 10
	}
	created, err := store.NewTaskStore(f.db).Create(context.Background(), task)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return created
}

func (f *fixture) reload(t *testing.T, userID int64) *model.User {
	t.Helper()
	u, err := store.NewUserStore(f.db).GetByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	return u
}

func (f *fixture) instances(t *testing.T, status model.InstanceStatus) []model.InstanceDetail {
	t.Helper()
	list, err := store.NewInstanceStore(f.db).ListByStatus(context.Background(), status)
	if err != nil {
		t.Fatalf("list instances: %v", err)
	}
	return list
}

func (f *fixture) generate(t *testing.T) int {
	t.Helper()
	n, err := f.engine.Generate(context.Background(), f.clock.Now())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return n
}

func intPtr(v int) *int { return &v }
