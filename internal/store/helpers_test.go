package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/chorechart/internal/database"
	"github.com/dukerupert/chorechart/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustRole(t *testing.T, db DBTX, name string, multiplier float64) *model.Role {
	t.Helper()
	r, err := NewRoleStore(db).Create(context.Background(), name, multiplier)
	if err != nil {
		t.Fatalf("create role %q: %v", name, err)
	}
	return r
}

func mustUser(t *testing.T, db DBTX, nickname string, roleID int64) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(context.Background(), nickname, "hash", roleID)
	if err != nil {
		t.Fatalf("create user %q: %v", nickname, err)
	}
	return u
}

func mustTask(t *testing.T, db DBTX, name string, schedule model.ScheduleType) *model.Task {
	t.Helper()
	task, err := NewTaskStore(db).Create(context.Background(), model.Task{
		Name:           name,
		BasePoints:     10,
		ScheduleType:   schedule,
		DefaultDueTime: "17:00",
	})
	if err != nil {
		t.Fatalf("create task %q: %v", name, err)
	}
	return task
}

func mustInstance(t *testing.T, db DBTX, taskID, userID int64, due time.Time) *model.TaskInstance {
	t.Helper()
	inst, err := NewInstanceStore(db).Create(context.Background(), taskID, userID, due)
	if err != nil {
		t.Fatalf("create instance: %v", err)
	}
	return inst
}
