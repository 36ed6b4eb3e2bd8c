package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/chorechart/internal/config"
	"github.com/dukerupert/chorechart/internal/database"
)

func setupServer(t *testing.T) http.Handler {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("CHORECHART_TIMEZONE", "UTC")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	srv, err := New(db, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv.Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

type idResp struct {
	ID int64 `json:"id"`
}

func TestHealth(t *testing.T) {
	h := setupServer(t)
	rec := do(t, h, "GET", "/health", "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]string](t, rec); got["status"] != "ok" {
		t.Errorf("status = %q, want ok", got["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := setupServer(t)
	do(t, h, "GET", "/health", "")
	rec := do(t, h, "GET", "/metrics", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "chorechart_http_requests_total") {
		t.Error("metrics output missing chorechart_http_requests_total")
	}
}

func TestChoreLifecycle(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, "POST", "/api/roles", `{"name":"Child","multiplier":1.5}`)
	expectStatus(t, rec, http.StatusCreated)
	role := decode[idResp](t, rec)

	rec = do(t, h, "POST", "/api/users", fmt.Sprintf(`{"nickname":"Mia","pin":"1234","role_id":%d}`, role.ID))
	expectStatus(t, rec, http.StatusCreated)
	user := decode[idResp](t, rec)

	rec = do(t, h, "POST", "/api/tasks", fmt.Sprintf(`{"name":"Dishes","base_points":10,"assigned_role_id":%d,"schedule_type":"daily","default_due_time":"18:00"}`, role.ID))
	expectStatus(t, rec, http.StatusCreated)

	rec = do(t, h, "POST", "/api/daily-reset", "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]int](t, rec); got["created"] != 1 {
		t.Fatalf("created = %d, want 1", got["created"])
	}

	rec = do(t, h, "GET", fmt.Sprintf("/api/users/%d/instances/today", user.ID), "")
	expectStatus(t, rec, http.StatusOK)
	today := decode[[]idResp](t, rec)
	if len(today) != 1 {
		t.Fatalf("today = %d instances, want 1", len(today))
	}

	rec = do(t, h, "POST", fmt.Sprintf("/api/instances/%d/complete", today[0].ID), "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]any](t, rec); got["status"] != "COMPLETED" {
		t.Errorf("instance status = %v, want COMPLETED", got["status"])
	}

	rec = do(t, h, "GET", fmt.Sprintf("/api/users/%d", user.ID), "")
	expectStatus(t, rec, http.StatusOK)
	balance := decode[struct {
		CurrentPoints int `json:"current_points"`
		CurrentStreak int `json:"current_streak"`
	}](t, rec)
	// floor(10 * 1.5) + daily bonus 5
	if balance.CurrentPoints != 20 {
		t.Errorf("current_points = %d, want 20", balance.CurrentPoints)
	}
	if balance.CurrentStreak != 1 {
		t.Errorf("current_streak = %d, want 1", balance.CurrentStreak)
	}

	rec = do(t, h, "POST", "/api/rewards", `{"name":"Movie night","cost_points":50,"tier_level":1}`)
	expectStatus(t, rec, http.StatusCreated)
	movie := decode[idResp](t, rec)

	rec = do(t, h, "POST", fmt.Sprintf("/api/rewards/%d/redeem", movie.ID), fmt.Sprintf(`{"user_id":%d}`, user.ID))
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decode[map[string]string](t, rec); !strings.Contains(got["error"], "insufficient points") {
		t.Errorf("error = %q, want insufficient points", got["error"])
	}

	rec = do(t, h, "POST", "/api/rewards", `{"name":"Sticker","cost_points":15}`)
	expectStatus(t, rec, http.StatusCreated)
	sticker := decode[idResp](t, rec)
	rec = do(t, h, "POST", fmt.Sprintf("/api/rewards/%d/redeem", sticker.ID), fmt.Sprintf(`{"user_id":%d}`, user.ID))
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, h, "GET", "/api/transactions?type=earn", "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]map[string]any](t, rec); len(got) != 1 {
		t.Errorf("EARN entries = %d, want 1", len(got))
	}
	rec = do(t, h, "GET", fmt.Sprintf("/api/users/%d/transactions", user.ID), "")
	expectStatus(t, rec, http.StatusOK)
	ledger := decode[[]map[string]any](t, rec)
	if len(ledger) != 2 || ledger[0]["type"] != "REDEEM" {
		t.Errorf("ledger = %v, want REDEEM first of 2", ledger)
	}

	rec = do(t, h, "GET", fmt.Sprintf("/api/users/%d/notifications?unread_only=true", user.ID), "")
	expectStatus(t, rec, http.StatusOK)
	notes := decode[[]idResp](t, rec)
	if len(notes) != 2 {
		t.Fatalf("notifications = %d, want 2", len(notes))
	}

	rec = do(t, h, "POST", fmt.Sprintf("/api/notifications/%d/read?user_id=%d", notes[0].ID, user.ID+1), "")
	expectStatus(t, rec, http.StatusNotFound)
	rec = do(t, h, "POST", fmt.Sprintf("/api/notifications/%d/read?user_id=%d", notes[0].ID, user.ID), "")
	expectStatus(t, rec, http.StatusNoContent)
	rec = do(t, h, "POST", fmt.Sprintf("/api/users/%d/notifications/read-all", user.ID), "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]int64](t, rec); got["marked"] != 1 {
		t.Errorf("marked = %d, want 1", got["marked"])
	}

	rec = do(t, h, "GET", "/api/analytics/weekly", "")
	expectStatus(t, rec, http.StatusOK)
	week := decode[[]struct {
		Date   string         `json:"date"`
		Counts map[string]int `json:"counts"`
	}](t, rec)
	if len(week) != 7 || week[6].Date != "2026-10-17" || week[6].Counts["Mia"] != 1 {
		t.Errorf("weekly = %+v", week)
	}

	rec = do(t, h, "GET", "/api/analytics/distribution", "")
	expectStatus(t, rec, http.StatusOK)
	dist := decode[[]map[string]any](t, rec)
	if len(dist) != 1 || dist[0]["role"] != "Child" {
		t.Errorf("distribution = %v", dist)
	}
}

func TestErrorMapping(t *testing.T) {
	h := setupServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown user", "GET", "/api/users/999", "", http.StatusNotFound},
		{"bad id", "GET", "/api/users/abc", "", http.StatusBadRequest},
		{"invalid json", "POST", "/api/roles", "{", http.StatusBadRequest},
		{"validation", "POST", "/api/tasks", `{"name":"X","base_points":0,"schedule_type":"daily","default_due_time":"18:00"}`, http.StatusBadRequest},
		{"bad schedule", "POST", "/api/tasks", `{"name":"X","base_points":5,"schedule_type":"daily","default_due_time":"25:00"}`, http.StatusBadRequest},
		{"missing instance", "POST", "/api/instances/42/complete", "", http.StatusNotFound},
		{"review without approve", "POST", "/api/instances/42/review", `{}`, http.StatusBadRequest},
		{"bad transaction type", "GET", "/api/transactions?type=GIFT", "", http.StatusBadRequest},
		{"bad start date", "GET", "/api/transactions?start=yesterday", "", http.StatusBadRequest},
		{"missing reward", "POST", "/api/rewards/7/redeem", `{"user_id":1}`, http.StatusNotFound},
		{"empty import", "POST", "/api/tasks/import", `[]`, http.StatusBadRequest},
		{"mark read without user", "POST", "/api/notifications/1/read", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRoleDeleteConflict(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, "POST", "/api/roles", `{"name":"Child","multiplier":1.5}`)
	expectStatus(t, rec, http.StatusCreated)
	child := decode[idResp](t, rec)
	rec = do(t, h, "POST", "/api/roles", `{"name":"Teen","multiplier":1.2}`)
	expectStatus(t, rec, http.StatusCreated)
	teen := decode[idResp](t, rec)

	rec = do(t, h, "POST", "/api/roles", `{"name":"Child","multiplier":1}`)
	expectStatus(t, rec, http.StatusConflict)

	rec = do(t, h, "POST", "/api/users", fmt.Sprintf(`{"nickname":"Leo","pin":"0000","role_id":%d}`, child.ID))
	expectStatus(t, rec, http.StatusCreated)

	rec = do(t, h, "DELETE", fmt.Sprintf("/api/roles/%d", child.ID), "")
	expectStatus(t, rec, http.StatusConflict)

	rec = do(t, h, "DELETE", fmt.Sprintf("/api/roles/%d?reassign_to=%d", child.ID, teen.ID), "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]int64](t, rec); got["users_reassigned"] != 1 {
		t.Errorf("users_reassigned = %d, want 1", got["users_reassigned"])
	}
}

func TestImportTasks(t *testing.T) {
	h := setupServer(t)

	body := `[
		{"name":"Trash","base_points":5,"schedule_type":"Täglich","default_due_time":"19:00"},
		{"name":"Vacuum","base_points":20,"schedule_type":"wöchentlich","default_due_time":"Samstag"}
	]`
	rec := do(t, h, "POST", "/api/tasks/import", body)
	expectStatus(t, rec, http.StatusCreated)
	created := decode[[]map[string]any](t, rec)
	if len(created) != 2 {
		t.Fatalf("created = %d, want 2", len(created))
	}
	if created[1]["default_due_time"] != "Saturday" {
		t.Errorf("weekday = %v, want Saturday", created[1]["default_due_time"])
	}

	bad := `[{"name":"Ok","base_points":5,"schedule_type":"daily","default_due_time":"08:00"},{"name":"Bad","base_points":5,"schedule_type":"monthly","default_due_time":"08:00"}]`
	rec = do(t, h, "POST", "/api/tasks/import", bad)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, h, "GET", "/api/tasks", "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]idResp](t, rec); len(got) != 2 {
		t.Errorf("tasks = %d, want 2 after rejected import", len(got))
	}
}

func TestLoginRateLimited(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, "POST", "/api/roles", `{"name":"Admin","multiplier":1}`)
	expectStatus(t, rec, http.StatusCreated)
	role := decode[idResp](t, rec)
	rec = do(t, h, "POST", "/api/users", fmt.Sprintf(`{"nickname":"Dad","pin":"2468","role_id":%d}`, role.ID))
	expectStatus(t, rec, http.StatusCreated)

	rec = do(t, h, "POST", "/api/login", `{"nickname":"Dad","pin":"2468"}`)
	expectStatus(t, rec, http.StatusOK)
	rec = do(t, h, "POST", "/api/login", `{"nickname":"Dad","pin":"0000"}`)
	expectStatus(t, rec, http.StatusUnauthorized)

	for i := 2; i < loginLimit; i++ {
		do(t, h, "POST", "/api/login", `{"nickname":"Dad","pin":"0000"}`)
	}
	rec = do(t, h, "POST", "/api/login", `{"nickname":"Dad","pin":"2468"}`)
	expectStatus(t, rec, http.StatusTooManyRequests)
}

func TestLanguagePreferences(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, "GET", "/api/settings/language/default", "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]string](t, rec); got["key"] != "default_language" || got["value"] != "en" {
		t.Errorf("default = %v, want default_language=en", got)
	}

	rec = do(t, h, "PUT", "/api/settings/language/default", `{"key":"default_language","value":"de"}`)
	expectStatus(t, rec, http.StatusOK)
	rec = do(t, h, "PUT", "/api/settings/language/default", `{"value":"fr"}`)
	expectStatus(t, rec, http.StatusBadRequest)
	rec = do(t, h, "GET", "/api/settings/language/default", "")
	if got := decode[map[string]string](t, rec); got["value"] != "de" {
		t.Errorf("default = %q, want de", got["value"])
	}

	rec = do(t, h, "POST", "/api/roles", `{"name":"Child","multiplier":1.5}`)
	expectStatus(t, rec, http.StatusCreated)
	role := decode[idResp](t, rec)
	rec = do(t, h, "POST", "/api/users", fmt.Sprintf(`{"nickname":"Mia","pin":"1357","role_id":%d}`, role.ID))
	expectStatus(t, rec, http.StatusCreated)
	mia := decode[idResp](t, rec)

	rec = do(t, h, "PUT", fmt.Sprintf("/api/users/%d/language", mia.ID), `{"preferred_language":"en"}`)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]any](t, rec); got["preferred_language"] != "en" {
		t.Errorf("preferred_language = %v, want en", got["preferred_language"])
	}

	rec = do(t, h, "PUT", fmt.Sprintf("/api/users/%d/language", mia.ID), `{"preferred_language":null}`)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]any](t, rec); got["preferred_language"] != nil {
		t.Errorf("preferred_language = %v, want null", got["preferred_language"])
	}

	rec = do(t, h, "PUT", "/api/users/999/language", `{"preferred_language":"de"}`)
	expectStatus(t, rec, http.StatusNotFound)
}
