package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorechart/internal/chore"
)

// Resetter runs the day's instance generation on demand.
type Resetter interface {
	RunNow(ctx context.Context) (int, error)
}

type TaskHandler struct {
	engine   *chore.Engine
	resetter Resetter
	logger   *slog.Logger
}

func NewTaskHandler(engine *chore.Engine, resetter Resetter, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{engine: engine, resetter: resetter, logger: logger}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.engine.ListTasks(r.Context())
	if err != nil {
		writeError(w, h.logger, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(tasks))
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var def chore.TaskDefinition
	if err := decodeJSON(r, &def); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	task, err := h.engine.CreateTask(r.Context(), def)
	if err != nil {
		writeError(w, h.logger, "create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var def chore.TaskDefinition
	if err := decodeJSON(r, &def); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	task, err := h.engine.UpdateTask(r.Context(), id, def)
	if err != nil {
		writeError(w, h.logger, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.engine.DeleteTask(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import accepts a JSON array of task definitions and creates all or none.
func (h *TaskHandler) Import(w http.ResponseWriter, r *http.Request) {
	var defs []chore.TaskDefinition
	if err := decodeJSON(r, &defs); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(defs) == 0 {
		writeMessage(w, http.StatusBadRequest, "no tasks to import")
		return
	}
	created, err := h.engine.ImportTasks(r.Context(), defs)
	if err != nil {
		writeError(w, h.logger, "import tasks", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) DailyReset(w http.ResponseWriter, r *http.Request) {
	created, err := h.resetter.RunNow(r.Context())
	if err != nil {
		writeError(w, h.logger, "run daily reset", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

func (h *TaskHandler) Pending(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.Pending(r.Context())
	if err != nil {
		writeError(w, h.logger, "list pending instances", err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (h *TaskHandler) AwaitingReview(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.AwaitingReview(r.Context())
	if err != nil {
		writeError(w, h.logger, "list instances in review", err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (h *TaskHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	list, err := h.engine.TodayForUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, "list today's instances", err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		PerformerID *int64  `json:"performer_id"`
		PhotoURL    *string `json:"photo_url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	inst, err := h.engine.Complete(r.Context(), id, req.PerformerID, req.PhotoURL)
	if err != nil {
		writeError(w, h.logger, "complete instance", err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (h *TaskHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Approve *bool  `json:"approve"`
		Reason  string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Approve == nil {
		writeMessage(w, http.StatusBadRequest, "approve is required")
		return
	}
	inst, err := h.engine.Review(r.Context(), id, *req.Approve, req.Reason)
	if err != nil {
		writeError(w, h.logger, "review instance", err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}
