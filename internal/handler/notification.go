package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorechart/internal/store"
)

type NotificationHandler struct {
	notifications *store.NotificationStore
	logger        *slog.Logger
}

func NewNotificationHandler(notifications *store.NotificationStore, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	unreadOnly := r.URL.Query().Get("unread_only") == "true"

	list, err := h.notifications.ListByUser(r.Context(), userID, unreadOnly, limit, offset)
	if err != nil {
		writeError(w, h.logger, "list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

// MarkRead only touches the notification if it belongs to ?user_id=.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	userID, err := queryInt64(r, "user_id")
	if err != nil || userID == nil {
		writeMessage(w, http.StatusBadRequest, "user_id is required")
		return
	}
	ok, err := h.notifications.MarkRead(r.Context(), id, *userID)
	if err != nil {
		writeError(w, h.logger, "mark notification read", err)
		return
	}
	if !ok {
		writeMessage(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	n, err := h.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, "mark notifications read", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": n})
}
