package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

type LedgerHandler struct {
	transactions *store.TransactionStore
	users        *store.UserStore
	loc          *time.Location
	logger       *slog.Logger
}

func NewLedgerHandler(transactions *store.TransactionStore, users *store.UserStore, loc *time.Location, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{transactions: transactions, users: users, loc: loc, logger: logger}
}

// List serves the household-wide history. ?user_id= narrows it.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilter(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.UserID, err = queryInt64(r, "user_id"); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	h.respond(w, r, f)
}

func (h *LedgerHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "get user", err)
		return
	}
	if u == nil {
		writeMessage(w, http.StatusNotFound, "user not found")
		return
	}
	f, err := h.parseFilter(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	f.UserID = &id
	h.respond(w, r, f)
}

func (h *LedgerHandler) respond(w http.ResponseWriter, r *http.Request, f model.TransactionFilter) {
	list, err := h.transactions.List(r.Context(), f)
	if err != nil {
		writeError(w, h.logger, "list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (h *LedgerHandler) parseFilter(r *http.Request) (model.TransactionFilter, error) {
	q := r.URL.Query()
	f := model.TransactionFilter{Search: strings.TrimSpace(q.Get("search"))}

	switch t := model.TransactionType(strings.ToUpper(q.Get("type"))); t {
	case "":
	case model.TransactionEarn, model.TransactionRedeem:
		f.Type = t
	default:
		return f, fmt.Errorf("type must be EARN or REDEEM")
	}

	var err error
	if f.Start, err = h.parseTime(q.Get("start")); err != nil {
		return f, fmt.Errorf("invalid start: %w", err)
	}
	if f.End, err = h.parseTime(q.Get("end")); err != nil {
		return f, fmt.Errorf("invalid end: %w", err)
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

// parseTime accepts a local calendar date (midnight) or an RFC 3339 instant.
func (h *LedgerHandler) parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(model.DateLayout, s, h.loc); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("want YYYY-MM-DD or RFC 3339")
	}
	return &t, nil
}
