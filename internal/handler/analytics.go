package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorechart/internal/store"
)

type AnalyticsHandler struct {
	analytics *store.AnalyticsStore
	now       func() time.Time
	logger    *slog.Logger
}

// NewAnalyticsHandler takes the clock whose location defines the
// calendar days of the weekly view.
func NewAnalyticsHandler(analytics *store.AnalyticsStore, now func() time.Time, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, now: now, logger: logger}
}

func (h *AnalyticsHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	days, err := h.analytics.WeeklyActivity(r.Context(), h.now())
	if err != nil {
		writeError(w, h.logger, "load weekly activity", err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (h *AnalyticsHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	shares, err := h.analytics.PointsDistribution(r.Context())
	if err != nil {
		writeError(w, h.logger, "load points distribution", err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(shares))
}
