package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/reward"
)

type RewardHandler struct {
	rewards *reward.Service
	logger  *slog.Logger
}

func NewRewardHandler(rewards *reward.Service, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{rewards: rewards, logger: logger}
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.rewards.List(r.Context())
	if err != nil {
		writeError(w, h.logger, "list rewards", err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var def reward.Definition
	if err := decodeJSON(r, &def); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	created, err := h.rewards.Create(r.Context(), def)
	if err != nil {
		writeError(w, h.logger, "create reward", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var def reward.Definition
	if err := decodeJSON(r, &def); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	updated, err := h.rewards.Update(r.Context(), id, def)
	if err != nil {
		writeError(w, h.logger, "update reward", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.rewards.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete reward", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.UserID == 0 {
		writeMessage(w, http.StatusBadRequest, "user_id is required")
		return
	}
	result, err := h.rewards.Redeem(r.Context(), req.UserID, id)
	if err != nil {
		writeError(w, h.logger, "redeem reward", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *RewardHandler) RedeemSplit(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Contributions []model.Contribution `json:"contributions"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	result, err := h.rewards.RedeemSplit(r.Context(), id, req.Contributions)
	if err != nil {
		writeError(w, h.logger, "redeem reward", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SetGoal sets or, with a null reward_id, clears the user's goal.
func (h *RewardHandler) SetGoal(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		RewardID *int64 `json:"reward_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	u, err := h.rewards.SetGoal(r.Context(), userID, req.RewardID)
	if err != nil {
		writeError(w, h.logger, "set goal", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
