package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorechart/internal/account"
)

type AccountHandler struct {
	accounts *account.Service
	logger   *slog.Logger
}

func NewAccountHandler(accounts *account.Service, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

func (h *AccountHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.accounts.ListRoles(r.Context())
	if err != nil {
		writeError(w, h.logger, "list roles", err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(roles))
}

func (h *AccountHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req account.RoleDefinition
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	role, err := h.accounts.CreateRole(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "create role", err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

func (h *AccountHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Multiplier float64 `json:"multiplier"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	role, err := h.accounts.UpdateRole(r.Context(), id, req.Multiplier)
	if err != nil {
		writeError(w, h.logger, "update role", err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (h *AccountHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	reassignTo, err := queryInt64(r, "reassign_to")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid reassign_to")
		return
	}
	moved, err := h.accounts.DeleteRole(r.Context(), id, reassignTo)
	if err != nil {
		writeError(w, h.logger, "delete role", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"users_reassigned": moved})
}

func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.logger, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(users))
}

func (h *AccountHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req account.UserDefinition
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	u, err := h.accounts.CreateUser(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// GetUser doubles as the balance view: points, streak and goal.
func (h *AccountHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	u, err := h.accounts.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nickname string `json:"nickname"`
		PIN      string `json:"pin"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	u, err := h.accounts.Login(r.Context(), req.Nickname, req.PIN)
	if errors.Is(err, account.ErrInvalidCredentials) {
		writeMessage(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		writeError(w, h.logger, "log in", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AccountHandler) GetDefaultLanguage(w http.ResponseWriter, r *http.Request) {
	setting, err := h.accounts.DefaultLanguage(r.Context())
	if err != nil {
		writeError(w, h.logger, "get default language", err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

func (h *AccountHandler) SetDefaultLanguage(w http.ResponseWriter, r *http.Request) {
	var req account.LanguageSetting
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	setting, err := h.accounts.SetDefaultLanguage(r.Context(), req.Value)
	if err != nil {
		writeError(w, h.logger, "set default language", err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

func (h *AccountHandler) SetUserLanguage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		PreferredLanguage *string `json:"preferred_language"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	u, err := h.accounts.SetUserLanguage(r.Context(), id, req.PreferredLanguage)
	if err != nil {
		writeError(w, h.logger, "set user language", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
