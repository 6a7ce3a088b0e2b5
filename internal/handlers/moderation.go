package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"timebank/internal/auth"
	"timebank/internal/ledger"
	"timebank/internal/middleware"
	"timebank/internal/moderation"
	"timebank/internal/state"
	"timebank/internal/websocket"
)

type freezeRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

func (h *Handler) FreezeUser(w http.ResponseWriter, r *http.Request) {
	moderatorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req freezeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.service.FreezeUser(r.Context(), req.UserID, moderatorID, req.Reason); err != nil {
		respondModerationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "frozen"})
}

func (h *Handler) UnfreezeUser(w http.ResponseWriter, r *http.Request) {
	moderatorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req freezeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.service.UnfreezeUser(r.Context(), req.UserID, moderatorID, req.Reason); err != nil {
		respondModerationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "unfrozen"})
}

type awardRequest struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func (h *Handler) AwardCredits(w http.ResponseWriter, r *http.Request) {
	moderatorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req awardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	transactionID, err := h.service.AwardCredits(r.Context(), req.UserID, moderatorID, req.Amount, req.Reason)
	if err != nil {
		respondModerationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"transaction_id": transactionID})
}

func (h *Handler) ListModerationActions(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load actions")
		return
	}
	list := make([]state.ModerationAction, 0, len(snapshot.ModerationActions))
	for _, action := range snapshot.ModerationActions {
		list = append(list, action)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}

func respondModerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, moderation.ErrUserNotFound), errors.Is(err, ledger.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, moderation.ErrAlreadyFrozen), errors.Is(err, moderation.ErrNotFrozen):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "operation failed")
	}
}
