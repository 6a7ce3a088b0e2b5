package handlers

import (
	"net/http"
	"sort"

	"timebank/internal/middleware"
	"timebank/internal/state"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	txType := r.URL.Query().Get("type")
	list := make([]state.Transaction, 0)
	for _, transaction := range snapshot.Transactions {
		if transaction.FromUserID != userID && transaction.ToUserID != userID {
			continue
		}
		if txType != "" && string(transaction.Type) != txType {
			continue
		}
		list = append(list, transaction)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := chi.URLParam(r, "id")
	if targetID == "me" {
		targetID = requesterID
	}
	user, err := h.service.UserByID(r.Context(), targetID)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":      user.ID,
		"username":     user.Username,
		"time_credits": user.TimeCredits,
	})
}
