package handlers

import (
	"net/http"
	"strconv"

	"timebank/internal/events"
	"timebank/internal/leaderboard"
	"timebank/internal/middleware"
	"timebank/internal/state"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load leaderboard")
		return
	}
	category := leaderboard.Category(chi.URLParam(r, "category"))
	switch category {
	case leaderboard.CategoryTopHelpers, leaderboard.CategoryFastestResponders, leaderboard.CategoryDiverseSkillers:
	default:
		respondError(w, http.StatusBadRequest, "unknown leaderboard category")
		return
	}
	period := leaderboard.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = leaderboard.PeriodAllTime
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	respondJSON(w, http.StatusOK, leaderboard.Rankings(snapshot, category, period, limit))
}

func (h *Handler) MyStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load stats")
		return
	}
	stats, ok := snapshot.UserStats[userID]
	if !ok {
		stats = state.UserStats{UserID: userID, AvgResponseMinutes: "0", UniqueCategories: []string{}}
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) CurrentEvent(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load event")
		return
	}
	event, ok := events.Active(snapshot)
	if !ok {
		respondError(w, http.StatusNotFound, "no active event")
		return
	}
	respondJSON(w, http.StatusOK, event)
}
