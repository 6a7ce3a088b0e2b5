package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"timebank/internal/disputes"
	"timebank/internal/middleware"
	"timebank/internal/state"

	"github.com/go-chi/chi/v5"
)

type openDisputeRequest struct {
	GigID    string `json:"gig_id"`
	Reason   string `json:"reason"`
	Evidence string `json:"evidence"`
}

func (h *Handler) OpenDispute(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req openDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	disputeID, err := h.service.OpenDispute(r.Context(), req.GigID, userID, req.Reason, req.Evidence)
	if err != nil {
		respondDisputeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"dispute_id": disputeID})
}

func (h *Handler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load disputes")
		return
	}
	moderator, err := h.service.IsModerator(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load disputes")
		return
	}
	list := make([]state.Dispute, 0, len(snapshot.Disputes))
	for _, dispute := range snapshot.Disputes {
		if !moderator && dispute.InitiatorID != userID && dispute.RespondentID != userID {
			continue
		}
		list = append(list, dispute)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	respondJSON(w, http.StatusOK, list)
}

type resolveDisputeRequest struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason"`
}

func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	resolverID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req resolveDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	err := h.service.ResolveDispute(r.Context(), chi.URLParam(r, "id"), resolverID,
		state.DisputeOutcome(req.Outcome), req.Reason)
	if err != nil {
		respondDisputeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func respondDisputeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, disputes.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, disputes.ErrGigNotCompleted),
		errors.Is(err, disputes.ErrInvalidOutcome):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, disputes.ErrWindowExpired),
		errors.Is(err, disputes.ErrAlreadyResolved):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "operation failed")
	}
}
