package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"timebank/internal/gigs"
	"timebank/internal/ledger"
	"timebank/internal/middleware"
	"timebank/internal/moderation"
	"timebank/internal/state"
	"timebank/internal/validator"

	"github.com/go-chi/chi/v5"
)

type createGigRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	Type               string   `json:"type"`
	TimeCreditsOffered int64    `json:"time_credits_offered"`
	EstimatedDuration  int      `json:"estimated_duration_minutes"`
	RequiredSkills     []string `json:"required_skills"`
}

func (h *Handler) CreateGig(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createGigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateCategory(req.Category); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidateGigType(req.Type); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	gigID, err := h.service.CreateGig(r.Context(), gigs.Draft{
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Type:               state.GigType(req.Type),
		TimeCreditsOffered: req.TimeCreditsOffered,
		EstimatedDuration:  req.EstimatedDuration,
		RequiredSkills:     req.RequiredSkills,
		CreatedBy:          userID,
	})
	if err != nil {
		respondGigError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"gig_id": gigID})
}

func (h *Handler) ListGigs(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load gigs")
		return
	}
	status := r.URL.Query().Get("status")
	list := make([]state.Gig, 0, len(snapshot.Gigs))
	for _, gig := range snapshot.Gigs {
		if status != "" && string(gig.Status) != status {
			continue
		}
		list = append(list, gig)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) AcceptGig(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.service.AcceptGig(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		respondGigError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (h *Handler) StartGig(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.service.StartGig(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		respondGigError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "in_progress"})
}

func (h *Handler) ConfirmCompletion(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	transactionID, err := h.service.ConfirmCompletion(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		respondGigError(w, err)
		return
	}
	payload := map[string]string{"status": "confirmed"}
	if transactionID != "" {
		payload["transaction_id"] = transactionID
	}
	respondJSON(w, http.StatusOK, payload)
}

type cancelGigRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelGig(w http.ResponseWriter, r *http.Request) {
	moderatorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req cancelGigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.service.CancelGig(r.Context(), chi.URLParam(r, "id"), moderatorID, req.Reason); err != nil {
		respondGigError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func respondGigError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gigs.ErrGigNotFound), errors.Is(err, gigs.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, gigs.ErrTitleTooShort),
		errors.Is(err, gigs.ErrDescriptionTooShort),
		errors.Is(err, gigs.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientCredits):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gigs.ErrSelfAccept),
		errors.Is(err, gigs.ErrNotAssignee),
		errors.Is(err, gigs.ErrNotParticipant):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, gigs.ErrNotAvailable),
		errors.Is(err, gigs.ErrNotAssigned),
		errors.Is(err, gigs.ErrInvalidStatus),
		errors.Is(err, gigs.ErrNotCancellable):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, moderation.ErrUserFrozen):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, moderation.ErrRateLimited):
		respondError(w, http.StatusTooManyRequests, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "operation failed")
	}
}
