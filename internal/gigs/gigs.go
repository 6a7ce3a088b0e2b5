// Package gigs owns the gig status state machine. Every operation is a pure
// transform over a state snapshot; serializing concurrent callers is the
// snapshot store's job, not this package's.
package gigs

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"timebank/internal/ledger"
	"timebank/internal/state"

	"github.com/google/uuid"
)

var (
	ErrGigNotFound         = errors.New("gig not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTitleTooShort       = errors.New("title must be at least 10 characters long")
	ErrDescriptionTooShort = errors.New("description must be at least 20 characters long")
	ErrInvalidAmount       = errors.New("time credits offered must be positive")
	ErrSelfAccept          = errors.New("cannot accept your own gig")
	ErrNotAvailable        = errors.New("gig is no longer available")
	ErrNotAssignee         = errors.New("only the assigned user can start the gig")
	ErrNotAssigned         = errors.New("gig must be assigned to start")
	ErrNotParticipant      = errors.New("only the gig creator or assignee can confirm completion")
	ErrInvalidStatus       = errors.New("gig must be assigned, in progress, or awaiting confirmation")
	ErrNotCancellable      = errors.New("gig can no longer be cancelled")
)

const (
	minTitleLen       = 10
	minDescriptionLen = 20
)

type Draft struct {
	Title              string
	Description        string
	Category           string
	Type               state.GigType
	TimeCreditsOffered int64
	EstimatedDuration  int
	RequiredSkills     []string
	CreatedBy          string
}

// Create validates a draft and adds it as an OPEN gig. The FIND_HELP balance
// check is a pre-check only; no credits move until completion.
func Create(s state.State, draft Draft, now time.Time) (state.State, string, error) {
	creator, ok := s.Users[draft.CreatedBy]
	if !ok {
		return s, "", ErrUserNotFound
	}
	if utf8.RuneCountInString(strings.TrimSpace(draft.Title)) < minTitleLen {
		return s, "", ErrTitleTooShort
	}
	if utf8.RuneCountInString(strings.TrimSpace(draft.Description)) < minDescriptionLen {
		return s, "", ErrDescriptionTooShort
	}
	if draft.TimeCreditsOffered <= 0 {
		return s, "", ErrInvalidAmount
	}
	if draft.Type == state.GigTypeFindHelp && creator.TimeCredits < draft.TimeCreditsOffered {
		return s, "", ledger.ErrInsufficientCredits
	}

	gig := state.Gig{
		ID:                 uuid.NewString(),
		Title:              draft.Title,
		Description:        draft.Description,
		Category:           draft.Category,
		Type:               draft.Type,
		TimeCreditsOffered: draft.TimeCreditsOffered,
		EstimatedDuration:  draft.EstimatedDuration,
		RequiredSkills:     draft.RequiredSkills,
		CreatedBy:          draft.CreatedBy,
		Status:             state.GigStatusOpen,
		CreatedAt:          now,
	}
	return s.WithGig(gig), gig.ID, nil
}

// Accept assigns an OPEN gig to a user. Two callers racing on the same
// snapshot version both succeed here; the store's compare-and-swap commit is
// what turns that race into exactly one winner.
func Accept(s state.State, gigID, userID string) (state.State, error) {
	gig, ok := s.Gigs[gigID]
	if !ok {
		return s, ErrGigNotFound
	}
	if _, ok := s.Users[userID]; !ok {
		return s, ErrUserNotFound
	}
	if gig.CreatedBy == userID {
		return s, ErrSelfAccept
	}
	if gig.Status != state.GigStatusOpen {
		return s, ErrNotAvailable
	}
	gig.Status = state.GigStatusAssigned
	gig.AssignedTo = userID
	return s.WithGig(gig), nil
}

func Start(s state.State, gigID, userID string) (state.State, error) {
	gig, ok := s.Gigs[gigID]
	if !ok {
		return s, ErrGigNotFound
	}
	if gig.AssignedTo != userID {
		return s, ErrNotAssignee
	}
	if gig.Status != state.GigStatusAssigned {
		return s, ErrNotAssigned
	}
	gig.Status = state.GigStatusInProgress
	return s.WithGig(gig), nil
}

// ConfirmCompletion advances a gig toward COMPLETED and pays out when it gets
// there. The transition table is deliberately asymmetric: confirming from
// ASSIGNED only reaches AWAITING_CONFIRMATION and needs a second confirmation,
// while confirming from IN_PROGRESS completes and pays immediately.
// Confirming an already COMPLETED gig is a no-op success.
//
//	COMPLETED              -> COMPLETED (no-op)
//	ASSIGNED               -> AWAITING_CONFIRMATION (no payment)
//	IN_PROGRESS            -> COMPLETED (pays)
//	AWAITING_CONFIRMATION  -> COMPLETED (pays)
//
// If the payment fails the returned error stands and the gig is not marked
// completed.
func ConfirmCompletion(s state.State, gigID, confirmingUserID string, now time.Time) (state.State, string, error) {
	gig, ok := s.Gigs[gigID]
	if !ok {
		return s, "", ErrGigNotFound
	}
	if _, ok := s.Users[confirmingUserID]; !ok {
		return s, "", ErrUserNotFound
	}
	if gig.CreatedBy != confirmingUserID && gig.AssignedTo != confirmingUserID {
		return s, "", ErrNotParticipant
	}
	if gig.Status == state.GigStatusCompleted {
		return s, "", nil
	}

	var next state.GigStatus
	switch gig.Status {
	case state.GigStatusAssigned:
		next = state.GigStatusAwaitingConfirmation
	case state.GigStatusInProgress, state.GigStatusAwaitingConfirmation:
		next = state.GigStatusCompleted
	default:
		return s, "", ErrInvalidStatus
	}

	gig.Status = next
	if next != state.GigStatusCompleted {
		return s.WithGig(gig), "", nil
	}

	completedAt := now
	gig.CompletedAt = &completedAt
	updated, transactionID, err := ledger.ExecutePayment(s.WithGig(gig), gigID, now)
	if err != nil {
		// The gig stays uncompleted, but a FAILED transaction written by the
		// ledger survives as an audit artifact.
		s.Transactions = updated.Transactions
		return s, "", err
	}
	return updated, transactionID, nil
}

// Cancel withdraws a gig before any work is confirmed. Administrative only;
// there is no user-facing path to it.
func Cancel(s state.State, gigID string) (state.State, error) {
	gig, ok := s.Gigs[gigID]
	if !ok {
		return s, ErrGigNotFound
	}
	if gig.Status != state.GigStatusOpen && gig.Status != state.GigStatusAssigned {
		return s, ErrNotCancellable
	}
	gig.Status = state.GigStatusCancelled
	return s.WithGig(gig), nil
}
