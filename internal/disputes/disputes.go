// Package disputes opens and resolves disputes against completed gigs. The
// escrow amount is captured from the gig at open time, and payouts are minted
// from the system user as DISPUTE_REFUND transactions rather than reversing
// the original gig payment.
package disputes

import (
	"errors"
	"time"

	"timebank/internal/ledger"
	"timebank/internal/state"

	"github.com/google/uuid"
)

var (
	ErrGigNotCompleted = errors.New("gig not found or not completed")
	ErrWindowExpired   = errors.New("dispute window (24 hours) has passed")
	ErrNotFound        = errors.New("dispute not found")
	ErrAlreadyResolved = errors.New("dispute already resolved")
	ErrInvalidOutcome  = errors.New("invalid dispute outcome")
)

// Window is how long after a gig's completion a dispute may still be opened.
const Window = 24 * time.Hour

// Open records a new dispute against a completed gig. The respondent is the
// gig party the initiator is not.
func Open(s state.State, gigID, initiatorID, reason, evidence string, now time.Time) (state.State, string, error) {
	gig, ok := s.Gigs[gigID]
	if !ok || gig.CompletedAt == nil {
		return s, "", ErrGigNotCompleted
	}
	if now.Sub(*gig.CompletedAt) > Window {
		return s, "", ErrWindowExpired
	}

	respondentID := gig.CreatedBy
	if initiatorID == gig.CreatedBy {
		respondentID = gig.AssignedTo
	}

	dispute := state.Dispute{
		ID:           uuid.NewString(),
		GigID:        gigID,
		InitiatorID:  initiatorID,
		RespondentID: respondentID,
		Reason:       reason,
		Evidence:     evidence,
		Status:       state.DisputeStatusOpen,
		EscrowAmount: gig.TimeCreditsOffered,
		CreatedAt:    now,
	}
	return s.WithDispute(dispute), dispute.ID, nil
}

// Resolve settles an open dispute. Resolution is terminal: a second attempt
// fails. Outcome decides the allocation of the escrow amount, with SPLIT
// rounding in the respondent's favor on odd amounts.
func Resolve(s state.State, disputeID, resolverID string, outcome state.DisputeOutcome, reason string, now time.Time) (state.State, error) {
	dispute, ok := s.Disputes[disputeID]
	if !ok {
		return s, ErrNotFound
	}
	if dispute.Status != state.DisputeStatusOpen {
		return s, ErrAlreadyResolved
	}

	allocations, err := allocate(dispute, outcome)
	if err != nil {
		return s, err
	}

	resolvedAt := now
	dispute.Status = state.DisputeStatusResolved
	dispute.ResolvedAt = &resolvedAt
	dispute.Resolution = &state.DisputeResolution{
		ResolverID:       resolverID,
		Outcome:          outcome,
		CreditAllocation: allocations,
		Reason:           reason,
		ResolvedAt:       resolvedAt,
	}

	next := s.WithDispute(dispute).WithModerationAction(state.ModerationAction{
		ID:          uuid.NewString(),
		Type:        state.ModerationActionResolveDispute,
		ModeratorID: resolverID,
		TargetGigID: dispute.GigID,
		DisputeID:   dispute.ID,
		Reason:      reason,
		CreatedAt:   now,
	})

	for _, allocation := range allocations {
		// A SPLIT on a one-credit escrow floors the initiator's share to
		// zero; the allocation is still recorded, just never minted.
		if allocation.Amount <= 0 {
			continue
		}
		var mintErr error
		next, _, mintErr = ledger.Mint(next, allocation.UserID, dispute.GigID,
			allocation.Amount, state.TransactionTypeDisputeRefund,
			"Dispute resolution: "+string(outcome), now)
		if mintErr != nil {
			return s, mintErr
		}
	}
	return next, nil
}

func allocate(dispute state.Dispute, outcome state.DisputeOutcome) ([]state.CreditAllocation, error) {
	switch outcome {
	case state.DisputeOutcomeFavorInitiator:
		return []state.CreditAllocation{{UserID: dispute.InitiatorID, Amount: dispute.EscrowAmount}}, nil
	case state.DisputeOutcomeFavorRespondent:
		return []state.CreditAllocation{{UserID: dispute.RespondentID, Amount: dispute.EscrowAmount}}, nil
	case state.DisputeOutcomeSplit:
		half := dispute.EscrowAmount / 2
		return []state.CreditAllocation{
			{UserID: dispute.InitiatorID, Amount: half},
			{UserID: dispute.RespondentID, Amount: dispute.EscrowAmount - half},
		}, nil
	case state.DisputeOutcomeDismissed:
		return nil, nil
	default:
		return nil, ErrInvalidOutcome
	}
}
