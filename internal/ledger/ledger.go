// Package ledger owns transaction creation, idempotent processing, and the
// atomic balance transfer between two user records. It knows nothing about
// gig lifecycle rules beyond the payment direction encoded in the gig type.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"timebank/internal/state"

	"github.com/google/uuid"
)

var (
	ErrGigNotPayable       = errors.New("gig is not payable")
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientCredits = errors.New("insufficient time credits")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotPending          = errors.New("transaction is not in pending status")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// ExecutePayment settles the credit transfer for a completed gig. It is
// idempotent per gig: a prior COMPLETED gig payment short-circuits to
// success, a prior PENDING one is resumed instead of duplicated, and only
// when neither exists is a new transaction created and processed.
func ExecutePayment(s state.State, gigID string, now time.Time) (state.State, string, error) {
	gig, ok := s.Gigs[gigID]
	if !ok || gig.AssignedTo == "" {
		return s, "", ErrGigNotPayable
	}
	if _, ok := s.Users[gig.CreatedBy]; !ok {
		return s, "", ErrUserNotFound
	}
	if _, ok := s.Users[gig.AssignedTo]; !ok {
		return s, "", ErrUserNotFound
	}

	if existing, ok := findGigPayment(s, gigID); ok {
		switch existing.Status {
		case state.TransactionStatusCompleted:
			return s, existing.ID, nil
		case state.TransactionStatusPending:
			next, err := ProcessTransaction(s, existing.ID, now)
			return next, existing.ID, err
		}
		// A FAILED or CANCELLED attempt does not block a fresh one.
	}

	fromUserID, toUserID := paymentParties(gig)
	payer := s.Users[fromUserID]
	if payer.TimeCredits < gig.TimeCreditsOffered {
		return s, "", fmt.Errorf("%w: %s has %d, needs %d",
			ErrInsufficientCredits, payer.Username, payer.TimeCredits, gig.TimeCreditsOffered)
	}

	transaction := state.Transaction{
		ID:          uuid.NewString(),
		FromUserID:  fromUserID,
		ToUserID:    toUserID,
		GigID:       gigID,
		Amount:      gig.TimeCreditsOffered,
		Type:        state.TransactionTypeGigPayment,
		Status:      state.TransactionStatusPending,
		Description: "Payment for gig: " + gig.Title,
		CreatedAt:   now,
	}
	next, err := ProcessTransaction(s.WithTransaction(transaction), transaction.ID, now)
	return next, transaction.ID, err
}

// ProcessTransaction commits a pending transaction: it re-checks the payer
// balance at commit time, then atomically debits the payer and credits the
// payee. Calling it again on a COMPLETED transaction changes nothing. A
// commit-time failure marks the transaction FAILED; that record is the one
// mutation allowed to survive a failed operation, as an audit artifact.
func ProcessTransaction(s state.State, transactionID string, now time.Time) (state.State, error) {
	transaction, ok := s.Transactions[transactionID]
	if !ok {
		return s, ErrTransactionNotFound
	}
	if transaction.Status == state.TransactionStatusCompleted {
		return s, nil
	}
	if transaction.Status != state.TransactionStatusPending {
		return s, ErrNotPending
	}

	payer, payerOK := s.Users[transaction.FromUserID]
	payee, payeeOK := s.Users[transaction.ToUserID]
	if !payerOK || !payeeOK {
		transaction.Status = state.TransactionStatusFailed
		return s.WithTransaction(transaction), ErrUserNotFound
	}
	if payer.TimeCredits < transaction.Amount {
		transaction.Status = state.TransactionStatusFailed
		return s.WithTransaction(transaction), ErrInsufficientCredits
	}

	payer.TimeCredits -= transaction.Amount
	payee.TimeCredits += transaction.Amount
	completedAt := now
	transaction.Status = state.TransactionStatusCompleted
	transaction.CompletedAt = &completedAt

	return s.WithUser(payer).WithUser(payee).WithTransaction(transaction), nil
}

// Mint transfers freshly issued credits from the system user. Every minted
// credit flows through the same pending-then-process path as a gig payment,
// so the system user is a real debited party rather than a bookkeeping fiction.
func Mint(s state.State, toUserID, gigID string, amount int64, txType state.TransactionType, description string, now time.Time) (state.State, string, error) {
	if amount <= 0 {
		return s, "", ErrInvalidAmount
	}
	if _, ok := s.Users[toUserID]; !ok {
		return s, "", ErrUserNotFound
	}
	s = s.EnsureSystemUser()
	transaction := state.Transaction{
		ID:          uuid.NewString(),
		FromUserID:  state.SystemUserID,
		ToUserID:    toUserID,
		GigID:       gigID,
		Amount:      amount,
		Type:        txType,
		Status:      state.TransactionStatusPending,
		Description: description,
		CreatedAt:   now,
	}
	next, err := ProcessTransaction(s.WithTransaction(transaction), transaction.ID, now)
	return next, transaction.ID, err
}

func paymentParties(gig state.Gig) (fromUserID, toUserID string) {
	if gig.Type == state.GigTypeFindHelp {
		return gig.CreatedBy, gig.AssignedTo
	}
	return gig.AssignedTo, gig.CreatedBy
}

func findGigPayment(s state.State, gigID string) (state.Transaction, bool) {
	// Prefer a completed payment, then a pending one, so a stale FAILED
	// record never shadows the transaction that actually moved credits.
	var pending state.Transaction
	var hasPending bool
	for _, transaction := range s.Transactions {
		if transaction.GigID != gigID || transaction.Type != state.TransactionTypeGigPayment {
			continue
		}
		if transaction.Status == state.TransactionStatusCompleted {
			return transaction, true
		}
		if transaction.Status == state.TransactionStatusPending && !hasPending {
			pending = transaction
			hasPending = true
		}
	}
	return pending, hasPending
}
