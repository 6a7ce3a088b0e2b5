package ledger

import (
	"errors"
	"testing"
	"time"

	"timebank/internal/state"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func baseState() state.State {
	st := state.New()
	st = st.WithUser(state.User{ID: "alice", Username: "alice", TimeCredits: 100, IsActive: true})
	st = st.WithUser(state.User{ID: "bob", Username: "bob", TimeCredits: 50, IsActive: true})
	return st
}

func withGig(st state.State, gigType state.GigType, amount int64) state.State {
	return st.WithGig(state.Gig{
		ID:                 "gig-1",
		Title:              "Need help moving",
		Type:               gigType,
		TimeCreditsOffered: amount,
		CreatedBy:          "alice",
		AssignedTo:         "bob",
		Status:             state.GigStatusCompleted,
		CreatedAt:          testNow,
	})
}

func TestExecutePaymentFindHelpCreatorPaysAssignee(t *testing.T) {
	st := withGig(baseState(), state.GigTypeFindHelp, 30)
	next, transactionID, err := ExecutePayment(st, "gig-1", testNow)
	if err != nil {
		t.Fatalf("ExecutePayment: %v", err)
	}
	if transactionID == "" {
		t.Fatal("expected a transaction id")
	}
	if got := next.Users["alice"].TimeCredits; got != 70 {
		t.Errorf("alice balance = %d, want 70", got)
	}
	if got := next.Users["bob"].TimeCredits; got != 80 {
		t.Errorf("bob balance = %d, want 80", got)
	}
	transaction := next.Transactions[transactionID]
	if transaction.Status != state.TransactionStatusCompleted {
		t.Errorf("transaction status = %s, want completed", transaction.Status)
	}
	if transaction.FromUserID != "alice" || transaction.ToUserID != "bob" {
		t.Errorf("payment direction = %s -> %s, want alice -> bob", transaction.FromUserID, transaction.ToUserID)
	}
	if transaction.CompletedAt == nil {
		t.Error("expected a completion timestamp")
	}
}

func TestExecutePaymentOfferHelpAssigneePaysCreator(t *testing.T) {
	st := withGig(baseState(), state.GigTypeOfferHelp, 30)
	next, transactionID, err := ExecutePayment(st, "gig-1", testNow)
	if err != nil {
		t.Fatalf("ExecutePayment: %v", err)
	}
	if got := next.Users["alice"].TimeCredits; got != 130 {
		t.Errorf("alice balance = %d, want 130", got)
	}
	if got := next.Users["bob"].TimeCredits; got != 20 {
		t.Errorf("bob balance = %d, want 20", got)
	}
	transaction := next.Transactions[transactionID]
	if transaction.FromUserID != "bob" || transaction.ToUserID != "alice" {
		t.Errorf("payment direction = %s -> %s, want bob -> alice", transaction.FromUserID, transaction.ToUserID)
	}
}

func TestExecutePaymentIdempotentPerGig(t *testing.T) {
	st := withGig(baseState(), state.GigTypeFindHelp, 30)
	once, firstID, err := ExecutePayment(st, "gig-1", testNow)
	if err != nil {
		t.Fatalf("first ExecutePayment: %v", err)
	}
	twice, secondID, err := ExecutePayment(once, "gig-1", testNow)
	if err != nil {
		t.Fatalf("second ExecutePayment: %v", err)
	}
	if firstID != secondID {
		t.Errorf("second call returned %s, want the original transaction %s", secondID, firstID)
	}
	if got := twice.Users["alice"].TimeCredits; got != 70 {
		t.Errorf("alice balance after repeat = %d, want 70", got)
	}
	if got := len(twice.Transactions); got != 1 {
		t.Errorf("transaction count = %d, want 1", got)
	}
}

func TestExecutePaymentResumesPendingTransaction(t *testing.T) {
	st := withGig(baseState(), state.GigTypeFindHelp, 30)
	st = st.WithTransaction(state.Transaction{
		ID:         "tx-pending",
		FromUserID: "alice",
		ToUserID:   "bob",
		GigID:      "gig-1",
		Amount:     30,
		Type:       state.TransactionTypeGigPayment,
		Status:     state.TransactionStatusPending,
		CreatedAt:  testNow,
	})
	next, transactionID, err := ExecutePayment(st, "gig-1", testNow)
	if err != nil {
		t.Fatalf("ExecutePayment: %v", err)
	}
	if transactionID != "tx-pending" {
		t.Errorf("transaction id = %s, want the pending tx-pending", transactionID)
	}
	if got := len(next.Transactions); got != 1 {
		t.Errorf("transaction count = %d, want 1", got)
	}
	if next.Transactions["tx-pending"].Status != state.TransactionStatusCompleted {
		t.Error("pending transaction was not completed")
	}
}

func TestExecutePaymentInsufficientCreditsMutatesNothing(t *testing.T) {
	st := withGig(baseState(), state.GigTypeFindHelp, 500)
	next, _, err := ExecutePayment(st, "gig-1", testNow)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	if got := len(next.Transactions); got != 0 {
		t.Errorf("transaction count = %d, want 0", got)
	}
	if got := next.Users["alice"].TimeCredits; got != 100 {
		t.Errorf("alice balance = %d, want 100", got)
	}
}

func TestExecutePaymentUnassignedGig(t *testing.T) {
	st := baseState().WithGig(state.Gig{
		ID:        "gig-1",
		Type:      state.GigTypeFindHelp,
		CreatedBy: "alice",
		Status:    state.GigStatusOpen,
	})
	if _, _, err := ExecutePayment(st, "gig-1", testNow); !errors.Is(err, ErrGigNotPayable) {
		t.Fatalf("err = %v, want ErrGigNotPayable", err)
	}
}

func TestProcessTransactionIdempotent(t *testing.T) {
	st := withGig(baseState(), state.GigTypeFindHelp, 30)
	st, transactionID, err := ExecutePayment(st, "gig-1", testNow)
	if err != nil {
		t.Fatalf("ExecutePayment: %v", err)
	}
	again, err := ProcessTransaction(st, transactionID, testNow)
	if err != nil {
		t.Fatalf("repeat ProcessTransaction: %v", err)
	}
	if got := again.Users["alice"].TimeCredits; got != 70 {
		t.Errorf("alice balance after repeat = %d, want 70", got)
	}
	if got := again.Users["bob"].TimeCredits; got != 80 {
		t.Errorf("bob balance after repeat = %d, want 80", got)
	}
}

func TestProcessTransactionCommitTimeInsufficiencyMarksFailed(t *testing.T) {
	st := baseState().WithTransaction(state.Transaction{
		ID:         "tx-1",
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     500,
		Type:       state.TransactionTypeGigPayment,
		Status:     state.TransactionStatusPending,
		CreatedAt:  testNow,
	})
	next, err := ProcessTransaction(st, "tx-1", testNow)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	if next.Transactions["tx-1"].Status != state.TransactionStatusFailed {
		t.Errorf("transaction status = %s, want failed", next.Transactions["tx-1"].Status)
	}
	if got := next.Users["bob"].TimeCredits; got != 50 {
		t.Errorf("bob balance = %d, want 50 (unchanged)", got)
	}
}

func TestProcessTransactionMissingPartyMarksFailed(t *testing.T) {
	st := baseState().WithTransaction(state.Transaction{
		ID:         "tx-1",
		FromUserID: "alice",
		ToUserID:   "ghost",
		Amount:     10,
		Type:       state.TransactionTypeGigPayment,
		Status:     state.TransactionStatusPending,
		CreatedAt:  testNow,
	})
	next, err := ProcessTransaction(st, "tx-1", testNow)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if next.Transactions["tx-1"].Status != state.TransactionStatusFailed {
		t.Error("transaction should be marked failed")
	}
}

func TestProcessTransactionRejectsNonPending(t *testing.T) {
	st := baseState().WithTransaction(state.Transaction{
		ID:         "tx-1",
		FromUserID: "alice",
		ToUserID:   "bob",
		Amount:     10,
		Type:       state.TransactionTypeGigPayment,
		Status:     state.TransactionStatusFailed,
		CreatedAt:  testNow,
	})
	if _, err := ProcessTransaction(st, "tx-1", testNow); !errors.Is(err, ErrNotPending) {
		t.Fatalf("err = %v, want ErrNotPending", err)
	}
}

func TestConservationAcrossTransfers(t *testing.T) {
	st := withGig(baseState(), state.GigTypeFindHelp, 30)
	sumBefore := st.Users["alice"].TimeCredits + st.Users["bob"].TimeCredits

	st, _, err := ExecutePayment(st, "gig-1", testNow)
	if err != nil {
		t.Fatalf("ExecutePayment: %v", err)
	}
	st = st.WithGig(state.Gig{
		ID:                 "gig-2",
		Title:              "Another exchange",
		Type:               state.GigTypeOfferHelp,
		TimeCreditsOffered: 7,
		CreatedBy:          "bob",
		AssignedTo:         "alice",
		Status:             state.GigStatusCompleted,
		CreatedAt:          testNow,
	})
	st, _, err = ExecutePayment(st, "gig-2", testNow)
	if err != nil {
		t.Fatalf("second ExecutePayment: %v", err)
	}

	sumAfter := st.Users["alice"].TimeCredits + st.Users["bob"].TimeCredits
	if sumBefore != sumAfter {
		t.Errorf("non-system balance sum changed: %d -> %d", sumBefore, sumAfter)
	}
}

func TestMintDebitsSystemUser(t *testing.T) {
	st := baseState()
	next, transactionID, err := Mint(st, "bob", "", 2, state.TransactionTypeWeeklyEventReward, "reward", testNow)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if got := next.Users["bob"].TimeCredits; got != 52 {
		t.Errorf("bob balance = %d, want 52", got)
	}
	system := next.Users[state.SystemUserID]
	if system.TimeCredits != state.SystemOpeningBalance-2 {
		t.Errorf("system balance = %d, want opening balance minus 2", system.TimeCredits)
	}
	transaction := next.Transactions[transactionID]
	if transaction.FromUserID != state.SystemUserID {
		t.Errorf("mint payer = %s, want system", transaction.FromUserID)
	}
	if transaction.Status != state.TransactionStatusCompleted {
		t.Errorf("mint status = %s, want completed", transaction.Status)
	}
}

func TestMintRejectsNonPositiveAmount(t *testing.T) {
	if _, _, err := Mint(baseState(), "bob", "", 0, state.TransactionTypeAdminAward, "", testNow); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}
