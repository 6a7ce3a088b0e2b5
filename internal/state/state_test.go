package state

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWithUserDoesNotMutateOriginal(t *testing.T) {
	original := New().WithUser(User{ID: "alice", Username: "alice", TimeCredits: 100})

	modified := original.WithUser(User{ID: "alice", Username: "alice", TimeCredits: 1})
	if got := original.Users["alice"].TimeCredits; got != 100 {
		t.Errorf("original balance = %d, want 100", got)
	}
	if got := modified.Users["alice"].TimeCredits; got != 1 {
		t.Errorf("modified balance = %d, want 1", got)
	}

	added := original.WithUser(User{ID: "bob", Username: "bob"})
	if _, ok := original.Users["bob"]; ok {
		t.Error("adding bob leaked into the original snapshot")
	}
	if _, ok := added.Users["bob"]; !ok {
		t.Error("bob missing from the derived snapshot")
	}
}

func TestWithGigDoesNotMutateOriginal(t *testing.T) {
	original := New().WithGig(Gig{ID: "gig-1", Status: GigStatusOpen})
	modified := original.WithGig(Gig{ID: "gig-1", Status: GigStatusAssigned, AssignedTo: "bob"})

	if got := original.Gigs["gig-1"].Status; got != GigStatusOpen {
		t.Errorf("original status = %s, want open", got)
	}
	if got := modified.Gigs["gig-1"].Status; got != GigStatusAssigned {
		t.Errorf("modified status = %s, want assigned", got)
	}
}

func TestNormalizeInitializesNilMaps(t *testing.T) {
	var zero State
	normalized := zero.Normalize()
	if normalized.Users == nil || normalized.Gigs == nil || normalized.Transactions == nil ||
		normalized.Disputes == nil || normalized.ModerationActions == nil ||
		normalized.ModerationStatus == nil || normalized.WeeklyEvents == nil ||
		normalized.UserStats == nil {
		t.Fatal("Normalize left a nil map")
	}
}

func TestEnsureSystemUser(t *testing.T) {
	st := New().EnsureSystemUser()
	system, ok := st.Users[SystemUserID]
	if !ok {
		t.Fatal("system user missing")
	}
	if system.TimeCredits != SystemOpeningBalance {
		t.Errorf("system balance = %d, want the opening balance", system.TimeCredits)
	}

	drained := system
	drained.TimeCredits = 5
	st = st.WithUser(drained)
	st = st.EnsureSystemUser()
	if got := st.Users[SystemUserID].TimeCredits; got != 5 {
		t.Errorf("repeat EnsureSystemUser reset the balance to %d, want 5 untouched", got)
	}
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	st := New()
	st = st.WithUser(User{ID: "alice", Username: "alice", TimeCredits: 100, Skills: []string{"moving"}, JoinedAt: now})
	st = st.WithGig(Gig{ID: "gig-1", Title: "Need help moving", Type: GigTypeFindHelp, TimeCreditsOffered: 30, CreatedBy: "alice", Status: GigStatusOpen, CreatedAt: now})
	st = st.WithTransaction(Transaction{ID: "tx-1", FromUserID: "alice", ToUserID: "bob", Amount: 30, Type: TransactionTypeGigPayment, Status: TransactionStatusCompleted, CreatedAt: now})

	encoded, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded State
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	decoded = decoded.Normalize()

	if got := decoded.Users["alice"].TimeCredits; got != 100 {
		t.Errorf("alice balance = %d, want 100", got)
	}
	if got := decoded.Gigs["gig-1"].Type; got != GigTypeFindHelp {
		t.Errorf("gig type = %s, want find_help", got)
	}
	if got := decoded.Transactions["tx-1"].Status; got != TransactionStatusCompleted {
		t.Errorf("transaction status = %s, want completed", got)
	}
}
