package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"timebank/internal/gigs"
	"timebank/internal/state"
)

type stubDB struct {
	getFn  func(ctx context.Context, dest any, query string, args ...any) error
	execFn func(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *stubDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return s.getFn(ctx, dest, query, args...)
}

func (s *stubDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.execFn(ctx, query, args...)
}

type stubResult struct {
	rows int64
}

func (r stubResult) LastInsertId() (int64, error) { return 0, nil }
func (r stubResult) RowsAffected() (int64, error) { return r.rows, nil }

// memoryDB backs the store with an in-memory versioned row and enforces the
// compare-and-swap for real. A test can serve a configured number of stale
// reads to simulate a caller that loaded the row before someone else's commit.
type memoryDB struct {
	version  int64
	document []byte

	staleReads    int
	staleVersion  int64
	staleDocument []byte
	commits       int
}

func (m *memoryDB) GetContext(_ context.Context, dest any, _ string, _ ...any) error {
	row := dest.(*snapshotRow)
	if m.staleReads > 0 {
		m.staleReads--
		if m.staleVersion == 0 {
			return sql.ErrNoRows
		}
		row.Version = m.staleVersion
		row.Document = m.staleDocument
		return nil
	}
	if m.version == 0 {
		return sql.ErrNoRows
	}
	row.Version = m.version
	row.Document = m.document
	return nil
}

func (m *memoryDB) ExecContext(_ context.Context, _ string, args ...any) (sql.Result, error) {
	document := args[0].([]byte)
	if len(args) == 1 {
		// Insert of the initial row.
		if m.version != 0 {
			return stubResult{rows: 0}, nil
		}
		m.version = 1
		m.document = document
		m.commits++
		return stubResult{rows: 1}, nil
	}
	if args[1].(int64) != m.version {
		return stubResult{rows: 0}, nil
	}
	m.version++
	m.document = document
	m.commits++
	return stubResult{rows: 1}, nil
}

func TestLoadEmptySnapshot(t *testing.T) {
	db := &stubDB{
		getFn: func(context.Context, any, string, ...any) error {
			return sql.ErrNoRows
		},
	}
	st, version, err := NewSnapshotStore(db).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if version != 0 {
		t.Errorf("version = %d, want 0", version)
	}
	if st.Users == nil || len(st.Users) != 0 {
		t.Errorf("users = %v, want an empty initialized map", st.Users)
	}
}

func TestLoadDecodesDocument(t *testing.T) {
	seeded := state.New().WithUser(state.User{ID: "alice", Username: "alice", TimeCredits: 100})
	document, err := json.Marshal(seeded)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	db := &stubDB{
		getFn: func(_ context.Context, dest any, _ string, _ ...any) error {
			row := dest.(*snapshotRow)
			row.Version = 7
			row.Document = document
			return nil
		},
	}
	st, version, err := NewSnapshotStore(db).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if version != 7 {
		t.Errorf("version = %d, want 7", version)
	}
	if got := st.Users["alice"].TimeCredits; got != 100 {
		t.Errorf("alice balance = %d, want 100", got)
	}
	if st.Gigs == nil {
		t.Error("normalize should initialize absent maps")
	}
}

func TestCommitConflictOnZeroRows(t *testing.T) {
	db := &stubDB{
		execFn: func(context.Context, string, ...any) (sql.Result, error) {
			return stubResult{rows: 0}, nil
		},
	}
	err := NewSnapshotStore(db).Commit(context.Background(), state.New(), 3)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestUpdateRetriesOnConflict(t *testing.T) {
	empty, err := json.Marshal(state.New())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	db := &memoryDB{
		version:       3,
		document:      empty,
		staleReads:    2,
		staleVersion:  1,
		staleDocument: empty,
	}
	store := NewSnapshotStore(db)

	calls := 0
	_, err = store.Update(context.Background(), func(st state.State) (state.State, error) {
		calls++
		return st.WithUser(state.User{ID: "alice", Username: "alice"}), nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if calls != 3 {
		t.Errorf("fn ran %d times, want 3 (two lost races)", calls)
	}
	if db.commits != 1 {
		t.Errorf("commit count = %d, want 1", db.commits)
	}
}

func TestUpdateGivesUpAfterRetryLimit(t *testing.T) {
	empty, err := json.Marshal(state.New())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	db := &memoryDB{
		version:       3,
		document:      empty,
		staleReads:    maxCommitAttempts,
		staleVersion:  1,
		staleDocument: empty,
	}
	_, err = NewSnapshotStore(db).Update(context.Background(), func(st state.State) (state.State, error) {
		return st, nil
	})
	if !errors.Is(err, ErrRetryLimit) {
		t.Fatalf("err = %v, want ErrRetryLimit", err)
	}
}

func TestUpdatePlainErrorAbortsWithoutCommit(t *testing.T) {
	db := &memoryDB{}
	boom := errors.New("boom")
	_, err := NewSnapshotStore(db).Update(context.Background(), func(st state.State) (state.State, error) {
		return st, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if db.commits != 0 {
		t.Errorf("commit count = %d, want 0", db.commits)
	}
}

func TestUpdateKeepStateCommitsThenPropagates(t *testing.T) {
	db := &memoryDB{}
	boom := errors.New("payment failed")
	_, err := NewSnapshotStore(db).Update(context.Background(), func(st state.State) (state.State, error) {
		next := st.WithTransaction(state.Transaction{ID: "tx-1", Status: state.TransactionStatusFailed})
		return next, KeepState(boom)
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the wrapped failure", err)
	}
	if db.commits != 1 {
		t.Fatalf("commit count = %d, want 1", db.commits)
	}

	persisted, _, err := NewSnapshotStore(db).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if persisted.Transactions["tx-1"].Status != state.TransactionStatusFailed {
		t.Error("failed transaction should have been committed")
	}
}

// Two users race to accept the same gig from the same snapshot version. The
// loser's compare-and-swap matches nothing, the operation re-runs against the
// winner's state, and the lifecycle engine rejects the second accept.
func TestConcurrentAcceptsHaveExactlyOneWinner(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	seed := state.New()
	seed = seed.WithUser(state.User{ID: "alice", Username: "alice", TimeCredits: 100, IsActive: true})
	seed = seed.WithUser(state.User{ID: "bob", Username: "bob", IsActive: true})
	seed = seed.WithUser(state.User{ID: "carol", Username: "carol", IsActive: true})
	seed = seed.WithGig(state.Gig{
		ID:                 "gig-1",
		Title:              "Need help moving",
		Type:               state.GigTypeFindHelp,
		TimeCreditsOffered: 30,
		CreatedBy:          "alice",
		Status:             state.GigStatusOpen,
		CreatedAt:          now,
	})
	document, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	db := &memoryDB{version: 1, document: document}
	store := NewSnapshotStore(db)

	// Bob wins the version race.
	_, err = store.Update(context.Background(), func(st state.State) (state.State, error) {
		return gigs.Accept(st, "gig-1", "bob")
	})
	if err != nil {
		t.Fatalf("bob's accept: %v", err)
	}

	// Carol loaded version 1 before bob's commit landed; her commit matches
	// nothing, and the retry against the fresh snapshot sees the gig taken.
	db.staleReads = 1
	db.staleVersion = 1
	db.staleDocument = document
	_, err = store.Update(context.Background(), func(st state.State) (state.State, error) {
		return gigs.Accept(st, "gig-1", "carol")
	})
	if !errors.Is(err, gigs.ErrNotAvailable) {
		t.Fatalf("carol's accept err = %v, want ErrNotAvailable", err)
	}

	final, _, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := final.Gigs["gig-1"].AssignedTo; got != "bob" {
		t.Errorf("assigned_to = %s, want bob", got)
	}
}
