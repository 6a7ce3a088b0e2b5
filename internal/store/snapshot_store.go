// Package store persists the whole timebank document as a single versioned
// row. Commits are compare-and-swap on the version column, which is the seam
// that turns two concurrent accepts of the same gig into exactly one winner:
// the loser's commit matches zero rows and its operation is re-run against
// the fresh snapshot.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"timebank/internal/db"
	"timebank/internal/state"
)

var (
	// ErrConflict means another caller committed first; reload and retry.
	ErrConflict = errors.New("snapshot version conflict")
	// ErrRetryLimit means the caller lost the version race too many times.
	ErrRetryLimit = errors.New("snapshot commit retry limit exceeded")
)

const maxCommitAttempts = 5

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type DB interface {
	Execer
	Getter
}

type SnapshotStore struct {
	db DB
}

func NewSnapshotStore(db DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

type snapshotRow struct {
	Version  int64  `db:"version"`
	Document []byte `db:"document"`
}

// Load returns the current document and its version. A missing row is an
// empty document at version zero.
func (s *SnapshotStore) Load(ctx context.Context) (state.State, int64, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row, `SELECT version, document FROM snapshots WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state.New(), 0, nil
		}
		return state.State{}, 0, err
	}
	var decoded state.State
	if err := json.Unmarshal(row.Document, &decoded); err != nil {
		return state.State{}, 0, err
	}
	return decoded.Normalize(), row.Version, nil
}

// Commit writes the document only if the stored version is still the one the
// caller read. Anything else is ErrConflict.
func (s *SnapshotStore) Commit(ctx context.Context, st state.State, expectedVersion int64) error {
	document, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if expectedVersion == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO snapshots (id, version, document)
			VALUES (1, 1, $1)
			ON CONFLICT (id) DO NOTHING
		`, document)
		if err != nil {
			return err
		}
		return conflictOnZeroRows(res)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE snapshots
		SET version = version + 1, document = $1, updated_at = NOW()
		WHERE id = 1 AND version = $2
	`, document, expectedVersion)
	if err != nil {
		return err
	}
	return conflictOnZeroRows(res)
}

// KeepState wraps an operation error whose returned state must still be
// committed, such as a ledger commit-time failure that leaves a FAILED
// transaction behind as an audit artifact. errors.Is/As see through it.
func KeepState(err error) error {
	return keepStateError{err: err}
}

type keepStateError struct{ err error }

func (e keepStateError) Error() string { return e.err.Error() }
func (e keepStateError) Unwrap() error { return e.err }

// Update runs one read-modify-write cycle with retry on version conflicts.
// fn must be a pure transform: it is re-invoked against a fresh snapshot on
// every conflict, which is what makes retries safe. A plain error from fn
// aborts without committing; a KeepState-wrapped one commits the returned
// state and then propagates.
func (s *SnapshotStore) Update(ctx context.Context, fn func(state.State) (state.State, error)) (state.State, error) {
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		current, version, err := s.Load(ctx)
		if err != nil {
			return state.State{}, err
		}
		next, opErr := fn(current)
		if opErr != nil {
			var keep keepStateError
			if !errors.As(opErr, &keep) {
				return state.State{}, opErr
			}
			opErr = keep.err
		}
		err = s.Commit(ctx, next, version)
		if err == nil {
			return next, opErr
		}
		if errors.Is(err, ErrConflict) || db.IsRetryablePGError(err) {
			if attempt < maxCommitAttempts {
				db.SleepWithBackoff(attempt)
				continue
			}
			return state.State{}, ErrRetryLimit
		}
		return state.State{}, err
	}
	return state.State{}, ErrRetryLimit
}

func conflictOnZeroRows(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}
	return nil
}
