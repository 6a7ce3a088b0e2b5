// Package services is the calling layer the engines trust: it loads a
// snapshot, consults the moderation gate, invokes the pure engine operation,
// and commits the result through the store's compare-and-swap loop. Read-side
// rollups (stats, weekly events) piggyback on the same commit so downstream
// consumers see them atomically, but the ledger never depends on them.
package services

import (
	"context"
	"errors"
	"time"

	"timebank/internal/disputes"
	"timebank/internal/events"
	"timebank/internal/gigs"
	"timebank/internal/leaderboard"
	"timebank/internal/ledger"
	"timebank/internal/moderation"
	"timebank/internal/state"
	"timebank/internal/store"
	"timebank/internal/websocket"

	"github.com/google/uuid"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

type SnapshotStore interface {
	Load(ctx context.Context) (state.State, int64, error)
	Update(ctx context.Context, fn func(state.State) (state.State, error)) (state.State, error)
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

type TimebankService struct {
	snapshots   SnapshotStore
	hub         BalanceHub
	signupBonus int64
	now         func() time.Time
}

func NewTimebankService(snapshots SnapshotStore, hub BalanceHub, signupBonus int64) *TimebankService {
	return &TimebankService{
		snapshots:   snapshots,
		hub:         hub,
		signupBonus: signupBonus,
		now:         time.Now,
	}
}

// Register creates a user, mints the signup bonus, and promotes the first
// human account to moderator. Registering an existing username fails.
func (s *TimebankService) Register(ctx context.Context, username, passwordHash string) (string, error) {
	userID := uuid.NewString()
	now := s.now()
	_, err := s.snapshots.Update(ctx, func(st state.State) (state.State, error) {
		for _, user := range st.Users {
			if user.Username == username {
				return st, ErrUsernameTaken
			}
		}
		st = st.EnsureSystemUser()
		first := !hasHumanUser(st)
		st = st.WithUser(state.User{
			ID:           userID,
			Username:     username,
			PasswordHash: passwordHash,
			Skills:       []string{},
			IsModerator:  first,
			IsActive:     true,
			JoinedAt:     now,
		})
		st, _, err := ledger.Mint(st, userID, "", s.signupBonus,
			state.TransactionTypeSignupBonus, "Welcome bonus for joining TimeBank", now)
		if err != nil {
			return st, err
		}
		st.CurrentUser = userID
		return st, nil
	})
	if err != nil {
		return "", err
	}
	s.broadcastBalance(ctx, userID)
	return userID, nil
}

// UserByUsername looks a user up for login. The password check happens in
// the handler against the returned hash; bcrypt stays out of the snapshot
// layer.
func (s *TimebankService) UserByUsername(ctx context.Context, username string) (state.User, error) {
	st, _, err := s.snapshots.Load(ctx)
	if err != nil {
		return state.User{}, err
	}
	for _, user := range st.Users {
		if user.Username == username {
			return user, nil
		}
	}
	return state.User{}, ErrUserNotFound
}

func (s *TimebankService) UserByID(ctx context.Context, userID string) (state.User, error) {
	st, _, err := s.snapshots.Load(ctx)
	if err != nil {
		return state.User{}, err
	}
	user, ok := st.Users[userID]
	if !ok {
		return state.User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *TimebankService) IsModerator(ctx context.Context, userID string) (bool, error) {
	user, err := s.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsModerator, nil
}

// CreateGig applies the moderation gate (freeze, rate limit) before the
// lifecycle engine sees the draft.
func (s *TimebankService) CreateGig(ctx context.Context, draft gigs.Draft) (string, error) {
	var gigID string
	now := s.now()
	_, err := s.snapshots.Update(ctx, func(st state.State) (state.State, error) {
		limit, err := moderation.CheckGigCreation(st, draft.CreatedBy, now)
		if err != nil {
			return st, err
		}
		if !limit.Allowed {
			return st, moderation.ErrRateLimited
		}
		next, id, err := gigs.Create(st, draft, now)
		if err != nil {
			return st, err
		}
		gigID = id
		return next, nil
	})
	return gigID, err
}

func (s *TimebankService) AcceptGig(ctx context.Context, gigID, userID string) error {
	_, err := s.snapshots.Update(ctx, func(st state.State) (state.State, error) {
		if moderation.IsFrozen(st, userID) {
			return st, moderation.ErrUserFrozen
		}
		return gigs.Accept(st, gigID, userID)
	})
	return err
}

func (s *TimebankService) StartGig(ctx context.Context, gigID, userID string) error {
	_, err := s.snapshots.Update(ctx, func(st state.State) (state.State, error) {
		if moderation.IsFrozen(st, userID) {
			return st, moderation.ErrUserFrozen
		}
		return gigs.Start(st, gigID, userID)
	})
	return err
}

// ConfirmCompletion runs the lifecycle engine and, when the gig actually
// reaches COMPLETED, the read-side rollups in the same commit.
func (s *TimebankService) ConfirmCompletion(ctx context.Context, gigID, userID string) (string, error) {
	var transactionID string
	var creatorID, assigneeID string
	now := s.now()
	_, err := s.snapshots.Update(ctx, func(st state.State) (state.State, error) {
		if moderation.IsFrozen(st, userID) {
			return st, moderation.ErrUserFrozen
		}
		wasCompleted := st.Gigs[gigID].Status == state.GigStatusCompleted
		next, txID, err := gigs.ConfirmCompletion(st, gigID, userID, now)
		if err != nil {
			// A ledger commit-time failure leaves a FAILED transaction
			// worth persisting even though the confirmation failed.
			if transactionsChanged(st, next) {
				return next, store.KeepState(err)
			}
			return st, err
		}
		transactionID = txID
		gig := next.Gigs[gigID]
		if wasCompleted || gig.Status != state.GigStatusCompleted {
			return next, nil
		}
		creatorID, assigneeID = gig.CreatedBy, gig.AssignedTo
		return s.applyCompletionRollups(next, gig, now), nil
	})
	if err != nil {
		return "", err
	}
	if creatorID != "" {
		s.broadcastBalance(ctx, creatorID)
		s.broadcastBalance(ctx, assigneeID)
	}
	return transactionID, nil
}

// applyCompletionRollups feeds a freshly completed gig to the stats and
// weekly-event trackers. Rollup errors are swallowed: the ledger outcome is
// already correct and must not be held hostage by read-side bookkeeping.
func (s *TimebankService) applyCompletionRollups(st state.State, gig state.Gig, now time.Time) state.State {
	st = leaderboard.RecordCompletion(st, gig.AssignedTo, gig.ID, now)
	st = leaderboard.RecordCompletion(st, gig.CreatedBy, gig.ID, now)

	// Completing work builds reputation, which is what trust levels and
	// rate limits key on.
	if assignee, ok := st.Users[gig.AssignedTo]; ok {
		assignee.Reputation++
		st = st.WithUser(assignee)
	}

	st = events.ExpireOldEvents(st, now)
	next, _, err := events.EnsureWeeklyEvent(st, now)
	if err != nil {
		return st
	}
	withEvent, err := events.RecordGigCompletion(next, gig.ID, gig.AssignedTo, now)
	if err != nil {
		return next
	}
	return withEvent
}

func (s *TimebankService) OpenDispute(ctx context.Context, gigID, initiatorID, reason, evidence string) (string, error) {
	var disputeID string
	now := s.now()
	_, err := s.snapshots.Update(ctx, func(st state.State) (state.State, error) {
		if moderation.IsFrozen(st, initiatorID) {
			return st, moderation.ErrUserFrozen
		}
		next, id, err := disputes.Open(st, gigID, initiatorID, reason, evidence, now)
		if err != nil {
			return st, err
		}
		disputeID = id
		return next, nil
	})
	return disputeID, err
}

func (s *TimebankService) ResolveDispute(ctx context.Context, disputeID, resolverID string, outcome state.DisputeOutcome, reason string) error {
	var initiatorID, respondentID string
	now := s.now()
	_, err := s.snapshots.Update(ctx, func(st state.State) (state.State, error) {
		next, err := disputes.Resolve(st, disputeID, resolverID, outcome, reason, now)
		if err != nil {
			return st, err
		}
		dispute := next.Disputes[disputeID]
		initiatorID, respondentID = dispute.InitiatorID, dispute.RespondentID
		return next, nil
	})
	if err != nil {
		return err
	}
	s.broadcastBalance(ctx, initiatorID)
	s.broadcastBalance(ctx, respondentID)
	return nil
}

func (s *TimebankService) FreezeUser(ctx context.Context, targetUserID, moderatorID, reason string) error {
	_, err := s.snapshots.Update(ctx, func(st state.State) (state.State, error) {
		return moderation.Freeze(st, targetUserID, moderatorID, reason, s.now())
	})
	return err
}

func (s *TimebankService) UnfreezeUser(ctx context.Context, targetUserID, moderatorID, reason string) error {
	_, err := s.snapshots.Update(ctx, func(st state.State) (state.State, error) {
		return moderation.Unfreeze(st, targetUserID, moderatorID, reason, s.now())
	})
	return err
}

// AwardCredits mints an administrative grant and records the moderation
// action alongside it.
func (s *TimebankService) AwardCredits(ctx context.Context, targetUserID, moderatorID string, amount int64, reason string) (string, error) {
	var transactionID string
	now := s.now()
	_, err := s.snapshots.Update(ctx, func(st state.State) (state.State, error) {
		next, txID, err := ledger.Mint(st, targetUserID, "", amount,
			state.TransactionTypeAdminAward, reason, now)
		if err != nil {
			return st, err
		}
		transactionID = txID
		return next.WithModerationAction(state.ModerationAction{
			ID:           uuid.NewString(),
			Type:         state.ModerationActionAwardCredits,
			ModeratorID:  moderatorID,
			TargetUserID: targetUserID,
			Reason:       reason,
			CreatedAt:    now,
		}), nil
	})
	if err != nil {
		return "", err
	}
	s.broadcastBalance(ctx, targetUserID)
	return transactionID, nil
}

func (s *TimebankService) CancelGig(ctx context.Context, gigID, moderatorID, reason string) error {
	now := s.now()
	_, err := s.snapshots.Update(ctx, func(st state.State) (state.State, error) {
		next, err := gigs.Cancel(st, gigID)
		if err != nil {
			return st, err
		}
		return next.WithModerationAction(state.ModerationAction{
			ID:          uuid.NewString(),
			Type:        state.ModerationActionCancelGig,
			ModeratorID: moderatorID,
			TargetGigID: gigID,
			Reason:      reason,
			CreatedAt:   now,
		}), nil
	})
	return err
}

// ResetEconomy wipes the document back to an empty state. Destructive;
// exposed only through the admin CLI.
func (s *TimebankService) ResetEconomy(ctx context.Context) error {
	_, err := s.snapshots.Update(ctx, func(st state.State) (state.State, error) {
		return state.New(), nil
	})
	return err
}

func (s *TimebankService) Snapshot(ctx context.Context) (state.State, error) {
	st, _, err := s.snapshots.Load(ctx)
	return st, err
}

func (s *TimebankService) broadcastBalance(ctx context.Context, userID string) {
	if s.hub == nil || userID == "" || userID == state.SystemUserID {
		return
	}
	user, err := s.UserByID(ctx, userID)
	if err != nil {
		return
	}
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{
		UserID:      userID,
		TimeCredits: user.TimeCredits,
	})
}

func transactionsChanged(before, after state.State) bool {
	if len(before.Transactions) != len(after.Transactions) {
		return true
	}
	for id, transaction := range after.Transactions {
		previous, ok := before.Transactions[id]
		if !ok || previous.Status != transaction.Status {
			return true
		}
	}
	return false
}

func hasHumanUser(st state.State) bool {
	for id := range st.Users {
		if id != state.SystemUserID {
			return true
		}
	}
	return false
}
