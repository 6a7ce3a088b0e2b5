// Package moderation is the gate the calling layer consults before invoking
// the lifecycle, ledger, or dispute engines: frozen users are blocked
// outright and gig creation is rate limited by trust level. The engines
// themselves never call into this package.
package moderation

import (
	"errors"
	"time"

	"timebank/internal/state"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserFrozen    = errors.New("user account is frozen")
	ErrRateLimited   = errors.New("gig creation rate limit reached")
	ErrNotFrozen     = errors.New("user is not frozen")
	ErrAlreadyFrozen = errors.New("user is already frozen")
)

// RateLimitWindow is the rolling window for gig creation limits.
const RateLimitWindow = time.Hour

// TrustLevelFor buckets reputation into the three trust tiers.
func TrustLevelFor(reputation int) state.TrustLevel {
	switch {
	case reputation >= 51:
		return state.TrustLevelVeteran
	case reputation >= 11:
		return state.TrustLevelTrusted
	default:
		return state.TrustLevelNew
	}
}

// CreationLimit is the number of gigs a user may post per rolling hour.
func CreationLimit(level state.TrustLevel) int {
	switch level {
	case state.TrustLevelVeteran:
		return 10
	case state.TrustLevelTrusted:
		return 7
	default:
		return 5
	}
}

type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
}

// CheckGigCreation reports whether a user may post another gig right now.
// Frozen users are never allowed. The count comes straight from the snapshot,
// so the answer is exact for the snapshot version the caller holds.
func CheckGigCreation(s state.State, userID string, now time.Time) (RateLimitResult, error) {
	user, ok := s.Users[userID]
	if !ok {
		return RateLimitResult{}, ErrUserNotFound
	}
	if IsFrozen(s, userID) {
		return RateLimitResult{}, ErrUserFrozen
	}

	limit := CreationLimit(TrustLevelFor(user.Reputation))
	cutoff := now.Add(-RateLimitWindow)
	recent := 0
	for _, gig := range s.Gigs {
		if gig.CreatedBy == userID && gig.CreatedAt.After(cutoff) {
			recent++
		}
	}
	remaining := limit - recent
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{Allowed: recent < limit, Limit: limit, Remaining: remaining}, nil
}

func IsFrozen(s state.State, userID string) bool {
	status, ok := s.ModerationStatus[userID]
	return ok && status.IsFrozen
}

// Freeze blocks a user from all lifecycle operations and records the action.
func Freeze(s state.State, targetUserID, moderatorID, reason string, now time.Time) (state.State, error) {
	user, ok := s.Users[targetUserID]
	if !ok {
		return s, ErrUserNotFound
	}
	if IsFrozen(s, targetUserID) {
		return s, ErrAlreadyFrozen
	}
	frozenAt := now
	next := s.WithModerationStatus(state.ModerationStatus{
		UserID:       targetUserID,
		IsFrozen:     true,
		FreezeReason: reason,
		FrozenAt:     &frozenAt,
		FrozenBy:     moderatorID,
		TrustLevel:   TrustLevelFor(user.Reputation),
	})
	return next.WithModerationAction(state.ModerationAction{
		ID:           uuid.NewString(),
		Type:         state.ModerationActionFreezeUser,
		ModeratorID:  moderatorID,
		TargetUserID: targetUserID,
		Reason:       reason,
		CreatedAt:    now,
	}), nil
}

func Unfreeze(s state.State, targetUserID, moderatorID, reason string, now time.Time) (state.State, error) {
	user, ok := s.Users[targetUserID]
	if !ok {
		return s, ErrUserNotFound
	}
	if !IsFrozen(s, targetUserID) {
		return s, ErrNotFrozen
	}
	next := s.WithModerationStatus(state.ModerationStatus{
		UserID:     targetUserID,
		IsFrozen:   false,
		TrustLevel: TrustLevelFor(user.Reputation),
	})
	return next.WithModerationAction(state.ModerationAction{
		ID:           uuid.NewString(),
		Type:         state.ModerationActionUnfreezeUser,
		ModeratorID:  moderatorID,
		TargetUserID: targetUserID,
		Reason:       reason,
		CreatedAt:    now,
	}), nil
}
