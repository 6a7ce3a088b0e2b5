package handlers

import (
	"context"

	"timebank/internal/gigs"
	"timebank/internal/state"
)

type TimebankService interface {
	Register(ctx context.Context, username, passwordHash string) (string, error)
	UserByUsername(ctx context.Context, username string) (state.User, error)
	UserByID(ctx context.Context, userID string) (state.User, error)
	IsModerator(ctx context.Context, userID string) (bool, error)

	CreateGig(ctx context.Context, draft gigs.Draft) (string, error)
	AcceptGig(ctx context.Context, gigID, userID string) error
	StartGig(ctx context.Context, gigID, userID string) error
	ConfirmCompletion(ctx context.Context, gigID, userID string) (string, error)
	CancelGig(ctx context.Context, gigID, moderatorID, reason string) error

	OpenDispute(ctx context.Context, gigID, initiatorID, reason, evidence string) (string, error)
	ResolveDispute(ctx context.Context, disputeID, resolverID string, outcome state.DisputeOutcome, reason string) error

	FreezeUser(ctx context.Context, targetUserID, moderatorID, reason string) error
	UnfreezeUser(ctx context.Context, targetUserID, moderatorID, reason string) error
	AwardCredits(ctx context.Context, targetUserID, moderatorID string, amount int64, reason string) (string, error)

	Snapshot(ctx context.Context) (state.State, error)
}
