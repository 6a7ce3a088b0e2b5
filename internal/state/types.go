package state

import "time"

// SystemUserID is the distinguished account that funds every minted credit:
// signup bonuses, admin awards, event rewards, and dispute payouts.
const SystemUserID = "system"

// SystemOpeningBalance is large enough that the system user can never run
// out of credits in practice.
const SystemOpeningBalance int64 = 1 << 40

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash,omitempty"`
	TimeCredits  int64     `json:"time_credits"`
	Reputation   int       `json:"reputation"`
	Skills       []string  `json:"skills"`
	IsModerator  bool      `json:"is_moderator"`
	IsActive     bool      `json:"is_active"`
	JoinedAt     time.Time `json:"joined_at"`
}

type GigType string

const (
	// GigTypeFindHelp means the poster pays the accepter on completion.
	GigTypeFindHelp GigType = "find_help"
	// GigTypeOfferHelp means the accepter pays the poster on completion.
	GigTypeOfferHelp GigType = "offer_help"
)

type GigStatus string

const (
	GigStatusOpen                 GigStatus = "open"
	GigStatusAssigned             GigStatus = "assigned"
	GigStatusInProgress           GigStatus = "in_progress"
	GigStatusAwaitingConfirmation GigStatus = "awaiting_confirmation"
	GigStatusCompleted            GigStatus = "completed"
	GigStatusCancelled            GigStatus = "cancelled"
)

type Gig struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Category           string     `json:"category"`
	Type               GigType    `json:"type"`
	TimeCreditsOffered int64      `json:"time_credits_offered"`
	EstimatedDuration  int        `json:"estimated_duration_minutes"`
	RequiredSkills     []string   `json:"required_skills,omitempty"`
	CreatedBy          string     `json:"created_by"`
	AssignedTo         string     `json:"assigned_to,omitempty"`
	Status             GigStatus  `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

type TransactionType string

const (
	TransactionTypeGigPayment        TransactionType = "gig_payment"
	TransactionTypeSignupBonus       TransactionType = "signup_bonus"
	TransactionTypeAdminAward        TransactionType = "admin_award"
	TransactionTypeWeeklyEventReward TransactionType = "weekly_event_reward"
	TransactionTypeDisputeRefund     TransactionType = "dispute_refund"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

type Transaction struct {
	ID          string            `json:"id"`
	FromUserID  string            `json:"from_user_id"`
	ToUserID    string            `json:"to_user_id"`
	GigID       string            `json:"gig_id,omitempty"`
	Amount      int64             `json:"amount"`
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	Description string            `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

type DisputeStatus string

const (
	DisputeStatusOpen        DisputeStatus = "open"
	DisputeStatusUnderReview DisputeStatus = "under_review"
	DisputeStatusResolved    DisputeStatus = "resolved"
	DisputeStatusClosed      DisputeStatus = "closed"
)

type DisputeOutcome string

const (
	DisputeOutcomeFavorInitiator  DisputeOutcome = "favor_initiator"
	DisputeOutcomeFavorRespondent DisputeOutcome = "favor_respondent"
	DisputeOutcomeSplit           DisputeOutcome = "split"
	DisputeOutcomeDismissed       DisputeOutcome = "dismissed"
)

type CreditAllocation struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

type DisputeResolution struct {
	ResolverID       string             `json:"resolver_id"`
	Outcome          DisputeOutcome     `json:"outcome"`
	CreditAllocation []CreditAllocation `json:"credit_allocation"`
	Reason           string             `json:"reason"`
	ResolvedAt       time.Time          `json:"resolved_at"`
}

type Dispute struct {
	ID           string             `json:"id"`
	GigID        string             `json:"gig_id"`
	InitiatorID  string             `json:"initiator_id"`
	RespondentID string             `json:"respondent_id"`
	Reason       string             `json:"reason"`
	Evidence     string             `json:"evidence,omitempty"`
	Status       DisputeStatus      `json:"status"`
	EscrowAmount int64              `json:"escrow_amount"`
	CreatedAt    time.Time          `json:"created_at"`
	ResolvedAt   *time.Time         `json:"resolved_at,omitempty"`
	Resolution   *DisputeResolution `json:"resolution,omitempty"`
}

type ModerationActionType string

const (
	ModerationActionFreezeUser     ModerationActionType = "freeze_user"
	ModerationActionUnfreezeUser   ModerationActionType = "unfreeze_user"
	ModerationActionAwardCredits   ModerationActionType = "award_credits"
	ModerationActionResolveDispute ModerationActionType = "resolve_dispute"
	ModerationActionCancelGig      ModerationActionType = "cancel_gig"
)

type ModerationAction struct {
	ID           string               `json:"id"`
	Type         ModerationActionType `json:"type"`
	ModeratorID  string               `json:"moderator_id"`
	TargetUserID string               `json:"target_user_id,omitempty"`
	TargetGigID  string               `json:"target_gig_id,omitempty"`
	DisputeID    string               `json:"dispute_id,omitempty"`
	Reason       string               `json:"reason"`
	CreatedAt    time.Time            `json:"created_at"`
}

type TrustLevel string

const (
	TrustLevelNew     TrustLevel = "new"
	TrustLevelTrusted TrustLevel = "trusted"
	TrustLevelVeteran TrustLevel = "veteran"
)

type ModerationStatus struct {
	UserID       string     `json:"user_id"`
	IsFrozen     bool       `json:"is_frozen"`
	FreezeReason string     `json:"freeze_reason,omitempty"`
	FrozenAt     *time.Time `json:"frozen_at,omitempty"`
	FrozenBy     string     `json:"frozen_by,omitempty"`
	TrustLevel   TrustLevel `json:"trust_level"`
}

type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
	EventStatusExpired   EventStatus = "expired"
)

type WeeklyEvent struct {
	ID                   string      `json:"id"`
	Title                string      `json:"title"`
	Theme                string      `json:"theme"`
	Status               EventStatus `json:"status"`
	GoalAmount           int         `json:"goal_amount"`
	CurrentProgress      int         `json:"current_progress"`
	RewardPerParticipant int64       `json:"reward_per_participant"`
	StartDate            time.Time   `json:"start_date"`
	EndDate              time.Time   `json:"end_date"`
	Participants         []string    `json:"participants"`
	CreatedAt            time.Time   `json:"created_at"`
	CompletedAt          *time.Time  `json:"completed_at,omitempty"`
}

type UserStats struct {
	UserID              string    `json:"user_id"`
	CompletedGigs       int       `json:"completed_gigs"`
	WeeklyCompletions   int       `json:"weekly_completions"`
	SeasonalCompletions int       `json:"seasonal_completions"`
	UniqueCategories    []string  `json:"unique_categories"`
	AvgResponseMinutes  string    `json:"avg_response_minutes"`
	LastActivityAt      time.Time `json:"last_activity_at"`
}
