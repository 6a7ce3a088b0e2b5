package state

import "maps"

// State is the whole persisted document: every entity table keyed by id plus
// the current-user pointer. Engine operations never mutate a State in place;
// they derive a new value through the With* helpers so a caller holding the
// original snapshot can safely retry or abandon it.
type State struct {
	Users             map[string]User             `json:"users"`
	Gigs              map[string]Gig              `json:"gigs"`
	Transactions      map[string]Transaction      `json:"transactions"`
	Disputes          map[string]Dispute          `json:"disputes"`
	ModerationActions map[string]ModerationAction `json:"moderation_actions"`
	ModerationStatus  map[string]ModerationStatus `json:"moderation_status"`
	WeeklyEvents      map[string]WeeklyEvent      `json:"weekly_events"`
	UserStats         map[string]UserStats        `json:"user_stats"`
	CurrentUser       string                      `json:"current_user,omitempty"`
}

func New() State {
	return State{
		Users:             map[string]User{},
		Gigs:              map[string]Gig{},
		Transactions:      map[string]Transaction{},
		Disputes:          map[string]Dispute{},
		ModerationActions: map[string]ModerationAction{},
		ModerationStatus:  map[string]ModerationStatus{},
		WeeklyEvents:      map[string]WeeklyEvent{},
		UserStats:         map[string]UserStats{},
	}
}

// Normalize fills in nil maps on a document decoded from storage so engine
// code can index without nil checks.
func (s State) Normalize() State {
	if s.Users == nil {
		s.Users = map[string]User{}
	}
	if s.Gigs == nil {
		s.Gigs = map[string]Gig{}
	}
	if s.Transactions == nil {
		s.Transactions = map[string]Transaction{}
	}
	if s.Disputes == nil {
		s.Disputes = map[string]Dispute{}
	}
	if s.ModerationActions == nil {
		s.ModerationActions = map[string]ModerationAction{}
	}
	if s.ModerationStatus == nil {
		s.ModerationStatus = map[string]ModerationStatus{}
	}
	if s.WeeklyEvents == nil {
		s.WeeklyEvents = map[string]WeeklyEvent{}
	}
	if s.UserStats == nil {
		s.UserStats = map[string]UserStats{}
	}
	return s
}

func (s State) WithUser(u User) State {
	users := maps.Clone(s.Users)
	users[u.ID] = u
	s.Users = users
	return s
}

func (s State) WithGig(g Gig) State {
	gigs := maps.Clone(s.Gigs)
	gigs[g.ID] = g
	s.Gigs = gigs
	return s
}

func (s State) WithTransaction(t Transaction) State {
	transactions := maps.Clone(s.Transactions)
	transactions[t.ID] = t
	s.Transactions = transactions
	return s
}

func (s State) WithDispute(d Dispute) State {
	disputes := maps.Clone(s.Disputes)
	disputes[d.ID] = d
	s.Disputes = disputes
	return s
}

func (s State) WithModerationAction(a ModerationAction) State {
	actions := maps.Clone(s.ModerationActions)
	actions[a.ID] = a
	s.ModerationActions = actions
	return s
}

func (s State) WithModerationStatus(m ModerationStatus) State {
	statuses := maps.Clone(s.ModerationStatus)
	statuses[m.UserID] = m
	s.ModerationStatus = statuses
	return s
}

func (s State) WithWeeklyEvent(e WeeklyEvent) State {
	events := maps.Clone(s.WeeklyEvents)
	events[e.ID] = e
	s.WeeklyEvents = events
	return s
}

func (s State) WithUserStats(st UserStats) State {
	stats := maps.Clone(s.UserStats)
	stats[st.UserID] = st
	s.UserStats = stats
	return s
}

// EnsureSystemUser adds the credit-minting account if the document does not
// hold one yet.
func (s State) EnsureSystemUser() State {
	if _, ok := s.Users[SystemUserID]; ok {
		return s
	}
	return s.WithUser(User{
		ID:          SystemUserID,
		Username:    "System",
		TimeCredits: SystemOpeningBalance,
		IsActive:    true,
	})
}
