// Package events tracks the weekly community sprint: a themed goal counted
// in completed gigs, with a small credit reward minted for every participant
// when the goal is reached. It consumes gig completions as events; the ledger
// never depends on it.
package events

import (
	"errors"
	"time"

	"timebank/internal/ledger"
	"timebank/internal/state"

	"github.com/google/uuid"
)

var ErrEventNotCompleted = errors.New("event not found or not completed")

const rewardPerParticipant int64 = 2

var themeRotation = []string{"tech", "creative", "education", "care", "mixed"}

var themeTitles = map[string]string{
	"tech":      "Tech Week Sprint",
	"creative":  "Creative Week Sprint",
	"education": "Learning Week Sprint",
	"care":      "Care & Support Sprint",
	"mixed":     "Community Sprint",
}

// EnsureWeeklyEvent opens this week's event if none is active yet. Repeated
// calls within the same week are no-ops.
func EnsureWeeklyEvent(s state.State, now time.Time) (state.State, string, error) {
	weekStart := startOfWeek(now)
	for _, event := range s.WeeklyEvents {
		if event.Status == state.EventStatusActive && event.StartDate.Equal(weekStart) {
			return s, event.ID, nil
		}
	}

	theme := nextTheme(s)
	event := state.WeeklyEvent{
		ID:                   uuid.NewString(),
		Title:                themeTitles[theme],
		Theme:                theme,
		Status:               state.EventStatusActive,
		GoalAmount:           goalFor(len(s.Users)),
		RewardPerParticipant: rewardPerParticipant,
		StartDate:            weekStart,
		EndDate:              weekStart.AddDate(0, 0, 7).Add(-time.Second),
		CreatedAt:            now,
	}
	return s.WithWeeklyEvent(event), event.ID, nil
}

// RecordGigCompletion bumps the active event's progress when a completed gig
// matches its theme, and distributes rewards if that reaches the goal.
func RecordGigCompletion(s state.State, gigID, userID string, now time.Time) (state.State, error) {
	event, ok := activeEvent(s)
	if !ok {
		return s, nil
	}
	gig, ok := s.Gigs[gigID]
	if !ok {
		return s, nil
	}
	if event.Theme != "mixed" && gig.Category != event.Theme {
		return s, nil
	}

	event.CurrentProgress++
	if !contains(event.Participants, userID) {
		event.Participants = append(append([]string{}, event.Participants...), userID)
	}

	if event.CurrentProgress >= event.GoalAmount {
		completedAt := now
		event.Status = state.EventStatusCompleted
		event.CompletedAt = &completedAt
		return distributeRewards(s.WithWeeklyEvent(event), event.ID, now)
	}
	return s.WithWeeklyEvent(event), nil
}

func distributeRewards(s state.State, eventID string, now time.Time) (state.State, error) {
	event, ok := s.WeeklyEvents[eventID]
	if !ok || event.Status != state.EventStatusCompleted {
		return s, ErrEventNotCompleted
	}
	next := s
	for _, userID := range event.Participants {
		if _, ok := next.Users[userID]; !ok {
			continue
		}
		var err error
		next, _, err = ledger.Mint(next, userID, "", event.RewardPerParticipant,
			state.TransactionTypeWeeklyEventReward, "Weekly event reward: "+event.Title, now)
		if err != nil {
			return s, err
		}
	}
	return next, nil
}

// ExpireOldEvents marks active events whose window has passed.
func ExpireOldEvents(s state.State, now time.Time) state.State {
	next := s
	for _, event := range s.WeeklyEvents {
		if event.Status == state.EventStatusActive && event.EndDate.Before(now) {
			event.Status = state.EventStatusExpired
			next = next.WithWeeklyEvent(event)
		}
	}
	return next
}

func Active(s state.State) (state.WeeklyEvent, bool) {
	return activeEvent(s)
}

func activeEvent(s state.State) (state.WeeklyEvent, bool) {
	for _, event := range s.WeeklyEvents {
		if event.Status == state.EventStatusActive {
			return event, true
		}
	}
	return state.WeeklyEvent{}, false
}

func nextTheme(s state.State) string {
	var latest *state.WeeklyEvent
	for _, event := range s.WeeklyEvents {
		event := event
		if latest == nil || event.CreatedAt.After(latest.CreatedAt) {
			latest = &event
		}
	}
	if latest == nil {
		return themeRotation[0]
	}
	for i, theme := range themeRotation {
		if theme == latest.Theme {
			return themeRotation[(i+1)%len(themeRotation)]
		}
	}
	return themeRotation[0]
}

// goalFor sizes the weekly goal by community population.
func goalFor(userCount int) int {
	switch {
	case userCount < 10:
		return 5
	case userCount < 50:
		return 15
	case userCount < 100:
		return 30
	default:
		return 50
	}
}

// startOfWeek truncates to Monday 00:00 UTC.
func startOfWeek(now time.Time) time.Time {
	t := now.UTC().Truncate(24 * time.Hour)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
