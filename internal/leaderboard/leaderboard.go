// Package leaderboard is the read-side rollup over gig completions: per-user
// stats and ranking queries. It only ever reads the ledger's outcome; nothing
// here feeds back into balances.
package leaderboard

import (
	"sort"
	"time"

	"timebank/internal/state"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryTopHelpers        Category = "top_helpers"
	CategoryFastestResponders Category = "fastest_responders"
	CategoryDiverseSkillers   Category = "diverse_skillers"
)

type Period string

const (
	PeriodWeekly   Period = "weekly"
	PeriodSeasonal Period = "seasonal"
	PeriodAllTime  Period = "all_time"
)

// Fastest-responder rankings only consider users with a minimum body of work.
const minGigsForResponseRank = 3

type Entry struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Rank     int    `json:"rank"`
	Score    string `json:"score"`
}

// RecordCompletion updates a participant's stats after a gig completes. The
// response-time average only moves for the party who accepted the gig.
func RecordCompletion(s state.State, userID, gigID string, now time.Time) state.State {
	gig, ok := s.Gigs[gigID]
	if !ok {
		return s
	}
	stats, ok := s.UserStats[userID]
	if !ok {
		stats = state.UserStats{UserID: userID, AvgResponseMinutes: "0"}
	}

	previousCount := stats.CompletedGigs
	stats.CompletedGigs++
	stats.WeeklyCompletions++
	stats.SeasonalCompletions++
	stats.LastActivityAt = now
	if !containsCategory(stats.UniqueCategories, gig.Category) {
		stats.UniqueCategories = append(append([]string{}, stats.UniqueCategories...), gig.Category)
	}

	if gig.AssignedTo == userID {
		responseMinutes := decimal.NewFromFloat(now.Sub(gig.CreatedAt).Minutes())
		stats.AvgResponseMinutes = rollAverage(stats.AvgResponseMinutes, responseMinutes, previousCount)
	}
	return s.WithUserStats(stats)
}

// rollAverage folds one more sample into a running mean, kept as a decimal
// string so the document stays precise across JSON round trips.
func rollAverage(currentAvg string, sample decimal.Decimal, previousCount int) string {
	avg, err := decimal.NewFromString(currentAvg)
	if err != nil {
		avg = decimal.Zero
	}
	count := decimal.NewFromInt(int64(previousCount))
	total := avg.Mul(count).Add(sample)
	return total.Div(count.Add(decimal.NewFromInt(1))).RoundBank(2).String()
}

// Rankings computes a leaderboard for one category and period. Fastest
// responders rank ascending (lower is better); everything else descends.
func Rankings(s state.State, category Category, period Period, limit int) []Entry {
	type scored struct {
		entry Entry
		score decimal.Decimal
	}
	var rows []scored

	for _, stats := range s.UserStats {
		user, ok := s.Users[stats.UserID]
		if !ok || user.ID == state.SystemUserID {
			continue
		}
		var score decimal.Decimal
		switch category {
		case CategoryTopHelpers:
			score = decimal.NewFromInt(int64(completionsFor(stats, period)))
		case CategoryFastestResponders:
			if stats.CompletedGigs < minGigsForResponseRank {
				continue
			}
			parsed, err := decimal.NewFromString(stats.AvgResponseMinutes)
			if err != nil {
				continue
			}
			score = parsed
		case CategoryDiverseSkillers:
			score = decimal.NewFromInt(int64(len(stats.UniqueCategories)))
		default:
			continue
		}
		rows = append(rows, scored{
			entry: Entry{UserID: stats.UserID, Username: user.Username, Score: score.String()},
			score: score,
		})
	}

	// Ties break on username so identical snapshots rank identically.
	ascending := category == CategoryFastestResponders
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].score.Equal(rows[j].score) {
			if ascending {
				return rows[i].score.LessThan(rows[j].score)
			}
			return rows[i].score.GreaterThan(rows[j].score)
		}
		return rows[i].entry.Username < rows[j].entry.Username
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	entries := make([]Entry, len(rows))
	for i, row := range rows {
		row.entry.Rank = i + 1
		entries[i] = row.entry
	}
	return entries
}

func completionsFor(stats state.UserStats, period Period) int {
	switch period {
	case PeriodWeekly:
		return stats.WeeklyCompletions
	case PeriodSeasonal:
		return stats.SeasonalCompletions
	default:
		return stats.CompletedGigs
	}
}

func containsCategory(categories []string, category string) bool {
	for _, existing := range categories {
		if existing == category {
			return true
		}
	}
	return false
}
