// Package merge folds normalized adapter outputs into the three unified views:
// the stats summary, the practice-problem suggestion set and the activity
// calendar.
package merge

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/codyssey/codyssey/internal/fetcher"
)

// MaxSuggestions bounds the practice-problem sample size.
const MaxSuggestions = 5

// NotEnoughSubmissionsMessage is returned when the deduplicated pool is empty.
const NotEnoughSubmissionsMessage = "Could not find enough recent successful submissions to suggest problems. Try solving a few more!"

// StatsView is the unified stats summary. All fields are nullable: a nil
// field means the platform was not configured or unavailable, which stays
// distinguishable from a zero count.
type StatsView struct {
	LeetCodeTotalSolved  *int    `json:"leetcodeTotalSolved"`
	LeetCodeEasySolved   *int    `json:"leetcodeEasySolved"`
	LeetCodeMediumSolved *int    `json:"leetcodeMediumSolved"`
	LeetCodeHardSolved   *int    `json:"leetcodeHardSolved"`
	TotalEasy            *int    `json:"totalEasy"`
	TotalMedium          *int    `json:"totalMedium"`
	TotalHard            *int    `json:"totalHard"`
	CodeforcesRating     *int    `json:"codeforcesRating"`
	CodeforcesMaxRating  *int    `json:"codeforcesMaxRating"`
	CodeforcesRank       *string `json:"codeforcesRank"`
	Message              string  `json:"message,omitempty"`
}

// Problem is one suggested practice problem.
type Problem struct {
	Name       string           `json:"name"`
	URL        string           `json:"url"`
	Platform   fetcher.Platform `json:"platform"`
	Difficulty string           `json:"difficulty,omitempty"`
	Rating     *int             `json:"rating,omitempty"`
	Tags       []string         `json:"tags"`
}

// SuggestionSet is the unified practice-problem view.
type SuggestionSet struct {
	Problems []Problem `json:"problems"`
	Message  string    `json:"message"`
}

// DayCount is one day of merged activity. Timestamp is the UTC day start in
// unix seconds.
type DayCount struct {
	Timestamp int64 `json:"timestamp"`
	Count     int   `json:"count"`
}

// ActivityView is the unified activity calendar.
type ActivityView struct {
	ActivityData []DayCount `json:"activityData"`
	Message      string     `json:"message,omitempty"`
}

// Stats combines the per-platform aggregate fields. Fields are taken as-is
// per platform with no cross-platform arithmetic; a nil input leaves the
// corresponding fields nil.
func Stats(lc *fetcher.LeetCodeStats, totals *fetcher.ProblemTotals, cf *fetcher.CodeforcesInfo) StatsView {
	var view StatsView

	if lc != nil {
		view.LeetCodeTotalSolved = lc.TotalSolved
		view.LeetCodeEasySolved = lc.EasySolved
		view.LeetCodeMediumSolved = lc.MediumSolved
		view.LeetCodeHardSolved = lc.HardSolved
	}

	if totals != nil {
		view.TotalEasy = totals.Easy
		view.TotalMedium = totals.Medium
		view.TotalHard = totals.Hard
	}

	if cf != nil {
		view.CodeforcesRating = cf.Rating
		view.CodeforcesMaxRating = cf.MaxRating
		view.CodeforcesRank = cf.Rank
	}

	return view
}

// Suggestions concatenates accepted submissions from both platforms,
// deduplicates by problem URL (first seen wins), applies a uniform random
// permutation and keeps the first min(MaxSuggestions, len) entries. The rand
// source is injected so tests can seed it.
func Suggestions(submissions []fetcher.Submission, rng *rand.Rand) SuggestionSet {
	pool := dedupeAccepted(submissions)

	if len(pool) == 0 {
		return SuggestionSet{
			Problems: []Problem{},
			Message:  NotEnoughSubmissionsMessage,
		}
	}

	// rand.Shuffle is a Fisher-Yates permutation.
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	limit := min(MaxSuggestions, len(pool))
	problems := make([]Problem, 0, limit)

	for _, sub := range pool[:limit] {
		problems = append(problems, Problem{
			Name:       sub.Name,
			URL:        sub.URL,
			Platform:   sub.Platform,
			Difficulty: sub.Difficulty,
			Rating:     sub.Rating,
			Tags:       sub.Tags,
		})
	}

	return SuggestionSet{
		Problems: problems,
		Message:  fmt.Sprintf("Found %d practice problems for you.", len(problems)),
	}
}

// ActivityMap buckets Codeforces submissions into UTC calendar days and sums
// them additively with the LeetCode calendar. Days with no activity from
// either platform are absent from the result.
func ActivityMap(lcCalendar map[int64]int, cfSubmissions []fetcher.Submission) map[int64]int {
	merged := make(map[int64]int, len(lcCalendar))

	for day, count := range lcCalendar {
		merged[day] += count
	}

	for _, sub := range cfSubmissions {
		merged[dayStart(sub.CreatedAt)]++
	}

	return merged
}

// Activity wraps the merged calendar into a view with days sorted ascending.
func Activity(lcCalendar map[int64]int, cfSubmissions []fetcher.Submission) ActivityView {
	merged := ActivityMap(lcCalendar, cfSubmissions)

	days := make([]DayCount, 0, len(merged))
	for day, count := range merged {
		days = append(days, DayCount{Timestamp: day, Count: count})
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Timestamp < days[j].Timestamp
	})

	return ActivityView{ActivityData: days}
}

// dedupeAccepted keeps the first-seen accepted submission per problem URL.
func dedupeAccepted(submissions []fetcher.Submission) []fetcher.Submission {
	seen := make(map[string]struct{}, len(submissions))
	pool := make([]fetcher.Submission, 0, len(submissions))

	for _, sub := range submissions {
		if !sub.Accepted {
			continue
		}

		if _, ok := seen[sub.URL]; ok {
			continue
		}

		seen[sub.URL] = struct{}{}
		pool = append(pool, sub)
	}

	return pool
}

// dayStart truncates a timestamp to the start of its UTC calendar day.
func dayStart(t time.Time) int64 {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
