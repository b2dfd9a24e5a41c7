package merge_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/codyssey/codyssey/internal/fetcher"
	"github.com/codyssey/codyssey/internal/merge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func acceptedSubmission(name, url string, platform fetcher.Platform) fetcher.Submission {
	return fetcher.Submission{
		Name:     name,
		URL:      url,
		Platform: platform,
		Tags:     []string{},
		Accepted: true,
	}
}

func TestSuggestionsDeduplication(t *testing.T) {
	t.Parallel()

	// Repeated URLs keep the first-seen entry's fields.
	subs := []fetcher.Submission{
		acceptedSubmission("Two Sum", "https://leetcode.com/problems/two-sum/", fetcher.PlatformLeetCode),
		acceptedSubmission("Two Sum (later)", "https://leetcode.com/problems/two-sum/", fetcher.PlatformLeetCode),
		acceptedSubmission("Watermelon", "https://codeforces.com/contest/4/problem/A", fetcher.PlatformCodeforces),
	}

	set := merge.Suggestions(subs, newRand())
	require.Len(t, set.Problems, 2)

	names := make(map[string]string, len(set.Problems))
	for _, problem := range set.Problems {
		_, duplicate := names[problem.URL]
		require.False(t, duplicate, "URL %s appeared twice", problem.URL)
		names[problem.URL] = problem.Name
	}

	assert.Equal(t, "Two Sum", names["https://leetcode.com/problems/two-sum/"])
}

func TestSuggestionsSampleBound(t *testing.T) {
	t.Parallel()

	subs := make([]fetcher.Submission, 0, 8)
	for i := range 8 {
		subs = append(subs, acceptedSubmission(
			fmt.Sprintf("Problem %d", i),
			fmt.Sprintf("https://leetcode.com/problems/p%d/", i),
			fetcher.PlatformLeetCode,
		))
	}

	set := merge.Suggestions(subs, newRand())
	assert.Len(t, set.Problems, merge.MaxSuggestions)
	assert.Equal(t, "Found 5 practice problems for you.", set.Message)

	// Every selected problem must come from the input pool.
	urls := make(map[string]struct{}, len(subs))
	for _, sub := range subs {
		urls[sub.URL] = struct{}{}
	}

	for _, problem := range set.Problems {
		assert.Contains(t, urls, problem.URL)
	}
}

func TestSuggestionsEmptyPool(t *testing.T) {
	t.Parallel()

	// Rejected submissions never reach the pool.
	subs := []fetcher.Submission{
		{Name: "Failed attempt", URL: "https://codeforces.com/contest/1/problem/A", Accepted: false},
	}

	set := merge.Suggestions(subs, newRand())
	assert.Empty(t, set.Problems)
	assert.Equal(t, merge.NotEnoughSubmissionsMessage, set.Message)
}

func TestSuggestionsUniquePoolOfFive(t *testing.T) {
	t.Parallel()

	// Seven accepted submissions where three share a URL with another leaves
	// a unique pool of five.
	subs := []fetcher.Submission{
		acceptedSubmission("A", "https://leetcode.com/problems/a/", fetcher.PlatformLeetCode),
		acceptedSubmission("B", "https://leetcode.com/problems/b/", fetcher.PlatformLeetCode),
		acceptedSubmission("C", "https://leetcode.com/problems/c/", fetcher.PlatformLeetCode),
		acceptedSubmission("D", "https://leetcode.com/problems/d/", fetcher.PlatformLeetCode),
		acceptedSubmission("E", "https://leetcode.com/problems/e/", fetcher.PlatformLeetCode),
		acceptedSubmission("A again", "https://leetcode.com/problems/a/", fetcher.PlatformLeetCode),
		acceptedSubmission("B again", "https://leetcode.com/problems/b/", fetcher.PlatformLeetCode),
	}

	set := merge.Suggestions(subs, newRand())
	assert.Len(t, set.Problems, 5)
	assert.Equal(t, "Found 5 practice problems for you.", set.Message)
}

func TestSuggestionsSeededShuffleIsDeterministic(t *testing.T) {
	t.Parallel()

	subs := make([]fetcher.Submission, 0, 10)
	for i := range 10 {
		subs = append(subs, acceptedSubmission(
			fmt.Sprintf("Problem %d", i),
			fmt.Sprintf("https://leetcode.com/problems/p%d/", i),
			fetcher.PlatformLeetCode,
		))
	}

	first := merge.Suggestions(subs, rand.New(rand.NewSource(7)))
	second := merge.Suggestions(subs, rand.New(rand.NewSource(7)))

	assert.Equal(t, first.Problems, second.Problems)
}

func TestActivityAdditivity(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	lcCalendar := map[int64]int{day.Unix(): 3}

	// Two Codeforces submissions on the same UTC day, at different hours.
	cfSubs := []fetcher.Submission{
		{CreatedAt: day.Add(2 * time.Hour)},
		{CreatedAt: day.Add(23 * time.Hour)},
	}

	merged := merge.ActivityMap(lcCalendar, cfSubs)
	assert.Equal(t, 5, merged[day.Unix()])
	assert.Len(t, merged, 1)
}

func TestActivityAbsentDaysStayAbsent(t *testing.T) {
	t.Parallel()

	merged := merge.ActivityMap(nil, nil)
	assert.Empty(t, merged)

	view := merge.Activity(nil, nil)
	assert.Empty(t, view.ActivityData)
}

func TestActivityViewSortedByDay(t *testing.T) {
	t.Parallel()

	older := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	newer := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	view := merge.Activity(nil, []fetcher.Submission{
		{CreatedAt: newer},
		{CreatedAt: older},
	})

	require.Len(t, view.ActivityData, 2)
	assert.Less(t, view.ActivityData[0].Timestamp, view.ActivityData[1].Timestamp)
}

func TestStatsMissingPlatformsStayNil(t *testing.T) {
	t.Parallel()

	easy, medium, hard := 800, 1700, 700
	totals := fetcher.ProblemTotals{Easy: &easy, Medium: &medium, Hard: &hard}

	view := merge.Stats(nil, &totals, nil)

	assert.Nil(t, view.LeetCodeTotalSolved)
	assert.Nil(t, view.LeetCodeEasySolved)
	assert.Nil(t, view.CodeforcesRating)
	assert.Nil(t, view.CodeforcesRank)
	require.NotNil(t, view.TotalEasy)
	assert.Equal(t, 800, *view.TotalEasy)
}

func TestStatsTakesAggregatesAsIs(t *testing.T) {
	t.Parallel()

	total, easySolved := 120, 60
	rating, maxRating := 1543, 1621
	rank := "expert"

	view := merge.Stats(
		&fetcher.LeetCodeStats{TotalSolved: &total, EasySolved: &easySolved},
		nil,
		&fetcher.CodeforcesInfo{Rating: &rating, MaxRating: &maxRating, Rank: &rank},
	)

	require.NotNil(t, view.LeetCodeTotalSolved)
	assert.Equal(t, 120, *view.LeetCodeTotalSolved)
	require.NotNil(t, view.CodeforcesRating)
	assert.Equal(t, 1543, *view.CodeforcesRating)
	require.NotNil(t, view.CodeforcesRank)
	assert.Equal(t, "expert", *view.CodeforcesRank)
	assert.Nil(t, view.TotalEasy)
}
