// Package leetcode fetches a user's activity from the LeetCode GraphQL and
// stats APIs and normalizes it for the merge engine.
package leetcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/codyssey/codyssey/internal/fetcher"
	"github.com/codyssey/codyssey/internal/setup/config"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ErrUnexpectedStatus indicates a non-2xx or non-success upstream response.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Default endpoints, overridable through config for tests.
const (
	defaultGraphQLURL  = "https://leetcode.com/graphql"
	defaultStatsAPIURL = "https://leetcode-stats-api.herokuapp.com"
	defaultProblemsURL = "https://leetcode.com/api/problems/all/"
)

const (
	defaultRequestTimeout    = 10 * time.Second
	defaultSubmissionLimit   = 20
	defaultDetailConcurrency = 3

	problemURLFormat = "https://leetcode.com/problems/%s/"
)

// Static totals used when the bulk problem listing is unreachable.
const (
	fallbackTotalEasy   = 800
	fallbackTotalMedium = 1700
	fallbackTotalHard   = 700
)

const recentAcSubmissionsQuery = `
query recentAcSubmissions($username: String!, $limit: Int!) {
  recentAcSubmissionList(username: $username, limit: $limit) {
    id
    title
    titleSlug
    timestamp
  }
}`

const questionDataQuery = `
query questionData($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    title
    difficulty
    topicTags {
      name
    }
  }
}`

// Fetcher retrieves LeetCode data over HTTP. A failed call never aborts the
// surrounding request; callers treat errors as "no data this cycle".
type Fetcher struct {
	graphqlURL        string
	statsAPIURL       string
	problemsURL       string
	submissionLimit   int
	detailConcurrency int
	client            *http.Client
	logger            *zap.Logger
}

// NewFetcher creates a LeetCode fetcher with the provided configuration.
// Zero config values fall back to the public endpoints and defaults.
func NewFetcher(cfg *config.LeetCode, logger *zap.Logger) *Fetcher {
	f := &Fetcher{
		graphqlURL:        cfg.GraphQLURL,
		statsAPIURL:       cfg.StatsAPIURL,
		problemsURL:       cfg.ProblemsURL,
		submissionLimit:   cfg.SubmissionLimit,
		detailConcurrency: cfg.DetailConcurrency,
		logger:            logger.Named("leetcode_fetcher"),
	}

	if f.graphqlURL == "" {
		f.graphqlURL = defaultGraphQLURL
	}

	if f.statsAPIURL == "" {
		f.statsAPIURL = defaultStatsAPIURL
	}

	if f.problemsURL == "" {
		f.problemsURL = defaultProblemsURL
	}

	if f.submissionLimit <= 0 {
		f.submissionLimit = defaultSubmissionLimit
	}

	if f.detailConcurrency <= 0 {
		f.detailConcurrency = defaultDetailConcurrency
	}

	timeout := defaultRequestTimeout
	if cfg.RequestTimeout > 0 {
		timeout = time.Duration(cfg.RequestTimeout) * time.Millisecond
	}

	f.client = &http.Client{Timeout: timeout}

	return f
}

// recentSubmission mirrors one entry of recentAcSubmissionList.
// LeetCode returns the timestamp as a string of unix seconds.
type recentSubmission struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	TitleSlug string `json:"titleSlug"`
	Timestamp string `json:"timestamp"`
}

// FetchSubmissions retrieves the user's recent accepted submissions and
// resolves difficulty and topic tags through a per-problem detail lookup.
// Detail lookups run with bounded concurrency; a failed lookup keeps the
// submission with a sentinel difficulty and empty tags.
func (f *Fetcher) FetchSubmissions(ctx context.Context, handle string) ([]fetcher.Submission, error) {
	var recent struct {
		Data struct {
			RecentAcSubmissionList []recentSubmission `json:"recentAcSubmissionList"`
		} `json:"data"`
	}

	err := f.postGraphQL(ctx, recentAcSubmissionsQuery, map[string]any{
		"username": handle,
		"limit":    f.submissionLimit,
	}, &recent)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent submissions: %w", err)
	}

	entries := dedupeBySlug(recent.Data.RecentAcSubmissionList)
	if len(entries) == 0 {
		f.logger.Debug("No recent accepted submissions", zap.String("handle", handle))
		return nil, nil
	}

	// Per-item detail lookups are bounded to avoid upstream rate limiting.
	// Each slot is written by exactly one goroutine.
	submissions := make([]fetcher.Submission, len(entries))
	p := pool.New().WithMaxGoroutines(f.detailConcurrency)

	for i, entry := range entries {
		p.Go(func() {
			submissions[i] = f.fetchSubmissionDetail(ctx, entry)
		})
	}

	p.Wait()

	f.logger.Debug("Fetched LeetCode submissions",
		zap.String("handle", handle),
		zap.Int("count", len(submissions)))

	return submissions, nil
}

// fetchSubmissionDetail resolves difficulty and tags for a single submission.
// Failure substitutes sentinel values instead of dropping the item.
func (f *Fetcher) fetchSubmissionDetail(ctx context.Context, entry recentSubmission) fetcher.Submission {
	sub := fetcher.Submission{
		Name:       entry.Title,
		URL:        fmt.Sprintf(problemURLFormat, entry.TitleSlug),
		Platform:   fetcher.PlatformLeetCode,
		Difficulty: fetcher.DifficultyUnknown,
		Tags:       []string{},
		Accepted:   true,
		CreatedAt:  parseUnixString(entry.Timestamp),
	}

	var detail struct {
		Data struct {
			Question *struct {
				Title      string `json:"title"`
				Difficulty string `json:"difficulty"`
				TopicTags  []struct {
					Name string `json:"name"`
				} `json:"topicTags"`
			} `json:"question"`
		} `json:"data"`
	}

	err := f.postGraphQL(ctx, questionDataQuery, map[string]any{
		"titleSlug": entry.TitleSlug,
	}, &detail)
	if err != nil || detail.Data.Question == nil {
		f.logger.Warn("Failed to fetch problem details, keeping submission with unknown difficulty",
			zap.String("titleSlug", entry.TitleSlug),
			zap.Error(err))
		return sub
	}

	question := detail.Data.Question
	sub.Name = question.Title
	sub.Difficulty = question.Difficulty

	tags := make([]string, 0, len(question.TopicTags))
	for _, tag := range question.TopicTags {
		tags = append(tags, tag.Name)
	}

	sub.Tags = tags

	return sub
}

// FetchAggregate retrieves the user's solved counts per difficulty and the
// submission calendar from the stats API.
func (f *Fetcher) FetchAggregate(ctx context.Context, handle string) (*fetcher.LeetCodeStats, error) {
	endpoint := f.statsAPIURL + "/" + url.PathEscape(handle)

	var payload struct {
		Status             string         `json:"status"`
		TotalSolved        *int           `json:"totalSolved"`
		EasySolved         *int           `json:"easySolved"`
		MediumSolved       *int           `json:"mediumSolved"`
		HardSolved         *int           `json:"hardSolved"`
		SubmissionCalendar map[string]int `json:"submissionCalendar"`
	}

	if err := f.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch aggregate stats: %w", err)
	}

	if payload.Status != "" && payload.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, payload.Status)
	}

	stats := &fetcher.LeetCodeStats{
		TotalSolved:        payload.TotalSolved,
		EasySolved:         payload.EasySolved,
		MediumSolved:       payload.MediumSolved,
		HardSolved:         payload.HardSolved,
		SubmissionCalendar: make(map[int64]int, len(payload.SubmissionCalendar)),
	}

	for key, count := range payload.SubmissionCalendar {
		day, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			f.logger.Warn("Skipping malformed calendar key", zap.String("key", key))
			continue
		}

		stats.SubmissionCalendar[day] = count
	}

	return stats, nil
}

// FetchProblemTotals counts the global problem listing per difficulty level.
// When the listing is unreachable the static fallback totals are returned so
// the stats view stays populated.
func (f *Fetcher) FetchProblemTotals(ctx context.Context) fetcher.ProblemTotals {
	var payload struct {
		StatStatusPairs []struct {
			Difficulty struct {
				Level int `json:"level"`
			} `json:"difficulty"`
		} `json:"stat_status_pairs"`
	}

	if err := f.getJSON(ctx, f.problemsURL, &payload); err != nil {
		f.logger.Warn("Failed to fetch problem totals, using static fallback", zap.Error(err))

		easy, medium, hard := fallbackTotalEasy, fallbackTotalMedium, fallbackTotalHard

		return fetcher.ProblemTotals{Easy: &easy, Medium: &medium, Hard: &hard}
	}

	var easy, medium, hard int

	for _, pair := range payload.StatStatusPairs {
		switch pair.Difficulty.Level {
		case 1:
			easy++
		case 2:
			medium++
		case 3:
			hard++
		}
	}

	return fetcher.ProblemTotals{Easy: &easy, Medium: &medium, Hard: &hard}
}

// postGraphQL sends a GraphQL query and decodes the response into out.
func (f *Fetcher) postGraphQL(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := sonic.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// getJSON performs a GET request and decodes the JSON response into out.
func (f *Fetcher) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// dedupeBySlug drops repeated slugs so a problem solved multiple times only
// triggers one detail lookup. First occurrence wins.
func dedupeBySlug(entries []recentSubmission) []recentSubmission {
	seen := make(map[string]struct{}, len(entries))
	out := make([]recentSubmission, 0, len(entries))

	for _, entry := range entries {
		if _, ok := seen[entry.TitleSlug]; ok {
			continue
		}

		seen[entry.TitleSlug] = struct{}{}
		out = append(out, entry)
	}

	return out
}

func parseUnixString(value string) time.Time {
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.Unix(seconds, 0).UTC()
}
