// Package codeforces fetches a user's activity from the Codeforces REST API
// and normalizes it for the merge engine.
package codeforces

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/codyssey/codyssey/internal/fetcher"
	"github.com/codyssey/codyssey/internal/setup/config"
	"go.uber.org/zap"
)

var (
	// ErrUnexpectedStatus indicates a non-2xx HTTP response.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrAPIStatusNotOK indicates the Codeforces envelope carried a non-OK status.
	ErrAPIStatusNotOK = errors.New("codeforces api status not ok")
	// ErrEmptyResult indicates the API returned no entries for the handle.
	ErrEmptyResult = errors.New("codeforces api returned empty result")
)

const defaultAPIURL = "https://codeforces.com/api"

const (
	defaultRequestTimeout  = 10 * time.Second
	defaultSubmissionCount = 20
	defaultActivityCount   = 1000
	defaultProxyCount      = 5000

	problemURLFormat = "https://codeforces.com/contest/%d/problem/%s"
)

// Fetcher retrieves Codeforces data over HTTP. Every response envelope carries
// a status flag; anything other than "OK" is treated as an upstream failure.
type Fetcher struct {
	apiURL          string
	submissionCount int
	activityCount   int
	proxyCount      int
	client          *http.Client
	logger          *zap.Logger
}

// NewFetcher creates a Codeforces fetcher with the provided configuration.
// Zero config values fall back to the public endpoint and defaults.
func NewFetcher(cfg *config.Codeforces, logger *zap.Logger) *Fetcher {
	f := &Fetcher{
		apiURL:          cfg.APIURL,
		submissionCount: cfg.SubmissionCount,
		activityCount:   cfg.ActivityCount,
		proxyCount:      cfg.ProxyCount,
		logger:          logger.Named("codeforces_fetcher"),
	}

	if f.apiURL == "" {
		f.apiURL = defaultAPIURL
	}

	if f.submissionCount <= 0 {
		f.submissionCount = defaultSubmissionCount
	}

	if f.activityCount <= 0 {
		f.activityCount = defaultActivityCount
	}

	if f.proxyCount <= 0 {
		f.proxyCount = defaultProxyCount
	}

	timeout := defaultRequestTimeout
	if cfg.RequestTimeout > 0 {
		timeout = time.Duration(cfg.RequestTimeout) * time.Millisecond
	}

	f.client = &http.Client{Timeout: timeout}

	return f
}

// apiSubmission mirrors one entry of the user.status result array.
type apiSubmission struct {
	Verdict             string `json:"verdict"`
	CreationTimeSeconds int64  `json:"creationTimeSeconds"`
	Problem             struct {
		ContestID int      `json:"contestId"`
		Index     string   `json:"index"`
		Name      string   `json:"name"`
		Rating    *int     `json:"rating"`
		Tags      []string `json:"tags"`
	} `json:"problem"`
}

// FetchSubmissions retrieves the user's recent submissions for the practice
// suggestion pool. Only entries with an OK verdict are marked accepted.
func (f *Fetcher) FetchSubmissions(ctx context.Context, handle string) ([]fetcher.Submission, error) {
	return f.fetchStatus(ctx, handle, f.submissionCount)
}

// FetchActivity retrieves a larger submission window for the activity
// calendar. Every submission counts regardless of verdict.
func (f *Fetcher) FetchActivity(ctx context.Context, handle string) ([]fetcher.Submission, error) {
	return f.fetchStatus(ctx, handle, f.activityCount)
}

func (f *Fetcher) fetchStatus(ctx context.Context, handle string, count int) ([]fetcher.Submission, error) {
	query := url.Values{}
	query.Set("handle", handle)
	query.Set("from", "1")
	query.Set("count", strconv.Itoa(count))

	var payload struct {
		Status  string          `json:"status"`
		Comment string          `json:"comment"`
		Result  []apiSubmission `json:"result"`
	}

	if err := f.getJSON(ctx, f.apiURL+"/user.status?"+query.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	if payload.Status != "OK" {
		return nil, fmt.Errorf("%w: %s", ErrAPIStatusNotOK, payload.Comment)
	}

	submissions := make([]fetcher.Submission, 0, len(payload.Result))

	for _, entry := range payload.Result {
		submissions = append(submissions, fetcher.Submission{
			Name:      entry.Problem.Name,
			URL:       fmt.Sprintf(problemURLFormat, entry.Problem.ContestID, entry.Problem.Index),
			Platform:  fetcher.PlatformCodeforces,
			Rating:    entry.Problem.Rating,
			Tags:      entry.Problem.Tags,
			Accepted:  entry.Verdict == "OK",
			CreatedAt: time.Unix(entry.CreationTimeSeconds, 0).UTC(),
		})
	}

	f.logger.Debug("Fetched Codeforces submissions",
		zap.String("handle", handle),
		zap.Int("count", len(submissions)))

	return submissions, nil
}

// FetchUserInfo retrieves the user's rating, max rating and rank.
func (f *Fetcher) FetchUserInfo(ctx context.Context, handle string) (*fetcher.CodeforcesInfo, error) {
	query := url.Values{}
	query.Set("handles", handle)

	var payload struct {
		Status  string `json:"status"`
		Comment string `json:"comment"`
		Result  []struct {
			Rating    *int    `json:"rating"`
			MaxRating *int    `json:"maxRating"`
			Rank      *string `json:"rank"`
		} `json:"result"`
	}

	if err := f.getJSON(ctx, f.apiURL+"/user.info?"+query.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	if payload.Status != "OK" {
		return nil, fmt.Errorf("%w: %s", ErrAPIStatusNotOK, payload.Comment)
	}

	if len(payload.Result) == 0 {
		return nil, ErrEmptyResult
	}

	info := payload.Result[0]

	return &fetcher.CodeforcesInfo{
		Rating:    info.Rating,
		MaxRating: info.MaxRating,
		Rank:      info.Rank,
	}, nil
}

// RawUserStatus fetches the unparsed user.status payload for the frontend
// proxy endpoint. The upstream HTTP status code is passed through so callers
// can forward it as-is.
func (f *Fetcher) RawUserStatus(ctx context.Context, handle string, from, count int) ([]byte, int, error) {
	if from <= 0 {
		from = 1
	}

	if count <= 0 {
		count = f.proxyCount
	}

	query := url.Values{}
	query.Set("handle", handle)
	query.Set("from", strconv.Itoa(from))
	query.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.apiURL+"/user.status?"+query.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
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
