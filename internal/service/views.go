// Package service orchestrates the fetch/merge/cache pipeline behind the
// three unified views. Per request it checks the cache, otherwise fans out to
// the configured platform fetchers, merges the results and best-effort
// populates the cache.
package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/codyssey/codyssey/internal/cache"
	"github.com/codyssey/codyssey/internal/fetcher"
	"github.com/codyssey/codyssey/internal/merge"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Status messages returned alongside the unified views. Total upstream
// failure degrades to a neutral view with an explanation, never an error.
const (
	NoHandlesMessage   = "No platform handles configured. Add your LeetCode or Codeforces handle to get started."
	UnavailableMessage = "Could not reach the configured platforms right now. Please try again later."
	StatsLoadedMessage = "Stats loaded successfully."
	ActivityMessage    = "Activity data loaded successfully."
)

// LeetCodeSource is the capability surface the orchestrator needs from the
// LeetCode adapter.
type LeetCodeSource interface {
	FetchSubmissions(ctx context.Context, handle string) ([]fetcher.Submission, error)
	FetchAggregate(ctx context.Context, handle string) (*fetcher.LeetCodeStats, error)
	FetchProblemTotals(ctx context.Context) fetcher.ProblemTotals
}

// CodeforcesSource is the capability surface the orchestrator needs from the
// Codeforces adapter.
type CodeforcesSource interface {
	FetchSubmissions(ctx context.Context, handle string) ([]fetcher.Submission, error)
	FetchActivity(ctx context.Context, handle string) ([]fetcher.Submission, error)
	FetchUserInfo(ctx context.Context, handle string) (*fetcher.CodeforcesInfo, error)
}

// ProfileStore resolves the platform handles configured for an identity.
// A missing identity is the only fatal condition for a view request.
type ProfileStore interface {
	GetHandles(ctx context.Context, id string) (fetcher.Handles, error)
}

// ViewService drives the per-request state machine: check cache, on miss
// fetch from the configured platforms, merge and populate the cache.
type ViewService struct {
	cache      *cache.ViewCache
	profiles   ProfileStore
	leetcode   LeetCodeSource
	codeforces CodeforcesSource
	logger     *zap.Logger

	// rng backs the suggestion shuffle. Guarded by rngMu since rand.Rand is
	// not safe for concurrent use.
	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewViewService creates the orchestrator. A nil rng gets a time-seeded
// source; tests inject a seeded one.
func NewViewService(
	viewCache *cache.ViewCache, profiles ProfileStore,
	leetcode LeetCodeSource, codeforces CodeforcesSource,
	rng *rand.Rand, logger *zap.Logger,
) *ViewService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &ViewService{
		cache:      viewCache,
		profiles:   profiles,
		leetcode:   leetcode,
		codeforces: codeforces,
		rng:        rng,
		logger:     logger.Named("view_service"),
	}
}

// Stats returns the unified stats summary for the identity.
func (s *ViewService) Stats(ctx context.Context, userID string) (merge.StatsView, error) {
	var view merge.StatsView
	if s.cache.Get(ctx, cache.KindStats, userID, &view) {
		return view, nil
	}

	handles, err := s.profiles.GetHandles(ctx, userID)
	if err != nil {
		return merge.StatsView{}, fmt.Errorf("failed to resolve handles: %w", err)
	}

	var (
		lcStats *fetcher.LeetCodeStats
		cfInfo  *fetcher.CodeforcesInfo
		totals  fetcher.ProblemTotals
	)

	// Each goroutine writes its own variable, so no locking is needed.
	p := pool.New()

	if handles.LeetCode != "" {
		p.Go(func() {
			stats, err := s.leetcode.FetchAggregate(ctx, handles.LeetCode)
			if err != nil {
				s.logger.Warn("LeetCode aggregate unavailable",
					zap.String("handle", handles.LeetCode),
					zap.Error(err))
				return
			}

			lcStats = stats
		})
	}

	if handles.Codeforces != "" {
		p.Go(func() {
			info, err := s.codeforces.FetchUserInfo(ctx, handles.Codeforces)
			if err != nil {
				s.logger.Warn("Codeforces user info unavailable",
					zap.String("handle", handles.Codeforces),
					zap.Error(err))
				return
			}

			cfInfo = info
		})
	}

	p.Go(func() {
		totals = s.problemTotals(ctx)
	})

	p.Wait()

	view = merge.Stats(lcStats, &totals, cfInfo)
	view.Message = statsMessage(handles, lcStats != nil, cfInfo != nil)

	s.cache.Set(ctx, cache.KindStats, userID, view)

	return view, nil
}

// PracticeProblems returns the randomized practice-problem suggestions for
// the identity. The sample is randomized per cache-population event, not per
// request.
func (s *ViewService) PracticeProblems(ctx context.Context, userID string) (merge.SuggestionSet, error) {
	var view merge.SuggestionSet
	if s.cache.Get(ctx, cache.KindProblems, userID, &view) {
		return view, nil
	}

	handles, err := s.profiles.GetHandles(ctx, userID)
	if err != nil {
		return merge.SuggestionSet{}, fmt.Errorf("failed to resolve handles: %w", err)
	}

	if !handles.Configured() {
		view = merge.SuggestionSet{Problems: []merge.Problem{}, Message: NoHandlesMessage}
		s.cache.Set(ctx, cache.KindProblems, userID, view)

		return view, nil
	}

	var lcSubs, cfSubs []fetcher.Submission

	p := pool.New()

	if handles.LeetCode != "" {
		p.Go(func() {
			subs, err := s.leetcode.FetchSubmissions(ctx, handles.LeetCode)
			if err != nil {
				s.logger.Warn("LeetCode submissions unavailable",
					zap.String("handle", handles.LeetCode),
					zap.Error(err))
				return
			}

			lcSubs = subs
		})
	}

	if handles.Codeforces != "" {
		p.Go(func() {
			subs, err := s.codeforces.FetchSubmissions(ctx, handles.Codeforces)
			if err != nil {
				s.logger.Warn("Codeforces submissions unavailable",
					zap.String("handle", handles.Codeforces),
					zap.Error(err))
				return
			}

			cfSubs = subs
		})
	}

	p.Wait()

	all := make([]fetcher.Submission, 0, len(lcSubs)+len(cfSubs))
	all = append(all, lcSubs...)
	all = append(all, cfSubs...)

	s.rngMu.Lock()
	view = merge.Suggestions(all, s.rng)
	s.rngMu.Unlock()

	s.cache.Set(ctx, cache.KindProblems, userID, view)

	s.logger.Debug("Computed practice suggestions",
		zap.String("userID", userID),
		zap.Int("pool", len(all)),
		zap.Int("selected", len(view.Problems)))

	return view, nil
}

// Activity returns the merged activity calendar for the identity.
func (s *ViewService) Activity(ctx context.Context, userID string) (merge.ActivityView, error) {
	var view merge.ActivityView
	if s.cache.Get(ctx, cache.KindActivity, userID, &view) {
		return view, nil
	}

	handles, err := s.profiles.GetHandles(ctx, userID)
	if err != nil {
		return merge.ActivityView{}, fmt.Errorf("failed to resolve handles: %w", err)
	}

	if !handles.Configured() {
		view = merge.ActivityView{ActivityData: []merge.DayCount{}, Message: NoHandlesMessage}
		s.cache.Set(ctx, cache.KindActivity, userID, view)

		return view, nil
	}

	var (
		lcStats *fetcher.LeetCodeStats
		cfSubs  []fetcher.Submission
		cfOK    bool
	)

	p := pool.New()

	if handles.LeetCode != "" {
		p.Go(func() {
			stats, err := s.leetcode.FetchAggregate(ctx, handles.LeetCode)
			if err != nil {
				s.logger.Warn("LeetCode calendar unavailable",
					zap.String("handle", handles.LeetCode),
					zap.Error(err))
				return
			}

			lcStats = stats
		})
	}

	if handles.Codeforces != "" {
		p.Go(func() {
			subs, err := s.codeforces.FetchActivity(ctx, handles.Codeforces)
			if err != nil {
				s.logger.Warn("Codeforces activity unavailable",
					zap.String("handle", handles.Codeforces),
					zap.Error(err))
				return
			}

			cfSubs = subs
			cfOK = true
		})
	}

	p.Wait()

	var calendar map[int64]int
	if lcStats != nil {
		calendar = lcStats.SubmissionCalendar
	}

	view = merge.Activity(calendar, cfSubs)

	if lcStats == nil && !cfOK {
		view.Message = UnavailableMessage
	} else {
		view.Message = ActivityMessage
	}

	s.cache.Set(ctx, cache.KindActivity, userID, view)

	return view, nil
}

// InvalidateUser clears all cached views for the identity. Called when the
// handle mapping changes or on an explicit refresh request.
func (s *ViewService) InvalidateUser(ctx context.Context, userID string) {
	s.cache.InvalidateUser(ctx, userID)
}

// problemTotals serves the global problem totals from the shared cache entry,
// falling back to a fresh listing fetch. The entry is shared across users
// since the listing is identical for everyone.
func (s *ViewService) problemTotals(ctx context.Context) fetcher.ProblemTotals {
	var totals fetcher.ProblemTotals
	if s.cache.GetShared(ctx, cache.ProblemTotalsKey, &totals) {
		return totals
	}

	totals = s.leetcode.FetchProblemTotals(ctx)
	s.cache.SetShared(ctx, cache.ProblemTotalsKey, totals, s.cache.ProblemTotalsTTL())

	return totals
}

// statsMessage picks the status message for the stats view. Only the case
// where every configured platform failed is reported as degraded.
func statsMessage(handles fetcher.Handles, lcOK, cfOK bool) string {
	if !handles.Configured() {
		return NoHandlesMessage
	}

	lcContributed := handles.LeetCode != "" && lcOK
	cfContributed := handles.Codeforces != "" && cfOK

	if !lcContributed && !cfContributed {
		return UnavailableMessage
	}

	return StatsLoadedMessage
}
