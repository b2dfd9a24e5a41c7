package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/codyssey/codyssey/internal/database/models"
	"github.com/codyssey/codyssey/internal/merge"
	"github.com/codyssey/codyssey/internal/rest/middleware/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// fakeUserStore keeps users in memory, keyed by identity.
type fakeUserStore struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (s *fakeUserStore) add(user *models.User) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	s.byID[user.ID.String()] = user
	s.byEmail[user.Email] = user
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	if _, taken := s.byEmail[user.Email]; taken {
		return models.ErrEmailTaken
	}

	s.add(user)

	return nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	return user, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	return user, nil
}

func (s *fakeUserStore) UpdateHandles(ctx context.Context, id, leetcode, codeforces string) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if leetcode != "" {
		user.LeetCodeUsername = leetcode
	}

	if codeforces != "" {
		user.CodeforcesHandle = codeforces
	}

	return user, nil
}

// fakeViews returns canned views and records invalidations.
type fakeViews struct {
	stats       merge.StatsView
	statsErr    error
	problems    merge.SuggestionSet
	problemsErr error
	activity    merge.ActivityView
	activityErr error

	invalidated []string
}

func (f *fakeViews) Stats(context.Context, string) (merge.StatsView, error) {
	return f.stats, f.statsErr
}

func (f *fakeViews) PracticeProblems(context.Context, string) (merge.SuggestionSet, error) {
	return f.problems, f.problemsErr
}

func (f *fakeViews) Activity(context.Context, string) (merge.ActivityView, error) {
	return f.activity, f.activityErr
}

func (f *fakeViews) InvalidateUser(_ context.Context, userID string) {
	f.invalidated = append(f.invalidated, userID)
}

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.Sync() })

	return logger
}

// asUser injects a verified identity the way the auth middleware does.
func asUser(userID string) bunrouter.MiddlewareFunc {
	return func(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
		return func(w http.ResponseWriter, req bunrouter.Request) error {
			return next(w, req.WithContext(auth.WithUserID(req.Context(), userID)))
		}
	}
}

func decodeBody(t *testing.T, body []byte, out any) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(body, out))
}
