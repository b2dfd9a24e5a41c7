package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codyssey/codyssey/internal/database/models"
	"github.com/codyssey/codyssey/internal/merge"
	"github.com/codyssey/codyssey/internal/rest/handler"
	"github.com/codyssey/codyssey/internal/rest/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bunrouter"
)

func setupUserRouter(t *testing.T, store *fakeUserStore, views *fakeViews, userID string) *bunrouter.Router {
	t.Helper()

	h := handler.NewUserHandler(store, views, testLogger(t))

	router := bunrouter.New()
	router.Use(asUser(userID)).WithGroup("/user", func(g *bunrouter.Group) {
		g.GET("/stats", h.GetStats)
		g.GET("/practice-problems", h.GetPracticeProblems)
		g.GET("/activity-data", h.GetActivityData)
		g.POST("/handles", h.UpdateHandles)
		g.POST("/refresh-cache", h.RefreshCache)
	})

	return router
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	total := 120
	views := &fakeViews{stats: merge.StatsView{
		LeetCodeTotalSolved: &total,
		Message:             "Stats loaded successfully.",
	}}

	router := setupUserRouter(t, newFakeUserStore(), views, "user-1")

	req := httptest.NewRequest(http.MethodGet, "/user/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp merge.StatsView
	decodeBody(t, rec.Body.Bytes(), &resp)
	require.NotNil(t, resp.LeetCodeTotalSolved)
	assert.Equal(t, 120, *resp.LeetCodeTotalSolved)
}

func TestGetStatsUnknownUser(t *testing.T) {
	t.Parallel()

	views := &fakeViews{statsErr: models.ErrUserNotFound}
	router := setupUserRouter(t, newFakeUserStore(), views, "ghost")

	req := httptest.NewRequest(http.MethodGet, "/user/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp types.MessageResponse
	decodeBody(t, rec.Body.Bytes(), &resp)
	assert.Equal(t, "User not found.", resp.Message)
}

func TestGetPracticeProblems(t *testing.T) {
	t.Parallel()

	views := &fakeViews{problems: merge.SuggestionSet{
		Problems: []merge.Problem{{Name: "Two Sum", URL: "https://leetcode.com/problems/two-sum/"}},
		Message:  "Found 1 practice problems for you.",
	}}

	router := setupUserRouter(t, newFakeUserStore(), views, "user-1")

	req := httptest.NewRequest(http.MethodGet, "/user/practice-problems", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp merge.SuggestionSet
	decodeBody(t, rec.Body.Bytes(), &resp)
	require.Len(t, resp.Problems, 1)
	assert.Equal(t, "Two Sum", resp.Problems[0].Name)
}

func TestGetActivityData(t *testing.T) {
	t.Parallel()

	views := &fakeViews{activity: merge.ActivityView{
		ActivityData: []merge.DayCount{{Timestamp: 1700006400, Count: 3}},
		Message:      "Activity data loaded successfully.",
	}}

	router := setupUserRouter(t, newFakeUserStore(), views, "user-1")

	req := httptest.NewRequest(http.MethodGet, "/user/activity-data", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp merge.ActivityView
	decodeBody(t, rec.Body.Bytes(), &resp)
	require.Len(t, resp.ActivityData, 1)
	assert.Equal(t, int64(1700006400), resp.ActivityData[0].Timestamp)
	assert.Equal(t, 3, resp.ActivityData[0].Count)
}

func TestUpdateHandlesInvalidatesCache(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	user := &models.User{Email: "alice@example.com", LeetCodeUsername: "old_lc", CodeforcesHandle: "old_cf"}
	store.add(user)

	views := &fakeViews{}
	router := setupUserRouter(t, store, views, user.ID.String())

	body := `{"leetcodeUsername":"new_lc"}`
	req := httptest.NewRequest(http.MethodPost, "/user/handles", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.HandlesResponse
	decodeBody(t, rec.Body.Bytes(), &resp)
	assert.Equal(t, "Handles updated successfully!", resp.Message)
	assert.Equal(t, "new_lc", resp.LeetcodeUsername)
	// An omitted handle keeps its previous value.
	assert.Equal(t, "old_cf", resp.CodeforcesHandle)

	assert.Equal(t, []string{user.ID.String()}, views.invalidated)
}

func TestUpdateHandlesUnknownUser(t *testing.T) {
	t.Parallel()

	views := &fakeViews{}
	router := setupUserRouter(t, newFakeUserStore(), views, "ghost")

	req := httptest.NewRequest(http.MethodPost, "/user/handles", strings.NewReader(`{"leetcodeUsername":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, views.invalidated)
}

func TestRefreshCache(t *testing.T) {
	t.Parallel()

	views := &fakeViews{}
	router := setupUserRouter(t, newFakeUserStore(), views, "user-1")

	req := httptest.NewRequest(http.MethodPost, "/user/refresh-cache", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.RefreshResponse
	decodeBody(t, rec.Body.Bytes(), &resp)
	assert.Equal(t, "Cache refreshed successfully. Next requests will fetch fresh data.", resp.Message)
	assert.False(t, resp.RefreshedAt.IsZero())

	assert.Equal(t, []string{"user-1"}, views.invalidated)
}
