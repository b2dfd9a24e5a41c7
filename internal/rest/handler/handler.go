// Package handler implements the REST endpoint handlers.
package handler

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/codyssey/codyssey/internal/database/models"
	"github.com/codyssey/codyssey/internal/merge"
)

// UserStore is the subset of user storage operations the handlers need.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateHandles(ctx context.Context, id, leetcode, codeforces string) (*models.User, error)
}

// ViewProvider is the orchestrator surface serving the unified views.
type ViewProvider interface {
	Stats(ctx context.Context, userID string) (merge.StatsView, error)
	PracticeProblems(ctx context.Context, userID string) (merge.SuggestionSet, error)
	Activity(ctx context.Context, userID string) (merge.ActivityView, error)
	InvalidateUser(ctx context.Context, userID string)
}

// writeJSON writes a JSON response with an explicit status code.
func writeJSON(w http.ResponseWriter, status int, value any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	return sonic.ConfigDefault.NewEncoder(w).Encode(value)
}
