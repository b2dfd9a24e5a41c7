package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/codyssey/codyssey/internal/database/models"
	"github.com/codyssey/codyssey/internal/rest/middleware/auth"
	"github.com/codyssey/codyssey/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// UserHandler serves the unified views and profile updates for the
// authenticated user.
type UserHandler struct {
	users  UserStore
	views  ViewProvider
	logger *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users UserStore, views ViewProvider, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		views:  views,
		logger: logger.Named("user_handler"),
	}
}

// GetStats serves the unified stats summary.
func (h *UserHandler) GetStats(w http.ResponseWriter, req bunrouter.Request) error {
	userID, ok := auth.UserIDFromContext(req.Context())
	if !ok {
		return writeJSON(w, http.StatusUnauthorized, types.MessageResponse{Message: "No token, authorization denied"})
	}

	view, err := h.views.Stats(req.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return writeJSON(w, http.StatusNotFound, types.MessageResponse{Message: "User not found."})
		}

		h.logger.Error("Failed to build stats view", zap.Error(err))

		return writeJSON(w, http.StatusInternalServerError, types.MessageResponse{Message: "Server error while fetching stats."})
	}

	return bunrouter.JSON(w, view)
}

// GetPracticeProblems serves the randomized practice-problem suggestions.
func (h *UserHandler) GetPracticeProblems(w http.ResponseWriter, req bunrouter.Request) error {
	userID, ok := auth.UserIDFromContext(req.Context())
	if !ok {
		return writeJSON(w, http.StatusUnauthorized, types.MessageResponse{Message: "No token, authorization denied"})
	}

	view, err := h.views.PracticeProblems(req.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return writeJSON(w, http.StatusNotFound, types.MessageResponse{Message: "User not found."})
		}

		h.logger.Error("Failed to build practice problems view", zap.Error(err))

		return writeJSON(w, http.StatusInternalServerError, types.MessageResponse{Message: "Server error while fetching practice problems."})
	}

	return bunrouter.JSON(w, view)
}

// GetActivityData serves the merged activity calendar.
func (h *UserHandler) GetActivityData(w http.ResponseWriter, req bunrouter.Request) error {
	userID, ok := auth.UserIDFromContext(req.Context())
	if !ok {
		return writeJSON(w, http.StatusUnauthorized, types.MessageResponse{Message: "No token, authorization denied"})
	}

	view, err := h.views.Activity(req.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return writeJSON(w, http.StatusNotFound, types.MessageResponse{Message: "User not found."})
		}

		h.logger.Error("Failed to build activity view", zap.Error(err))

		return writeJSON(w, http.StatusInternalServerError, types.MessageResponse{Message: "Server error while fetching activity data."})
	}

	return bunrouter.JSON(w, view)
}

// UpdateHandles updates the platform handles and invalidates every cached
// view for the user, since the source data they were built from changed.
func (h *UserHandler) UpdateHandles(w http.ResponseWriter, req bunrouter.Request) error {
	userID, ok := auth.UserIDFromContext(req.Context())
	if !ok {
		return writeJSON(w, http.StatusUnauthorized, types.MessageResponse{Message: "No token, authorization denied"})
	}

	var body types.HandlesRequest
	if err := sonic.ConfigDefault.NewDecoder(req.Body).Decode(&body); err != nil {
		return writeJSON(w, http.StatusBadRequest, types.MessageResponse{Message: "Invalid request body"})
	}

	user, err := h.users.UpdateHandles(req.Context(), userID, body.LeetcodeUsername, body.CodeforcesHandle)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return writeJSON(w, http.StatusNotFound, types.MessageResponse{Message: "User not found"})
		}

		h.logger.Error("Failed to update handles", zap.Error(err))

		return writeJSON(w, http.StatusInternalServerError, types.MessageResponse{Message: "Server Error when saving handles"})
	}

	h.views.InvalidateUser(req.Context(), userID)

	return bunrouter.JSON(w, types.HandlesResponse{
		Message:          "Handles updated successfully!",
		LeetcodeUsername: user.LeetCodeUsername,
		CodeforcesHandle: user.CodeforcesHandle,
	})
}

// RefreshCache clears all cached views so the next reads recompute.
func (h *UserHandler) RefreshCache(w http.ResponseWriter, req bunrouter.Request) error {
	userID, ok := auth.UserIDFromContext(req.Context())
	if !ok {
		return writeJSON(w, http.StatusUnauthorized, types.MessageResponse{Message: "No token, authorization denied"})
	}

	h.views.InvalidateUser(req.Context(), userID)

	return bunrouter.JSON(w, types.RefreshResponse{
		Message:     "Cache refreshed successfully. Next requests will fetch fresh data.",
		RefreshedAt: time.Now().UTC(),
	})
}
