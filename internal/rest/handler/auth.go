package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/codyssey/codyssey/internal/database/models"
	"github.com/codyssey/codyssey/internal/rest/types"
	"github.com/codyssey/codyssey/internal/setup/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenExpiry = 5 * time.Hour

// AuthHandler handles account registration and login.
type AuthHandler struct {
	users  UserStore
	config *config.Auth
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users UserStore, config *config.Auth, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		config: config,
		logger: logger.Named("auth_handler"),
	}
}

// Signup registers a new account.
func (h *AuthHandler) Signup(w http.ResponseWriter, req bunrouter.Request) error {
	var body types.SignupRequest
	if err := sonic.ConfigDefault.NewDecoder(req.Body).Decode(&body); err != nil {
		return writeJSON(w, http.StatusBadRequest, types.MessageResponse{Message: "Invalid request body"})
	}

	if body.Email == "" || body.Password == "" {
		return writeJSON(w, http.StatusBadRequest, types.MessageResponse{Message: "Email and password are required"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("Failed to hash password", zap.Error(err))
		return writeJSON(w, http.StatusInternalServerError, types.MessageResponse{Message: "Server error during signup"})
	}

	user := &models.User{
		Email:            body.Email,
		HashedPassword:   string(hashed),
		LeetCodeUsername: body.LeetcodeUsername,
		CodeforcesHandle: body.CodeforcesHandle,
	}

	if err := h.users.Create(req.Context(), user); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			return writeJSON(w, http.StatusBadRequest, types.MessageResponse{Message: "User already exists"})
		}

		h.logger.Error("Failed to create user", zap.Error(err))

		return writeJSON(w, http.StatusInternalServerError, types.MessageResponse{Message: "Server error during signup"})
	}

	return writeJSON(w, http.StatusCreated, types.MessageResponse{Message: "User registered successfully. Please login."})
}

// Login verifies credentials and issues a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, req bunrouter.Request) error {
	var body types.LoginRequest
	if err := sonic.ConfigDefault.NewDecoder(req.Body).Decode(&body); err != nil {
		return writeJSON(w, http.StatusBadRequest, types.MessageResponse{Message: "Invalid request body"})
	}

	user, err := h.users.GetByEmail(req.Context(), body.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return writeJSON(w, http.StatusBadRequest, types.MessageResponse{Message: "Invalid credentials (email not found)"})
		}

		h.logger.Error("Failed to look up user", zap.Error(err))

		return writeJSON(w, http.StatusInternalServerError, types.MessageResponse{Message: "Server error during login"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(body.Password)); err != nil {
		return writeJSON(w, http.StatusBadRequest, types.MessageResponse{Message: "Invalid credentials (password incorrect)"})
	}

	token, err := h.issueToken(user.ID.String())
	if err != nil {
		h.logger.Error("Failed to sign token", zap.Error(err))
		return writeJSON(w, http.StatusInternalServerError, types.MessageResponse{Message: "Server error during login"})
	}

	return bunrouter.JSON(w, types.LoginResponse{
		Token:            token,
		Email:            user.Email,
		LeetcodeUsername: user.LeetCodeUsername,
		CodeforcesHandle: user.CodeforcesHandle,
	})
}

// issueToken signs a session token carrying the identity as subject.
func (h *AuthHandler) issueToken(userID string) (string, error) {
	expiry := defaultTokenExpiry
	if h.config.TokenExpiryHours > 0 {
		expiry = time.Duration(h.config.TokenExpiryHours) * time.Hour
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.config.JWTSecret))
}
