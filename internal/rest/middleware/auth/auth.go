// Package auth verifies session tokens and injects the caller identity into
// the request context. The view pipeline itself never verifies credentials.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v5"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

var errUnexpectedSigningMethod = errors.New("unexpected signing method")

type userIDCtxKey struct{}

// UserIDFromContext retrieves the verified identity from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDCtxKey{}).(string)
	return id, ok
}

// WithUserID stores a verified identity in the context. Exposed for handler
// tests that bypass the middleware.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDCtxKey{}, id)
}

// Middleware handles token verification for protected routes.
type Middleware struct {
	secret []byte
	logger *zap.Logger
}

// New creates a new auth middleware with the given signing secret.
func New(secret string, logger *zap.Logger) *Middleware {
	return &Middleware{
		secret: []byte(secret),
		logger: logger.Named("auth"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware that rejects requests
// without a valid bearer token.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		tokenString := bearerToken(req.Request)
		if tokenString == "" {
			return m.unauthorized(w, "No token, authorization denied")
		}

		userID, err := m.verify(tokenString)
		if err != nil {
			m.logger.Debug("Rejected invalid token", zap.Error(err))
			return m.unauthorized(w, "Token is not valid")
		}

		return next(w, req.WithContext(WithUserID(req.Context(), userID)))
	}
}

// verify parses the token and returns its subject.
func (m *Middleware) verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnexpectedSigningMethod
		}

		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	return token.Claims.GetSubject()
}

func (m *Middleware) unauthorized(w http.ResponseWriter, message string) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)

	return sonic.ConfigDefault.NewEncoder(w).Encode(map[string]string{"message": message})
}

// bearerToken extracts the token from the Authorization header. The legacy
// x-auth-token header is accepted as a fallback for older frontend builds.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}

	return r.Header.Get("x-auth-token")
}
