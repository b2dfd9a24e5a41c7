package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codyssey/codyssey/internal/database/models"
	"github.com/codyssey/codyssey/internal/rest/handler"
	"github.com/codyssey/codyssey/internal/rest/types"
	"github.com/codyssey/codyssey/internal/setup/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bunrouter"
	"golang.org/x/crypto/bcrypt"
)

const authTestSecret = "auth-test-secret"

func setupAuthRouter(t *testing.T, store *fakeUserStore) *bunrouter.Router {
	t.Helper()

	h := handler.NewAuthHandler(store, &config.Auth{
		JWTSecret:        authTestSecret,
		TokenExpiryHours: 5,
	}, testLogger(t))

	router := bunrouter.New()
	router.POST("/signup", h.Signup)
	router.POST("/login", h.Login)

	return router
}

func TestSignup(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	router := setupAuthRouter(t, store)

	body := `{"email":"alice@example.com","password":"hunter22","leetcodeUsername":"alice"}`
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp types.MessageResponse
	decodeBody(t, rec.Body.Bytes(), &resp)
	assert.Equal(t, "User registered successfully. Please login.", resp.Message)

	// The stored password is hashed, never plaintext.
	user, err := store.GetByEmail(t.Context(), "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", user.HashedPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("hunter22")))
	assert.Equal(t, "alice", user.LeetCodeUsername)
}

func TestSignupDuplicateEmail(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	store.add(&models.User{Email: "alice@example.com", HashedPassword: "x"})
	router := setupAuthRouter(t, store)

	body := `{"email":"alice@example.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp types.MessageResponse
	decodeBody(t, rec.Body.Bytes(), &resp)
	assert.Equal(t, "User already exists", resp.Message)
}

func TestSignupMissingFields(t *testing.T) {
	t.Parallel()

	router := setupAuthRouter(t, newFakeUserStore())

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email":"alice@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	hashed, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)
	require.NoError(t, err)

	store := newFakeUserStore()
	user := &models.User{
		Email:            "alice@example.com",
		HashedPassword:   string(hashed),
		LeetCodeUsername: "alice",
		CodeforcesHandle: "alice_cf",
	}
	store.add(user)

	router := setupAuthRouter(t, store)

	body := `{"email":"alice@example.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.LoginResponse
	decodeBody(t, rec.Body.Bytes(), &resp)
	assert.Equal(t, "alice@example.com", resp.Email)
	assert.Equal(t, "alice", resp.LeetcodeUsername)
	assert.Equal(t, "alice_cf", resp.CodeforcesHandle)

	// The token must verify against the configured secret and carry the
	// identity as subject.
	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (any, error) {
		return []byte(authTestSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)

	subject, err := token.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), subject)
}

func TestLoginUnknownEmail(t *testing.T) {
	t.Parallel()

	router := setupAuthRouter(t, newFakeUserStore())

	body := `{"email":"ghost@example.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp types.MessageResponse
	decodeBody(t, rec.Body.Bytes(), &resp)
	assert.Equal(t, "Invalid credentials (email not found)", resp.Message)
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	hashed, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)
	require.NoError(t, err)

	store := newFakeUserStore()
	store.add(&models.User{Email: "alice@example.com", HashedPassword: string(hashed)})

	router := setupAuthRouter(t, store)

	body := `{"email":"alice@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp types.MessageResponse
	decodeBody(t, rec.Body.Bytes(), &resp)
	assert.Equal(t, "Invalid credentials (password incorrect)", resp.Message)
}
