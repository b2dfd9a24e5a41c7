// Package models contains the database models and their operations.
package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codyssey/codyssey/internal/fetcher"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

var (
	// ErrUserNotFound indicates the identity does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates a signup with an already registered email.
	ErrEmailTaken = errors.New("user already exists")
)

// User is a registered account with its optional platform handles.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID               uuid.UUID `bun:"id,pk,type:uuid"`
	Email            string    `bun:"email,notnull,unique"`
	HashedPassword   string    `bun:"hashed_password,notnull"`
	LeetCodeUsername string    `bun:"leetcode_username,notnull,default:''"`
	CodeforcesHandle string    `bun:"codeforces_handle,notnull,default:''"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
	UpdatedAt        time.Time `bun:"updated_at,notnull"`
}

// UserModel handles database operations for user accounts.
type UserModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewUser creates a repository with database access for user accounts.
func NewUser(db *bun.DB, logger *zap.Logger) *UserModel {
	return &UserModel{
		db:     db,
		logger: logger.Named("db_user"),
	}
}

// Create inserts a new user. Returns ErrEmailTaken when the email is already
// registered.
func (m *UserModel) Create(ctx context.Context, user *User) error {
	exists, err := m.db.NewSelect().Model((*User)(nil)).
		Where("email = ?", user.Email).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing email: %w", err)
	}

	if exists {
		return ErrEmailTaken
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := m.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	m.logger.Debug("Created user", zap.String("userID", user.ID.String()))

	return nil
}

// GetByEmail retrieves a user by email.
func (m *UserModel) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User

	err := m.db.NewSelect().Model(&user).
		Where("email = ?", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetByID retrieves a user by its identity string.
func (m *UserModel) GetByID(ctx context.Context, id string) (*User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var user User

	err = m.db.NewSelect().Model(&user).
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &user, nil
}

// GetHandles resolves the platform handles for an identity.
func (m *UserModel) GetHandles(ctx context.Context, id string) (fetcher.Handles, error) {
	user, err := m.GetByID(ctx, id)
	if err != nil {
		return fetcher.Handles{}, err
	}

	return fetcher.Handles{
		LeetCode:   user.LeetCodeUsername,
		Codeforces: user.CodeforcesHandle,
	}, nil
}

// UpdateHandles updates the platform handles for an identity. An empty input
// keeps the previous value so a partial form submission never wipes a handle.
func (m *UserModel) UpdateHandles(ctx context.Context, id, leetcode, codeforces string) (*User, error) {
	user, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if leetcode != "" {
		user.LeetCodeUsername = leetcode
	}

	if codeforces != "" {
		user.CodeforcesHandle = codeforces
	}

	user.UpdatedAt = time.Now().UTC()

	_, err = m.db.NewUpdate().Model(user).
		Column("leetcode_username", "codeforces_handle", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update handles: %w", err)
	}

	m.logger.Debug("Updated platform handles", zap.String("userID", id))

	return user, nil
}
