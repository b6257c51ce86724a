package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when an insert loses the unique-email
	// race. The store enforces uniqueness, not the application.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidResetToken is returned when a reset token is unknown,
	// expired, or already used.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

// UserRepository defines the persistence interface for user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, u *User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// ResetTokenRepository defines the persistence interface for password reset
// tokens.
type ResetTokenRepository interface {
	Create(ctx context.Context, t *ResetToken) error
	// Consume atomically marks the token used and replaces the owner's
	// password hash. Returns ErrInvalidResetToken when the token is
	// unknown, expired, or already used.
	Consume(ctx context.Context, tokenHash, newPasswordHash string) error
}
