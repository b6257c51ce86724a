package account

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisense/medisense/internal/platform/auth"
	"github.com/medisense/medisense/internal/platform/httperr"
)

const (
	demoEmail       = "demo@medicine.com"
	resetTokenTTL   = time.Hour
	resetTokenBytes = 32
)

var emailRE = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// Service implements registration, login and profile management for users.
// It also acts as the auth.UserVerifier consulted on every bearer token.
type Service struct {
	users       UserRepository
	resets      ResetTokenRepository
	issuer      *auth.TokenIssuer
	demoEnabled bool
	logger      zerolog.Logger
}

func NewService(users UserRepository, resets ResetTokenRepository, issuer *auth.TokenIssuer, demoEnabled bool, logger zerolog.Logger) *Service {
	return &Service{
		users:       users,
		resets:      resets,
		issuer:      issuer,
		demoEnabled: demoEnabled,
		logger:      logger.With().Str("component", "account").Logger(),
	}
}

type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))

	switch {
	case in.FirstName == "":
		return nil, httperr.Validation("first_name is required")
	case in.LastName == "":
		return nil, httperr.Validation("last_name is required")
	case in.Email == "":
		return nil, httperr.Validation("email is required")
	case !emailRE.MatchString(in.Email):
		return nil, httperr.Validation("invalid email format")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = auth.RolePatient
	}
	if in.Role != auth.RolePatient && in.Role != auth.RoleDoctor {
		return nil, httperr.Validation("role must be one of: patient, doctor")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, httperr.Validation("user with this email already exists")
		}
		return nil, err
	}

	s.logger.Info().Str("user_id", u.ID.String()).Str("role", u.Role).Msg("user registered")
	return s.issueFor(ctx, u)
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, httperr.Validation("email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, httperr.Auth("invalid email or password")
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, httperr.Auth("invalid email or password")
	}
	if !u.IsActive {
		return nil, httperr.Auth("account is deactivated")
	}

	return s.issueFor(ctx, u)
}

// DemoLogin signs in the shared demonstration account without a password.
// The endpoint is disabled unless explicitly switched on in configuration.
func (s *Service) DemoLogin(ctx context.Context) (*AuthResult, error) {
	if !s.demoEnabled {
		return nil, httperr.Forbidden("demo login is disabled")
	}
	u, err := s.users.GetByEmail(ctx, demoEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, httperr.Unavailable("demo account is not provisioned")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, httperr.Auth("account is deactivated")
	}
	return s.issueFor(ctx, u)
}

func (s *Service) issueFor(ctx context.Context, u *User) (*AuthResult, error) {
	token, err := s.issuer.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateLastLogin(ctx, u.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", u.ID.String()).Msg("recording last login failed")
	}
	return &AuthResult{Token: token, User: u}, nil
}

func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, httperr.NotFound("user not found")
		}
		return nil, err
	}
	return u, nil
}

type ProfileUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Age       *int    `json:"age"`
	Gender    *string `json:"gender"`
	Phone     *string `json:"phone"`
}

func (u ProfileUpdate) empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Age == nil && u.Gender == nil && u.Phone == nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*User, error) {
	if upd.empty() {
		return nil, httperr.Validation("no valid fields to update")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, httperr.NotFound("user not found")
		}
		return nil, err
	}

	if upd.FirstName != nil {
		name := strings.TrimSpace(*upd.FirstName)
		if name == "" {
			return nil, httperr.Validation("first_name cannot be empty")
		}
		u.FirstName = name
	}
	if upd.LastName != nil {
		name := strings.TrimSpace(*upd.LastName)
		if name == "" {
			return nil, httperr.Validation("last_name cannot be empty")
		}
		u.LastName = name
	}
	if upd.Age != nil {
		if *upd.Age < 0 || *upd.Age > 150 {
			return nil, httperr.Validation("age must be between 0 and 150")
		}
		u.Age = upd.Age
	}
	if upd.Gender != nil {
		u.Gender = upd.Gender
	}
	if upd.Phone != nil {
		u.Phone = upd.Phone
	}

	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// RequestPasswordReset returns the same acknowledgement whether or not the
// email maps to an account, so callers cannot enumerate registered addresses.
// The raw token is returned for delivery; only its hash is stored.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", httperr.Validation("email is required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	t := &ResetToken{
		UserID:    u.ID,
		TokenHash: hashResetToken(token),
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := s.resets.Create(ctx, t); err != nil {
		return "", err
	}

	s.logger.Info().Str("user_id", u.ID.String()).Msg("password reset requested")
	return token, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return httperr.Validation("token is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.resets.Consume(ctx, hashResetToken(token), hash); err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			return httperr.Validation("invalid or expired reset token")
		}
		return err
	}
	return nil
}

// VerifyActive satisfies auth.UserVerifier so revoked or deactivated
// accounts are rejected even while their tokens are still unexpired.
func (s *Service) VerifyActive(ctx context.Context, id uuid.UUID) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httperr.Auth("invalid token")
		}
		return err
	}
	if !u.IsActive {
		return httperr.Auth("account is deactivated")
	}
	return nil
}

func validatePassword(pw string) error {
	if len(pw) < 6 {
		return httperr.Validation("password must be at least 6 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return httperr.Validation("password must contain at least one letter and one digit")
	}
	return nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
