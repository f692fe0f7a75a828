package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrLockedOut          = errors.New("too many failed login attempts")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrEmailTaken         = errors.New("email already registered")
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	CreateReset(ctx context.Context, r *Reset) error
	GetReset(ctx context.Context, tokenHash string) (*Reset, error)
	// CompleteReset marks an unused reset as used and stores the new
	// password hash of its user in one transaction. It fails with
	// apperr.ErrNotFound when the reset was already consumed.
	CompleteReset(ctx context.Context, tokenHash, passwordHash string, at time.Time) error
}

// Lockout counts failed logins per key.
type Lockout interface {
	Locked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Clear(ctx context.Context, key string) error
}

// Notifier delivers password reset tokens to users.
type Notifier interface {
	SendPasswordReset(ctx context.Context, u *User, token string) error
}

type Service struct {
	repo     Repository
	lockout  Lockout
	notifier Notifier
	tokens   *TokenIssuer
	resetTTL time.Duration
	now      func() time.Time
}

func NewService(repo Repository, lockout Lockout, notifier Notifier, tokens *TokenIssuer, resetTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		lockout:  lockout,
		notifier: notifier,
		tokens:   tokens,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

type CreateParams struct {
	Email     string `json:"email" validate:"required,max=254,email"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Password  string `json:"password" validate:"required"`
	Superuser bool   `json:"is_superuser"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) CreateUser(ctx context.Context, who audit.Identity, params CreateParams) (*User, error) {
	if !who.Superuser {
		return nil, apperr.ErrForbidden
	}

	params.Email = normalizeEmail(params.Email)
	params.FirstName = strings.TrimSpace(params.FirstName)
	params.LastName = strings.TrimSpace(params.LastName)

	if err := validation.Struct(params); err != nil {
		return nil, err
	}

	if err := ValidatePassword(params.Password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: hash,
		IsSuperuser:  params.Superuser,
		Record:       audit.New(who, s.now()),
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Login checks credentials and issues a bearer token. Unknown emails,
// wrong passwords and inactive accounts fail alike.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	locked, err := s.lockout.Locked(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking lockout: %w", err)
	}

	if locked {
		slog.Warn("login locked out", "email", email)
		return nil, ErrLockedOut
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	if u == nil || !u.Active || !CheckPassword(u.PasswordHash, password) {
		if err := s.lockout.RecordFailure(ctx, email); err != nil {
			slog.Error("failed to record login failure", "error", err)
		}

		return nil, ErrInvalidCredentials
	}

	if err := s.lockout.Clear(ctx, email); err != nil {
		slog.Error("failed to clear login failures", "error", err)
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}

	u.LastLogin = &now

	token, expires, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, ExpiresAt: expires, User: u}, nil
}

// Verify resolves a bearer token to the acting identity. The account is
// reloaded so a deactivated user is refused and the superuser flag is the
// current one, not the one at login.
func (s *Service) Verify(ctx context.Context, token string) (audit.Identity, error) {
	claimed, err := s.tokens.Verify(token)
	if err != nil {
		return audit.Identity{}, err
	}

	u, err := s.repo.GetUser(ctx, claimed.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return audit.Identity{}, fmt.Errorf("%w: unknown user", apperr.ErrUnauthorized)
	}

	if err != nil {
		return audit.Identity{}, err
	}

	if !u.Active {
		return audit.Identity{}, fmt.Errorf("%w: account disabled", apperr.ErrUnauthorized)
	}

	return u.Identity(), nil
}

// RequestPasswordReset sends a reset token to the account's owner. It
// reports success for unknown or inactive emails, so the response never
// reveals which accounts exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	if !u.Active {
		return nil
	}

	token, hash, err := newResetToken()
	if err != nil {
		return err
	}

	reset := &Reset{TokenHash: hash, UserID: u.ID, ExpiresAt: s.now().Add(s.resetTTL)}
	if err := s.repo.CreateReset(ctx, reset); err != nil {
		return err
	}

	if err := s.notifier.SendPasswordReset(ctx, u, token); err != nil {
		return fmt.Errorf("sending password reset: %w", err)
	}

	slog.Info("password reset requested", "user_id", u.ID)

	return nil
}

// ResetPassword sets a new password using a token from
// RequestPasswordReset. A token works once.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}

	hash := hashToken(token)

	reset, err := s.repo.GetReset(ctx, hash)
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrInvalidResetToken
	}

	if err != nil {
		return err
	}

	now := s.now()
	if reset.UsedAt != nil || !now.Before(reset.ExpiresAt) {
		return ErrInvalidResetToken
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return err
	}

	err = s.repo.CompleteReset(ctx, hash, passwordHash, now)
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrInvalidResetToken
	}

	if err != nil {
		return err
	}

	slog.Info("password reset", "user_id", reset.UserID)

	return nil
}
