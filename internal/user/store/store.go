package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/database"
	"github.com/entreprenapp/backoffice/internal/user"
)

const userColumns = `id, email, first_name, last_name, password_hash, is_superuser, last_login,
	is_active, created_at, created_by, modified_at, modified_by, deleted_at, deleted_by`

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*user.User, error) {
	var u user.User

	dest := append([]any{
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.IsSuperuser, &u.LastLogin,
	}, u.Record.ScanTargets()...)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, first_name, last_name, password_hash, is_superuser, is_active, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		u.Email,
		u.FirstName,
		u.LastName,
		u.PasswordHash,
		u.IsSuperuser,
		u.Active,
		u.CreatedAt,
		u.CreatedBy,
	).Scan(&u.ID)
	if database.IsUniqueViolation(err, "users_email_key") {
		return user.ErrEmailTaken
	}

	return database.Wrap(err, "creating user")
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, database.Wrap(err, "getting user")
	}

	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, database.Wrap(err, "getting user by email")
	}

	return u, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		return database.Wrap(err, "updating last login")
	}

	return database.ExpectOne(res, "updating last login")
}

func (s *Store) CreateReset(ctx context.Context, r *user.Reset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, r.TokenHash, r.UserID, r.ExpiresAt)

	return database.Wrap(err, "creating password reset")
}

func (s *Store) GetReset(ctx context.Context, tokenHash string) (*user.Reset, error) {
	var r user.Reset

	err := s.db.QueryRowContext(ctx, `
		SELECT token_hash, user_id, expires_at, used_at FROM password_resets WHERE token_hash = $1
	`, tokenHash).Scan(&r.TokenHash, &r.UserID, &r.ExpiresAt, &r.UsedAt)
	if err != nil {
		return nil, database.Wrap(err, "getting password reset")
	}

	return &r, nil
}

// CompleteReset only matches unused resets so two concurrent uses of the
// same token cannot both succeed. The token stays usable if the password
// update fails.
func (s *Store) CompleteReset(ctx context.Context, tokenHash, passwordHash string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var userID uuid.UUID

	err = tx.QueryRowContext(ctx, `
		UPDATE password_resets SET used_at = $1
		WHERE token_hash = $2 AND used_at IS NULL
		RETURNING user_id
	`, at, tokenHash).Scan(&userID)
	if err != nil {
		return database.Wrap(err, "consuming password reset")
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE users SET password_hash = $1, modified_at = $2, modified_by = $3 WHERE id = $3
	`, passwordHash, at, userID)
	if err != nil {
		return database.Wrap(err, "updating password")
	}

	if err := database.ExpectOne(res, "updating password"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing password reset: %w", err)
	}

	return nil
}
