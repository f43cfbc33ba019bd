package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	authgate "github.com/tmarev/authgate"
	"github.com/tmarev/authgate/token"
)

// GetUserByEmail implements authgate.UserProvider. Emails are stored
// lowercased; lookup is exact.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (authgate.UserRecord, bool, error) {
	const query = `
		SELECT id, email, full_name, password_hash, verified, created_at, updated_at
		FROM users WHERE email = $1`

	return s.scanUser(ctx, query, email)
}

// GetUserByID implements authgate.UserProvider.
func (s *Store) GetUserByID(ctx context.Context, userID string) (authgate.UserRecord, bool, error) {
	const query = `
		SELECT id, email, full_name, password_hash, verified, created_at, updated_at
		FROM users WHERE id = $1`

	return s.scanUser(ctx, query, userID)
}

func (s *Store) scanUser(ctx context.Context, query string, arg any) (authgate.UserRecord, bool, error) {
	var user authgate.UserRecord
	err := s.q(ctx).QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.Verified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authgate.UserRecord{}, false, nil
		}
		return authgate.UserRecord{}, false, fmt.Errorf("pgstore: get user: %w", err)
	}

	roles, err := s.roleNames(ctx, user.ID)
	if err != nil {
		return authgate.UserRecord{}, false, err
	}
	user.Roles = roles

	return user, true, nil
}

// CreateUser implements authgate.UserProvider.
func (s *Store) CreateUser(ctx context.Context, input authgate.CreateUserInput) (authgate.UserRecord, error) {
	const query = `
		INSERT INTO users (id, email, full_name, password_hash, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, false, $5, $5)
		RETURNING id, email, full_name, password_hash, verified, created_at, updated_at`

	var user authgate.UserRecord
	err := s.q(ctx).QueryRow(ctx, query,
		token.NewID(), input.Email, input.FullName, input.PasswordHash, s.now(),
	).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.Verified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return authgate.UserRecord{}, fmt.Errorf("pgstore: create user: %w", err)
	}
	return user, nil
}

// UpdatePasswordHash implements authgate.UserProvider.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`

	tag, err := s.q(ctx).Exec(ctx, query, userID, newHash, s.now())
	if err != nil {
		return fmt.Errorf("pgstore: update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authgate.ErrUserNotFound
	}
	return nil
}

// MarkVerified implements authgate.UserProvider. Idempotent at the SQL
// level; the engine rejects re-verification before calling.
func (s *Store) MarkVerified(ctx context.Context, userID string) error {
	const query = `UPDATE users SET verified = true, updated_at = $2 WHERE id = $1`

	tag, err := s.q(ctx).Exec(ctx, query, userID, s.now())
	if err != nil {
		return fmt.Errorf("pgstore: mark verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authgate.ErrUserNotFound
	}
	return nil
}

// RecordLogin implements authgate.ActivityRecorder.
func (s *Store) RecordLogin(ctx context.Context, userID, origin string, at time.Time) error {
	const query = `UPDATE users SET last_login_at = $2, last_login_origin = $3, last_online_at = $2 WHERE id = $1`

	tag, err := s.q(ctx).Exec(ctx, query, userID, at, origin)
	if err != nil {
		return fmt.Errorf("pgstore: record login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authgate.ErrUserNotFound
	}
	return nil
}

// RecordLogout implements authgate.ActivityRecorder.
func (s *Store) RecordLogout(ctx context.Context, userID string, at time.Time) error {
	const query = `UPDATE users SET last_online_at = $2 WHERE id = $1`

	tag, err := s.q(ctx).Exec(ctx, query, userID, at)
	if err != nil {
		return fmt.Errorf("pgstore: record logout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authgate.ErrUserNotFound
	}
	return nil
}

// DeleteUser removes the user row. Role assignments and tokens go with it
// via ON DELETE CASCADE.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("pgstore: delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authgate.ErrUserNotFound
	}
	return nil
}
