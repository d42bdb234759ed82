// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/mystery-message/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	ExistsVerifiedByUsername(ctx context.Context, username string) (bool, error)
	ReclaimUnverified(ctx context.Context, id, username, passwordHash string) error
	MarkVerified(ctx context.Context, id string) error
	SetAcceptingMessages(ctx context.Context, id string, accepting bool) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	DeleteStaleUnverified(ctx context.Context, idleSince time.Time) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
}

const userColumns = `id, username, email, password_hash, is_verified,
		       is_accepting_messages, token_version, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, is_verified, is_accepting_messages)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING token_version, created_at, updated_at`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		user.IsAcceptingMessages,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	if !core.IsUUID(id) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return r.getOne(ctx, "get user", `WHERE id = $1`, id)
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	return r.getOne(ctx, "get user by username", `WHERE username = $1`, username)
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	return r.getOne(ctx, "get user by email", `WHERE email = $1`, email)
}

// GetByIdentifier resolves a sign-in identifier that may be either a
// username or an email address.
func (r *repository) GetByIdentifier(
	ctx context.Context,
	identifier string,
) (*User, error) {
	return r.getOne(ctx, "get user by identifier",
		`WHERE username = $1 OR email = lower($1)
		ORDER BY is_verified DESC
		LIMIT 1`,
		identifier,
	)
}

func (r *repository) getOne(
	ctx context.Context,
	op, where string,
	args ...any,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ` + where

	var user User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (r *repository) ExistsVerifiedByUsername(
	ctx context.Context,
	username string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND is_verified)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, fmt.Errorf("check username taken: %w", err)
	}

	return exists, nil
}

// ReclaimUnverified lets a repeat sign-up overwrite the credentials of an
// account that never completed verification.
func (r *repository) ReclaimUnverified(
	ctx context.Context,
	id, username, passwordHash string,
) error {
	query := `
		UPDATE users
		SET username = $2, password_hash = $3, updated_at = NOW()
		WHERE id = $1 AND NOT is_verified`

	result, err := r.db.ExecContext(ctx, query, id, username, passwordHash)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("reclaim user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("reclaim user: %w", err)
	}

	return expectRow(result, "reclaim user")
}

func (r *repository) MarkVerified(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET is_verified = TRUE, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}

	return expectRow(result, "mark verified")
}

func (r *repository) SetAcceptingMessages(
	ctx context.Context,
	id string,
	accepting bool,
) (*User, error) {
	if !core.IsUUID(id) {
		return nil, fmt.Errorf("set accepting messages: %w", core.ErrNotFound)
	}

	query := `
		UPDATE users
		SET is_accepting_messages = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, id, accepting)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set accepting messages: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set accepting messages: %w", err)
	}

	return &user, nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return expectRow(result, "update password")
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return expectRow(result, "increment token version")
}

// DeleteStaleUnverified removes unverified accounts untouched since
// idleSince. It keys on updated_at because a reclaim rewrites the row in
// place and only bumps updated_at.
func (r *repository) DeleteStaleUnverified(
	ctx context.Context,
	idleSince time.Time,
) (int64, error) {
	query := `DELETE FROM users WHERE NOT is_verified AND updated_at < $1`

	result, err := r.db.ExecContext(ctx, query, idleSince)
	if err != nil {
		return 0, fmt.Errorf("delete stale unverified users: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete stale unverified users: %w", err)
	}

	return rows, nil
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE is_verified) AS verified,
		       COUNT(*) FILTER (WHERE is_accepting_messages) AS accepting
		FROM users`

	var stats Stats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}

	return &stats, nil
}

func expectRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
