package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TooLazyToCreate/bucketlist/internal/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapPgError turns constraint violations into repository errors and wraps
// everything else.
func mapPgError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return ErrAlreadyExists
		case pgForeignKeyViolation:
			return ErrNotFound
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type userRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewUserRepository(logger *zap.Logger, db *sql.DB) UserRepository {
	return &userRepo{
		db:     db,
		logger: logger,
	}
}

// InsertIfAbsent relies on the unique index over lower(email); of two racing
// registrations only one row is written and the other sees ErrAlreadyExists.
func (r *userRepo) InsertIfAbsent(ctx context.Context, email, passwordHash string) (*model.User, error) {
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
	}
	query := `INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3)
		ON CONFLICT (lower(email)) DO NOTHING
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Email, user.PasswordHash).Scan(&user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadyExists
		}
		return nil, mapPgError(err)
	}
	return user, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, email, password_hash, created_at FROM users WHERE lower(email) = lower($1)`
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return user, nil
}

// Delete removes the user; bucketlists and items go with it through
// ON DELETE CASCADE.
func (r *userRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	return expectOneRow(res)
}

type PostgresRevocations struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRevocationRepository(logger *zap.Logger, db *sql.DB) *PostgresRevocations {
	return &PostgresRevocations{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresRevocations) Revoke(ctx context.Context, fingerprint string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO revoked_tokens (token_hash, expires_at) VALUES ($1, $2)
		ON CONFLICT (token_hash) DO NOTHING`, fingerprint, expiresAt.UTC())
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *PostgresRevocations) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	var revoked bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_hash = $1)`, fingerprint).Scan(&revoked)
	if err != nil {
		return false, mapPgError(err)
	}
	return revoked, nil
}

// DeleteExpired drops entries whose token would already fail on expiry.
func (r *PostgresRevocations) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, mapPgError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	if n > 0 {
		r.logger.Debug("Expired revocations have been deleted", zap.Int64("count", n))
	}
	return n, nil
}
