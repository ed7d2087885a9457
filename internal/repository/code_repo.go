package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-connect/internal/domain"
)

// CodeRepository persiste codigos de un solo uso.
type CodeRepository interface {
	Create(ctx context.Context, code domain.OneTimeCode) error
	// LatestUnused devuelve el codigo mas reciente no consumido para (cuenta, proposito).
	LatestUnused(ctx context.Context, userID string, purpose domain.CodePurpose) (domain.OneTimeCode, error)
	// IncrementAttempts suma un intento solo si el codigo sigue sin usar y con
	// intentos disponibles; si no, devuelve ErrCodeSpent.
	IncrementAttempts(ctx context.Context, id string) (int, error)
	// MarkUsed consume el codigo una sola vez; la segunda llamada devuelve ErrCodeSpent.
	MarkUsed(ctx context.Context, id string, at time.Time) error
	// InvalidateActive consume todos los codigos vivos de (cuenta, proposito).
	InvalidateActive(ctx context.Context, userID string, purpose domain.CodePurpose, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type PgCodeRepository struct {
	pool *pgxpool.Pool
}

func NewPgCodeRepository(pool *pgxpool.Pool) *PgCodeRepository {
	return &PgCodeRepository{pool: pool}
}

func (r *PgCodeRepository) Create(ctx context.Context, code domain.OneTimeCode) error {
	const query = `
		INSERT INTO otp_codes (id, user_id, code_hash, purpose, expires_at, is_used, attempts, max_attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		code.ID,
		code.UserID,
		code.CodeHash,
		string(code.Purpose),
		code.ExpiresAt,
		code.IsUsed,
		code.Attempts,
		code.MaxAttempts,
		code.CreatedAt,
	)
	return err
}

func (r *PgCodeRepository) LatestUnused(ctx context.Context, userID string, purpose domain.CodePurpose) (domain.OneTimeCode, error) {
	const query = `
		SELECT id, user_id, code_hash, purpose, expires_at, is_used, attempts, max_attempts, created_at, used_at
		FROM otp_codes
		WHERE user_id = $1 AND purpose = $2 AND is_used = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`
	var (
		c       domain.OneTimeCode
		purpStr string
	)
	err := r.pool.QueryRow(ctx, query, userID, string(purpose)).Scan(
		&c.ID,
		&c.UserID,
		&c.CodeHash,
		&purpStr,
		&c.ExpiresAt,
		&c.IsUsed,
		&c.Attempts,
		&c.MaxAttempts,
		&c.CreatedAt,
		&c.UsedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.OneTimeCode{}, err
	}
	c.Purpose = domain.CodePurpose(purpStr)
	return c, err
}

func (r *PgCodeRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	const query = `
		UPDATE otp_codes
		SET attempts = attempts + 1
		WHERE id = $1 AND is_used = FALSE AND attempts < max_attempts
		RETURNING attempts
	`
	var attempts int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrCodeSpent
		}
		return 0, err
	}
	return attempts, nil
}

func (r *PgCodeRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE otp_codes SET is_used = TRUE, used_at = $2 WHERE id = $1 AND is_used = FALSE`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCodeSpent
	}
	return nil
}

func (r *PgCodeRepository) InvalidateActive(ctx context.Context, userID string, purpose domain.CodePurpose, at time.Time) error {
	const query = `
		UPDATE otp_codes
		SET is_used = TRUE, used_at = $3
		WHERE user_id = $1 AND purpose = $2 AND is_used = FALSE
	`
	_, err := r.pool.Exec(ctx, query, userID, string(purpose), at)
	return err
}

func (r *PgCodeRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM otp_codes WHERE expires_at < $1 OR is_used = TRUE`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
