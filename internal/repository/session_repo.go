package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-connect/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetActiveByToken(ctx context.Context, token string) (domain.Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Deactivate(ctx context.Context, id string) error
	// DeactivateAllForUser devuelve los ids de las sesiones cerradas.
	DeactivateAllForUser(ctx context.Context, userID string) ([]string, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) Create(ctx context.Context, session domain.Session) error {
	const query = `
		INSERT INTO user_sessions (id, user_id, session_token, expires_at, is_active, user_agent, ip_address, created_at, last_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt,
		session.IsActive,
		session.UserAgent,
		session.IPAddress,
		session.CreatedAt,
		session.LastUsed,
	)
	return err
}

func (r *PgSessionRepository) GetActiveByToken(ctx context.Context, token string) (domain.Session, error) {
	const query = `
		SELECT id, user_id, session_token, expires_at, is_active, user_agent, ip_address, created_at, last_used
		FROM user_sessions
		WHERE session_token = $1 AND is_active = TRUE
	`
	var session domain.Session
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.ExpiresAt,
		&session.IsActive,
		&session.UserAgent,
		&session.IPAddress,
		&session.CreatedAt,
		&session.LastUsed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, err
	}
	return session, err
}

func (r *PgSessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE user_sessions SET last_used = $2 WHERE id = $1`, id, at)
	return err
}

func (r *PgSessionRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE user_sessions SET is_active = FALSE WHERE id = $1 AND is_active = TRUE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgSessionRepository) DeactivateAllForUser(ctx context.Context, userID string) ([]string, error) {
	const query = `
		UPDATE user_sessions
		SET is_active = FALSE
		WHERE user_id = $1 AND is_active = TRUE
		RETURNING id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *PgSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at < $1 OR is_active = FALSE`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
