package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-connect/internal/domain"
)

// UserRepository define el contrato de persistencia para cuentas.
// Todas las lecturas filtran cuentas inactivas.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Update(ctx context.Context, user domain.User) error
	MarkVerified(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
	RecordLogin(ctx context.Context, id string, at time.Time) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, password_hash, first_name, last_name, full_name, bio, phone,
	major, year_of_study, user_role, profile_picture_url, profile_picture_filename,
	is_active, is_verified, created_at, updated_at, last_login`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.FullName,
		user.Bio,
		user.Phone,
		user.Major,
		user.YearOfStudy,
		string(user.Role),
		user.ProfilePictureURL,
		user.ProfilePictureFilename,
		user.IsActive,
		user.IsVerified,
		user.CreatedAt,
		user.UpdatedAt,
		user.LastLogin,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active = TRUE`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active = TRUE`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) Update(ctx context.Context, user domain.User) error {
	const query = `
		UPDATE users
		SET password_hash = $2, first_name = $3, last_name = $4, full_name = $5, bio = $6,
			phone = $7, major = $8, year_of_study = $9, user_role = $10,
			profile_picture_url = $11, profile_picture_filename = $12, updated_at = $13
		WHERE id = $1 AND is_active = TRUE
	`
	tag, err := r.pool.Exec(ctx, query,
		user.ID,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.FullName,
		user.Bio,
		user.Phone,
		user.Major,
		user.YearOfStudy,
		string(user.Role),
		user.ProfilePictureURL,
		user.ProfilePictureFilename,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) MarkVerified(ctx context.Context, id string, at time.Time) error {
	return r.execOne(ctx, `UPDATE users SET is_verified = TRUE, updated_at = $2 WHERE id = $1 AND is_active = TRUE`, id, at)
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1 AND is_active = TRUE`, id, passwordHash, at)
}

func (r *PgUserRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	return r.execOne(ctx, `UPDATE users SET last_login = $2 WHERE id = $1 AND is_active = TRUE`, id, at)
}

func (r *PgUserRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.FullName,
		&u.Bio,
		&u.Phone,
		&u.Major,
		&u.YearOfStudy,
		&role,
		&u.ProfilePictureURL,
		&u.ProfilePictureFilename,
		&u.IsActive,
		&u.IsVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLogin,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	u.Role = domain.UserRole(role)
	return u, err
}
