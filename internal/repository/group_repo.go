package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-connect/internal/domain"
)

// GroupRepository persiste grupos y membresias.
type GroupRepository interface {
	List(ctx context.Context) ([]domain.Group, error)
	ListByCategory(ctx context.Context, category domain.GroupCategory) ([]domain.Group, error)
	GetByID(ctx context.Context, id string) (domain.Group, error)
	// Create inserta el grupo y, si creatorID no esta vacio, lo registra como primer miembro.
	Create(ctx context.Context, group domain.Group, creatorID string) error
	AddMember(ctx context.Context, groupID, userID, message string, at time.Time) (domain.Group, error)
	RemoveMember(ctx context.Context, groupID, userID string) (domain.Group, error)
	ListByMember(ctx context.Context, userID string) ([]domain.Group, error)
}

type PgGroupRepository struct {
	pool *pgxpool.Pool
}

func NewPgGroupRepository(pool *pgxpool.Pool) *PgGroupRepository {
	return &PgGroupRepository{pool: pool}
}

const groupSelect = `
	SELECT g.id, g.name, g.description, g.category, g.meeting_time, g.location, g.contact,
		g.image_url, g.tags,
		(SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id),
		g.is_active, g.created_at, g.updated_at
	FROM groups g
`

func (r *PgGroupRepository) List(ctx context.Context) ([]domain.Group, error) {
	return r.queryGroups(ctx, groupSelect+` WHERE g.is_active = TRUE ORDER BY g.name`)
}

func (r *PgGroupRepository) ListByCategory(ctx context.Context, category domain.GroupCategory) ([]domain.Group, error) {
	return r.queryGroups(ctx, groupSelect+` WHERE g.is_active = TRUE AND g.category = $1 ORDER BY g.name`, string(category))
}

func (r *PgGroupRepository) GetByID(ctx context.Context, id string) (domain.Group, error) {
	return scanGroup(r.pool.QueryRow(ctx, groupSelect+` WHERE g.id = $1 AND g.is_active = TRUE`, id))
}

func (r *PgGroupRepository) Create(ctx context.Context, group domain.Group, creatorID string) error {
	tags := group.Tags
	if tags == nil {
		tags = []string{}
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO groups (id, name, description, category, meeting_time, location, contact,
				image_url, tags, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			group.ID,
			group.Name,
			group.Description,
			string(group.Category),
			group.MeetingTime,
			group.Location,
			group.Contact,
			group.ImageURL,
			tags,
			group.IsActive,
			group.CreatedAt,
			group.UpdatedAt,
		)
		if err != nil || creatorID == "" {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO group_members (user_id, group_id, joined_at) VALUES ($1, $2, $3)`,
			creatorID, group.ID, group.CreatedAt,
		)
		return err
	})
}

func (r *PgGroupRepository) AddMember(ctx context.Context, groupID, userID, message string, at time.Time) (domain.Group, error) {
	if _, err := r.GetByID(ctx, groupID); err != nil {
		return domain.Group{}, err
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO group_members (user_id, group_id, message, joined_at) VALUES ($1, $2, $3, $4)`,
		userID, groupID, message, at,
	)
	if isUniqueViolation(err) {
		return domain.Group{}, ErrDuplicate
	}
	if err != nil {
		return domain.Group{}, err
	}
	return r.GetByID(ctx, groupID)
}

func (r *PgGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) (domain.Group, error) {
	if _, err := r.GetByID(ctx, groupID); err != nil {
		return domain.Group{}, err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return domain.Group{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Group{}, ErrNotMember
	}
	return r.GetByID(ctx, groupID)
}

func (r *PgGroupRepository) ListByMember(ctx context.Context, userID string) ([]domain.Group, error) {
	return r.queryGroups(ctx, groupSelect+`
		JOIN group_members j ON j.group_id = g.id
		WHERE j.user_id = $1 AND g.is_active = TRUE
		ORDER BY j.joined_at DESC`, userID)
}

func (r *PgGroupRepository) queryGroups(ctx context.Context, query string, args ...any) ([]domain.Group, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]domain.Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func scanGroup(row pgx.Row) (domain.Group, error) {
	var (
		g        domain.Group
		category string
	)
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Description,
		&category,
		&g.MeetingTime,
		&g.Location,
		&g.Contact,
		&g.ImageURL,
		&g.Tags,
		&g.MemberCount,
		&g.IsActive,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Group{}, err
	}
	g.Category = domain.GroupCategory(category)
	return g, err
}
