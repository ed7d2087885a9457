package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-connect/internal/domain"
)

// EventRepository persiste eventos y las relaciones asistencia/guardado.
type EventRepository interface {
	List(ctx context.Context) ([]domain.Event, error)
	ListByCategory(ctx context.Context, category domain.EventCategory) ([]domain.Event, error)
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Create(ctx context.Context, event domain.Event) error
	// AddAttendee registra la asistencia respetando el cupo y devuelve el evento actualizado.
	AddAttendee(ctx context.Context, eventID, userID string, at time.Time) (domain.Event, error)
	RemoveAttendee(ctx context.Context, eventID, userID string) (domain.Event, error)
	Save(ctx context.Context, eventID, userID string, at time.Time) error
	Unsave(ctx context.Context, eventID, userID string) error
	Status(ctx context.Context, eventID, userID string) (domain.EventStatus, error)
	ListJoinedByUser(ctx context.Context, userID string) ([]domain.Event, error)
	ListSavedByUser(ctx context.Context, userID string) ([]domain.Event, error)
}

type PgEventRepository struct {
	pool *pgxpool.Pool
}

func NewPgEventRepository(pool *pgxpool.Pool) *PgEventRepository {
	return &PgEventRepository{pool: pool}
}

const eventSelect = `
	SELECT e.id, e.title, e.description, e.category, e.event_date, e.event_time, e.location,
		e.organizer, e.max_attendees,
		(SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = e.id),
		e.image_url, e.tags, e.is_active, e.created_at, e.updated_at
	FROM events e
`

func (r *PgEventRepository) List(ctx context.Context) ([]domain.Event, error) {
	return r.queryEvents(ctx, eventSelect+` WHERE e.is_active = TRUE ORDER BY e.event_date, e.created_at`)
}

func (r *PgEventRepository) ListByCategory(ctx context.Context, category domain.EventCategory) ([]domain.Event, error) {
	return r.queryEvents(ctx, eventSelect+` WHERE e.is_active = TRUE AND e.category = $1 ORDER BY e.event_date, e.created_at`, string(category))
}

func (r *PgEventRepository) GetByID(ctx context.Context, id string) (domain.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, eventSelect+` WHERE e.id = $1 AND e.is_active = TRUE`, id))
}

func (r *PgEventRepository) Create(ctx context.Context, event domain.Event) error {
	const query = `
		INSERT INTO events (id, title, description, category, event_date, event_time, location,
			organizer, max_attendees, image_url, tags, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	tags := event.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		string(event.Category),
		event.Date,
		event.Time,
		event.Location,
		event.Organizer,
		event.MaxAttendees,
		event.ImageURL,
		tags,
		event.IsActive,
		event.CreatedAt,
		event.UpdatedAt,
	)
	return err
}

// AddAttendee bloquea la fila del evento para que la comprobacion de cupo y el
// insert no se crucen con otra inscripcion concurrente.
func (r *PgEventRepository) AddAttendee(ctx context.Context, eventID, userID string, at time.Time) (domain.Event, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var maxAttendees int
		err := tx.QueryRow(ctx,
			`SELECT max_attendees FROM events WHERE id = $1 AND is_active = TRUE FOR UPDATE`, eventID,
		).Scan(&maxAttendees)
		if err != nil {
			return err
		}

		var joined bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM event_attendees WHERE event_id = $1 AND user_id = $2)`, eventID, userID,
		).Scan(&joined); err != nil {
			return fmt.Errorf("check attendance: %w", err)
		}
		if joined {
			return ErrDuplicate
		}

		var count int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM event_attendees WHERE event_id = $1`, eventID,
		).Scan(&count); err != nil {
			return fmt.Errorf("count attendees: %w", err)
		}
		if count >= maxAttendees {
			return ErrCapacityReached
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO event_attendees (user_id, event_id, joined_at) VALUES ($1, $2, $3)`, userID, eventID, at,
		)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	})
	if err != nil {
		return domain.Event{}, err
	}
	return r.GetByID(ctx, eventID)
}

func (r *PgEventRepository) RemoveAttendee(ctx context.Context, eventID, userID string) (domain.Event, error) {
	if _, err := r.GetByID(ctx, eventID); err != nil {
		return domain.Event{}, err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return domain.Event{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Event{}, ErrNotMember
	}
	return r.GetByID(ctx, eventID)
}

func (r *PgEventRepository) Save(ctx context.Context, eventID, userID string, at time.Time) error {
	if _, err := r.GetByID(ctx, eventID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO saved_events (user_id, event_id, saved_at) VALUES ($1, $2, $3)`, userID, eventID, at)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PgEventRepository) Unsave(ctx context.Context, eventID, userID string) error {
	if _, err := r.GetByID(ctx, eventID); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM saved_events WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotMember
	}
	return nil
}

func (r *PgEventRepository) Status(ctx context.Context, eventID, userID string) (domain.EventStatus, error) {
	const query = `
		SELECT
			EXISTS (SELECT 1 FROM event_attendees WHERE event_id = e.id AND user_id = $2),
			EXISTS (SELECT 1 FROM saved_events WHERE event_id = e.id AND user_id = $2)
		FROM events e
		WHERE e.id = $1 AND e.is_active = TRUE
	`
	status := domain.EventStatus{EventID: eventID}
	err := r.pool.QueryRow(ctx, query, eventID, userID).Scan(&status.IsJoined, &status.IsSaved)
	if err != nil {
		return domain.EventStatus{}, err
	}
	return status, nil
}

func (r *PgEventRepository) ListJoinedByUser(ctx context.Context, userID string) ([]domain.Event, error) {
	return r.queryEvents(ctx, eventSelect+`
		JOIN event_attendees j ON j.event_id = e.id
		WHERE j.user_id = $1 AND e.is_active = TRUE
		ORDER BY j.joined_at DESC`, userID)
}

func (r *PgEventRepository) ListSavedByUser(ctx context.Context, userID string) ([]domain.Event, error) {
	return r.queryEvents(ctx, eventSelect+`
		JOIN saved_events s ON s.event_id = e.id
		WHERE s.user_id = $1 AND e.is_active = TRUE
		ORDER BY s.saved_at DESC`, userID)
}

func (r *PgEventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (domain.Event, error) {
	var (
		e        domain.Event
		category string
	)
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&category,
		&e.Date,
		&e.Time,
		&e.Location,
		&e.Organizer,
		&e.MaxAttendees,
		&e.AttendeeCount,
		&e.ImageURL,
		&e.Tags,
		&e.IsActive,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Event{}, err
	}
	e.Category = domain.EventCategory(category)
	return e, err
}
