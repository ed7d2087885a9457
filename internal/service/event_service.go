package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campus-connect/internal/domain"
	"campus-connect/internal/repository"
)

type EventService struct {
	logger *zap.Logger
	events repository.EventRepository
	now    func() time.Time
}

func NewEventService(logger *zap.Logger, events repository.EventRepository) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{logger: logger, events: events, now: time.Now}
}

type CreateEventInput struct {
	Title        string
	Description  string
	Category     string
	Date         string
	Time         string
	Location     string
	Organizer    string
	MaxAttendees int
	ImageURL     string
	Tags         []string
}

// UserEvents agrupa los eventos a los que un usuario se inscribio y los que guardo.
type UserEvents struct {
	Joined []domain.Event `json:"joined_events"`
	Saved  []domain.Event `json:"saved_events"`
}

func (s *EventService) List(ctx context.Context) ([]domain.Event, error) {
	return s.events.List(ctx)
}

func (s *EventService) ListByCategory(ctx context.Context, category string) ([]domain.Event, error) {
	c, ok := domain.ParseEventCategory(strings.ToLower(strings.TrimSpace(category)))
	if !ok {
		return nil, ErrInvalidCategory
	}
	return s.events.ListByCategory(ctx, c)
}

func (s *EventService) Get(ctx context.Context, id string) (domain.Event, error) {
	if !validID(id) {
		return domain.Event{}, ErrEventNotFound
	}
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return domain.Event{}, s.mapErr(err)
	}
	return e, nil
}

func (s *EventService) Create(ctx context.Context, userID string, in CreateEventInput) (domain.Event, error) {
	category, ok := domain.ParseEventCategory(strings.ToLower(strings.TrimSpace(in.Category)))
	if !ok {
		return domain.Event{}, ErrInvalidCategory
	}
	if !required(in.Title, in.Description, in.Date, in.Time, in.Location, in.Organizer) || in.MaxAttendees <= 0 {
		return domain.Event{}, ErrInvalidInput
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(in.Date)); err != nil {
		return domain.Event{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	now := s.now().UTC()
	event := domain.Event{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Category:     category,
		Date:         strings.TrimSpace(in.Date),
		Time:         strings.TrimSpace(in.Time),
		Location:     strings.TrimSpace(in.Location),
		Organizer:    strings.TrimSpace(in.Organizer),
		MaxAttendees: in.MaxAttendees,
		ImageURL:     strings.TrimSpace(in.ImageURL),
		Tags:         cleanTags(in.Tags),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return domain.Event{}, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", zap.String("event_id", event.ID), zap.String("user_id", userID))
	return event, nil
}

func (s *EventService) Join(ctx context.Context, eventID, userID string) (domain.Event, error) {
	if !validID(eventID) {
		return domain.Event{}, ErrEventNotFound
	}
	e, err := s.events.AddAttendee(ctx, eventID, userID, s.now().UTC())
	if err != nil {
		return domain.Event{}, s.mapErr(err)
	}
	s.logger.Info("event joined", zap.String("event_id", eventID), zap.String("user_id", userID))
	return e, nil
}

func (s *EventService) Leave(ctx context.Context, eventID, userID string) (domain.Event, error) {
	if !validID(eventID) {
		return domain.Event{}, ErrEventNotFound
	}
	e, err := s.events.RemoveAttendee(ctx, eventID, userID)
	if err != nil {
		return domain.Event{}, s.mapErr(err)
	}
	return e, nil
}

func (s *EventService) Save(ctx context.Context, eventID, userID string) error {
	if !validID(eventID) {
		return ErrEventNotFound
	}
	err := s.events.Save(ctx, eventID, userID, s.now().UTC())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicate):
		return ErrAlreadySaved
	default:
		return s.mapErr(err)
	}
}

func (s *EventService) Unsave(ctx context.Context, eventID, userID string) error {
	if !validID(eventID) {
		return ErrEventNotFound
	}
	err := s.events.Unsave(ctx, eventID, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotMember):
		return ErrNotSaved
	default:
		return s.mapErr(err)
	}
}

func (s *EventService) Status(ctx context.Context, eventID, userID string) (domain.EventStatus, error) {
	if !validID(eventID) {
		return domain.EventStatus{}, ErrEventNotFound
	}
	st, err := s.events.Status(ctx, eventID, userID)
	if err != nil {
		return domain.EventStatus{}, s.mapErr(err)
	}
	return st, nil
}

func (s *EventService) UserEvents(ctx context.Context, userID string) (UserEvents, error) {
	joined, err := s.events.ListJoinedByUser(ctx, userID)
	if err != nil {
		return UserEvents{}, fmt.Errorf("list joined events: %w", err)
	}
	saved, err := s.events.ListSavedByUser(ctx, userID)
	if err != nil {
		return UserEvents{}, fmt.Errorf("list saved events: %w", err)
	}
	return UserEvents{Joined: joined, Saved: saved}, nil
}

func (s *EventService) mapErr(err error) error {
	switch {
	case repository.IsNotFound(err):
		return ErrEventNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrAlreadyJoined
	case errors.Is(err, repository.ErrCapacityReached):
		return ErrEventFull
	case errors.Is(err, repository.ErrNotMember):
		return ErrNotJoined
	default:
		return err
	}
}
