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

type GroupService struct {
	logger *zap.Logger
	groups repository.GroupRepository
	now    func() time.Time
}

func NewGroupService(logger *zap.Logger, groups repository.GroupRepository) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{logger: logger, groups: groups, now: time.Now}
}

type CreateGroupInput struct {
	Name        string
	Description string
	Category    string
	MeetingTime string
	Location    string
	Contact     string
	ImageURL    string
	Tags        []string
}

func (s *GroupService) List(ctx context.Context) ([]domain.Group, error) {
	return s.groups.List(ctx)
}

func (s *GroupService) ListByCategory(ctx context.Context, category string) ([]domain.Group, error) {
	c, ok := domain.ParseGroupCategory(strings.ToLower(strings.TrimSpace(category)))
	if !ok {
		return nil, ErrInvalidCategory
	}
	return s.groups.ListByCategory(ctx, c)
}

func (s *GroupService) Get(ctx context.Context, id string) (domain.Group, error) {
	if !validID(id) {
		return domain.Group{}, ErrGroupNotFound
	}
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.Group{}, ErrGroupNotFound
		}
		return domain.Group{}, err
	}
	return g, nil
}

// Create registra al creador como primer miembro.
func (s *GroupService) Create(ctx context.Context, userID string, in CreateGroupInput) (domain.Group, error) {
	category, ok := domain.ParseGroupCategory(strings.ToLower(strings.TrimSpace(in.Category)))
	if !ok {
		return domain.Group{}, ErrInvalidCategory
	}
	if !required(in.Name, in.Description, in.MeetingTime, in.Location, in.Contact) {
		return domain.Group{}, ErrInvalidInput
	}
	now := s.now().UTC()
	group := domain.Group{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		MeetingTime: strings.TrimSpace(in.MeetingTime),
		Location:    strings.TrimSpace(in.Location),
		Contact:     strings.TrimSpace(in.Contact),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Tags:        cleanTags(in.Tags),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.groups.Create(ctx, group, userID); err != nil {
		return domain.Group{}, fmt.Errorf("create group: %w", err)
	}
	if userID != "" {
		group.MemberCount = 1
	}
	s.logger.Info("group created", zap.String("group_id", group.ID), zap.String("user_id", userID))
	return group, nil
}

func (s *GroupService) Join(ctx context.Context, groupID, userID, message string) (domain.Group, error) {
	if !validID(groupID) {
		return domain.Group{}, ErrGroupNotFound
	}
	g, err := s.groups.AddMember(ctx, groupID, userID, strings.TrimSpace(message), s.now().UTC())
	if err != nil {
		return domain.Group{}, s.mapErr(err)
	}
	s.logger.Info("group joined", zap.String("group_id", groupID), zap.String("user_id", userID))
	return g, nil
}

func (s *GroupService) Leave(ctx context.Context, groupID, userID string) (domain.Group, error) {
	if !validID(groupID) {
		return domain.Group{}, ErrGroupNotFound
	}
	g, err := s.groups.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return domain.Group{}, s.mapErr(err)
	}
	return g, nil
}

func (s *GroupService) UserGroups(ctx context.Context, userID string) ([]domain.Group, error) {
	return s.groups.ListByMember(ctx, userID)
}

func (s *GroupService) mapErr(err error) error {
	switch {
	case repository.IsNotFound(err):
		return ErrGroupNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrAlreadyMember
	case errors.Is(err, repository.ErrNotMember):
		return ErrNotMember
	default:
		return err
	}
}
