package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campus-connect/internal/domain"
	"campus-connect/internal/repository"
)

type ProfileConfig struct {
	UploadDir      string
	UploadURLPath  string
	MaxUploadBytes int64
}

type ProfileService struct {
	logger *zap.Logger
	users  repository.UserRepository
	posts  repository.PostRepository
	events repository.EventRepository
	groups repository.GroupRepository
	cfg    ProfileConfig
	now    func() time.Time
}

func NewProfileService(
	logger *zap.Logger,
	users repository.UserRepository,
	posts repository.PostRepository,
	events repository.EventRepository,
	groups repository.GroupRepository,
	cfg ProfileConfig,
) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 << 20
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads/profile_pictures"
	}
	if cfg.UploadURLPath == "" {
		cfg.UploadURLPath = "/uploads/profile_pictures"
	}
	return &ProfileService{
		logger: logger,
		users:  users,
		posts:  posts,
		events: events,
		groups: groups,
		cfg:    cfg,
		now:    time.Now,
	}
}

// ProfileUpdate es una actualizacion parcial: los campos nil no se tocan.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Bio         *string
	Phone       *string
	Major       *string
	YearOfStudy *string
}

// PublicProfile es lo que ve cualquier usuario de otra cuenta.
type PublicProfile struct {
	ID                string          `json:"user_id"`
	FullName          string          `json:"full_name"`
	Bio               string          `json:"bio,omitempty"`
	Major             string          `json:"major"`
	YearOfStudy       string          `json:"year_of_study"`
	Role              domain.UserRole `json:"user_role"`
	ProfilePictureURL string          `json:"profile_picture,omitempty"`
	PostsCount        int             `json:"posts_count"`
	EventsCount       int             `json:"events_count"`
	GroupsCount       int             `json:"groups_count"`
	JoinedAt          time.Time       `json:"joined_at"`
}

func (s *ProfileService) Get(ctx context.Context, userID string) (domain.User, error) {
	if !validID(userID) {
		return domain.User{}, ErrUserNotFound
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileUpdate) (domain.User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	apply := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	apply(&u.FirstName, in.FirstName)
	apply(&u.LastName, in.LastName)
	apply(&u.Bio, in.Bio)
	apply(&u.Phone, in.Phone)
	apply(&u.Major, in.Major)
	apply(&u.YearOfStudy, in.YearOfStudy)
	if u.FirstName == "" || u.LastName == "" {
		return domain.User{}, ErrInvalidInput
	}
	u.ComposeFullName()
	u.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, u); err != nil {
		if repository.IsNotFound(err) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// UploadPicture valida, redimensiona y guarda la foto; la anterior se borra del disco.
func (s *ProfileService) UploadPicture(ctx context.Context, userID, filename string, r io.Reader) (domain.User, error) {
	if !allowedPictureExt(filename) {
		return domain.User{}, ErrUnsupportedImageType
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	data, err := readLimited(r, s.cfg.MaxUploadBytes)
	if err != nil {
		return domain.User{}, err
	}
	out, err := processPicture(data)
	if err != nil {
		return domain.User{}, err
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return domain.User{}, fmt.Errorf("create upload dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s.jpg", u.ID, uuid.NewString())
	if err := os.WriteFile(filepath.Join(s.cfg.UploadDir, name), out, 0o644); err != nil {
		return domain.User{}, fmt.Errorf("write picture: %w", err)
	}

	previous := u.ProfilePictureFilename
	u.ProfilePictureFilename = name
	u.ProfilePictureURL = path.Join(s.cfg.UploadURLPath, name)
	u.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		s.removeFile(name)
		return domain.User{}, fmt.Errorf("save picture: %w", err)
	}
	if previous != "" && previous != name {
		s.removeFile(previous)
	}
	s.logger.Info("profile picture updated", zap.String("user_id", u.ID))
	return u, nil
}

func (s *ProfileService) RemovePicture(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if u.ProfilePictureFilename == "" && u.ProfilePictureURL == "" {
		return u, nil
	}
	previous := u.ProfilePictureFilename
	u.ProfilePictureFilename = ""
	u.ProfilePictureURL = ""
	u.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("remove picture: %w", err)
	}
	if previous != "" {
		s.removeFile(previous)
	}
	return u, nil
}

func (s *ProfileService) PublicProfile(ctx context.Context, userID string) (PublicProfile, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return PublicProfile{}, err
	}
	p := PublicProfile{
		ID:                u.ID,
		FullName:          u.FullName,
		Bio:               u.Bio,
		Major:             u.Major,
		YearOfStudy:       u.YearOfStudy,
		Role:              u.Role,
		ProfilePictureURL: u.ProfilePictureURL,
		JoinedAt:          u.CreatedAt,
	}
	if s.posts != nil {
		posts, err := s.posts.ListByAuthor(ctx, u.ID)
		if err != nil {
			return PublicProfile{}, fmt.Errorf("count posts: %w", err)
		}
		p.PostsCount = len(posts)
	}
	if s.events != nil {
		events, err := s.events.ListJoinedByUser(ctx, u.ID)
		if err != nil {
			return PublicProfile{}, fmt.Errorf("count events: %w", err)
		}
		p.EventsCount = len(events)
	}
	if s.groups != nil {
		groups, err := s.groups.ListByMember(ctx, u.ID)
		if err != nil {
			return PublicProfile{}, fmt.Errorf("count groups: %w", err)
		}
		p.GroupsCount = len(groups)
	}
	return p, nil
}

func (s *ProfileService) removeFile(name string) {
	// filepath.Base evita borrar fuera del directorio de uploads.
	err := os.Remove(filepath.Join(s.cfg.UploadDir, filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("could not remove picture", zap.String("file", name), zap.Error(err))
	}
}
