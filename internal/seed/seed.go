// Package seed carga datos de ejemplo (cuentas, eventos, grupos y posts) desde YAML.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"campus-connect/internal/domain"
	"campus-connect/internal/repository"
	"campus-connect/internal/service"
)

//go:embed sample.yaml
var sampleYAML []byte

type Data struct {
	Users  []User  `yaml:"users"`
	Events []Event `yaml:"events"`
	Groups []Group `yaml:"groups"`
	Posts  []Post  `yaml:"posts"`
}

type User struct {
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	FirstName   string `yaml:"first_name"`
	LastName    string `yaml:"last_name"`
	Major       string `yaml:"major"`
	YearOfStudy string `yaml:"year_of_study"`
	Role        string `yaml:"role"`
	Bio         string `yaml:"bio"`
}

type Event struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Category     string   `yaml:"category"`
	Date         string   `yaml:"date"`
	Time         string   `yaml:"time"`
	Location     string   `yaml:"location"`
	Organizer    string   `yaml:"organizer"`
	MaxAttendees int      `yaml:"max_attendees"`
	Image        string   `yaml:"image"`
	Tags         []string `yaml:"tags"`
	Attendees    []string `yaml:"attendees"`
}

type Group struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	MeetingTime string   `yaml:"meeting_time"`
	Location    string   `yaml:"location"`
	Contact     string   `yaml:"contact"`
	Image       string   `yaml:"image"`
	Tags        []string `yaml:"tags"`
	Creator     string   `yaml:"creator"`
	Members     []string `yaml:"members"`
}

type Post struct {
	Title    string    `yaml:"title"`
	Content  string    `yaml:"content"`
	Category string    `yaml:"category"`
	Author   string    `yaml:"author"`
	LikedBy  []string  `yaml:"liked_by"`
	Comments []Comment `yaml:"comments"`
}

type Comment struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// Report cuenta lo que efectivamente se creo; lo existente se saltea.
type Report struct {
	Users    int `yaml:"users"`
	Events   int `yaml:"events"`
	Groups   int `yaml:"groups"`
	Posts    int `yaml:"posts"`
	Comments int `yaml:"comments"`
	Likes    int `yaml:"likes"`
}

// Load decodifica el YAML rechazando campos desconocidos.
func Load(r io.Reader) (Data, error) {
	var d Data
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return Data{}, nil
		}
		return Data{}, fmt.Errorf("decode seed data: %w", err)
	}
	return d, nil
}

// Default devuelve el set de ejemplo embebido.
func Default() (Data, error) {
	return Load(bytes.NewReader(sampleYAML))
}

type Seeder struct {
	logger *zap.Logger
	users  repository.UserRepository
	events *service.EventService
	groups *service.GroupService
	posts  *service.PostService
	now    func() time.Time
}

func NewSeeder(logger *zap.Logger, stores repository.Stores) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		logger: logger,
		users:  stores.Users,
		events: service.NewEventService(logger, stores.Events),
		groups: service.NewGroupService(logger, stores.Groups),
		posts:  service.NewPostService(logger, stores.Posts, stores.Users),
		now:    time.Now,
	}
}

// Apply es idempotente: cuentas por email, eventos por titulo, grupos por nombre
// y posts por (autor, titulo).
func (s *Seeder) Apply(ctx context.Context, d Data) (Report, error) {
	var rep Report
	ids := make(map[string]string, len(d.Users))

	for _, u := range d.Users {
		id, created, err := s.ensureUser(ctx, u)
		if err != nil {
			return rep, err
		}
		ids[strings.ToLower(u.Email)] = id
		if created {
			rep.Users++
		}
	}
	lookup := func(emailAddr string) (string, error) {
		id, ok := ids[strings.ToLower(strings.TrimSpace(emailAddr))]
		if !ok {
			return "", fmt.Errorf("seed references unknown user %q", emailAddr)
		}
		return id, nil
	}

	if err := s.applyEvents(ctx, d.Events, lookup, &rep); err != nil {
		return rep, err
	}
	if err := s.applyGroups(ctx, d.Groups, lookup, &rep); err != nil {
		return rep, err
	}
	if err := s.applyPosts(ctx, d.Posts, lookup, &rep); err != nil {
		return rep, err
	}
	s.logger.Info("seed applied",
		zap.Int("users", rep.Users),
		zap.Int("events", rep.Events),
		zap.Int("groups", rep.Groups),
		zap.Int("posts", rep.Posts),
	)
	return rep, nil
}

func (s *Seeder) ensureUser(ctx context.Context, u User) (string, bool, error) {
	emailAddr := strings.ToLower(strings.TrimSpace(u.Email))
	existing, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		return existing.ID, false, nil
	}
	if !repository.IsNotFound(err) {
		return "", false, fmt.Errorf("lookup %s: %w", emailAddr, err)
	}

	role := domain.RoleStudent
	if u.Role != "" {
		r, ok := domain.ParseUserRole(u.Role)
		if !ok {
			return "", false, fmt.Errorf("user %s: %w", emailAddr, service.ErrInvalidRole)
		}
		role = r
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", false, fmt.Errorf("hash password for %s: %w", emailAddr, err)
	}
	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		PasswordHash: string(hash),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Major:        u.Major,
		YearOfStudy:  u.YearOfStudy,
		Bio:          u.Bio,
		Role:         role,
		IsActive:     true,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	user.ComposeFullName()
	if err := s.users.Create(ctx, user); err != nil {
		return "", false, fmt.Errorf("create %s: %w", emailAddr, err)
	}
	return user.ID, true, nil
}

func (s *Seeder) applyEvents(ctx context.Context, events []Event, lookup func(string) (string, error), rep *Report) error {
	existing, err := s.events.List(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.Title] = true
	}
	for _, e := range events {
		if seen[e.Title] {
			continue
		}
		created, err := s.events.Create(ctx, "", service.CreateEventInput{
			Title:        e.Title,
			Description:  e.Description,
			Category:     e.Category,
			Date:         e.Date,
			Time:         e.Time,
			Location:     e.Location,
			Organizer:    e.Organizer,
			MaxAttendees: e.MaxAttendees,
			ImageURL:     e.Image,
			Tags:         e.Tags,
		})
		if err != nil {
			return fmt.Errorf("event %q: %w", e.Title, err)
		}
		rep.Events++
		for _, a := range e.Attendees {
			id, err := lookup(a)
			if err != nil {
				return err
			}
			if _, err := s.events.Join(ctx, created.ID, id); err != nil && !errors.Is(err, service.ErrAlreadyJoined) {
				return fmt.Errorf("event %q attendee %s: %w", e.Title, a, err)
			}
		}
	}
	return nil
}

func (s *Seeder) applyGroups(ctx context.Context, groups []Group, lookup func(string) (string, error), rep *Report) error {
	existing, err := s.groups.List(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, g := range existing {
		seen[g.Name] = true
	}
	for _, g := range groups {
		if seen[g.Name] {
			continue
		}
		creator := ""
		if g.Creator != "" {
			if creator, err = lookup(g.Creator); err != nil {
				return err
			}
		}
		created, err := s.groups.Create(ctx, creator, service.CreateGroupInput{
			Name:        g.Name,
			Description: g.Description,
			Category:    g.Category,
			MeetingTime: g.MeetingTime,
			Location:    g.Location,
			Contact:     g.Contact,
			ImageURL:    g.Image,
			Tags:        g.Tags,
		})
		if err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		rep.Groups++
		for _, m := range g.Members {
			id, err := lookup(m)
			if err != nil {
				return err
			}
			if _, err := s.groups.Join(ctx, created.ID, id, ""); err != nil && !errors.Is(err, service.ErrAlreadyMember) {
				return fmt.Errorf("group %q member %s: %w", g.Name, m, err)
			}
		}
	}
	return nil
}

func (s *Seeder) applyPosts(ctx context.Context, posts []Post, lookup func(string) (string, error), rep *Report) error {
	for _, p := range posts {
		authorID, err := lookup(p.Author)
		if err != nil {
			return err
		}
		mine, err := s.posts.ListByAuthor(ctx, authorID)
		if err != nil {
			return err
		}
		if hasTitle(mine, p.Title) {
			continue
		}
		created, err := s.posts.Create(ctx, authorID, service.PostInput{Title: p.Title, Content: p.Content, Category: p.Category})
		if err != nil {
			return fmt.Errorf("post %q: %w", p.Title, err)
		}
		rep.Posts++

		for _, c := range p.Comments {
			id, err := lookup(c.Author)
			if err != nil {
				return err
			}
			if _, err := s.posts.AddComment(ctx, created.ID, id, c.Content); err != nil {
				return fmt.Errorf("comment on %q: %w", p.Title, err)
			}
			rep.Comments++
		}
		for _, l := range p.LikedBy {
			id, err := lookup(l)
			if err != nil {
				return err
			}
			if _, err := s.posts.Like(ctx, created.ID, id); err != nil && !errors.Is(err, service.ErrAlreadyLiked) {
				return fmt.Errorf("like on %q: %w", p.Title, err)
			}
			rep.Likes++
		}
	}
	return nil
}

func hasTitle(posts []domain.Post, title string) bool {
	for _, p := range posts {
		if p.Title == title {
			return true
		}
	}
	return false
}
