package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"campus-connect/internal/domain"
)

type relation struct{ a, b string }

type MemoryEventRepository struct {
	mu        sync.Mutex
	events    map[string]domain.Event
	attendees map[relation]time.Time
	saved     map[relation]time.Time
}

func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		events:    make(map[string]domain.Event),
		attendees: make(map[relation]time.Time),
		saved:     make(map[relation]time.Time),
	}
}

func (m *MemoryEventRepository) List(_ context.Context) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterLocked(func(domain.Event) bool { return true }), nil
}

func (m *MemoryEventRepository) ListByCategory(_ context.Context, category domain.EventCategory) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterLocked(func(e domain.Event) bool { return e.Category == category }), nil
}

func (m *MemoryEventRepository) GetByID(_ context.Context, id string) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(id)
}

func (m *MemoryEventRepository) Create(_ context.Context, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[event.ID]; ok {
		return ErrDuplicate
	}
	event.AttendeeCount = 0
	m.events[event.ID] = event
	return nil
}

func (m *MemoryEventRepository) AddAttendee(_ context.Context, eventID, userID string, at time.Time) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.getLocked(eventID)
	if err != nil {
		return domain.Event{}, err
	}
	key := relation{eventID, userID}
	if _, ok := m.attendees[key]; ok {
		return domain.Event{}, ErrDuplicate
	}
	if e.AttendeeCount >= e.MaxAttendees {
		return domain.Event{}, ErrCapacityReached
	}
	m.attendees[key] = at
	return m.getLocked(eventID)
}

func (m *MemoryEventRepository) RemoveAttendee(_ context.Context, eventID, userID string) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.getLocked(eventID); err != nil {
		return domain.Event{}, err
	}
	key := relation{eventID, userID}
	if _, ok := m.attendees[key]; !ok {
		return domain.Event{}, ErrNotMember
	}
	delete(m.attendees, key)
	return m.getLocked(eventID)
}

func (m *MemoryEventRepository) Save(_ context.Context, eventID, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.getLocked(eventID); err != nil {
		return err
	}
	key := relation{eventID, userID}
	if _, ok := m.saved[key]; ok {
		return ErrDuplicate
	}
	m.saved[key] = at
	return nil
}

func (m *MemoryEventRepository) Unsave(_ context.Context, eventID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.getLocked(eventID); err != nil {
		return err
	}
	key := relation{eventID, userID}
	if _, ok := m.saved[key]; !ok {
		return ErrNotMember
	}
	delete(m.saved, key)
	return nil
}

func (m *MemoryEventRepository) Status(_ context.Context, eventID, userID string) (domain.EventStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.getLocked(eventID); err != nil {
		return domain.EventStatus{}, err
	}
	key := relation{eventID, userID}
	_, joined := m.attendees[key]
	_, saved := m.saved[key]
	return domain.EventStatus{EventID: eventID, IsJoined: joined, IsSaved: saved}, nil
}

func (m *MemoryEventRepository) ListJoinedByUser(_ context.Context, userID string) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.relatedLocked(m.attendees, userID), nil
}

func (m *MemoryEventRepository) ListSavedByUser(_ context.Context, userID string) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.relatedLocked(m.saved, userID), nil
}

func (m *MemoryEventRepository) getLocked(id string) (domain.Event, error) {
	e, ok := m.events[id]
	if !ok || !e.IsActive {
		return domain.Event{}, pgx.ErrNoRows
	}
	e.AttendeeCount = 0
	for k := range m.attendees {
		if k.a == id {
			e.AttendeeCount++
		}
	}
	return e, nil
}

// filterLocked ordena por fecha del evento y luego por alta, igual que el SQL.
func (m *MemoryEventRepository) filterLocked(keep func(domain.Event) bool) []domain.Event {
	out := make([]domain.Event, 0, len(m.events))
	for id := range m.events {
		e, err := m.getLocked(id)
		if err != nil || !keep(e) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *MemoryEventRepository) relatedLocked(rel map[relation]time.Time, userID string) []domain.Event {
	type entry struct {
		event domain.Event
		at    time.Time
	}
	var entries []entry
	for k, at := range rel {
		if k.b != userID {
			continue
		}
		e, err := m.getLocked(k.a)
		if err != nil {
			continue
		}
		entries = append(entries, entry{e, at})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })
	out := make([]domain.Event, 0, len(entries))
	for _, en := range entries {
		out = append(out, en.event)
	}
	return out
}

type MemoryGroupRepository struct {
	mu      sync.Mutex
	groups  map[string]domain.Group
	members map[relation]time.Time
}

func NewMemoryGroupRepository() *MemoryGroupRepository {
	return &MemoryGroupRepository{
		groups:  make(map[string]domain.Group),
		members: make(map[relation]time.Time),
	}
}

func (m *MemoryGroupRepository) List(_ context.Context) ([]domain.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterLocked(func(domain.Group) bool { return true }), nil
}

func (m *MemoryGroupRepository) ListByCategory(_ context.Context, category domain.GroupCategory) ([]domain.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterLocked(func(g domain.Group) bool { return g.Category == category }), nil
}

func (m *MemoryGroupRepository) GetByID(_ context.Context, id string) (domain.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(id)
}

func (m *MemoryGroupRepository) Create(_ context.Context, group domain.Group, creatorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[group.ID]; ok {
		return ErrDuplicate
	}
	m.groups[group.ID] = group
	if creatorID != "" {
		m.members[relation{group.ID, creatorID}] = group.CreatedAt
	}
	return nil
}

func (m *MemoryGroupRepository) AddMember(_ context.Context, groupID, userID, _ string, at time.Time) (domain.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.getLocked(groupID); err != nil {
		return domain.Group{}, err
	}
	key := relation{groupID, userID}
	if _, ok := m.members[key]; ok {
		return domain.Group{}, ErrDuplicate
	}
	m.members[key] = at
	return m.getLocked(groupID)
}

func (m *MemoryGroupRepository) RemoveMember(_ context.Context, groupID, userID string) (domain.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.getLocked(groupID); err != nil {
		return domain.Group{}, err
	}
	key := relation{groupID, userID}
	if _, ok := m.members[key]; !ok {
		return domain.Group{}, ErrNotMember
	}
	delete(m.members, key)
	return m.getLocked(groupID)
}

func (m *MemoryGroupRepository) ListByMember(_ context.Context, userID string) ([]domain.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterLocked(func(g domain.Group) bool {
		_, ok := m.members[relation{g.ID, userID}]
		return ok
	}), nil
}

func (m *MemoryGroupRepository) getLocked(id string) (domain.Group, error) {
	g, ok := m.groups[id]
	if !ok || !g.IsActive {
		return domain.Group{}, pgx.ErrNoRows
	}
	g.MemberCount = 0
	for k := range m.members {
		if k.a == id {
			g.MemberCount++
		}
	}
	return g, nil
}

func (m *MemoryGroupRepository) filterLocked(keep func(domain.Group) bool) []domain.Group {
	out := make([]domain.Group, 0, len(m.groups))
	for id := range m.groups {
		g, err := m.getLocked(id)
		if err != nil || !keep(g) {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MemoryPostRepository guarda el autor tal como llega; no hay JOIN con users.
type MemoryPostRepository struct {
	mu       sync.Mutex
	posts    map[string]domain.Post
	likes    map[relation]time.Time
	comments []domain.Comment
}

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{
		posts: make(map[string]domain.Post),
		likes: make(map[relation]time.Time),
	}
}

func (m *MemoryPostRepository) List(_ context.Context) ([]domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterLocked(func(domain.Post) bool { return true }), nil
}

func (m *MemoryPostRepository) ListByCategory(_ context.Context, category domain.PostCategory) ([]domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterLocked(func(p domain.Post) bool { return p.Category == category }), nil
}

func (m *MemoryPostRepository) ListByAuthor(_ context.Context, authorID string) ([]domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterLocked(func(p domain.Post) bool { return p.AuthorID == authorID }), nil
}

func (m *MemoryPostRepository) GetByID(_ context.Context, id string) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(id)
}

func (m *MemoryPostRepository) Create(_ context.Context, post domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[post.ID]; ok {
		return ErrDuplicate
	}
	m.posts[post.ID] = post
	return nil
}

func (m *MemoryPostRepository) Update(_ context.Context, post domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, err := m.getLocked(post.ID)
	if err != nil {
		return err
	}
	current.Title = post.Title
	current.Description = post.Description
	current.Category = post.Category
	current.UpdatedAt = post.UpdatedAt
	m.posts[post.ID] = current
	return nil
}

func (m *MemoryPostRepository) SoftDelete(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.getLocked(id)
	if err != nil {
		return err
	}
	p.IsActive = false
	p.UpdatedAt = at
	m.posts[id] = p
	return nil
}

func (m *MemoryPostRepository) AddLike(_ context.Context, postID, userID string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.getLocked(postID); err != nil {
		return 0, err
	}
	key := relation{postID, userID}
	if _, ok := m.likes[key]; ok {
		return 0, ErrDuplicate
	}
	m.likes[key] = at
	return m.likeCountLocked(postID), nil
}

func (m *MemoryPostRepository) RemoveLike(_ context.Context, postID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.getLocked(postID); err != nil {
		return 0, err
	}
	key := relation{postID, userID}
	if _, ok := m.likes[key]; !ok {
		return 0, ErrNotMember
	}
	delete(m.likes, key)
	return m.likeCountLocked(postID), nil
}

func (m *MemoryPostRepository) HasLiked(_ context.Context, postID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.likes[relation{postID, userID}]
	return ok, nil
}

func (m *MemoryPostRepository) AddComment(_ context.Context, comment domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.getLocked(comment.PostID); err != nil {
		return err
	}
	m.comments = append(m.comments, comment)
	return nil
}

func (m *MemoryPostRepository) ListComments(_ context.Context, postID string) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Comment, 0)
	for _, c := range m.comments {
		if c.PostID == postID && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryPostRepository) getLocked(id string) (domain.Post, error) {
	p, ok := m.posts[id]
	if !ok || !p.IsActive {
		return domain.Post{}, pgx.ErrNoRows
	}
	p.LikeCount = m.likeCountLocked(id)
	p.CommentCount = 0
	for _, c := range m.comments {
		if c.PostID == id && c.IsActive {
			p.CommentCount++
		}
	}
	return p, nil
}

func (m *MemoryPostRepository) likeCountLocked(postID string) int {
	n := 0
	for k := range m.likes {
		if k.a == postID {
			n++
		}
	}
	return n
}

func (m *MemoryPostRepository) filterLocked(keep func(domain.Post) bool) []domain.Post {
	out := make([]domain.Post, 0, len(m.posts))
	for id := range m.posts {
		p, err := m.getLocked(id)
		if err != nil || !keep(p) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
