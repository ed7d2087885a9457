package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"campus-connect/internal/domain"
)

// Implementaciones en memoria del almacen de credenciales. Sirven para desarrollo
// local (STORAGE_BACKEND=memory) y para tests. La expiracion se evalua al leer;
// PurgeExpired es la limpieza manual.

type MemoryUserRepository struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (m *MemoryUserRepository) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[user.Email]; ok {
		return ErrDuplicate
	}
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *MemoryUserRepository) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked(id)
}

func (m *MemoryUserRepository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.activeLocked(id)
}

func (m *MemoryUserRepository) Update(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, err := m.activeLocked(user.ID)
	if err != nil {
		return err
	}
	user.Email = current.Email
	user.IsActive = current.IsActive
	user.IsVerified = current.IsVerified
	user.CreatedAt = current.CreatedAt
	user.LastLogin = current.LastLogin
	m.byID[user.ID] = user
	return nil
}

func (m *MemoryUserRepository) MarkVerified(_ context.Context, id string, at time.Time) error {
	return m.mutate(id, func(u *domain.User) {
		u.IsVerified = true
		u.UpdatedAt = at
	})
}

func (m *MemoryUserRepository) UpdatePassword(_ context.Context, id, passwordHash string, at time.Time) error {
	return m.mutate(id, func(u *domain.User) {
		u.PasswordHash = passwordHash
		u.UpdatedAt = at
	})
}

func (m *MemoryUserRepository) RecordLogin(_ context.Context, id string, at time.Time) error {
	return m.mutate(id, func(u *domain.User) {
		u.LastLogin = &at
	})
}

// Deactivate aplica el borrado logico.
func (m *MemoryUserRepository) Deactivate(id string) {
	_ = m.mutate(id, func(u *domain.User) { u.IsActive = false })
}

func (m *MemoryUserRepository) mutate(id string, fn func(u *domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, err := m.activeLocked(id)
	if err != nil {
		return err
	}
	fn(&user)
	m.byID[id] = user
	return nil
}

func (m *MemoryUserRepository) activeLocked(id string) (domain.User, error) {
	user, ok := m.byID[id]
	if !ok || !user.IsActive {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

type MemoryCodeRepository struct {
	mu    sync.Mutex
	codes []domain.OneTimeCode
}

func NewMemoryCodeRepository() *MemoryCodeRepository {
	return &MemoryCodeRepository{}
}

func (m *MemoryCodeRepository) Create(_ context.Context, code domain.OneTimeCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	return nil
}

func (m *MemoryCodeRepository) LatestUnused(_ context.Context, userID string, purpose domain.CodePurpose) (domain.OneTimeCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.codes) - 1; i >= 0; i-- {
		c := m.codes[i]
		if c.UserID == userID && c.Purpose == purpose && !c.IsUsed {
			return c, nil
		}
	}
	return domain.OneTimeCode{}, pgx.ErrNoRows
}

func (m *MemoryCodeRepository) IncrementAttempts(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return 0, pgx.ErrNoRows
	}
	if m.codes[i].IsUsed || m.codes[i].Exhausted() {
		return 0, ErrCodeSpent
	}
	m.codes[i].Attempts++
	return m.codes[i].Attempts, nil
}

func (m *MemoryCodeRepository) MarkUsed(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return pgx.ErrNoRows
	}
	if m.codes[i].IsUsed {
		return ErrCodeSpent
	}
	m.codes[i].IsUsed = true
	m.codes[i].UsedAt = &at
	return nil
}

func (m *MemoryCodeRepository) InvalidateActive(_ context.Context, userID string, purpose domain.CodePurpose, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.codes {
		if m.codes[i].UserID == userID && m.codes[i].Purpose == purpose && !m.codes[i].IsUsed {
			m.codes[i].IsUsed = true
			m.codes[i].UsedAt = &at
		}
	}
	return nil
}

func (m *MemoryCodeRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.codes[:0]
	var removed int64
	for _, c := range m.codes {
		if c.IsUsed || c.ExpiresAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	m.codes = kept
	return removed, nil
}

// Get permite inspeccionar un codigo por id.
func (m *MemoryCodeRepository) Get(id string) (domain.OneTimeCode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return domain.OneTimeCode{}, false
	}
	return m.codes[i], true
}

func (m *MemoryCodeRepository) indexLocked(id string) int {
	for i := range m.codes {
		if m.codes[i].ID == id {
			return i
		}
	}
	return -1
}

type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	byToken  map[string]string
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]domain.Session),
		byToken:  make(map[string]string),
	}
}

func (m *MemorySessionRepository) Create(_ context.Context, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byToken[session.Token]; ok {
		return ErrDuplicate
	}
	m.sessions[session.ID] = session
	m.byToken[session.Token] = session.ID
	return nil
}

func (m *MemorySessionRepository) GetActiveByToken(_ context.Context, token string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byToken[token]
	if !ok {
		return domain.Session{}, pgx.ErrNoRows
	}
	s := m.sessions[id]
	if !s.IsActive {
		return domain.Session{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *MemorySessionRepository) Touch(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.LastUsed = at
	m.sessions[id] = s
	return nil
}

func (m *MemorySessionRepository) Deactivate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !s.IsActive {
		return pgx.ErrNoRows
	}
	s.IsActive = false
	m.sessions[id] = s
	return nil
}

func (m *MemorySessionRepository) DeactivateAllForUser(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, s := range m.sessions {
		if s.UserID == userID && s.IsActive {
			s.IsActive = false
			m.sessions[id] = s
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MemorySessionRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, s := range m.sessions {
		if !s.IsActive || s.ExpiresAt.Before(before) {
			delete(m.sessions, id)
			delete(m.byToken, s.Token)
			removed++
		}
	}
	return removed, nil
}

// Get permite inspeccionar una sesion por id.
func (m *MemorySessionRepository) Get(id string) (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}
