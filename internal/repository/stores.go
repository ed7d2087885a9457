package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Stores agrupa los repositorios de una misma implementacion.
type Stores struct {
	Users    UserRepository
	Codes    CodeRepository
	Sessions SessionRepository
	Events   EventRepository
	Groups   GroupRepository
	Posts    PostRepository
}

func NewPgStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Users:    NewPgUserRepository(pool),
		Codes:    NewPgCodeRepository(pool),
		Sessions: NewPgSessionRepository(pool),
		Events:   NewPgEventRepository(pool),
		Groups:   NewPgGroupRepository(pool),
		Posts:    NewPgPostRepository(pool),
	}
}

// NewMemoryStores no persiste nada; los posts guardan el autor que se les pasa.
func NewMemoryStores() Stores {
	return Stores{
		Users:    NewMemoryUserRepository(),
		Codes:    NewMemoryCodeRepository(),
		Sessions: NewMemorySessionRepository(),
		Events:   NewMemoryEventRepository(),
		Groups:   NewMemoryGroupRepository(),
		Posts:    NewMemoryPostRepository(),
	}
}

var (
	_ UserRepository    = (*MemoryUserRepository)(nil)
	_ CodeRepository    = (*MemoryCodeRepository)(nil)
	_ SessionRepository = (*MemorySessionRepository)(nil)
	_ EventRepository   = (*MemoryEventRepository)(nil)
	_ GroupRepository   = (*MemoryGroupRepository)(nil)
	_ PostRepository    = (*MemoryPostRepository)(nil)
)
