package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AccessTokenStore registra las sesiones que tienen access tokens vigentes. Un token
// cuya sesion ya no esta registrada se considera revocado.
type AccessTokenStore interface {
	Store(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Revoke(ctx context.Context, sessionIDs ...string) error
}

type memoryAccessTokenStore struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func NewMemoryAccessTokenStore() AccessTokenStore {
	return &memoryAccessTokenStore{
		items: make(map[string]time.Time),
	}
}

func (s *memoryAccessTokenStore) Store(_ context.Context, sessionID, _ string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	s.items[sessionID] = time.Now().UTC().Add(ttl)
	return nil
}

func (s *memoryAccessTokenStore) Exists(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[sessionID]
	if !ok {
		return false, nil
	}
	if time.Now().UTC().After(exp) {
		delete(s.items, sessionID)
		return false, nil
	}
	return true, nil
}

func (s *memoryAccessTokenStore) Revoke(_ context.Context, sessionIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sessionIDs {
		delete(s.items, id)
	}
	return nil
}

type redisKVClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisAccessTokenStore struct {
	client redisKVClient
	prefix string
}

func NewRedisAccessTokenStore(client *redis.Client) AccessTokenStore {
	if client == nil {
		return nil
	}
	return &redisAccessTokenStore{
		client: client,
		prefix: "campus:auth:session:",
	}
}

func (s *redisAccessTokenStore) Store(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+sessionID, userID, ttl).Err()
}

func (s *redisAccessTokenStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	n, err := s.client.Exists(ctx, s.prefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisAccessTokenStore) Revoke(ctx context.Context, sessionIDs ...string) error {
	keys := make([]string, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		if id = strings.TrimSpace(id); id != "" {
			keys = append(keys, s.prefix+id)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	return s.client.Del(ctx, keys...).Err()
}
