package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"english_edu_dashboard/internal/config"

	"github.com/go-redis/redis/v8"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrNoSubject     = errors.New("token carries no user id")
)

// TokenStore persists one bearer token per dashboard session.
type TokenStore interface {
	Save(ctx context.Context, sessionID, token string) error
	Load(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// NewTokenStore picks the backend named by token_store.type.
func NewTokenStore(cfg *config.TokenStoreConfig, rdb *redis.Client) (TokenStore, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryTokenStore(), nil
	case "file":
		return NewFileTokenStore(cfg.FilePath, cfg.Secret)
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis token store requires a redis client")
		}
		return NewRedisTokenStore(rdb), nil
	default:
		return nil, fmt.Errorf("unknown token store type %q", cfg.Type)
	}
}

type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]string)}
}

func (s *MemoryTokenStore) Save(_ context.Context, sessionID, token string) error {
	s.mu.Lock()
	s.tokens[sessionID] = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStore) Load(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[sessionID]
	if !ok {
		return "", ErrTokenNotFound
	}
	return token, nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.tokens, sessionID)
	s.mu.Unlock()
	return nil
}

// SessionTokens binds a store to one session so the HTTP client can pull the
// token on every call.
type SessionTokens struct {
	Store     TokenStore
	SessionID string
}

func (s SessionTokens) Token(ctx context.Context) (string, error) {
	return s.Store.Load(ctx, s.SessionID)
}
