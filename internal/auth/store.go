package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/test-session/internal/cache"
	"github.com/SAP-F-2025/test-session/internal/models"
)

// CredentialStore persists the bearer token and user between runs.
type CredentialStore interface {
	// Load returns nil credentials when nothing is stored.
	Load(ctx context.Context) (*models.Credentials, error)
	Save(ctx context.Context, creds *models.Credentials) error
	Clear(ctx context.Context) error
}

const DefaultCredentialKey = "auth:credentials"

type cacheCredentialStore struct {
	cache cache.CacheService
	key   string
}

// NewCacheCredentialStore keeps credentials under key in the cache without
// expiry.
func NewCacheCredentialStore(c cache.CacheService, key string) CredentialStore {
	if key == "" {
		key = DefaultCredentialKey
	}
	return &cacheCredentialStore{cache: c, key: key}
}

func (s *cacheCredentialStore) Load(ctx context.Context) (*models.Credentials, error) {
	var creds models.Credentials
	err := s.cache.Get(ctx, s.key, &creds)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	return &creds, nil
}

func (s *cacheCredentialStore) Save(ctx context.Context, creds *models.Credentials) error {
	if err := s.cache.Set(ctx, s.key, creds, 0); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}

func (s *cacheCredentialStore) Clear(ctx context.Context) error {
	if err := s.cache.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
