package redis

import (
	"context"
	"errors"
	"time"

	"news-miniapp-gateway/internal/common/cache"
	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/features/session/repository"
)

type claimStore struct {
	cache *cache.CacheService
}

func NewClaimStore(cache *cache.CacheService) repository.ClaimStore {
	return &claimStore{
		cache: cache,
	}
}

func (s *claimStore) Save(ctx context.Context, sessionID string, claim *identity.Claim, ttl time.Duration) error {
	return s.cache.Set(ctx, cache.SessionKey(sessionID), claim, ttl)
}

func (s *claimStore) Get(ctx context.Context, sessionID string) (*identity.Claim, error) {
	var claim identity.Claim
	if err := s.cache.Get(ctx, cache.SessionKey(sessionID), &claim); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, err
	}
	return &claim, nil
}

func (s *claimStore) Delete(ctx context.Context, sessionID string) error {
	return s.cache.Delete(ctx, cache.SessionKey(sessionID))
}
