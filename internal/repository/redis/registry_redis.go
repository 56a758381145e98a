package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/visheshwork12-cmyk/trust-engine/internal/domain"
	"github.com/visheshwork12-cmyk/trust-engine/internal/repository"
)

type RegistryRepository struct {
	client *redis.Client
}

func NewRegistryRepository(client *redis.Client) *RegistryRepository {
	return &RegistryRepository{client: client}
}

func (r *RegistryRepository) GetEntries(ctx context.Context, tenantID, principalID string) ([]domain.ActiveSessionEntry, error) {
	key := repository.ActiveSessionsKey(tenantID, principalID).String()

	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("failed to load active sessions", err)
	}

	var entries []domain.ActiveSessionEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, storeErr("failed to decode active sessions", err)
	}

	return entries, nil
}

// SaveEntries rewrites the full list. The list is bounded at a handful of
// entries, so a full rewrite per mutation is acceptable.
func (r *RegistryRepository) SaveEntries(ctx context.Context, tenantID, principalID string, entries []domain.ActiveSessionEntry, ttl time.Duration) error {
	key := repository.ActiveSessionsKey(tenantID, principalID).String()

	if len(entries) == 0 {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return storeErr("failed to clear active sessions", err)
		}
		return nil
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return storeErr("failed to encode active sessions", err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return storeErr("failed to save active sessions", err)
	}

	return nil
}

func (r *RegistryRepository) Delete(ctx context.Context, tenantID, principalID string) error {
	key := repository.ActiveSessionsKey(tenantID, principalID).String()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return storeErr("failed to delete active sessions", err)
	}

	return nil
}
