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

type MFASetupRepository struct {
	client *redis.Client
}

func NewMFASetupRepository(client *redis.Client) *MFASetupRepository {
	return &MFASetupRepository{client: client}
}

func (r *MFASetupRepository) Save(ctx context.Context, tenantID, principalID string, setup *domain.MFASetupSession, ttl time.Duration) error {
	key := repository.MFASetupKey(tenantID, principalID).String()

	payload, err := json.Marshal(setup)
	if err != nil {
		return storeErr("failed to encode mfa setup", err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return storeErr("failed to save mfa setup", err)
	}

	return nil
}

func (r *MFASetupRepository) Get(ctx context.Context, tenantID, principalID string) (*domain.MFASetupSession, error) {
	key := repository.MFASetupKey(tenantID, principalID).String()

	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("failed to load mfa setup", err)
	}

	var setup domain.MFASetupSession
	if err := json.Unmarshal([]byte(raw), &setup); err != nil {
		return nil, storeErr("failed to decode mfa setup", err)
	}

	return &setup, nil
}

func (r *MFASetupRepository) Delete(ctx context.Context, tenantID, principalID string) error {
	key := repository.MFASetupKey(tenantID, principalID).String()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return storeErr("failed to delete mfa setup", err)
	}

	return nil
}
