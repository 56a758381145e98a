package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/visheshwork12-cmyk/trust-engine/internal/domain"
	"github.com/visheshwork12-cmyk/trust-engine/internal/repository"
)

type SuspiciousFlagRepository struct {
	client *redis.Client
}

func NewSuspiciousFlagRepository(client *redis.Client) *SuspiciousFlagRepository {
	return &SuspiciousFlagRepository{client: client}
}

// Record stores the latest anomaly flag for a session. A newer flag for the
// same session overwrites the previous one; the key expires on its own.
func (r *SuspiciousFlagRepository) Record(ctx context.Context, tenantID, principalID string, flag *domain.SuspiciousActivityFlag, ttl time.Duration) error {
	key := repository.SuspiciousKey(tenantID, principalID, flag.SessionID).String()

	payload, err := json.Marshal(flag)
	if err != nil {
		return storeErr("failed to encode suspicious flag", err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return storeErr("failed to record suspicious flag", err)
	}

	return nil
}
