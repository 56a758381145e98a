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

// invalidateRetries bounds the optimistic-lock retry loop on the
// valid -> invalid transition.
const invalidateRetries = 3

type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func (r *SessionRepository) Get(ctx context.Context, tenantID, principalID, sessionID string) (*domain.SecureSession, error) {
	key := repository.SessionKey(tenantID, principalID, sessionID).String()

	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("failed to load session", err)
	}

	var session domain.SecureSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, storeErr("failed to decode session", err)
	}

	return &session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.SecureSession, ttl time.Duration) error {
	key := repository.SessionKey(session.TenantID, session.PrincipalID, session.SessionID).String()

	payload, err := json.Marshal(session)
	if err != nil {
		return storeErr("failed to encode session", err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return storeErr("failed to save session", err)
	}

	return nil
}

// Invalidate performs the one-way valid -> invalid transition under WATCH
// so a concurrent invalidation can never resurrect the record. The record
// is kept for the retention window to allow audit inspection, then expires.
func (r *SessionRepository) Invalidate(ctx context.Context, tenantID, principalID, sessionID, reason string, retention time.Duration) (*domain.SecureSession, bool, error) {
	key := repository.SessionKey(tenantID, principalID, sessionID).String()

	var result *domain.SecureSession
	var transitioned bool

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			result, transitioned = nil, false
			return nil
		}
		if err != nil {
			return err
		}

		var session domain.SecureSession
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			return err
		}

		if !session.IsValid {
			// Already invalid: idempotent no-op.
			result, transitioned = &session, false
			return nil
		}

		now := time.Now()
		session.IsValid = false
		session.InvalidatedAt = &now
		session.InvalidationReason = reason

		payload, err := json.Marshal(&session)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, retention)
			return nil
		})
		if err != nil {
			return err
		}

		result, transitioned = &session, true
		return nil
	}

	for i := 0; i < invalidateRetries; i++ {
		err := r.client.Watch(ctx, txn, key)
		if err == nil {
			return result, transitioned, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			// Lost the race; reload and retry.
			continue
		}
		return nil, false, storeErr("failed to invalidate session", err)
	}

	return nil, false, storeErr("failed to invalidate session", redis.TxFailedErr)
}

func (r *SessionRepository) Delete(ctx context.Context, tenantID, principalID, sessionID string) error {
	key := repository.SessionKey(tenantID, principalID, sessionID).String()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return storeErr("failed to delete session", err)
	}

	return nil
}
