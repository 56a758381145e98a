package repository

import (
	"context"
	"time"

	"github.com/visheshwork12-cmyk/trust-engine/internal/domain"
)

// SessionRepository persists session records in the Trust Store. Absent
// records are returned as (nil, nil); transient store failures wrap
// domain.ErrTrustStoreUnavailable.
type SessionRepository interface {
	Get(ctx context.Context, tenantID, principalID, sessionID string) (*domain.SecureSession, error)
	// Save writes the full record with the given TTL. Callers use it both
	// for creation and for the sliding-expiration refresh on validation.
	Save(ctx context.Context, session *domain.SecureSession, ttl time.Duration) error
	// Invalidate flips IsValid true -> false under a compare-and-set and
	// shortens the record's TTL to retention. It returns the resulting
	// record and whether this call performed the transition; an already
	// invalid session is a no-op with transitioned=false. A missing session
	// returns (nil, false, nil).
	Invalidate(ctx context.Context, tenantID, principalID, sessionID, reason string, retention time.Duration) (session *domain.SecureSession, transitioned bool, err error)
	Delete(ctx context.Context, tenantID, principalID, sessionID string) error
}

// RegistryRepository stores the per-principal active-session list as a
// single value; mutations rewrite the whole list (it is bounded and small).
type RegistryRepository interface {
	GetEntries(ctx context.Context, tenantID, principalID string) ([]domain.ActiveSessionEntry, error)
	SaveEntries(ctx context.Context, tenantID, principalID string, entries []domain.ActiveSessionEntry, ttl time.Duration) error
	Delete(ctx context.Context, tenantID, principalID string) error
}

// MFASetupRepository stores transient MFA setup sessions.
type MFASetupRepository interface {
	Save(ctx context.Context, tenantID, principalID string, setup *domain.MFASetupSession, ttl time.Duration) error
	Get(ctx context.Context, tenantID, principalID string) (*domain.MFASetupSession, error)
	Delete(ctx context.Context, tenantID, principalID string) error
}

// SuspiciousFlagRepository records anomaly flags. Write-only: nothing in
// the engine reads flags back; they expire on their own.
type SuspiciousFlagRepository interface {
	Record(ctx context.Context, tenantID, principalID string, flag *domain.SuspiciousActivityFlag, ttl time.Duration) error
}
