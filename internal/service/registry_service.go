package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/visheshwork12-cmyk/trust-engine/internal/config"
	"github.com/visheshwork12-cmyk/trust-engine/internal/domain"
	"github.com/visheshwork12-cmyk/trust-engine/internal/repository"
)

// ActiveSessionRegistry bounds how many live sessions a principal can hold.
// Eviction is FIFO by creation order: a frequently-used old session can
// still be evicted in favor of newly created ones, which keeps the
// concurrent-device bound deterministic.
type ActiveSessionRegistry struct {
	registryRepo repository.RegistryRepository
	cfg          *config.Config
	logger       *slog.Logger
}

func NewActiveSessionRegistry(
	registryRepo repository.RegistryRepository,
	cfg *config.Config,
	logger *slog.Logger,
) *ActiveSessionRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActiveSessionRegistry{
		registryRepo: registryRepo,
		cfg:          cfg,
		logger:       logger,
	}
}

// Add appends a session to the principal's list, evicting from the front
// once the list exceeds the configured cap. The rewrite is a read-modify-
// write, so two concurrent Adds can lose an entry; the cap is a best-effort
// bound, not a hard security invariant.
func (r *ActiveSessionRegistry) Add(ctx context.Context, tenantID, principalID, sessionID string) error {
	entries, err := r.registryRepo.GetEntries(ctx, tenantID, principalID)
	if err != nil {
		return fmt.Errorf("failed to load session registry: %w", err)
	}

	// A session id never appears twice in one principal's list.
	kept := entries[:0]
	for _, e := range entries {
		if e.SessionID != sessionID {
			kept = append(kept, e)
		}
	}
	entries = append(kept, domain.ActiveSessionEntry{
		SessionID: sessionID,
		CreatedAt: time.Now(),
	})

	for len(entries) > r.cfg.Session.MaxActiveSessions {
		evicted := entries[0]
		entries = entries[1:]
		r.logger.DebugContext(ctx, "evicted oldest active session",
			"tenant_id", tenantID,
			"principal_id", principalID,
			"session_id", evicted.SessionID,
		)
	}

	if err := r.registryRepo.SaveEntries(ctx, tenantID, principalID, entries, r.cfg.Session.RegistryTTL); err != nil {
		return fmt.Errorf("failed to save session registry: %w", err)
	}

	return nil
}

// Remove filters the session out of the list. Removing an absent session
// is a no-op.
func (r *ActiveSessionRegistry) Remove(ctx context.Context, tenantID, principalID, sessionID string) error {
	entries, err := r.registryRepo.GetEntries(ctx, tenantID, principalID)
	if err != nil {
		return fmt.Errorf("failed to load session registry: %w", err)
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.SessionID != sessionID {
			kept = append(kept, e)
		}
	}

	if err := r.registryRepo.SaveEntries(ctx, tenantID, principalID, kept, r.cfg.Session.RegistryTTL); err != nil {
		return fmt.Errorf("failed to save session registry: %w", err)
	}

	return nil
}

// List returns the principal's live session entries, oldest first.
func (r *ActiveSessionRegistry) List(ctx context.Context, tenantID, principalID string) ([]domain.ActiveSessionEntry, error) {
	entries, err := r.registryRepo.GetEntries(ctx, tenantID, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session registry: %w", err)
	}
	return entries, nil
}
