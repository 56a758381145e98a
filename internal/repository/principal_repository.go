package repository

import (
	"context"

	"github.com/visheshwork12-cmyk/trust-engine/internal/domain"
)

// PrincipalRepository is the injected accessor for user records. The engine
// never touches the backing persistence technology directly; a missing
// principal is returned as (nil, nil).
type PrincipalRepository interface {
	FindByIDWithMFA(ctx context.Context, tenantID, principalID string) (*domain.Principal, error)
	// SaveMFACredential persists the full credential in one write so a
	// crash can never leave enabled=true without backup codes.
	SaveMFACredential(ctx context.Context, tenantID, principalID string, cred *domain.MFACredential) error
	// ConsumeBackupCode atomically verifies and removes one backup code.
	// It returns false when the code is unknown or was already consumed;
	// two concurrent calls with the same code must not both succeed.
	ConsumeBackupCode(ctx context.Context, tenantID, principalID, code string) (bool, error)
}
