package domain

import "time"

// Privileged roles that must complete MFA before sensitive operations.
const (
	RoleSuperAdmin    = "SUPER_ADMIN"
	RolePlatformAdmin = "PLATFORM_ADMIN"
	RoleSchoolAdmin   = "SCHOOL_ADMIN"
	RolePrincipal     = "PRINCIPAL"
)

// MFACredential is the permanent MFA state of one principal. The secret is
// immutable once Enabled is set; Enabled only transitions false -> true.
type MFACredential struct {
	SecretBase32 string     `json:"secret_base32"`
	Enabled      bool       `json:"enabled"`
	EnabledAt    *time.Time `json:"enabled_at,omitempty"`
	BackupCodes  []string   `json:"backup_codes"`
}

// MFASetupSession holds a freshly generated secret between GenerateSecret
// and EnableMFA. It is consumed exactly once and never affects login while
// pending.
type MFASetupSession struct {
	SecretBase32 string    `json:"secret_base32"`
	BackupCodes  []string  `json:"backup_codes"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the slice of a user record this engine needs: identity plus
// MFA state, loaded through the injected principal repository.
type Principal struct {
	ID       string         `json:"id"`
	TenantID string         `json:"tenant_id"`
	Email    string         `json:"email"`
	Role     string         `json:"role"`
	MFA      *MFACredential `json:"mfa,omitempty"`
}
