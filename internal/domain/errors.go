package domain

import "errors"

// Error kinds every caller must be able to distinguish with errors.Is.
var (
	// ErrInvalidSession means the session is absent or already invalidated;
	// the caller should re-authenticate the principal.
	ErrInvalidSession = errors.New("session is invalid or expired")

	// ErrSessionHijacking is a hard security stop: the session has been
	// terminated and the caller must force logout.
	ErrSessionHijacking = errors.New("session hijacking detected")

	// ErrMFASetupExpired means no pending MFA setup exists for the principal.
	ErrMFASetupExpired = errors.New("mfa setup session expired")

	// ErrMFANotConfigured means MFA has never been enabled for the principal.
	ErrMFANotConfigured = errors.New("mfa is not configured")

	// ErrInvalidMFAToken means the submitted one-time code did not verify.
	ErrInvalidMFAToken = errors.New("invalid mfa token")

	// ErrInvalidBackupCode means the backup code is unknown or already used.
	ErrInvalidBackupCode = errors.New("invalid backup code")

	// ErrTrustStoreUnavailable wraps transient store failures. Never
	// swallowed on security-deciding paths; retry policy belongs to the
	// caller.
	ErrTrustStoreUnavailable = errors.New("trust store unavailable")
)
