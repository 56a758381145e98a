package domain

// Audit event names emitted to the audit sink.
const (
	EventSessionCreated        = "SECURE_SESSION_CREATED"
	EventSessionInvalidated    = "SESSION_INVALIDATED"
	EventHijackingDetected     = "SESSION_HIJACKING_DETECTED"
	EventSuspiciousActivity    = "SUSPICIOUS_ACTIVITY_FLAGGED"
	EventMFASetupStarted       = "MFA_SETUP_STARTED"
	EventMFAEnabled            = "MFA_ENABLED"
	EventMFAVerificationOK     = "MFA_VERIFICATION_SUCCESS"
	EventMFAVerificationFailed = "MFA_VERIFICATION_FAILED"
	EventMFABackupCodeUsed     = "MFA_BACKUP_CODE_USED"
)

// Invalidation reasons recorded on terminated sessions.
const (
	ReasonIPSecurityViolation = "IP_SECURITY_VIOLATION"
	ReasonUserLogout          = "USER_LOGOUT"
	ReasonAdminRevocation     = "ADMIN_REVOCATION"
)
