package domain

import "time"

// SecurityLevel classifies how much trust a session carried at creation.
type SecurityLevel string

const (
	SecurityLevelStandard SecurityLevel = "STANDARD"
	SecurityLevelMedium   SecurityLevel = "MEDIUM"
	SecurityLevelHigh     SecurityLevel = "HIGH"
)

// Severity grades how suspicious an observed context deviation is.
type Severity string

const (
	SeverityNone   Severity = "NONE"
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

var severityRank = map[Severity]int{
	SeverityNone:   0,
	SeverityLow:    1,
	SeverityMedium: 2,
	SeverityHigh:   3,
}

// AtLeast reports whether s is as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// SecureSession represents one authenticated device/browser binding.
// The bound context is the trust baseline captured at creation and never
// changes; only LastAccessAt and LastObservedIP mutate afterwards.
type SecureSession struct {
	SessionID          string        `json:"session_id"`
	PrincipalID        string        `json:"principal_id"`
	TenantID           string        `json:"tenant_id"`
	CreatedAt          time.Time     `json:"created_at"`
	LastAccessAt       time.Time     `json:"last_access_at"`
	BoundIP            string        `json:"bound_ip"`
	BoundUserAgent     string        `json:"bound_user_agent"`
	BoundFingerprint   string        `json:"bound_fingerprint,omitempty"`
	LastObservedIP     string        `json:"last_observed_ip"`
	StrictIPValidation bool          `json:"strict_ip_validation"`
	SecurityLevel      SecurityLevel `json:"security_level"`
	IsValid            bool          `json:"is_valid"`
	InvalidatedAt      *time.Time    `json:"invalidated_at,omitempty"`
	InvalidationReason string        `json:"invalidation_reason,omitempty"`
}

// ActiveSessionEntry is one slot in a principal's bounded session list.
type ActiveSessionEntry struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SuspiciousActivityFlag is a write-only record of one detected anomaly.
// Flags are a side channel for later review; validation decisions never
// read them back.
type SuspiciousActivityFlag struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Reason     string    `json:"reason"`
	Severity   Severity  `json:"severity"`
	DetectedAt time.Time `json:"detected_at"`
}

// RequestContext is the observed network/device context of one request,
// extracted by the HTTP layer and passed by value.
type RequestContext struct {
	IP          string `json:"ip" validate:"omitempty,ip"`
	UserAgent   string `json:"user_agent"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// SessionContext carries the creation-time signals used to derive the
// session's security level.
type SessionContext struct {
	RequestContext
	MFAVerified bool `json:"mfa_verified"`
	IsAdminUser bool `json:"is_admin_user"`
	VPNDetected bool `json:"vpn_detected"`
}

// SessionPolicy holds per-session policy flags fixed at creation.
type SessionPolicy struct {
	StrictIPValidation bool `json:"strict_ip_validation"`
}
