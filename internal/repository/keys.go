package repository

import "fmt"

// Key is a namespaced Trust Store key. All key formats live here so read
// and write call sites can never drift apart.
type Key string

func (k Key) String() string { return string(k) }

// SessionKey addresses one session record.
func SessionKey(tenantID, principalID, sessionID string) Key {
	return Key(fmt.Sprintf("session:%s:%s:%s", tenantID, principalID, sessionID))
}

// ActiveSessionsKey addresses a principal's bounded session list.
func ActiveSessionsKey(tenantID, principalID string) Key {
	return Key(fmt.Sprintf("active_sessions:%s:%s", tenantID, principalID))
}

// MFASetupKey addresses a principal's pending MFA setup session.
func MFASetupKey(tenantID, principalID string) Key {
	return Key(fmt.Sprintf("mfa_setup:%s:%s", tenantID, principalID))
}

// SuspiciousKey addresses the latest suspicious-activity flag for a session.
func SuspiciousKey(tenantID, principalID, sessionID string) Key {
	return Key(fmt.Sprintf("suspicious:%s:%s:%s", tenantID, principalID, sessionID))
}
