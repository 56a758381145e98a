package risk

import "crypto/subtle"

// ValidateFingerprint is an exact-match comparator. A fingerprint missing
// on either side cannot contradict the binding, so it passes.
func ValidateFingerprint(original, current string) bool {
	if original == "" || current == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(original), []byte(current)) == 1
}
