package risk

import (
	"strings"

	"github.com/visheshwork12-cmyk/trust-engine/internal/domain"
)

// UAResult is the outcome of comparing the bound user-agent with the
// observed one.
type UAResult struct {
	Valid    bool
	Severity domain.Severity
}

// ValidateUserAgent grades user-agent drift. A version bump within the same
// browser/OS family is routine (auto-updates); only a family change is
// suspicious, and even then never more than MEDIUM — this signal alone is
// not conclusive enough to terminate a session.
func ValidateUserAgent(originalUA, currentUA string) UAResult {
	if originalUA == currentUA {
		return UAResult{Valid: true, Severity: domain.SeverityNone}
	}

	// Insufficient data: not penalized.
	if originalUA == "" || currentUA == "" {
		return UAResult{Valid: true, Severity: domain.SeverityLow}
	}

	origBrowser, origOS := ParseUserAgent(originalUA)
	curBrowser, curOS := ParseUserAgent(currentUA)

	if origBrowser == curBrowser && origOS == curOS {
		return UAResult{Valid: true, Severity: domain.SeverityLow}
	}

	return UAResult{Valid: false, Severity: domain.SeverityMedium}
}

// ParseUserAgent extracts the browser and OS family from a raw User-Agent
// string. Family-level matching is all the heuristics need.
func ParseUserAgent(ua string) (browser, os string) {
	browser = "Unknown Browser"
	switch {
	case strings.Contains(ua, "Edg/"):
		browser = "Edge"
	case strings.Contains(ua, "OPR/") || strings.Contains(ua, "Opera"):
		browser = "Opera"
	case strings.Contains(ua, "Chrome/"):
		browser = "Chrome"
	case strings.Contains(ua, "Firefox/"):
		browser = "Firefox"
	case strings.Contains(ua, "Safari/"):
		browser = "Safari"
	}

	os = "Unknown OS"
	switch {
	case strings.Contains(ua, "Windows"):
		os = "Windows"
	case strings.Contains(ua, "Android"):
		os = "Android"
	case strings.Contains(ua, "iPhone") || strings.Contains(ua, "iPad") || strings.Contains(ua, "iPod"):
		os = "iOS"
	case strings.Contains(ua, "Mac OS X"):
		os = "macOS"
	case strings.Contains(ua, "Linux"):
		os = "Linux"
	}

	return browser, os
}
