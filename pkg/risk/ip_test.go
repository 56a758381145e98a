package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/visheshwork12-cmyk/trust-engine/internal/domain"
)

func TestValidateIP_SeverityLadder(t *testing.T) {
	tests := []struct {
		name         string
		original     string
		current      string
		strict       bool
		wantValid    bool
		wantSeverity domain.Severity
	}{
		{
			name:         "identical ip",
			original:     "203.0.113.9",
			current:      "203.0.113.9",
			strict:       true,
			wantValid:    true,
			wantSeverity: domain.SeverityNone,
		},
		{
			name:         "same subnet non-strict",
			original:     "10.0.0.5",
			current:      "10.0.0.9",
			strict:       false,
			wantValid:    true,
			wantSeverity: domain.SeverityLow,
		},
		{
			name:         "private to private roaming",
			original:     "10.0.0.5",
			current:      "192.168.1.20",
			strict:       false,
			wantValid:    true,
			wantSeverity: domain.SeverityMedium,
		},
		{
			name:         "private to private strict",
			original:     "10.0.0.5",
			current:      "172.16.8.2",
			strict:       true,
			wantValid:    true,
			wantSeverity: domain.SeverityMedium,
		},
		{
			name:         "public change strict",
			original:     "198.51.100.7",
			current:      "203.0.113.9",
			strict:       true,
			wantValid:    false,
			wantSeverity: domain.SeverityHigh,
		},
		{
			name:         "public change non-strict",
			original:     "198.51.100.7",
			current:      "203.0.113.9",
			strict:       false,
			wantValid:    true,
			wantSeverity: domain.SeverityMedium,
		},
		{
			name:         "private to public strict",
			original:     "10.0.0.5",
			current:      "203.0.113.9",
			strict:       true,
			wantValid:    false,
			wantSeverity: domain.SeverityHigh,
		},
		{
			name:         "unparseable current",
			original:     "198.51.100.7",
			current:      "not-an-ip",
			strict:       false,
			wantValid:    true,
			wantSeverity: domain.SeverityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateIP(tt.original, tt.current, tt.strict, DefaultSubnetRangeBits)

			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantSeverity, result.Severity)
			if tt.wantSeverity != domain.SeverityNone {
				assert.NotEmpty(t, result.Warnings)
			}
		})
	}
}

func TestValidateIP_RangeBitsTruncation(t *testing.T) {
	// /16 compares two octets, so a third-octet change stays in range.
	result := ValidateIP("100.64.1.5", "100.64.2.5", false, 16)
	assert.True(t, result.Valid)
	assert.Equal(t, domain.SeverityLow, result.Severity)

	// /24 rounds to three octets and the third differs.
	result = ValidateIP("100.64.1.5", "100.64.2.5", false, 24)
	assert.Equal(t, domain.SeverityMedium, result.Severity)
}

func TestValidateIP_DefaultsRangeBits(t *testing.T) {
	result := ValidateIP("100.64.1.5", "100.64.1.9", false, 0)
	assert.True(t, result.Valid)
	assert.Equal(t, domain.SeverityLow, result.Severity)
}

func TestValidateIP_StrictSkipsSubnetShortcut(t *testing.T) {
	// Same /24 but strict: the subnet shortcut is for non-strict sessions
	// only. Both addresses are public, so this is a strict public change.
	result := ValidateIP("203.0.113.5", "203.0.113.9", true, 24)
	assert.False(t, result.Valid)
	assert.Equal(t, domain.SeverityHigh, result.Severity)
}

func TestSeverityAtLeast(t *testing.T) {
	assert.True(t, domain.SeverityHigh.AtLeast(domain.SeverityMedium))
	assert.True(t, domain.SeverityMedium.AtLeast(domain.SeverityMedium))
	assert.False(t, domain.SeverityLow.AtLeast(domain.SeverityMedium))
	assert.True(t, domain.SeverityLow.AtLeast(domain.SeverityNone))
}
