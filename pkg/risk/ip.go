// Package risk scores the drift between a session's bound network/device
// context and the context observed on the current request.
//
// Every check is a pure function over two contexts: no I/O, no clock, no
// store. A single signal is weak evidence (NAT pools, carrier IP churn,
// browser auto-updates), so severities stay advisory except for a public
// IP change under a strict policy.
package risk

import (
	"fmt"
	"net"
	"strings"

	"github.com/visheshwork12-cmyk/trust-engine/internal/domain"
)

// DefaultSubnetRangeBits is the prefix length treated as "same network"
// for non-strict sessions.
const DefaultSubnetRangeBits = 24

// RFC1918 private address space. Roaming between private addresses is
// common (office wifi to VPN, docker bridges) and low-risk.
var privateRanges = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
)

// IPResult is the outcome of comparing the bound IP with the observed one.
type IPResult struct {
	Valid    bool
	Severity domain.Severity
	Warnings []string
}

// ValidateIP grades the change between originalIP and currentIP.
// Valid is false only for a public change under a strict policy; every
// other branch proceeds with advisory warnings.
func ValidateIP(originalIP, currentIP string, strict bool, rangeBits int) IPResult {
	if originalIP == currentIP {
		return IPResult{Valid: true, Severity: domain.SeverityNone}
	}

	if rangeBits <= 0 {
		rangeBits = DefaultSubnetRangeBits
	}

	if !strict && sameSubnet(originalIP, currentIP, rangeBits) {
		return IPResult{
			Valid:    true,
			Severity: domain.SeverityLow,
			Warnings: []string{fmt.Sprintf("ip changed within /%d range", rangeBits)},
		}
	}

	if isPrivate(originalIP) && isPrivate(currentIP) {
		return IPResult{
			Valid:    true,
			Severity: domain.SeverityMedium,
			Warnings: []string{"ip changed between private networks"},
		}
	}

	// Public IP change: hard severity only when the session's policy is
	// strict. Non-strict sessions collect a warning and proceed.
	if strict {
		return IPResult{
			Valid:    false,
			Severity: domain.SeverityHigh,
			Warnings: []string{"public ip changed under strict validation"},
		}
	}
	return IPResult{
		Valid:    true,
		Severity: domain.SeverityMedium,
		Warnings: []string{"public ip changed"},
	}
}

// sameSubnet compares whole octets covering rangeBits. Truncating to
// ceil(rangeBits/8) octets is a deliberate coarse approximation of CIDR
// matching, kept tunable through rangeBits.
func sameSubnet(a, b string, rangeBits int) bool {
	octets := (rangeBits + 7) / 8
	if octets > 4 {
		octets = 4
	}

	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")
	if len(aParts) != 4 || len(bParts) != 4 {
		return false
	}

	for i := 0; i < octets; i++ {
		if aParts[i] != bParts[i] {
			return false
		}
	}
	return true
}

func isPrivate(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, cidr := range privateRanges {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(fmt.Sprintf("invalid cidr %q: %v", c, err))
		}
		nets = append(nets, n)
	}
	return nets
}
