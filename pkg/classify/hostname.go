package classify

import (
	"regexp"
	"strings"

	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

// hostnamePattern is one named extraction rule. Order reflects decreasing
// specificity; first match wins.
type hostnamePattern struct {
	name       string
	re         *regexp.Regexp
	confidence int
}

// The org capture group is the first submatch. Patterns assume hostnames
// already lowercased with the trailing dot stripped.
var hostnamePatterns = []hostnamePattern{
	{"internal-prefix", regexp.MustCompile(`^internal\.([a-z0-9-]+)\.`), 95},
	{"corp-label", regexp.MustCompile(`^([a-z0-9-]+)\.corp\.`), 93},
	{"corp-suffix", regexp.MustCompile(`^([a-z0-9-]+)-corp\.`), 92},
	{"vpn-prefix", regexp.MustCompile(`^vpn\.([a-z0-9-]+)\.`), 90},
	{"mail-prefix", regexp.MustCompile(`^mail\.([a-z0-9-]+)\.`), 90},
	{"remote-prefix", regexp.MustCompile(`^remote\.([a-z0-9-]+)\.`), 88},
	{"gateway-prefix", regexp.MustCompile(`^gw\.([a-z0-9-]+)\.`), 85},
}

// genericTLDs are label values that never denote an organization.
var genericTLDs = map[string]bool{
	"com": true, "net": true, "org": true, "edu": true,
	"gov": true, "mil": true, "int": true,
}

const fallbackConfidence = 60

// ClassifyHostname extracts an organization verdict from a resolved
// hostname. Returns nil when the hostname carries no organization signal.
func ClassifyHostname(hostname string) *types.Verdict {
	host := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(hostname), "."))
	if host == "" || !strings.Contains(host, ".") {
		return nil
	}

	for _, p := range hostnamePatterns {
		m := p.re.FindStringSubmatch(host)
		if m == nil {
			continue
		}
		org := m[1]
		if genericTLDs[org] {
			continue
		}
		return &types.Verdict{
			IsOrganization: true,
			Company:        capitalize(org),
			Domain:         guessDomain(host, org),
			Confidence:     p.confidence,
		}
	}

	// Fallback: the second-to-last label is usually the registrable name,
	// unless it is itself a generic TLD token (e.g. "example.com.br").
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return nil
	}
	org := labels[len(labels)-2]
	if genericTLDs[org] || org == "" {
		return nil
	}
	return &types.Verdict{
		IsOrganization: true,
		Company:        capitalize(org),
		Domain:         strings.Join(labels[len(labels)-2:], "."),
		Confidence:     fallbackConfidence,
	}
}

// guessDomain derives the registrable domain from a classified hostname:
// everything after the org label's position, or the org plus the remaining
// labels for prefix patterns (mail.acme-corp.com -> acme-corp.com).
func guessDomain(host, org string) string {
	idx := strings.Index(host, org+".")
	if idx >= 0 {
		return host[idx:]
	}
	// Suffix-style match like "acme-corp.example.com".
	labels := strings.Split(host, ".")
	if len(labels) >= 2 {
		return strings.Join(labels[len(labels)-2:], ".")
	}
	return host
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
