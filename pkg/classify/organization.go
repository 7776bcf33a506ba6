package classify

import (
	"strings"

	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/normalize"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

// vpnVocabulary flags organization strings that belong to anonymizing
// services rather than the visitor's employer.
var vpnVocabulary = []string{"vpn", "proxy", "tunnel", "anonymous", "privacy"}

const (
	aliasConfidence      = 90
	genericVPNConfidence = 30
	cleanedConfidence    = 75
	rawConfidence        = 50
)

// OrgClassifier classifies raw organization/ISP strings, consulting the
// alias table for known anonymizer identifiers.
type OrgClassifier struct {
	aliases *AliasTable
}

func NewOrgClassifier(aliases *AliasTable) *OrgClassifier {
	return &OrgClassifier{aliases: aliases}
}

// Classify produces a verdict for one raw organization string. Only an
// empty input yields nil; an opaque string still gets a low-confidence
// verdict.
func (c *OrgClassifier) Classify(raw string) *types.Verdict {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if c.isVPNVocabulary(raw) {
		if real, ok := c.aliases.Match(raw); ok {
			return &types.Verdict{
				IsOrganization: true,
				Company:        real,
				Confidence:     aliasConfidence,
			}
		}
		return &types.Verdict{
			IsOrganization: false,
			Company:        "VPN/Proxy User",
			Confidence:     genericVPNConfidence,
		}
	}

	cleaned := normalize.Clean(raw)
	if cleaned != raw && len(cleaned) > 2 {
		return &types.Verdict{
			IsOrganization: true,
			Company:        cleaned,
			Domain:         guessOrgDomain(cleaned),
			Confidence:     cleanedConfidence,
		}
	}

	return &types.Verdict{
		IsOrganization: true,
		Company:        raw,
		Confidence:     rawConfidence,
	}
}

func (c *OrgClassifier) isVPNVocabulary(s string) bool {
	lower := strings.ToLower(s)
	for _, word := range vpnVocabulary {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// guessOrgDomain proposes a domain only for single-token names, where
// name.com is a plausible guess. Multi-word names are left without one.
func guessOrgDomain(name string) string {
	if strings.ContainsAny(name, " \t") {
		return ""
	}
	return strings.ToLower(name) + ".com"
}
