// Package fusion combines source records and classifier verdicts into a
// single visitor identity under a fixed precedence policy.
package fusion

import (
	"net"
	"strings"

	"github.com/CodeMonkeyCybersecurity/leadlight/internal/logger"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/classify"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

const (
	aliasConfidence = 95
	localConfidence = 100

	// A lower-precedence tier may displace an earlier selection only when
	// its best verdict clears this bar and the current selection.
	overrideThreshold = 70
)

// Engine applies the precedence policy: alias table, then reverse-DNS
// hostname verdicts, then organization-name verdicts, then nothing.
type Engine struct {
	aliases *classify.AliasTable
	orgCls  *classify.OrgClassifier
	logger  *logger.Logger
}

func NewEngine(aliases *classify.AliasTable, log *logger.Logger) *Engine {
	return &Engine{
		aliases: aliases,
		orgCls:  classify.NewOrgClassifier(aliases),
		logger:  log.WithComponent("fusion"),
	}
}

// Fuse folds the available records into one identity. Records must be in
// adapter-priority order; descriptive fields come from the first record
// regardless of which classifier tier wins.
func (e *Engine) Fuse(records []*types.SourceRecord) types.Identity {
	identity := types.Identity{
		Company:         "Unknown",
		DetectionMethod: types.DetectionNone,
	}

	e.fillDescriptiveFields(&identity, records)

	orgStrings := collectOrgStrings(records)

	// Tier 1: manual alias overrides beat everything.
	for _, s := range orgStrings {
		real, ok := e.aliases.Match(s)
		if !ok {
			continue
		}
		identity.Company = real
		identity.RealCompany = real
		identity.IsVPN = true
		identity.DetectionMethod = types.DetectionAlias
		identity.Confidence = aliasConfidence
		e.logger.Debugw("Alias mapping matched", "company", real, "matched_on", s)
		return identity
	}

	selected := (*types.Verdict)(nil)
	method := types.DetectionNone

	// Tier 2: reverse-DNS hostname classification, best verdict kept.
	if v := bestHostnameVerdict(records); v != nil {
		selected = v
		method = types.DetectionReverseDNS
	}

	// Tier 3: organization-name classification, overriding only with a
	// strictly stronger verdict above the threshold.
	if v := e.bestOrgVerdict(orgStrings); v != nil {
		if selected == nil || (v.Confidence > overrideThreshold && v.Confidence > selected.Confidence) {
			selected = v
			method = types.DetectionOrgName
		}
	}

	if selected == nil {
		return identity
	}

	identity.Company = selected.Company
	identity.Domain = selected.Domain
	identity.DetectionMethod = method
	identity.Confidence = selected.Confidence
	if !selected.IsOrganization {
		identity.IsVPN = true
	}
	return identity
}

// LocalIdentity is the fixed identity for private or unparseable
// addresses; the external sources are never consulted for these.
func (e *Engine) LocalIdentity() types.Identity {
	return types.Identity{
		Company:         "Local Network",
		Organization:    "Local Network",
		DetectionMethod: types.DetectionLocal,
		Confidence:      localConfidence,
	}
}

func (e *Engine) fillDescriptiveFields(identity *types.Identity, records []*types.SourceRecord) {
	for _, rec := range records {
		if rec == nil {
			continue
		}
		identity.Country = rec.Country
		identity.City = rec.City
		identity.Organization = rec.Organization
		identity.ISP = rec.ISP
		identity.IsProxy = rec.Proxy
		return
	}
}

func (e *Engine) bestOrgVerdict(orgStrings []string) *types.Verdict {
	var best *types.Verdict
	for _, s := range orgStrings {
		v := e.orgCls.Classify(s)
		if v == nil {
			continue
		}
		if best == nil || v.Confidence > best.Confidence {
			best = v
		}
	}
	return best
}

func bestHostnameVerdict(records []*types.SourceRecord) *types.Verdict {
	var best *types.Verdict
	for _, rec := range records {
		for _, host := range rec.Hostnames {
			v := classify.ClassifyHostname(host)
			if v == nil {
				continue
			}
			if best == nil || v.Confidence > best.Confidence {
				best = v
			}
		}
	}
	return best
}

// collectOrgStrings gathers every distinct organization and ISP string in
// adapter-priority order.
func collectOrgStrings(records []*types.SourceRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range records {
		for _, s := range []string{rec.Organization, rec.ISP} {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			key := strings.ToLower(s)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
		}
	}
	return out
}

// IsPrivateAddress reports whether the address must take the local fast
// path. Empty and unparseable inputs are treated as private so a bad
// forwarded header degrades to "Local Network" instead of failing.
func IsPrivateAddress(address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return true
	}
	ip := net.ParseIP(address)
	if ip == nil {
		return true
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
