// Package scoring assigns a 0-100 lead score to a resolved visitor
// identity. The score rewards confident identification of a named
// business and penalizes anonymized traffic that could not be tied
// back to a real organization.
package scoring

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

const (
	// HighValueThreshold marks identities worth immediate sales attention.
	HighValueThreshold = 70

	// PotentialLeadThreshold is the dashboard cutoff for listing a
	// company as a potential lead.
	PotentialLeadThreshold = 50
)

// Method bonuses reflect how trustworthy each detection path is.
const (
	aliasBonus      = 25
	reverseDNSBonus = 20
	orgNameBonus    = 15
)

const (
	knownCompanyBonus = 40
	domainBonus       = 8
	countryBonus      = 7
	vpnPenalty        = 15
)

// Tables holds the curated inputs the scorer consults. Loaded from
// YAML when the operator supplies a file, otherwise the built-in
// defaults apply.
type Tables struct {
	KnownCompanies    []string          `yaml:"known_companies"`
	HighValueCountries []string         `yaml:"high_value_countries"`
	Aliases           map[string]string `yaml:"aliases"`
}

func defaultTables() Tables {
	return Tables{
		KnownCompanies: []string{
			"google", "microsoft", "amazon", "apple", "meta",
			"salesforce", "oracle", "ibm", "cisco", "intel",
			"nvidia", "adobe", "sap", "siemens", "accenture",
			"deloitte", "atlassian", "shopify", "stripe",
		},
		HighValueCountries: []string{
			"united states", "canada", "united kingdom", "germany",
			"france", "netherlands", "switzerland", "australia",
			"japan", "singapore", "sweden", "norway", "denmark",
		},
	}
}

// LoadTables reads scoring tables from a YAML file. An empty path
// returns the built-in defaults.
func LoadTables(path string) (Tables, error) {
	tables := defaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tables, fmt.Errorf("read scoring tables: %w", err)
	}

	var loaded Tables
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return tables, fmt.Errorf("parse scoring tables: %w", err)
	}

	if len(loaded.KnownCompanies) > 0 {
		tables.KnownCompanies = loaded.KnownCompanies
	}
	if len(loaded.HighValueCountries) > 0 {
		tables.HighValueCountries = loaded.HighValueCountries
	}
	tables.Aliases = loaded.Aliases
	return tables, nil
}

// Scorer computes lead scores against a fixed set of tables. Safe for
// concurrent use; the tables are read-only after construction.
type Scorer struct {
	knownCompanies     []string
	highValueCountries map[string]struct{}
}

func NewScorer(tables Tables) *Scorer {
	s := &Scorer{
		knownCompanies:     make([]string, 0, len(tables.KnownCompanies)),
		highValueCountries: make(map[string]struct{}, len(tables.HighValueCountries)),
	}
	for _, name := range tables.KnownCompanies {
		s.knownCompanies = append(s.knownCompanies, strings.ToLower(name))
	}
	for _, country := range tables.HighValueCountries {
		s.highValueCountries[strings.ToLower(country)] = struct{}{}
	}
	return s
}

// Score fills LeadScore and IsHighValue on the identity and returns it.
// Local-network identities always score zero.
func (s *Scorer) Score(identity types.Identity) types.Identity {
	if identity.DetectionMethod == types.DetectionLocal {
		identity.LeadScore = 0
		identity.IsHighValue = false
		return identity
	}

	score := 0
	switch identity.DetectionMethod {
	case types.DetectionAlias:
		score += aliasBonus
	case types.DetectionReverseDNS:
		score += reverseDNSBonus
	case types.DetectionOrgName:
		score += orgNameBonus
	}

	score += identity.Confidence / 10

	if s.isKnownCompany(identity) {
		score += knownCompanyBonus
	}
	if identity.Domain != "" {
		score += domainBonus
	}
	if _, ok := s.highValueCountries[strings.ToLower(identity.Country)]; ok {
		score += countryBonus
	}
	if identity.IsVPN && identity.RealCompany == "" {
		score -= vpnPenalty
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	identity.LeadScore = score
	identity.IsHighValue = score >= HighValueThreshold
	return identity
}

// isKnownCompany checks the company name, and the real company behind
// a recognized VPN, against the curated list.
func (s *Scorer) isKnownCompany(identity types.Identity) bool {
	names := []string{identity.Company}
	if identity.RealCompany != "" {
		names = append(names, identity.RealCompany)
	}
	for _, name := range names {
		lower := strings.ToLower(name)
		if lower == "" {
			continue
		}
		for _, known := range s.knownCompanies {
			if strings.Contains(lower, known) {
				return true
			}
		}
	}
	return false
}
