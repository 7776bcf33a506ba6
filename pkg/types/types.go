// Package types contains the shared data model for visit enrichment.
package types

import "time"

// DetectionMethod identifies which signal produced a visitor identity.
type DetectionMethod string

const (
	DetectionAlias      DetectionMethod = "alias-mapping"
	DetectionReverseDNS DetectionMethod = "reverse-dns"
	DetectionOrgName    DetectionMethod = "organization-name"
	DetectionNone       DetectionMethod = "none"
	DetectionLocal      DetectionMethod = "local"
)

// SourceRecord is one adapter's view of an address. An adapter that fails
// or times out simply contributes no record; absence is not an error.
type SourceRecord struct {
	Source       string   `json:"source"`
	Organization string   `json:"organization,omitempty"`
	ISP          string   `json:"isp,omitempty"`
	ASN          string   `json:"asn,omitempty"`
	Country      string   `json:"country,omitempty"`
	Region       string   `json:"region,omitempty"`
	City         string   `json:"city,omitempty"`
	Hostnames    []string `json:"hostnames,omitempty"`
	Proxy        bool     `json:"proxy,omitempty"`
	Hosting      bool     `json:"hosting,omitempty"`
}

// Verdict is a classifier's proposed organization identity for one field of
// one source record. Confidence is 0-100.
type Verdict struct {
	IsOrganization bool   `json:"is_organization"`
	Company        string `json:"company"`
	Domain         string `json:"domain,omitempty"`
	Confidence     int    `json:"confidence"`
}

// Identity is the fused result of all source records and classifier
// verdicts for one visit. Immutable once produced.
type Identity struct {
	Company         string          `json:"company"`
	RealCompany     string          `json:"realCompany,omitempty"`
	Domain          string          `json:"domain,omitempty"`
	Country         string          `json:"country,omitempty"`
	City            string          `json:"city,omitempty"`
	Organization    string          `json:"organization,omitempty"`
	ISP             string          `json:"isp,omitempty"`
	IsVPN           bool            `json:"isVPN"`
	IsProxy         bool            `json:"isProxy"`
	DetectionMethod DetectionMethod `json:"detectionMethod"`
	Confidence      int             `json:"confidence"`
	LeadScore       int             `json:"leadScore"`
	IsHighValue     bool            `json:"isHighValue"`
}

// Visit is one enriched page visit. Created once per inbound request and
// appended to the visit log in arrival order.
type Visit struct {
	ID             string    `json:"id"`
	Address        string    `json:"address"`
	Identity       Identity  `json:"identity"`
	Referrer       string    `json:"referrer"`
	ReferrerDomain string    `json:"referrerDomain"`
	UserAgent      string    `json:"userAgent"`
	CurrentURL     string    `json:"currentUrl,omitempty"`
	PageTitle      string    `json:"pageTitle,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// CompanyRollup is the per-organization aggregate served by the dashboard.
type CompanyRollup struct {
	Company     string    `json:"company"`
	Domain      string    `json:"domain,omitempty"`
	Country     string    `json:"country,omitempty"`
	Visits      int       `json:"visits"`
	LeadScore   int       `json:"leadScore"`
	IsHighValue bool      `json:"isHighValue"`
	LastVisit   time.Time `json:"lastVisit"`
}
