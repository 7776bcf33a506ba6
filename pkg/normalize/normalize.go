// Package normalize cleans raw organization and ISP strings into
// human-readable company names.
package normalize

import (
	"regexp"
	"strings"
)

// asnToken matches autonomous-system-number tokens like "AS15169".
var asnToken = regexp.MustCompile(`(?i)\bAS\d+\b`)

// Legal-entity suffixes and generic infrastructure vocabulary stripped as
// whole words, case-insensitively. This list is the main tunable surface.
var noiseWords = []string{
	"llc", "inc", "incorporated", "corp", "corporation", "ltd", "limited",
	"gmbh", "ag", "sa", "srl", "bv", "pty", "plc", "co",
	"internet", "broadband", "telecom", "telecommunications", "communications",
	"networks", "network", "hosting", "cloud", "datacenter", "data",
	"services", "solutions", "technologies", "vpn", "proxy",
}

var noisePattern = buildNoisePattern()

func buildNoisePattern() *regexp.Regexp {
	escaped := make([]string, len(noiseWords))
	for i, w := range noiseWords {
		escaped[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b\.?,?`)
}

var whitespace = regexp.MustCompile(`\s+`)

// Clean strips ASN tokens, legal-entity suffixes, and generic telecom
// vocabulary from a raw organization string. Pure and idempotent; if
// cleaning would empty the string, the original is returned unchanged.
func Clean(raw string) string {
	s := asnToken.ReplaceAllString(raw, " ")
	s = noisePattern.ReplaceAllString(s, " ")
	s = strings.Trim(s, " ,.-")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return raw
	}
	return s
}

// Changed reports whether Clean would alter the input.
func Changed(raw string) bool {
	return Clean(raw) != raw
}
