package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

// WhoisAdapter queries the WHOIS registry for the address's allocation.
// Registry responses are free text; structured parsing is attempted first
// and a line-scanning fallback covers the RIR formats the parser rejects.
type WhoisAdapter struct {
	client *whois.Client
}

func NewWhoisAdapter(timeout time.Duration) *WhoisAdapter {
	client := whois.NewClient()
	client.SetTimeout(timeout)
	return &WhoisAdapter{client: client}
}

func (a *WhoisAdapter) Name() string { return "whois" }

func (a *WhoisAdapter) Lookup(ctx context.Context, ip string) (*types.SourceRecord, error) {
	type result struct {
		raw string
		err error
	}
	ch := make(chan result, 1)

	// The whois client's timeout bounds the query; the goroutine lets us
	// also honor ctx, whichever fires first.
	go func() {
		raw, err := a.client.Whois(ip)
		ch <- result{raw: raw, err: err}
	}()

	var raw string
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("whois lookup of %s: %w", ip, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("whois lookup of %s: %w", ip, r.err)
		}
		raw = r.raw
	}

	rec := a.parse(raw)
	if rec.Organization == "" && rec.ISP == "" {
		return nil, fmt.Errorf("whois response for %s carried no organization", ip)
	}
	rec.Source = a.Name()
	return rec, nil
}

// parse extracts organization data from a raw WHOIS response, trying the
// structured parser first.
func (a *WhoisAdapter) parse(raw string) *types.SourceRecord {
	rec := &types.SourceRecord{}

	if parsed, err := whoisparser.Parse(raw); err == nil {
		if parsed.Registrant != nil {
			rec.Organization = parsed.Registrant.Organization
			rec.Country = parsed.Registrant.Country
		}
		if rec.Organization != "" {
			return rec
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, "orgname:"),
			strings.HasPrefix(lower, "org-name:"),
			strings.HasPrefix(lower, "organization:"),
			strings.HasPrefix(lower, "descr:") && rec.Organization == "":
			rec.Organization = valueAfterColon(line)
		case strings.HasPrefix(lower, "netname:") && rec.ISP == "":
			rec.ISP = valueAfterColon(line)
		case strings.HasPrefix(lower, "country:") && rec.Country == "":
			rec.Country = valueAfterColon(line)
		case strings.HasPrefix(lower, "originas:"), strings.HasPrefix(lower, "origin:"):
			asn := valueAfterColon(line)
			if asn != "" && !strings.HasPrefix(strings.ToUpper(asn), "AS") {
				asn = "AS" + asn
			}
			rec.ASN = asn
		}
	}

	return rec
}

func valueAfterColon(line string) string {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
