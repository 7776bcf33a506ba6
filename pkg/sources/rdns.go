package sources

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

// ReverseDNSAdapter resolves an address back to hostnames. The system
// resolver is tried first; when it yields nothing, a direct PTR query is
// sent to a configured resolver.
type ReverseDNSAdapter struct {
	resolver     *net.Resolver
	dnsClient    *dns.Client
	resolverAddr string
}

func NewReverseDNSAdapter(resolverAddr string, timeout time.Duration) *ReverseDNSAdapter {
	return &ReverseDNSAdapter{
		resolver: net.DefaultResolver,
		dnsClient: &dns.Client{
			Timeout: timeout,
		},
		resolverAddr: resolverAddr,
	}
}

func (a *ReverseDNSAdapter) Name() string { return "rdns" }

func (a *ReverseDNSAdapter) Lookup(ctx context.Context, ip string) (*types.SourceRecord, error) {
	names, err := a.resolver.LookupAddr(ctx, ip)
	if err != nil || len(names) == 0 {
		names, err = a.lookupPTR(ctx, ip)
		if err != nil {
			return nil, fmt.Errorf("reverse lookup of %s: %w", ip, err)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no reverse hostnames for %s", ip)
	}

	hostnames := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSuffix(strings.TrimSpace(n), ".")
		if n != "" {
			hostnames = append(hostnames, n)
		}
	}

	return &types.SourceRecord{
		Source:    a.Name(),
		Hostnames: hostnames,
	}, nil
}

// lookupPTR is the fallback resolution path: a direct PTR query against
// the configured resolver, bypassing the system stub.
func (a *ReverseDNSAdapter) lookupPTR(ctx context.Context, ip string) ([]string, error) {
	arpa, err := dns.ReverseAddr(ip)
	if err != nil {
		return nil, fmt.Errorf("build PTR name: %w", err)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(arpa, dns.TypePTR)
	msg.RecursionDesired = true

	resp, _, err := a.dnsClient.ExchangeContext(ctx, msg, a.resolverAddr)
	if err != nil {
		return nil, fmt.Errorf("PTR query: %w", err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("PTR query rcode %s", dns.RcodeToString[resp.Rcode])
	}

	var names []string
	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			names = append(names, ptr.Ptr)
		}
	}
	return names, nil
}
