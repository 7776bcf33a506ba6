package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/CodeMonkeyCybersecurity/leadlight/internal/httpclient"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

// IPInfoAdapter queries a secondary ipwho.is style IP-info endpoint. It
// overlaps with the geo-IP source on purpose: the fusion engine picks the
// best signal from whichever sources answered.
type IPInfoAdapter struct {
	baseURL string
	client  *http.Client
}

func NewIPInfoAdapter(baseURL string, client *http.Client) *IPInfoAdapter {
	return &IPInfoAdapter{
		baseURL: baseURL,
		client:  client,
	}
}

func (a *IPInfoAdapter) Name() string { return "ipinfo" }

type ipInfoResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Country    string `json:"country"`
	Region     string `json:"region"`
	City       string `json:"city"`
	Connection struct {
		ASN int    `json:"asn"`
		Org string `json:"org"`
		ISP string `json:"isp"`
	} `json:"connection"`
	Security struct {
		Proxy   bool `json:"proxy"`
		VPN     bool `json:"vpn"`
		Hosting bool `json:"hosting"`
	} `json:"security"`
}

func (a *IPInfoAdapter) Lookup(ctx context.Context, ip string) (*types.SourceRecord, error) {
	url := fmt.Sprintf("%s/%s", a.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build ipinfo request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipinfo request: %w", err)
	}
	defer httpclient.CloseBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipinfo returned HTTP %d", resp.StatusCode)
	}

	var body ipInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode ipinfo response: %w", err)
	}
	if !body.Success {
		return nil, fmt.Errorf("ipinfo lookup failed: %s", body.Message)
	}

	asn := ""
	if body.Connection.ASN != 0 {
		asn = fmt.Sprintf("AS%d", body.Connection.ASN)
	}

	return &types.SourceRecord{
		Source:       a.Name(),
		Organization: body.Connection.Org,
		ISP:          body.Connection.ISP,
		ASN:          asn,
		Country:      body.Country,
		Region:       body.Region,
		City:         body.City,
		Proxy:        body.Security.Proxy || body.Security.VPN,
		Hosting:      body.Security.Hosting,
	}, nil
}
