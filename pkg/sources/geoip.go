package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/CodeMonkeyCybersecurity/leadlight/internal/httpclient"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

// GeoIPAdapter queries an ip-api.com style geo-IP/ISP endpoint.
type GeoIPAdapter struct {
	baseURL string
	client  *http.Client
}

func NewGeoIPAdapter(baseURL string, client *http.Client) *GeoIPAdapter {
	return &GeoIPAdapter{
		baseURL: baseURL,
		client:  client,
	}
}

func (a *GeoIPAdapter) Name() string { return "geoip" }

type geoIPResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
	ISP        string `json:"isp"`
	Org        string `json:"org"`
	AS         string `json:"as"`
	Proxy      bool   `json:"proxy"`
	Hosting    bool   `json:"hosting"`
}

func (a *GeoIPAdapter) Lookup(ctx context.Context, ip string) (*types.SourceRecord, error) {
	url := fmt.Sprintf("%s/%s?fields=status,message,country,regionName,city,isp,org,as,proxy,hosting", a.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build geoip request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geoip request: %w", err)
	}
	defer httpclient.CloseBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geoip returned HTTP %d", resp.StatusCode)
	}

	var body geoIPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode geoip response: %w", err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("geoip lookup failed: %s", body.Message)
	}

	org := body.Org
	if org == "" {
		org = body.ISP
	}

	return &types.SourceRecord{
		Source:       a.Name(),
		Organization: org,
		ISP:          body.ISP,
		ASN:          body.AS,
		Country:      body.Country,
		Region:       body.RegionName,
		City:         body.City,
		Proxy:        body.Proxy,
		Hosting:      body.Hosting,
	}, nil
}
