package fusion

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeMonkeyCybersecurity/leadlight/internal/config"
	"github.com/CodeMonkeyCybersecurity/leadlight/internal/logger"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/classify"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

func newTestEngine(t *testing.T, aliases *classify.AliasTable) *Engine {
	t.Helper()
	log, err := logger.New(config.LoggerConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	if aliases == nil {
		aliases = classify.NewAliasTable()
	}
	return NewEngine(aliases, log)
}

func TestFuseNoRecords(t *testing.T) {
	e := newTestEngine(t, nil)

	got := e.Fuse(nil)

	want := types.Identity{
		Company:         "Unknown",
		DetectionMethod: types.DetectionNone,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("identity mismatch (-want +got):\n%s", diff)
	}
}

func TestFuseOrganizationName(t *testing.T) {
	e := newTestEngine(t, nil)

	got := e.Fuse([]*types.SourceRecord{
		{
			Source:       "geoip",
			Organization: "Google LLC",
			ISP:          "Google LLC",
			Country:      "United States",
			City:         "Mountain View",
		},
	})

	assert.Equal(t, "Google", got.Company)
	assert.Equal(t, types.DetectionOrgName, got.DetectionMethod)
	assert.Equal(t, 75, got.Confidence)
	assert.Equal(t, "google.com", got.Domain)
	assert.Equal(t, "United States", got.Country)
	assert.Equal(t, "Google LLC", got.Organization)
}

func TestFuseReverseDNSBeatsWeakerOrgVerdict(t *testing.T) {
	e := newTestEngine(t, nil)

	got := e.Fuse([]*types.SourceRecord{
		{Source: "geoip", Organization: "Comcast", Country: "United States"},
		{Source: "rdns", Hostnames: []string{"mail.acme-corp.com"}},
	})

	// Hostname verdict (90) outranks the raw org verdict (50); the org
	// tier cannot override because 50 is under the threshold.
	assert.Equal(t, "Acme-corp", got.Company)
	assert.Equal(t, "acme-corp.com", got.Domain)
	assert.Equal(t, types.DetectionReverseDNS, got.DetectionMethod)
	assert.Equal(t, 90, got.Confidence)
}

func TestFuseOrgOverridesWeakHostnameVerdict(t *testing.T) {
	e := newTestEngine(t, nil)

	got := e.Fuse([]*types.SourceRecord{
		{Source: "geoip", Organization: "Google LLC"},
		{Source: "rdns", Hostnames: []string{"pool.dynamic.example.net"}},
	})

	// The generic hostname fallback scores 60; the cleaned org verdict at
	// 75 clears both the threshold and the current selection.
	assert.Equal(t, "Google", got.Company)
	assert.Equal(t, types.DetectionOrgName, got.DetectionMethod)
	assert.Equal(t, 75, got.Confidence)
}

func TestFuseAliasAlwaysWins(t *testing.T) {
	aliases := classify.NewAliasTable()
	require.NoError(t, aliases.Add("p81", "Kinto Join"))
	e := newTestEngine(t, aliases)

	got := e.Fuse([]*types.SourceRecord{
		{Source: "geoip", Organization: "p81 Perimeter Networks", Country: "Israel"},
		{Source: "rdns", Hostnames: []string{"internal.globex.io"}},
	})

	assert.Equal(t, "Kinto Join", got.Company)
	assert.Equal(t, "Kinto Join", got.RealCompany)
	assert.True(t, got.IsVPN)
	assert.Equal(t, types.DetectionAlias, got.DetectionMethod)
	assert.Equal(t, aliasConfidence, got.Confidence)
}

func TestFuseDescriptiveFieldsFromFirstRecord(t *testing.T) {
	e := newTestEngine(t, nil)

	got := e.Fuse([]*types.SourceRecord{
		{Source: "geoip", Organization: "Initech", Country: "United States", City: "Austin", ISP: "Initech"},
		{Source: "ipinfo", Organization: "Initech Inc", Country: "Canada", City: "Toronto"},
	})

	assert.Equal(t, "United States", got.Country)
	assert.Equal(t, "Austin", got.City)
	assert.Equal(t, "Initech", got.Organization)
}

func TestFuseVPNWithoutAliasFlagsVisitor(t *testing.T) {
	e := newTestEngine(t, nil)

	got := e.Fuse([]*types.SourceRecord{
		{Source: "geoip", Organization: "FastTunnel VPN"},
	})

	assert.Equal(t, "VPN/Proxy User", got.Company)
	assert.True(t, got.IsVPN)
	assert.Empty(t, got.RealCompany)
	assert.Equal(t, types.DetectionOrgName, got.DetectionMethod)
}

func TestLocalIdentity(t *testing.T) {
	e := newTestEngine(t, nil)

	got := e.LocalIdentity()
	assert.Equal(t, "Local Network", got.Company)
	assert.Equal(t, types.DetectionLocal, got.DetectionMethod)
	assert.Equal(t, localConfidence, got.Confidence)
}

func TestIsPrivateAddress(t *testing.T) {
	private := []string{"", "not-an-ip", "127.0.0.1", "10.1.2.3", "192.168.0.10", "172.16.5.5", "::1", "169.254.1.1", "0.0.0.0"}
	for _, addr := range private {
		assert.True(t, IsPrivateAddress(addr), "expected private: %q", addr)
	}

	public := []string{"8.8.8.8", "93.184.216.34", "2606:4700::1111"}
	for _, addr := range public {
		assert.False(t, IsPrivateAddress(addr), "expected public: %q", addr)
	}
}
