package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

func TestScoreKnownCompany(t *testing.T) {
	s := NewScorer(defaultTables())

	got := s.Score(types.Identity{
		Company:         "Google",
		Domain:          "google.com",
		Country:         "United States",
		DetectionMethod: types.DetectionOrgName,
		Confidence:      75,
	})

	// 15 method + 7 confidence + 40 known + 8 domain + 7 country.
	assert.Equal(t, 77, got.LeadScore)
	assert.True(t, got.IsHighValue)
}

func TestScoreLocalNetworkIsZero(t *testing.T) {
	s := NewScorer(defaultTables())

	got := s.Score(types.Identity{
		Company:         "Local Network",
		DetectionMethod: types.DetectionLocal,
		Confidence:      100,
	})

	assert.Equal(t, 0, got.LeadScore)
	assert.False(t, got.IsHighValue)
}

func TestScoreUnidentifiedVisitor(t *testing.T) {
	s := NewScorer(defaultTables())

	got := s.Score(types.Identity{
		Company:         "Unknown",
		DetectionMethod: types.DetectionNone,
	})

	assert.Equal(t, 0, got.LeadScore)
	assert.False(t, got.IsHighValue)
}

func TestScoreAnonymousVPNPenalized(t *testing.T) {
	s := NewScorer(defaultTables())

	got := s.Score(types.Identity{
		Company:         "VPN/Proxy User",
		DetectionMethod: types.DetectionOrgName,
		Confidence:      30,
		IsVPN:           true,
	})

	// 15 method + 3 confidence - 15 penalty.
	assert.Equal(t, 3, got.LeadScore)
	assert.False(t, got.IsHighValue)
}

func TestScoreRecognizedVPNNotPenalized(t *testing.T) {
	s := NewScorer(defaultTables())

	got := s.Score(types.Identity{
		Company:         "Microsoft",
		RealCompany:     "Microsoft",
		Domain:          "microsoft.com",
		Country:         "United States",
		DetectionMethod: types.DetectionAlias,
		Confidence:      95,
		IsVPN:           true,
	})

	// 25 method + 9 confidence + 40 known + 8 domain + 7 country.
	assert.Equal(t, 89, got.LeadScore)
	assert.True(t, got.IsHighValue)
}

func TestScoreClampedToHundred(t *testing.T) {
	s := NewScorer(Tables{
		KnownCompanies:     []string{"acme"},
		HighValueCountries: []string{"united states"},
	})

	// A misbehaving source can report confidence above 100; the raw
	// sum here is 25 + 30 + 40 + 8 + 7 = 110.
	got := s.Score(types.Identity{
		Company:         "Acme Corporation",
		Domain:          "acme.com",
		Country:         "United States",
		DetectionMethod: types.DetectionAlias,
		Confidence:      300,
	})

	assert.Equal(t, 100, got.LeadScore)
	assert.True(t, got.IsHighValue)
}

func TestScoreClampedToZero(t *testing.T) {
	s := NewScorer(defaultTables())

	// Anonymous VPN with no detection method: 0 - 15 penalty.
	got := s.Score(types.Identity{
		Company:         "Unknown",
		DetectionMethod: types.DetectionNone,
		IsVPN:           true,
	})

	assert.Equal(t, 0, got.LeadScore)
	assert.False(t, got.IsHighValue)
}

func TestLoadTablesDefaults(t *testing.T) {
	tables, err := LoadTables("")
	require.NoError(t, err)
	assert.NotEmpty(t, tables.KnownCompanies)
	assert.NotEmpty(t, tables.HighValueCountries)
}

func TestLoadTablesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	data := `known_companies:
  - globex
high_value_countries:
  - ireland
aliases:
  p81: Kinto Join
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	tables, err := LoadTables(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"globex"}, tables.KnownCompanies)
	assert.Equal(t, []string{"ireland"}, tables.HighValueCountries)
	assert.Equal(t, "Kinto Join", tables.Aliases["p81"])
}

func TestLoadTablesMissingFile(t *testing.T) {
	_, err := LoadTables(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
