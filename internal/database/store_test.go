package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeMonkeyCybersecurity/leadlight/internal/config"
	"github.com/CodeMonkeyCybersecurity/leadlight/internal/logger"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

func testVisit(company string, score int, ts time.Time) types.Visit {
	return types.Visit{
		ID:      uuid.New().String(),
		Address: "203.0.113.10",
		Identity: types.Identity{
			Company:         company,
			Domain:          "example.com",
			Country:         "United States",
			DetectionMethod: types.DetectionOrgName,
			Confidence:      75,
			LeadScore:       score,
			IsHighValue:     score >= 70,
		},
		Referrer:       "https://google.com/search",
		ReferrerDomain: "google.com",
		UserAgent:      "Mozilla/5.0",
		Timestamp:      ts,
	}
}

// storeUnderTest runs the same assertions against every implementation.
func storeUnderTest(t *testing.T, store VisitStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	total, err := store.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	require.NoError(t, store.Append(ctx, testVisit("Acme", 55, base)))
	require.NoError(t, store.Append(ctx, testVisit("Acme", 62, base.Add(time.Minute))))
	require.NoError(t, store.Append(ctx, testVisit("Globex", 80, base.Add(2*time.Minute))))
	require.NoError(t, store.Append(ctx, testVisit("Local Network", 0, base.Add(3*time.Minute))))

	total, err = store.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Local Network", recent[0].Identity.Company)
	assert.Equal(t, "Globex", recent[1].Identity.Company)

	rollups, err := store.Rollups(ctx)
	require.NoError(t, err)
	require.Len(t, rollups, 3)
	assert.Equal(t, "Globex", rollups[0].Company)
	assert.True(t, rollups[0].IsHighValue)

	var acme *types.CompanyRollup
	for i := range rollups {
		if rollups[i].Company == "Acme" {
			acme = &rollups[i]
		}
	}
	require.NotNil(t, acme)
	assert.Equal(t, 2, acme.Visits)
	assert.Equal(t, 62, acme.LeadScore)
	assert.False(t, acme.IsHighValue)

	leads, err := store.Leads(ctx, 50)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	for _, lead := range leads {
		assert.GreaterOrEqual(t, lead.LeadScore, 50)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	storeUnderTest(t, store)
}

func TestSQLiteStore(t *testing.T) {
	log, err := logger.New(config.LoggerConfig{Level: "error", Format: "json"})
	require.NoError(t, err)

	store, err := NewStore(config.DatabaseConfig{
		Driver:          "sqlite3",
		DSN:             fmt.Sprintf("file:%s/visits.db?cache=shared", t.TempDir()),
		MaxConnections:  1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, log)
	require.NoError(t, err)
	defer store.Close()

	storeUnderTest(t, store)
}

func TestSQLiteStoreRoundTripsIdentity(t *testing.T) {
	log, err := logger.New(config.LoggerConfig{Level: "error", Format: "json"})
	require.NoError(t, err)

	store, err := NewStore(config.DatabaseConfig{
		Driver:         "sqlite3",
		DSN:            fmt.Sprintf("file:%s/visits.db", t.TempDir()),
		MaxConnections: 1,
	}, log)
	require.NoError(t, err)
	defer store.Close()

	visit := testVisit("Initech", 48, time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC))
	visit.Identity.IsVPN = true
	visit.Identity.RealCompany = "Initech"
	require.NoError(t, store.Append(context.Background(), visit))

	recent, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, visit.Identity, recent[0].Identity)
	assert.Equal(t, visit.Referrer, recent[0].Referrer)
}

func TestNewStoreUnknownDriver(t *testing.T) {
	log, err := logger.New(config.LoggerConfig{Level: "error", Format: "json"})
	require.NoError(t, err)

	_, err = NewStore(config.DatabaseConfig{Driver: "mysql"}, log)
	assert.Error(t, err)
}

func TestMemoryStoreRecentBounds(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	recent, err := store.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, recent)

	require.NoError(t, store.Append(ctx, testVisit("Acme", 10, time.Now())))
	recent, err = store.Recent(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
