// Package database persists visits. The default store keeps everything
// in memory; sqlite3 and postgres stores are drop-in replacements
// behind the same interface.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/CodeMonkeyCybersecurity/leadlight/internal/config"
	"github.com/CodeMonkeyCybersecurity/leadlight/internal/logger"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/scoring"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/types"
)

// VisitStore is the persistence boundary for recorded visits.
type VisitStore interface {
	Append(ctx context.Context, visit types.Visit) error
	Recent(ctx context.Context, n int) ([]types.Visit, error)
	Total(ctx context.Context) (int, error)
	Rollups(ctx context.Context) ([]types.CompanyRollup, error)
	Leads(ctx context.Context, minScore int) ([]types.CompanyRollup, error)
	Close() error
}

// NewStore selects a store implementation from the configured driver.
func NewStore(cfg config.DatabaseConfig, log *logger.Logger) (VisitStore, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite3", "postgres":
		return newSQLStore(cfg, log.WithComponent("database"))
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

// memoryStore keeps visits in insertion order under a mutex.
type memoryStore struct {
	mu     sync.RWMutex
	visits []types.Visit
}

func NewMemoryStore() VisitStore {
	return &memoryStore{}
}

func (m *memoryStore) Append(_ context.Context, visit types.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits = append(m.visits, visit)
	return nil
}

func (m *memoryStore) Recent(_ context.Context, n int) ([]types.Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n <= 0 || n > len(m.visits) {
		n = len(m.visits)
	}
	out := make([]types.Visit, 0, n)
	for i := len(m.visits) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.visits[i])
	}
	return out, nil
}

func (m *memoryStore) Total(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.visits), nil
}

func (m *memoryStore) Rollups(_ context.Context) ([]types.CompanyRollup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return rollupVisits(m.visits), nil
}

func (m *memoryStore) Leads(ctx context.Context, minScore int) ([]types.CompanyRollup, error) {
	rollups, err := m.Rollups(ctx)
	if err != nil {
		return nil, err
	}
	return filterLeads(rollups, minScore), nil
}

func (m *memoryStore) Close() error { return nil }

// rollupVisits aggregates visits by company. The rollup carries the best
// score seen for the company and the most recent descriptive fields.
func rollupVisits(visits []types.Visit) []types.CompanyRollup {
	byCompany := make(map[string]*types.CompanyRollup)
	for _, v := range visits {
		r, ok := byCompany[v.Identity.Company]
		if !ok {
			r = &types.CompanyRollup{Company: v.Identity.Company}
			byCompany[v.Identity.Company] = r
		}
		r.Visits++
		if v.Identity.LeadScore > r.LeadScore {
			r.LeadScore = v.Identity.LeadScore
		}
		if v.Timestamp.After(r.LastVisit) {
			r.LastVisit = v.Timestamp
			r.Domain = v.Identity.Domain
			r.Country = v.Identity.Country
		}
	}

	out := make([]types.CompanyRollup, 0, len(byCompany))
	for _, r := range byCompany {
		r.IsHighValue = r.LeadScore >= scoring.HighValueThreshold
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LeadScore != out[j].LeadScore {
			return out[i].LeadScore > out[j].LeadScore
		}
		return out[i].Company < out[j].Company
	})
	return out
}

func filterLeads(rollups []types.CompanyRollup, minScore int) []types.CompanyRollup {
	out := make([]types.CompanyRollup, 0, len(rollups))
	for _, r := range rollups {
		if r.LeadScore >= minScore {
			out = append(out, r)
		}
	}
	return out
}

type sqlStore struct {
	db     *sqlx.DB
	cfg    config.DatabaseConfig
	logger *logger.Logger
}

func newSQLStore(cfg config.DatabaseConfig, log *logger.Logger) (VisitStore, error) {
	start := time.Now()
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &sqlStore{db: db, cfg: cfg, logger: log}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.LogDuration(context.Background(), "database.Open", start,
		"driver", cfg.Driver)
	return store, nil
}

// getPlaceholder returns the appropriate placeholder for the database driver
func (s *sqlStore) getPlaceholder(n int) string {
	if s.cfg.Driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *sqlStore) migrate() error {
	if s.cfg.Driver == "sqlite3" {
		if _, err := s.db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			return fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS visits (
		id TEXT PRIMARY KEY,
		address TEXT NOT NULL,
		company TEXT NOT NULL,
		domain TEXT,
		country TEXT,
		detection_method TEXT NOT NULL,
		lead_score INTEGER NOT NULL,
		identity TEXT NOT NULL,
		referrer TEXT,
		referrer_domain TEXT,
		user_agent TEXT,
		current_url TEXT,
		page_title TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_visits_company ON visits(company);
	CREATE INDEX IF NOT EXISTS idx_visits_created_at ON visits(created_at);
	CREATE INDEX IF NOT EXISTS idx_visits_lead_score ON visits(lead_score);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

type visitRow struct {
	ID              string    `db:"id"`
	Address         string    `db:"address"`
	Company         string    `db:"company"`
	Domain          string    `db:"domain"`
	Country         string    `db:"country"`
	DetectionMethod string    `db:"detection_method"`
	LeadScore       int       `db:"lead_score"`
	Identity        string    `db:"identity"`
	Referrer        string    `db:"referrer"`
	ReferrerDomain  string    `db:"referrer_domain"`
	UserAgent       string    `db:"user_agent"`
	CurrentURL      string    `db:"current_url"`
	PageTitle       string    `db:"page_title"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r visitRow) toVisit() (types.Visit, error) {
	var identity types.Identity
	if err := json.Unmarshal([]byte(r.Identity), &identity); err != nil {
		return types.Visit{}, fmt.Errorf("unmarshal identity for visit %s: %w", r.ID, err)
	}
	return types.Visit{
		ID:             r.ID,
		Address:        r.Address,
		Identity:       identity,
		Referrer:       r.Referrer,
		ReferrerDomain: r.ReferrerDomain,
		UserAgent:      r.UserAgent,
		CurrentURL:     r.CurrentURL,
		PageTitle:      r.PageTitle,
		Timestamp:      r.CreatedAt,
	}, nil
}

func (s *sqlStore) Append(ctx context.Context, visit types.Visit) error {
	start := time.Now()

	identityJSON, err := json.Marshal(visit.Identity)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	query := `
		INSERT INTO visits (
			id, address, company, domain, country, detection_method,
			lead_score, identity, referrer, referrer_domain,
			user_agent, current_url, page_title, created_at
		) VALUES (
			:id, :address, :company, :domain, :country, :detection_method,
			:lead_score, :identity, :referrer, :referrer_domain,
			:user_agent, :current_url, :page_title, :created_at
		)
	`

	args := map[string]interface{}{
		"id":               visit.ID,
		"address":          visit.Address,
		"company":          visit.Identity.Company,
		"domain":           visit.Identity.Domain,
		"country":          visit.Identity.Country,
		"detection_method": string(visit.Identity.DetectionMethod),
		"lead_score":       visit.Identity.LeadScore,
		"identity":         string(identityJSON),
		"referrer":         visit.Referrer,
		"referrer_domain":  visit.ReferrerDomain,
		"user_agent":       visit.UserAgent,
		"current_url":      visit.CurrentURL,
		"page_title":       visit.PageTitle,
		"created_at":       visit.Timestamp,
	}

	if _, err := s.db.NamedExecContext(ctx, query, args); err != nil {
		s.logger.LogError(ctx, err, "database.Append", "visit_id", visit.ID)
		return fmt.Errorf("insert visit: %w", err)
	}

	s.logger.WithContext(ctx).Debugw("Visit persisted",
		"visit_id", visit.ID,
		"company", visit.Identity.Company,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *sqlStore) Recent(ctx context.Context, n int) ([]types.Visit, error) {
	if n <= 0 {
		n = 10
	}

	query := fmt.Sprintf(`
		SELECT id, address, company, domain, country, detection_method,
		       lead_score, identity, referrer, referrer_domain,
		       user_agent, current_url, page_title, created_at
		FROM visits
		ORDER BY created_at DESC
		LIMIT %s`, s.getPlaceholder(1))

	var rows []visitRow
	if err := s.db.SelectContext(ctx, &rows, query, n); err != nil {
		return nil, fmt.Errorf("query recent visits: %w", err)
	}

	visits := make([]types.Visit, 0, len(rows))
	for _, row := range rows {
		visit, err := row.toVisit()
		if err != nil {
			return nil, err
		}
		visits = append(visits, visit)
	}
	return visits, nil
}

func (s *sqlStore) Total(ctx context.Context) (int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM visits"); err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return total, nil
}

func (s *sqlStore) Rollups(ctx context.Context) ([]types.CompanyRollup, error) {
	query := `
		SELECT id, address, company, domain, country, detection_method,
		       lead_score, identity, referrer, referrer_domain,
		       user_agent, current_url, page_title, created_at
		FROM visits
		ORDER BY created_at ASC
	`

	var rows []visitRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query visits for rollup: %w", err)
	}

	visits := make([]types.Visit, 0, len(rows))
	for _, row := range rows {
		visit, err := row.toVisit()
		if err != nil {
			return nil, err
		}
		visits = append(visits, visit)
	}
	return rollupVisits(visits), nil
}

func (s *sqlStore) Leads(ctx context.Context, minScore int) ([]types.CompanyRollup, error) {
	rollups, err := s.Rollups(ctx)
	if err != nil {
		return nil, err
	}
	return filterLeads(rollups, minScore), nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
