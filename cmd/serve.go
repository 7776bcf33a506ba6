package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CodeMonkeyCybersecurity/leadlight/internal/api"
	"github.com/CodeMonkeyCybersecurity/leadlight/internal/database"
	"github.com/CodeMonkeyCybersecurity/leadlight/internal/httpclient"
	"github.com/CodeMonkeyCybersecurity/leadlight/internal/logger"
	"github.com/CodeMonkeyCybersecurity/leadlight/internal/telemetry"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/classify"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/enrichment"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/fusion"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/scoring"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/sources"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the leadlight HTTP server",
	Long: `Start the HTTP server.

This server provides:
- Visit ingestion from the tracking snippet (POST /log-visit)
- Aggregated dashboard data (GET /api/dashboard, GET /dashboard)
- Lead listing (GET /leads) and alias administration (POST /add-mapping)
- Health checks (GET /health)

Example:
  leadlight serve --port 3000
  leadlight serve --config .leadlight.yaml --db-driver sqlite3 --db-dsn visits.db
`,
	RunE: runServe,
}

var (
	serverPort int
	serverHost string
	enableCORS bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&serverPort, "port", 3000, "Port to listen on")
	serveCmd.Flags().StringVar(&serverHost, "host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().BoolVar(&enableCORS, "cors", true, "Enable CORS for the tracking snippet")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.enable_cors", serveCmd.Flags().Lookup("cors"))
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := initConfig(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log = log.WithComponent("server")

	log.Infow("Starting leadlight server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"cors_enabled", cfg.Server.EnableCORS,
		"store_driver", cfg.Database.Driver,
		"config_file", viper.ConfigFileUsed(),
	)

	ctx := context.Background()

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Warnw("Telemetry shutdown failed", "error", err)
		}
	}()

	store, err := database.NewStore(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to initialize visit store: %w", err)
	}
	defer store.Close()

	if cfg.Database.Driver == "sqlite3" {
		log.Warnw("Using SQLite visit store",
			"warning", "SQLite has concurrency limitations",
			"recommendation", "Use PostgreSQL for multi-instance deployments",
		)
	}

	tables, err := scoring.LoadTables(cfg.Scoring.TablesFile)
	if err != nil {
		return fmt.Errorf("failed to load scoring tables: %w", err)
	}
	scorer := scoring.NewScorer(tables)

	aliases := classify.NewAliasTable()
	aliases.Seed(tables.Aliases)
	if len(tables.Aliases) > 0 {
		log.Infow("Alias table seeded", "entries", aliases.Len())
	}

	enricher, err := buildEnricher(aliases, scorer, log)
	if err != nil {
		return fmt.Errorf("failed to build enrichment pipeline: %w", err)
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewServer(cfg, store, enricher, aliases, log).Router()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:           addr,
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Infow("HTTP server listening", "address", addr)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("Received shutdown signal", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorw("Failed to shutdown gracefully", "error", err)
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		log.Infow("Server shutdown complete")
	}

	return nil
}

// buildEnricher assembles the lookup adapters, fusion engine and cache
// into the per-visit enrichment pipeline.
func buildEnricher(aliases *classify.AliasTable, scorer *scoring.Scorer, log *logger.Logger) (*enrichment.Enricher, error) {
	client := httpclient.NewLookupClient(cfg.Pipeline.AdapterTimeout)

	adapters := []sources.Adapter{
		sources.NewGeoIPAdapter(cfg.Pipeline.GeoIPBaseURL, client),
		sources.NewIPInfoAdapter(cfg.Pipeline.IPInfoBaseURL, client),
		sources.NewReverseDNSAdapter(cfg.Pipeline.DNSResolver, cfg.Pipeline.AdapterTimeout),
	}
	if cfg.Pipeline.EnableWhois {
		adapters = append(adapters, sources.NewWhoisAdapter(cfg.Pipeline.AdapterTimeout))
	}

	collector := sources.NewCollector(adapters, cfg.Pipeline.AdapterTimeout, log)
	engine := fusion.NewEngine(aliases, log)

	return enrichment.NewEnricher(collector, engine, scorer, cfg.Pipeline.CacheTTL, log)
}
