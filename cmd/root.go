package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CodeMonkeyCybersecurity/leadlight/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "leadlight",
	Short: "Visitor tracking and B2B lead scoring service",
	Long: `Leadlight - Visitor Tracking and Lead Scoring

Receives page-visit telemetry from a tracking snippet, resolves each
visitor's network address to an organization identity using concurrent
geo-IP, IP-info, reverse-DNS and WHOIS lookups, scores the organization
as a sales lead, and serves aggregated views over a JSON API and an
HTML dashboard.

USAGE:
  leadlight                   # Start the HTTP server with defaults
  leadlight serve --port 3000 # Explicit serve with overrides

CONFIGURATION:
  Settings come from .leadlight.yaml (current directory or $HOME),
  LEADLIGHT_* environment variables, and flags, in increasing
  precedence.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare invocation starts the server, same as 'leadlight serve'.
		return runServe(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default is .leadlight.yaml)")

	// Logging configuration
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (json, console)")
	viper.BindPFlag("logger.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logger.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindEnv("logger.level", "LEADLIGHT_LOG_LEVEL")
	viper.BindEnv("logger.format", "LEADLIGHT_LOG_FORMAT")

	// Database configuration
	rootCmd.PersistentFlags().String("db-driver", "memory", "visit store driver (memory, sqlite3, postgres)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string for the sql stores")
	viper.BindPFlag("database.driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	viper.BindPFlag("database.dsn", rootCmd.PersistentFlags().Lookup("db-dsn"))
	viper.BindEnv("database.dsn", "LEADLIGHT_DATABASE_DSN", "DATABASE_URL")

	// Scoring tables
	rootCmd.PersistentFlags().String("scoring-tables", "", "YAML file overriding scoring tables and alias seeds")
	viper.BindPFlag("scoring.tables_file", rootCmd.PersistentFlags().Lookup("scoring-tables"))
	viper.BindEnv("scoring.tables_file", "LEADLIGHT_SCORING_TABLES")

	setDefaults()
}

// setDefaults mirrors config.DefaultConfig so viper.Unmarshal produces
// the same configuration when no file, env, or flag overrides exist.
func setDefaults() {
	defaults := config.DefaultConfig()

	viper.SetDefault("logger.level", defaults.Logger.Level)
	viper.SetDefault("logger.format", defaults.Logger.Format)
	viper.SetDefault("logger.output_paths", defaults.Logger.OutputPaths)

	viper.SetDefault("server.host", defaults.Server.Host)
	viper.SetDefault("server.port", defaults.Server.Port)
	viper.SetDefault("server.enable_cors", defaults.Server.EnableCORS)
	viper.SetDefault("server.rate_limit.requests_per_second", defaults.Server.RateLimit.RequestsPerSecond)
	viper.SetDefault("server.rate_limit.burst_size", defaults.Server.RateLimit.BurstSize)

	viper.SetDefault("database.driver", defaults.Database.Driver)
	viper.SetDefault("database.max_connections", defaults.Database.MaxConnections)
	viper.SetDefault("database.max_idle_conns", defaults.Database.MaxIdleConns)
	viper.SetDefault("database.conn_max_lifetime", defaults.Database.ConnMaxLifetime)

	viper.SetDefault("pipeline.adapter_timeout", defaults.Pipeline.AdapterTimeout)
	viper.SetDefault("pipeline.geoip_base_url", defaults.Pipeline.GeoIPBaseURL)
	viper.SetDefault("pipeline.ipinfo_base_url", defaults.Pipeline.IPInfoBaseURL)
	viper.SetDefault("pipeline.dns_resolver", defaults.Pipeline.DNSResolver)
	viper.SetDefault("pipeline.enable_whois", defaults.Pipeline.EnableWhois)
	viper.SetDefault("pipeline.cache_ttl", defaults.Pipeline.CacheTTL)
	viper.SetDefault("pipeline.recent_visits", defaults.Pipeline.RecentVisits)

	viper.SetDefault("telemetry.enabled", defaults.Telemetry.Enabled)
	viper.SetDefault("telemetry.service_name", defaults.Telemetry.ServiceName)
	viper.SetDefault("telemetry.exporter_type", defaults.Telemetry.ExporterType)
	viper.SetDefault("telemetry.endpoint", defaults.Telemetry.Endpoint)
	viper.SetDefault("telemetry.sample_rate", defaults.Telemetry.SampleRate)
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".leadlight")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("LEADLIGHT")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}
