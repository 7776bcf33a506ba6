package config

import (
	"time"
)

type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type LoggerConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
}

type ServerConfig struct {
	Host       string          `mapstructure:"host"`
	Port       int             `mapstructure:"port"`
	EnableCORS bool            `mapstructure:"enable_cors"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `mapstructure:"requests_per_second"`
	BurstSize         int `mapstructure:"burst_size"`
}

type DatabaseConfig struct {
	// Driver selects the visit store: "memory" (default), "sqlite3", or
	// "postgres". The SQL stores are drop-in replacements behind the same
	// append/query interface.
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// PipelineConfig bounds the enrichment pipeline's external calls.
type PipelineConfig struct {
	AdapterTimeout time.Duration `mapstructure:"adapter_timeout"`
	GeoIPBaseURL   string        `mapstructure:"geoip_base_url"`
	IPInfoBaseURL  string        `mapstructure:"ipinfo_base_url"`
	DNSResolver    string        `mapstructure:"dns_resolver"`
	EnableWhois    bool          `mapstructure:"enable_whois"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	RecentVisits   int           `mapstructure:"recent_visits"`
}

type ScoringConfig struct {
	// TablesFile optionally points to a YAML file overriding the built-in
	// known-company and high-value-country lists and seeding alias entries.
	TablesFile string `mapstructure:"tables_file"`
}

type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	ServiceName  string  `mapstructure:"service_name"`
	ExporterType string  `mapstructure:"exporter_type"`
	Endpoint     string  `mapstructure:"endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

func DefaultConfig() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			OutputPaths: []string{"stdout"},
		},
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       3000,
			EnableCORS: true,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 25,
				BurstSize:         50,
			},
		},
		Database: DatabaseConfig{
			Driver:          "memory",
			DSN:             "",
			MaxConnections:  25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 1 * time.Hour,
		},
		Pipeline: PipelineConfig{
			AdapterTimeout: 4 * time.Second,
			GeoIPBaseURL:   "http://ip-api.com/json",
			IPInfoBaseURL:  "https://ipwho.is",
			DNSResolver:    "8.8.8.8:53",
			EnableWhois:    true,
			CacheTTL:       10 * time.Minute,
			RecentVisits:   10,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			ServiceName:  "leadlight",
			ExporterType: "otlp",
			Endpoint:     "localhost:4318",
			SampleRate:   1.0,
		},
	}
}
