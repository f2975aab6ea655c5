// Package config defines the top-level configuration for the flipfinder
// backend and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/flipfinder/flipfinder/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by FLIPFINDER_* environment
// variables.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Engine   EngineConfig   `toml:"engine"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the cold
// archive.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// EngineConfig holds the default analysis parameters. A request to the
// analyze endpoint may override any of the per-run options; these values
// fill the gaps and drive the automatic pipeline runs.
type EngineConfig struct {
	MinProfitMargin     float64 `toml:"min_profit_margin"`
	ShippingCost        float64 `toml:"shipping_cost"`
	SortBy              string  `toml:"sort_by"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	// MaxBatchSize caps each listing pool loaded for an analysis run. The
	// matcher is O(sources x targets), so this bounds run cost.
	MaxBatchSize int `toml:"max_batch_size"`
	// AlertMinNetProfit triggers a notification when an analysis run finds
	// an opportunity with at least this net profit (USD).
	AlertMinNetProfit float64 `toml:"alert_min_net_profit"`
}

// PipelineConfig holds the background pipeline parameters: the automatic
// analysis loop, stale listing pruning, and cold-storage archival.
type PipelineConfig struct {
	Enabled            bool     `toml:"enabled"`
	AnalyzeInterval    duration `toml:"analyze_interval"`
	SourceMarketplaces []string `toml:"source_marketplaces"`
	TargetMarketplaces []string `toml:"target_marketplaces"`
	ListingTTL         duration `toml:"listing_ttl"`
	PruneInterval      duration `toml:"prune_interval"`
	ArchiveRetentionDays int    `toml:"archive_retention_days"`
	// ArchiveHourUTC is the hour of day (0-23, UTC) at which the daily
	// archive run fires.
	ArchiveHourUTC int `toml:"archive_hour_utc"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled         bool     `toml:"enabled"`
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	APIKey          string   `toml:"api_key"`
	RateLimitPerMin int      `toml:"rate_limit_per_min"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration so the TOML decoder can parse strings like
// "5m" or "30s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values for
// local development.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "flipfinder",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "flipfinder-archive",
			ForcePathStyle: true,
		},
		Engine: EngineConfig{
			MinProfitMargin:     0,
			ShippingCost:        0,
			SortBy:              "profit_margin",
			SimilarityThreshold: 0.5,
			MaxBatchSize:        1000,
			AlertMinNetProfit:   25,
		},
		Pipeline: PipelineConfig{
			Enabled:         false,
			AnalyzeInterval: duration{15 * time.Minute},
			SourceMarketplaces: []string{
				string(domain.MarketplaceFacebook),
				string(domain.MarketplaceCraigslist),
				string(domain.MarketplaceOfferUp),
			},
			TargetMarketplaces: []string{
				string(domain.MarketplaceEBay),
				string(domain.MarketplaceAmazon),
				string(domain.MarketplaceMercari),
				string(domain.MarketplacePoshmark),
			},
			ListingTTL:           duration{7 * 24 * time.Hour},
			PruneInterval:        duration{time.Hour},
			ArchiveRetentionDays: 90,
			ArchiveHourUTC:       3,
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimitPerMin: 600,
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity_found", "analysis_done", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve":   true,
	"analyze": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validSortKeys enumerates the accepted values for EngineConfig.SortBy.
var validSortKeys = map[string]bool{
	"profit":        true,
	"profit_margin": true,
	"roi":           true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var problems []string

	if !validModes[strings.ToLower(c.Mode)] {
		problems = append(problems, fmt.Sprintf("mode %q is not one of serve/analyze/full", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		problems = append(problems, fmt.Sprintf("log_level %q is not one of debug/info/warn/error", c.LogLevel))
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
		}
	}

	if c.Engine.SimilarityThreshold < 0 || c.Engine.SimilarityThreshold > 1 {
		problems = append(problems, fmt.Sprintf("engine.similarity_threshold %v must be within [0,1]", c.Engine.SimilarityThreshold))
	}
	if c.Engine.ShippingCost < 0 {
		problems = append(problems, fmt.Sprintf("engine.shipping_cost %v must not be negative", c.Engine.ShippingCost))
	}
	if !validSortKeys[c.Engine.SortBy] {
		problems = append(problems, fmt.Sprintf("engine.sort_by %q is not one of profit/profit_margin/roi", c.Engine.SortBy))
	}
	if c.Engine.MaxBatchSize <= 0 {
		problems = append(problems, fmt.Sprintf("engine.max_batch_size %d must be positive", c.Engine.MaxBatchSize))
	}

	if c.Pipeline.Enabled {
		if c.Pipeline.AnalyzeInterval.Duration <= 0 {
			problems = append(problems, "pipeline.analyze_interval must be positive")
		}
		for _, m := range append(append([]string{}, c.Pipeline.SourceMarketplaces...), c.Pipeline.TargetMarketplaces...) {
			if !domain.Marketplace(m).Valid() {
				problems = append(problems, fmt.Sprintf("pipeline marketplace %q is not supported", m))
			}
		}
		if c.Pipeline.ArchiveHourUTC < 0 || c.Pipeline.ArchiveHourUTC > 23 {
			problems = append(problems, fmt.Sprintf("pipeline.archive_hour_utc %d must be within 0-23", c.Pipeline.ArchiveHourUTC))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
