package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies FLIPFINDER_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FLIPFINDER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Database ──
	setStr(&cfg.Database.DSN, "FLIPFINDER_DATABASE_DSN")
	setStr(&cfg.Database.Host, "FLIPFINDER_DATABASE_HOST")
	setInt(&cfg.Database.Port, "FLIPFINDER_DATABASE_PORT")
	setStr(&cfg.Database.Database, "FLIPFINDER_DATABASE_NAME")
	setStr(&cfg.Database.User, "FLIPFINDER_DATABASE_USER")
	setStr(&cfg.Database.Password, "FLIPFINDER_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "FLIPFINDER_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "FLIPFINDER_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "FLIPFINDER_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "FLIPFINDER_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "FLIPFINDER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FLIPFINDER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FLIPFINDER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "FLIPFINDER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "FLIPFINDER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "FLIPFINDER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "FLIPFINDER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "FLIPFINDER_S3_REGION")
	setStr(&cfg.S3.Bucket, "FLIPFINDER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "FLIPFINDER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "FLIPFINDER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "FLIPFINDER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "FLIPFINDER_S3_FORCE_PATH_STYLE")

	// ── Engine ──
	setFloat64(&cfg.Engine.MinProfitMargin, "FLIPFINDER_ENGINE_MIN_PROFIT_MARGIN")
	setFloat64(&cfg.Engine.ShippingCost, "FLIPFINDER_ENGINE_SHIPPING_COST")
	setStr(&cfg.Engine.SortBy, "FLIPFINDER_ENGINE_SORT_BY")
	setFloat64(&cfg.Engine.SimilarityThreshold, "FLIPFINDER_ENGINE_SIMILARITY_THRESHOLD")
	setInt(&cfg.Engine.MaxBatchSize, "FLIPFINDER_ENGINE_MAX_BATCH_SIZE")
	setFloat64(&cfg.Engine.AlertMinNetProfit, "FLIPFINDER_ENGINE_ALERT_MIN_NET_PROFIT")

	// ── Pipeline ──
	setBool(&cfg.Pipeline.Enabled, "FLIPFINDER_PIPELINE_ENABLED")
	setDuration(&cfg.Pipeline.AnalyzeInterval, "FLIPFINDER_PIPELINE_ANALYZE_INTERVAL")
	setStringSlice(&cfg.Pipeline.SourceMarketplaces, "FLIPFINDER_PIPELINE_SOURCE_MARKETPLACES")
	setStringSlice(&cfg.Pipeline.TargetMarketplaces, "FLIPFINDER_PIPELINE_TARGET_MARKETPLACES")
	setDuration(&cfg.Pipeline.ListingTTL, "FLIPFINDER_PIPELINE_LISTING_TTL")
	setDuration(&cfg.Pipeline.PruneInterval, "FLIPFINDER_PIPELINE_PRUNE_INTERVAL")
	setInt(&cfg.Pipeline.ArchiveRetentionDays, "FLIPFINDER_PIPELINE_ARCHIVE_RETENTION_DAYS")
	setInt(&cfg.Pipeline.ArchiveHourUTC, "FLIPFINDER_PIPELINE_ARCHIVE_HOUR_UTC")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "FLIPFINDER_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "FLIPFINDER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "FLIPFINDER_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "FLIPFINDER_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimitPerMin, "FLIPFINDER_SERVER_RATE_LIMIT_PER_MIN")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "FLIPFINDER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "FLIPFINDER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "FLIPFINDER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "FLIPFINDER_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "FLIPFINDER_MODE")
	setStr(&cfg.LogLevel, "FLIPFINDER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
