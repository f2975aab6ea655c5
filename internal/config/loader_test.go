package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
mode = "serve"

[engine]
min_profit_margin = 15.0
similarity_threshold = 0.35

[server]
port = 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "serve", cfg.Mode)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 15.0, cfg.Engine.MinProfitMargin, 1e-9)
	assert.InDelta(t, 0.35, cfg.Engine.SimilarityThreshold, 1e-9)

	// Untouched fields keep their defaults.
	assert.Equal(t, "flipfinder", cfg.Database.Database)
	assert.Equal(t, 1000, cfg.Engine.MaxBatchSize)
	assert.Equal(t, "profit_margin", cfg.Engine.SortBy)
	assert.Equal(t, 15*time.Minute, cfg.Pipeline.AnalyzeInterval.Duration)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `mode = "serve"`)

	t.Setenv("FLIPFINDER_SERVER_PORT", "7777")
	t.Setenv("FLIPFINDER_ENGINE_SORT_BY", "roi")
	t.Setenv("FLIPFINDER_PIPELINE_ANALYZE_INTERVAL", "90s")
	t.Setenv("FLIPFINDER_PIPELINE_SOURCE_MARKETPLACES", "FACEBOOK, OFFERUP")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "roi", cfg.Engine.SortBy)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.AnalyzeInterval.Duration)
	assert.Equal(t, []string{"FACEBOOK", "OFFERUP"}, cfg.Pipeline.SourceMarketplaces)
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		cfg := Defaults()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects bad values", func(t *testing.T) {
		cfg := Defaults()
		cfg.Mode = "turbo"
		cfg.Engine.SimilarityThreshold = 1.5
		cfg.Engine.ShippingCost = -3
		cfg.Engine.SortBy = "vibes"
		cfg.Server.Port = 0

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mode")
		assert.Contains(t, err.Error(), "similarity_threshold")
		assert.Contains(t, err.Error(), "shipping_cost")
		assert.Contains(t, err.Error(), "sort_by")
		assert.Contains(t, err.Error(), "server.port")
	})

	t.Run("rejects unknown pipeline marketplace", func(t *testing.T) {
		cfg := Defaults()
		cfg.Pipeline.Enabled = true
		cfg.Pipeline.SourceMarketplaces = []string{"FACEBOOK", "GUMTREE"}

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GUMTREE")
	})
}
