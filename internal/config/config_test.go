package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylefinder/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "fitted_images", cfg.Assets.Dir)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, 0, cfg.Embedder.MaxRetries)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.Equal(t, 20, cfg.Search.DefaultResults)
	assert.Equal(t, 5, cfg.Search.Concurrency)
	assert.Equal(t, uint32(3), cfg.LLM.BreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.LLM.BreakerCooldown)
	assert.Equal(t, 2024, cfg.Trends.TargetYear)
	assert.Equal(t, 7, cfg.Trends.SeasonalMonth)
	assert.Equal(t, []string{"Infant"}, cfg.Trends.SeasonalExcludes)
	assert.Equal(t, []string{"Infant", "Bra"}, cfg.Trends.TrendExcludes)
	assert.Equal(t, 10, cfg.Trends.TopN)
	assert.False(t, cfg.RabbitMQ.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TRENDS_TARGET_YEAR", "2025")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "host=localhost dbname=catalog")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 2025, cfg.Trends.TargetYear)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=localhost dbname=catalog", cfg.Database.DSN)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stylefinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vector_store:
  type: qdrant
  qdrant:
    collection: catalog
search:
  default_results: 12
trends:
  top_n: 3
  trend_excludes: [Infant, Bra, Socks]
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "qdrant", cfg.VectorStore.Type)
	assert.Equal(t, "catalog", cfg.VectorStore.Qdrant.Collection)
	assert.Equal(t, "http://localhost:6333", cfg.VectorStore.Qdrant.URL)
	assert.Equal(t, 12, cfg.Search.DefaultResults)
	assert.Equal(t, 3, cfg.Trends.TopN)
	assert.Equal(t, []string{"Infant", "Bra", "Socks"}, cfg.Trends.TrendExcludes)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"unknown vector store", "vector_store.type", "faiss"},
		{"unknown driver", "database.driver", "mysql"},
		{"month out of range", "trends.seasonal_month", 13},
		{"malformed date", "trends.recent_start", "May 2024"},
		{"too many results", "search.default_results", 500},
		{"zero top n", "trends.top_n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := config.New()
			v.Set(tt.key, tt.value)
			_, err := config.FromViper(v)
			assert.ErrorContains(t, err, "invalid config")
		})
	}

	v := config.New()
	v.Set("rabbitmq.enabled", true)
	v.Set("rabbitmq.url", "")
	_, err := config.FromViper(v)
	assert.Error(t, err)
}

func TestTrendsConfig_Windows(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	recent, err := cfg.Trends.RecentWindow()
	require.NoError(t, err)
	assert.True(t, recent.Contains(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, recent.Contains(time.Date(2024, time.June, 30, 23, 59, 0, 0, time.UTC)))
	assert.False(t, recent.Contains(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, recent.Contains(time.Date(2024, time.April, 30, 12, 0, 0, 0, time.UTC)))

	prior, err := cfg.Trends.PriorWindow()
	require.NoError(t, err)
	assert.True(t, prior.Contains(time.Date(2023, time.July, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, prior.Contains(time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC)))

	reversed := config.TrendsConfig{RecentStart: "2024-06-30", RecentEnd: "2024-05-01"}
	_, err = reversed.RecentWindow()
	assert.Error(t, err)
}
