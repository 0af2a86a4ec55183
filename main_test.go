package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylefinder/internal/config"
	"stylefinder/internal/models"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    command
		wantErr bool
	}{
		{
			name: "search joins the query words",
			args: []string{"-n", "5", "search", "red", "party", "dress"},
			want: command{name: "search", query: "red party dress", numResults: 5},
		},
		{
			name: "trends with group flags",
			args: []string{"--config", "app.yaml", "trends", "--category", "Western Wear", "--audience", "Female"},
			want: command{name: "trends", configPath: "app.yaml", category: "Western Wear", audience: "Female"},
		},
		{name: "index", args: []string{"index"}, want: command{name: "index"}},
		{name: "import", args: []string{"import", "-f", "products.json"}, want: command{name: "import", file: "products.json"}},
		{name: "no command", args: nil, wantErr: true},
		{name: "search without query", args: []string{"search"}, wantErr: true},
		{name: "trends without audience", args: []string{"trends", "--category", "Top Wear"}, wantErr: true},
		{name: "import without file", args: []string{"import"}, wantErr: true},
		{name: "unknown command", args: []string{"serve"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.args, io.Discard)
			if tt.wantErr {
				assert.ErrorIs(t, err, errUsage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseArgs([]string{"--help"}, io.Discard)
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	v := config.New()
	v.Set("log.level", "disabled")
	v.Set("database.dsn", filepath.Join(t.TempDir(), "catalog.db"))
	v.Set("llm.api_key_env", "STYLEFINDER_TEST_UNSET_KEY")
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func writeCatalog(t *testing.T, products []models.Product) string {
	t.Helper()
	data, err := json.Marshal(products)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func catalogProduct(id int64, name string, cat models.MainCategory, aud models.TargetAudience, date time.Time, qty int) models.Product {
	return models.Product{
		ProductID:           id,
		Name:                name,
		MainCategory:        cat,
		Subcategory:         "Misc",
		TargetAudience:      aud,
		Seller:              "Seller",
		Price:               decimal.NewFromInt(999),
		Quantity:            qty,
		Date:                date,
		ExtractedGarmentRef: fmt.Sprintf("%d.png", id),
	}
}

func TestRun_ImportTrendsSearch(t *testing.T) {
	cfg := testConfig(t)
	fs := afero.NewMemMapFs()
	for _, ref := range []string{"1.png", "2.png", "3.png", "4.png"} {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(cfg.Assets.Dir, ref), []byte("png"), 0o644))
	}

	a, err := newApp(cfg, fs)
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	file := writeCatalog(t, []models.Product{
		catalogProduct(1, "Blue Jacket", models.TopWear, models.Male, time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC), 70),
		catalogProduct(2, "Blue Jacket", models.TopWear, models.Male, time.Date(2023, time.July, 20, 0, 0, 0, 0, time.UTC), 50),
		catalogProduct(3, "Blue Jacket", models.TopWear, models.Male, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), 50),
		catalogProduct(4, "Red Dress", models.WesternWear, models.Female, time.Date(2023, time.July, 4, 0, 0, 0, 0, time.UTC), 80),
		// no extracted garment asset, so it never leaves the store
		catalogProduct(5, "Green Dress", models.WesternWear, models.Female, time.Date(2022, time.July, 4, 0, 0, 0, 0, time.UTC), 90),
	})

	var out bytes.Buffer
	require.NoError(t, run(ctx, a, command{name: "import", file: file}, &out))
	assert.JSONEq(t, `{"imported": 5}`, out.String())

	out.Reset()
	require.NoError(t, run(ctx, a, command{name: "trends", category: "Top Wear", audience: "Male"}, &out))
	var trends models.TrendResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &trends))
	require.Len(t, trends.SeasonalTopProducts, 1)
	assert.Equal(t, int64(2), trends.SeasonalTopProducts[0].ProductID)
	require.Len(t, trends.FashionTrendProducts, 3)
	assert.Equal(t, 120, trends.FashionTrendProducts[0].Trend.QuantitySum)

	out.Reset()
	require.NoError(t, run(ctx, a, command{name: "trends", category: "Western Wear", audience: "Female"}, &out))
	require.NoError(t, json.Unmarshal(out.Bytes(), &trends))
	require.Len(t, trends.SeasonalTopProducts, 1)
	assert.Equal(t, int64(4), trends.SeasonalTopProducts[0].ProductID)

	out.Reset()
	require.NoError(t, run(ctx, a, command{name: "search", query: "Red Dress", numResults: 2}, &out))
	var results []models.SearchCandidate
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, int64(4), results[0].ProductID)
	assert.Equal(t, "Red Dress", results[0].SourceTerm)

	err = run(ctx, a, command{name: "trends", category: "Nonexistent", audience: "Male"}, &out)
	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))

	err = run(ctx, a, command{name: "tail-events"}, &out)
	assert.Error(t, err)
}

func TestNewApp_UnknownEmbedder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Embedder.Type = "word2vec"

	_, err := newApp(cfg, afero.NewMemMapFs())
	assert.ErrorContains(t, err, "unknown embedder type")
}
