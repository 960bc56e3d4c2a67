package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(config.NewViper())
	require.NoError(t, err)

	assert.Equal(t, config.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "https://news.google.com", cfg.Aggregator.Origin)
	assert.Equal(t, config.DefaultUserAgent, cfg.Aggregator.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.Aggregator.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.Content.BaseDelay)
	assert.Equal(t, 3, cfg.Content.MaxAttempts)
	assert.Equal(t, 100, cfg.Content.MinWords)
	assert.Equal(t, 10, cfg.Ingest.DefaultLimit)
	assert.Equal(t, "7d", cfg.Ingest.DefaultTimeframe)
	assert.Equal(t, "0 * * * *", cfg.Scheduler.Cron)
	assert.Equal(t, "0.0.0.0:8060", cfg.Server.Address())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("CONTENT_MIN_WORDS", "40")
	t.Setenv("AGGREGATOR_ORIGIN", "http://127.0.0.1:9999")

	cfg, err := config.Load(config.NewViper())
	require.NoError(t, err)

	assert.Equal(t, config.DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 40, cfg.Content.MinWords)
	assert.Equal(t, "http://127.0.0.1:9999", cfg.Aggregator.Origin)
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
content:
  filter_words: ["crypto", "horoscope"]
  base_delay: 500ms
storage:
  driver: minio
  minio:
    endpoint: minio:9000
    bucket: news
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	v := config.NewViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, []string{"crypto", "horoscope"}, cfg.Content.FilterWords)
	assert.Equal(t, 500*time.Millisecond, cfg.Content.BaseDelay)
	assert.Equal(t, config.StorageMinIO, cfg.Storage.Driver)
	assert.Equal(t, "news", cfg.Storage.MinIO.Bucket)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "valid"},
		{
			name:    "unknown database driver",
			mutate:  func(c *config.Config) { c.Database.Driver = "sqlite" },
			wantErr: "database.driver",
		},
		{
			name:    "postgres without host",
			mutate:  func(c *config.Config) { c.Database.Host = "" },
			wantErr: "database.host",
		},
		{
			name:    "relative origin",
			mutate:  func(c *config.Config) { c.Aggregator.Origin = "news.google.com" },
			wantErr: "aggregator.origin",
		},
		{
			name:    "zero attempts",
			mutate:  func(c *config.Config) { c.Content.MaxAttempts = 0 },
			wantErr: "content.max_attempts",
		},
		{
			name:    "inverted jitter",
			mutate:  func(c *config.Config) { c.Content.JitterMax = 0 },
			wantErr: "content.jitter_max",
		},
		{
			name:    "minio without endpoint",
			mutate:  func(c *config.Config) { c.Storage.Driver = config.StorageMinIO },
			wantErr: "storage.minio",
		},
		{
			name: "elasticsearch without addresses",
			mutate: func(c *config.Config) {
				c.Elasticsearch.Enabled = true
				c.Elasticsearch.Addresses = nil
			},
			wantErr: "elasticsearch.addresses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.Load(config.NewViper())
			require.NoError(t, err)
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_URLs(t *testing.T) {
	t.Parallel()

	db := config.DatabaseConfig{
		Host: "db", Port: 5433, User: "news", Password: "p@ss", DBName: "newsdesk", SSLMode: "disable",
	}

	assert.Equal(t, "host=db port=5433 user=news password=p@ss dbname=newsdesk sslmode=disable", db.DSN())
	assert.Equal(t, "postgres://news:p%40ss@db:5433/newsdesk?sslmode=disable", db.MigrateURL())
}
