// Package config loads newsdesk configuration from config.yaml, the
// environment and defaults through viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Attachment storage drivers.
const (
	StorageDisk  = "disk"
	StorageMinIO = "minio"
)

// Config is the root configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Logger        logger.Config       `mapstructure:"logger"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Aggregator    AggregatorConfig    `mapstructure:"aggregator"`
	Content       ContentConfig       `mapstructure:"content"`
	Ingest        IngestConfig        `mapstructure:"ingest"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Server        ServerConfig        `mapstructure:"server"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the lib/pq keyword connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// MigrateURL returns the postgres:// URL golang-migrate expects.
func (d DatabaseConfig) MigrateURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// AggregatorConfig describes the news aggregator being scraped.
type AggregatorConfig struct {
	Origin          string        `mapstructure:"origin"`
	FaviconEndpoint string        `mapstructure:"favicon_endpoint"`
	UserAgent       string        `mapstructure:"user_agent"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ResolveTimeout  time.Duration `mapstructure:"resolve_timeout"`
	ImageTimeout    time.Duration `mapstructure:"image_timeout"`
}

// ContentConfig tunes full-text extraction.
type ContentConfig struct {
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	JitterMin   time.Duration `mapstructure:"jitter_min"`
	JitterMax   time.Duration `mapstructure:"jitter_max"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinWords    int           `mapstructure:"min_words"`
	FilterWords []string      `mapstructure:"filter_words"`
}

// IngestConfig holds fallbacks for search configs that leave fields unset.
type IngestConfig struct {
	DefaultLimit     int    `mapstructure:"default_limit"`
	DefaultTimeframe string `mapstructure:"default_timeframe"`
}

type SchedulerConfig struct {
	Cron       string `mapstructure:"cron"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StorageConfig struct {
	Driver        string      `mapstructure:"driver"`
	Dir           string      `mapstructure:"dir"`
	PublicBaseURL string      `mapstructure:"public_base_url"`
	MinIO         MinIOConfig `mapstructure:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.Host == "" {
			return errors.New("database.host is required")
		}
		if c.Database.DBName == "" {
			return errors.New("database.dbname is required")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}

	origin, err := url.Parse(c.Aggregator.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return fmt.Errorf("aggregator.origin %q must be an absolute URL", c.Aggregator.Origin)
	}
	if c.Aggregator.RequestTimeout <= 0 {
		return errors.New("aggregator.request_timeout must be positive")
	}

	if c.Content.MaxAttempts <= 0 {
		return errors.New("content.max_attempts must be positive")
	}
	if c.Content.JitterMax < c.Content.JitterMin {
		return errors.New("content.jitter_max must not be below content.jitter_min")
	}

	switch c.Storage.Driver {
	case StorageDisk:
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for the disk driver")
		}
	case StorageMinIO:
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			return errors.New("storage.minio.endpoint and storage.minio.bucket are required")
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}

	if c.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	if c.Elasticsearch.Enabled && len(c.Elasticsearch.Addresses) == 0 {
		return errors.New("elasticsearch.addresses is required when elasticsearch is enabled")
	}

	return nil
}
