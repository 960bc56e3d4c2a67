package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultUserAgent is the desktop browser identity sent to the aggregator.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const (
	defaultRequestTimeout = 30 * time.Second
	defaultResolveTimeout = 15 * time.Second
	defaultImageTimeout   = 30 * time.Second
	defaultServerTimeout  = 30 * time.Second
	defaultServerPort     = 8060
	defaultDatabasePort   = 5432
	defaultMaxOpenConns   = 25
	defaultMaxIdleConns   = 5
	defaultConnLifetime   = 5 * time.Minute
)

// defaults lists every key viper should know about. Keys absent here are
// not picked up from the environment by Unmarshal.
var defaults = map[string]any{
	"app.name":        "newsdesk",
	"app.environment": "development",
	"app.debug":       false,

	"logger.level":        "info",
	"logger.development":  false,
	"logger.output_paths": []string{"stdout"},

	"database.driver":            DriverPostgres,
	"database.host":              "localhost",
	"database.port":              defaultDatabasePort,
	"database.user":              "postgres",
	"database.password":          "",
	"database.dbname":            "newsdesk",
	"database.sslmode":           "disable",
	"database.max_open_conns":    defaultMaxOpenConns,
	"database.max_idle_conns":    defaultMaxIdleConns,
	"database.conn_max_lifetime": defaultConnLifetime,

	"aggregator.origin":           "https://news.google.com",
	"aggregator.favicon_endpoint": "https://www.google.com/s2/favicons",
	"aggregator.user_agent":       DefaultUserAgent,
	"aggregator.request_timeout":  defaultRequestTimeout,
	"aggregator.resolve_timeout":  defaultResolveTimeout,
	"aggregator.image_timeout":    defaultImageTimeout,

	"content.base_delay":   2 * time.Second,
	"content.jitter_min":   1 * time.Second,
	"content.jitter_max":   3 * time.Second,
	"content.max_attempts": 3,
	"content.min_words":    100,
	"content.filter_words": []string{},

	"ingest.default_limit":     10,
	"ingest.default_timeframe": "7d",

	"scheduler.cron":         "0 * * * *",
	"scheduler.run_on_start": false,

	"server.host":          "0.0.0.0",
	"server.port":          defaultServerPort,
	"server.read_timeout":  defaultServerTimeout,
	"server.write_timeout": defaultServerTimeout,

	"storage.driver":           StorageDisk,
	"storage.dir":              "./data/files",
	"storage.public_base_url":  "/files",
	"storage.minio.endpoint":   "",
	"storage.minio.access_key": "",
	"storage.minio.secret_key": "",
	"storage.minio.use_ssl":    false,
	"storage.minio.bucket":     "newsdesk",

	"redis.enabled":  false,
	"redis.address":  "localhost:6379",
	"redis.password": "",
	"redis.db":       0,
	"redis.stream":   "newsdesk:articles",

	"elasticsearch.enabled":   false,
	"elasticsearch.addresses": []string{"http://localhost:9200"},
	"elasticsearch.username":  "",
	"elasticsearch.password":  "",
	"elasticsearch.index":     "news_articles",
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// NewViper returns a viper instance with all defaults applied. Environment
// variables override keys with dots replaced by underscores (DATABASE_HOST).
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	SetDefaults(v)
	return v
}
