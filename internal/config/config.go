// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr    string `envconfig:"ADDR" default:":8080"`
	Port    string `envconfig:"PORT"`
	APIBase string `envconfig:"API_BASE" default:"/api"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	GoogleAPIKey     string        `envconfig:"GOOGLE_API_KEY"`
	DistanceEndpoint string        `envconfig:"DISTANCE_ENDPOINT"`
	DistanceTimeout  time.Duration `envconfig:"DISTANCE_TIMEOUT" default:"10s"`
	CacheTTL         time.Duration `envconfig:"CACHE_TTL" default:"1h"`

	Postgres Postgres
	Redis    Redis

	GeoIPPath string `envconfig:"GEOIP_PATH"`

	// PermitsSource is a CSV/XLSX path or URL re-imported weekly when set.
	PermitsSource string `envconfig:"PERMITS_SOURCE_URL"`
	IngestHour    int    `envconfig:"INGEST_HOUR" default:"3"`
	IngestTZ      string `envconfig:"INGEST_TZ" default:"America/Los_Angeles"`

	RateLimitEnabled bool    `envconfig:"RATE_LIMIT_ENABLED" default:"false"`
	RateLimitQPS     float64 `envconfig:"RATE_LIMIT_QPS" default:"20"`
	RateLimitBurst   int     `envconfig:"RATE_LIMIT_BURST" default:"40"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

type Postgres struct {
	Host     string `envconfig:"PG_HOST" default:"localhost"`
	Port     int    `envconfig:"PG_PORT" default:"5432"`
	User     string `envconfig:"PG_USER" default:"postgres"`
	Password string `envconfig:"PG_PASSWORD"`
	DB       string `envconfig:"PG_DB" default:"permits"`
	SSLMode  string `envconfig:"PG_SSLMODE" default:"disable"`
	// Instance is a Cloud SQL connection name; when set the server is reached
	// through the /cloudsql unix socket directory instead of Host:Port.
	Instance     string `envconfig:"INSTANCE_CONNECTION_NAME"`
	MaxOpenConns int    `envconfig:"PG_MAX_OPEN_CONNS" default:"50"`
	MaxIdleConns int    `envconfig:"PG_MAX_IDLE_CONNS" default:"25"`
}

type Redis struct {
	Enabled bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host    string `envconfig:"REDIS_HOST" default:"127.0.0.1"`
	Port    int    `envconfig:"REDIS_PORT" default:"6379"`
	Pass    string `envconfig:"REDIS_PASS"`
	DB      int    `envconfig:"REDIS_DB" default:"0"`
}

// Load reads .env when present and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load(".env")
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.Port != "" {
		cfg.Addr = ":" + strings.TrimPrefix(cfg.Port, ":")
	}
	cfg.APIBase = normalizeBase(cfg.APIBase)
	return cfg, nil
}

func normalizeBase(b string) string {
	b = strings.TrimSpace(b)
	if b == "" || b == "/" {
		return ""
	}
	return "/" + strings.Trim(b, "/")
}

// DSN renders a postgres:// URL for lib/pq.
func (p Postgres) DSN() string {
	u := url.URL{Scheme: "postgres", Path: "/" + p.DB}
	if p.Password != "" {
		u.User = url.UserPassword(p.User, p.Password)
	} else {
		u.User = url.User(p.User)
	}
	q := url.Values{}
	q.Set("sslmode", p.SSLMode)
	if p.Instance != "" {
		q.Set("host", "/cloudsql/"+p.Instance)
	} else {
		u.Host = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (r Redis) Addr() string { return net.JoinHostPort(r.Host, strconv.Itoa(r.Port)) }
