package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the full runtime configuration, populated from .env and the
// process environment. Environment variables win over file values.
type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
	Reports  ReportsConfig
	Auth     AuthConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs Redis-backed caching of assembled session data.
type CacheConfig struct {
	Enabled    bool
	SessionTTL time.Duration
}

// ReportsConfig configures asynchronous report generation and storage.
type ReportsConfig struct {
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// AuthConfig gates self-registration of technician accounts.
type AuthConfig struct {
	AllowRegistration bool
}

var defaults = map[string]interface{}{
	"ENV":        EnvDevelopment,
	"PORT":       8080,
	"API_PREFIX": "/api/v1",

	"DB_HOST":           "localhost",
	"DB_PORT":           5432,
	"DB_USER":           "postgres",
	"DB_PASSWORD":       "postgres",
	"DB_NAME":           "testtag",
	"DB_SSL_MODE":       "disable",
	"DB_MAX_OPEN_CONNS": 10,
	"DB_MAX_IDLE_CONNS": 5,

	"REDIS_HOST":     "localhost",
	"REDIS_PORT":     6379,
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"JWT_SECRET":               "dev_secret",
	"JWT_EXPIRATION":           "24h",
	"REFRESH_TOKEN_EXPIRATION": "168h",

	"ALLOWED_ORIGINS": "",
	"LOG_LEVEL":       "info",
	"LOG_FORMAT":      "json",

	"ENABLE_CACHE":      false,
	"SESSION_CACHE_TTL": "5m",

	"REPORTS_STORAGE_DIR":        "./exports",
	"REPORTS_SIGNED_URL_SECRET":  "dev_reports_secret",
	"REPORTS_SIGNED_URL_TTL":     "24h",
	"REPORTS_CLEANUP_INTERVAL":   "1h",
	"REPORTS_WORKER_CONCURRENCY": 1,
	"REPORTS_WORKER_RETRIES":     3,

	"ALLOW_REGISTRATION": true,
}

// Load reads .env if present, applies defaults and assembles the Config.
// A missing .env is fine; any other read error is returned.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetInt("PORT"),
		APIPrefix: v.GetString("API_PREFIX"),
		Database:  databaseSection(v),
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:            v.GetString("JWT_SECRET"),
			Expiration:        durationOr(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
			RefreshExpiration: durationOr(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		},
		CORS: CORSConfig{AllowedOrigins: csvList(v.GetString("ALLOWED_ORIGINS"))},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Cache: CacheConfig{
			Enabled:    v.GetBool("ENABLE_CACHE"),
			SessionTTL: durationOr(v.GetString("SESSION_CACHE_TTL"), 5*time.Minute),
		},
		Reports: reportsSection(v),
		Auth:    AuthConfig{AllowRegistration: v.GetBool("ALLOW_REGISTRATION")},
	}, nil
}

func databaseSection(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}
}

func reportsSection(v *viper.Viper) ReportsConfig {
	return ReportsConfig{
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      durationOr(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   durationOr(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
	}
}

// durationOr parses raw, returning fallback for empty or malformed input.
func durationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// csvList splits a comma separated value, dropping blanks.
func csvList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
