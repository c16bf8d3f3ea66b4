package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/HuskeLuv/SFC-sub003/internal/logger"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Session
	JWTSecret        string
	JWTExpirationDur time.Duration
	SessionCookie    string
	ActingCookie     string
	ActingMaxAge     time.Duration
	CookieSecure     bool

	// Ingestion
	PipelineAPIKey    string
	BrapiBaseURL      string
	BrapiToken        string
	BacenBaseURL      string
	HTTPTimeout       time.Duration
	IndexLookbackDays int
	CronEnabled       bool
	CronQuotes        string
	CronIndexes       string

	// Quotes
	QuoteSource   string
	QuoteCache    string
	QuoteCacheTTL time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

var (
	appConfig *Config
	mu        sync.Mutex
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "8080")

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "financas")
	v.SetDefault("db_password", "financas")
	v.SetDefault("db_name", "financas")
	v.SetDefault("db_sslmode", "disable")

	v.SetDefault("jwt_secret", "fallback-secret-key-for-dev-only")
	v.SetDefault("jwt_expires_in", "24h")
	v.SetDefault("session_cookie", "token")
	v.SetDefault("acting_cookie", "acting_client_id")
	v.SetDefault("acting_max_age", "2h")
	v.SetDefault("cookie_secure", false)

	v.SetDefault("pipeline_api_key", "")
	v.SetDefault("brapi_base_url", "https://brapi.dev/api")
	v.SetDefault("brapi_token", "")
	v.SetDefault("bacen_base_url", "https://api.bcb.gov.br/dados/serie")
	v.SetDefault("http_timeout", "15s")
	v.SetDefault("index_lookback_days", 30)
	v.SetDefault("cron_enabled", false)
	v.SetDefault("cron_quotes", "0 */15 10-18 * * 1-5")
	v.SetDefault("cron_indexes", "0 0 7 * * *")

	v.SetDefault("quote_source", "stored")
	v.SetDefault("quote_cache", "memory")
	v.SetDefault("quote_cache_ttl", "5m")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
}

// Load reads configuration from .env, the optional CONFIG_FILE and the environment.
// Environment variables win over the file, which wins over defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Get().Debug(".env file not found, using environment only")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Env:  v.GetString("env"),
		Port: v.GetString("port"),

		DBHost:     v.GetString("db_host"),
		DBPort:     v.GetString("db_port"),
		DBUser:     v.GetString("db_user"),
		DBPassword: v.GetString("db_password"),
		DBName:     v.GetString("db_name"),
		DBSSLMode:  v.GetString("db_sslmode"),

		JWTSecret:     v.GetString("jwt_secret"),
		SessionCookie: v.GetString("session_cookie"),
		ActingCookie:  v.GetString("acting_cookie"),
		CookieSecure:  v.GetBool("cookie_secure"),

		PipelineAPIKey:    v.GetString("pipeline_api_key"),
		BrapiBaseURL:      strings.TrimRight(v.GetString("brapi_base_url"), "/"),
		BrapiToken:        v.GetString("brapi_token"),
		BacenBaseURL:      strings.TrimRight(v.GetString("bacen_base_url"), "/"),
		IndexLookbackDays: v.GetInt("index_lookback_days"),
		CronEnabled:       v.GetBool("cron_enabled"),
		CronQuotes:        v.GetString("cron_quotes"),
		CronIndexes:       v.GetString("cron_indexes"),

		QuoteSource:   v.GetString("quote_source"),
		QuoteCache:    v.GetString("quote_cache"),
		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),
	}

	cfg.JWTExpirationDur = parseDuration(v, "jwt_expires_in", 24*time.Hour)
	cfg.ActingMaxAge = parseDuration(v, "acting_max_age", 2*time.Hour)
	cfg.HTTPTimeout = parseDuration(v, "http_timeout", 15*time.Second)
	cfg.QuoteCacheTTL = parseDuration(v, "quote_cache_ttl", 5*time.Minute)

	mu.Lock()
	appConfig = cfg
	mu.Unlock()
	return cfg, nil
}

// Get returns the application configuration, loading it on first use.
func Get() *Config {
	mu.Lock()
	cfg := appConfig
	mu.Unlock()
	if cfg != nil {
		return cfg
	}
	cfg, err := Load()
	if err != nil {
		logger.Get().Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

// Set replaces the process-wide configuration. Tests use it to pin secrets.
func Set(cfg *Config) {
	mu.Lock()
	appConfig = cfg
	mu.Unlock()
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Get().Warnf("invalid %s value %q, falling back to %s", strings.ToUpper(key), raw, fallback)
		return fallback
	}
	return d
}
