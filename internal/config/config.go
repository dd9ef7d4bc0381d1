package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cfg is the global configuration loaded at startup.
var Cfg Config

// Config holds all application configuration.
type Config struct {
	// Server
	Port    string
	BaseURL string

	// Sentry
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string

	// Rate limiter
	RateLimitRPS   int
	RateLimitBurst int

	// Gzip
	GzipEnabled bool

	// Backend REST API (policies, claims, auth)
	BackendURL     string
	BackendTimeout time.Duration

	// Catalog refresh
	CatalogRefreshEnabled  bool
	CatalogRefreshInterval time.Duration
	ProviderSources        []string

	// Quote cache
	RedisAddr     string
	QuoteCacheTTL time.Duration

	// Content and state files
	GuidesDir   string
	CounterFile string
	RulesFile   string

	// HTTP
	UserAgent string

	AdminAPIKey string
}

// Load reads .env (if present) and populates Cfg from environment variables.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables")
	}

	Cfg = FromEnv()

	log.Printf("config: loaded (port=%s, backend=%s, catalog_refresh=%v, redis=%s)",
		Cfg.Port, maskEmpty(Cfg.BackendURL), Cfg.CatalogRefreshEnabled, maskEmpty(Cfg.RedisAddr))
}

// FromEnv builds a Config from the current process environment without touching .env files.
func FromEnv() Config {
	return Config{
		Port:    envOr("PORT", "8080"),
		BaseURL: envOr("BASE_URL", "http://localhost:8080"),

		SentryDSN:         os.Getenv("SENTRY_DSN"),
		SentryEnvironment: envOr("SENTRY_ENVIRONMENT", "production"),
		SentryRelease:     envOr("SENTRY_RELEASE", "insurez@1.0.0"),

		RateLimitRPS:   envInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 40),

		GzipEnabled: envBool("GZIP_ENABLED", true),

		BackendURL:     strings.TrimRight(os.Getenv("BACKEND_URL"), "/"),
		BackendTimeout: envDuration("BACKEND_TIMEOUT", 10*time.Second),

		CatalogRefreshEnabled:  envBool("CATALOG_REFRESH_ENABLED", true),
		CatalogRefreshInterval: envDuration("CATALOG_REFRESH_INTERVAL", 30*time.Minute),
		ProviderSources:        envList("PROVIDER_SOURCES"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		QuoteCacheTTL: envDuration("QUOTE_CACHE_TTL", time.Hour),

		GuidesDir:   envOr("GUIDES_DIR", "content/guides"),
		CounterFile: envOr("COUNTER_FILE", "counter.json"),
		RulesFile:   os.Getenv("RULES_FILE"),

		UserAgent: envOr("USER_AGENT", "InsurezBot/1.0 (+https://insurez.example)"),

		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),
	}
}

func maskEmpty(v string) string {
	if v == "" {
		return "(disabled)"
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
