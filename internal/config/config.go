package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	Brand     string
	UsersFile string

	JWTSecret  string
	SessionTTL time.Duration

	LoginDelay       time.Duration
	LoginRateLimit   int
	LoginRateWindow  time.Duration
	CORSAllowOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint string

	CatalogBaseURL  string
	CatalogCacheTTL time.Duration
	CatalogRPS      int
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		Brand:     getEnv("APP_BRAND", "brand-a"),
		UsersFile: getEnv("USERS_FILE", ""),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		SessionTTL: time.Duration(getEnvInt("SESSION_TTL_HOURS", 24*7)) * time.Hour,

		LoginDelay:       time.Duration(getEnvInt("LOGIN_DELAY_MS", 100)) * time.Millisecond,
		LoginRateLimit:   getEnvInt("LOGIN_RATE_LIMIT", 30),
		LoginRateWindow:  time.Duration(getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60)) * time.Second,
		CORSAllowOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		CatalogBaseURL:  getEnv("CATALOG_BASE_URL", "https://dummyjson.com"),
		CatalogCacheTTL: time.Duration(getEnvInt("CATALOG_CACHE_SECONDS", 300)) * time.Second,
		CatalogRPS:      getEnvInt("CATALOG_RPS", 10),
	}
}

// IsProduction reports whether cookies must be restricted to secure transport.
func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// buildDBURL prefers DATABASE_URL; otherwise it assembles one from DB_* parts
// when DB_HOST is set. An empty result means the in-memory user store is used.
func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "")
	if host == "" {
		return ""
	}

	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "storefront")
	pass := getEnv("DB_PASSWORD", "storefront")
	name := getEnv("DB_NAME", "storefront")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env value, using default", "key", key, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
