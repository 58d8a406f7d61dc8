package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBURL      string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	AppPort string
	AppEnv  string

	JWTSecret    string
	JWTExpiresIn time.Duration

	FrontendURL       string
	InternalSecretKey string

	IdempotencyWindow time.Duration
	CatalogCacheTTL   time.Duration
	CatalogCacheSize  int
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBURL:      os.Getenv("DATABASE_URL"),
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		AppPort: getEnv("APP_PORT", "3001"),
		AppEnv:  getEnv("APP_ENV", "development"),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),

		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
		InternalSecretKey: os.Getenv("INTERNAL_SECRET_KEY"),

		IdempotencyWindow: getEnvDuration("IDEMPOTENCY_WINDOW", 24*time.Hour),
		CatalogCacheTTL:   getEnvDuration("CATALOG_CACHE_TTL", 30*time.Second),
		CatalogCacheSize:  getEnvInt("CATALOG_CACHE_SIZE", 512),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	return cfg
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string

	if c.DBURL == "" && c.DBHost == "" {
		missing = append(missing, "DATABASE_URL or DB_HOST")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.DBDriver != "postgres" && c.DBDriver != "pgx" {
		return errors.New("DB_DRIVER must be postgres or pgx")
	}

	if len(missing) > 0 {
		return errors.New("missing environment variables: " + strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") and the "<n>d" day suffix used by JWT_EXPIRES_IN.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil {
			return time.Duration(n) * 24 * time.Hour
		}
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
