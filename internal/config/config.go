package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Env  string
	Port int

	// persistence
	Store       string
	DBURL       string
	AutoMigrate bool
	MongoURI    string
	MongoDB     string

	// auth
	JWTSecret  string
	JWTTTLDays int
	BcryptCost int

	// http
	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	RequestTimeout     time.Duration

	// list cache
	CacheBackend  string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// tracing
	OTLPEndpoint string
	ServiceName  string

	// optional dev user created at startup
	SeedUserName     string
	SeedUserEmail    string
	SeedUserPassword string
}

// Load reads a .env file when one exists, then the process environment.
func Load() Config {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "err", err)
	}

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		Store:       strings.ToLower(getEnv("STORE", StorePostgres)),
		DBURL:       getEnv("DATABASE_URL", buildDBURL()),
		AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		MongoURI:    getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:     getEnv("MONGO_DB", "quicknotes"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTTTLDays: getEnvInt("JWT_TTL_DAYS", 30),
		BcryptCost: getEnvInt("BCRYPT_COST", 10),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		RequestTimeout:     getEnvMillis("REQUEST_TIMEOUT_MS", 3*time.Second),

		CacheBackend:  strings.ToLower(getEnv("CACHE_BACKEND", CacheNone)),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second,
		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "quicknotes-api"),

		SeedUserName:     getEnv("SEED_USER_NAME", "Demo User"),
		SeedUserEmail:    os.Getenv("SEED_USER_EMAIL"),
		SeedUserPassword: os.Getenv("SEED_USER_PASSWORD"),
	}
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	switch c.Store {
	case StorePostgres, StoreMongo, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE %q", c.Store))
	}

	switch c.CacheBackend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend))
	}

	if c.JWTSecret == "" && c.Env != "dev" && c.Env != "test" {
		errs = append(errs, errors.New("JWT_SECRET is required outside dev"))
	}

	if c.JWTTTLDays <= 0 {
		errs = append(errs, fmt.Errorf("JWT_TTL_DAYS must be positive, got %d", c.JWTTTLDays))
	}

	// bcrypt.MinCost..bcrypt.MaxCost
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}

	return errors.Join(errs...)
}

// Secret returns the signing secret, falling back to a fixed dev value so
// `go run` works without any environment.
func (c Config) Secret() string {
	if c.JWTSecret != "" {
		return c.JWTSecret
	}
	return "quicknotes-dev-secret"
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLDays) * 24 * time.Hour
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "quicknotes")
	pass := getEnv("DB_PASSWORD", "quicknotes")
	name := getEnv("DB_NAME", "quicknotes")
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
			slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean in environment, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvMillis(key string, fallback time.Duration) time.Duration {
	ms := getEnvInt(key, -1)
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
