package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ReservationPolicy selects how cart interactions touch shared stock.
type ReservationPolicy string

const (
	// ReservationOptimistic keeps carts purely local: stock is checked
	// against the last-fetched snapshot and only decremented at submission.
	ReservationOptimistic ReservationPolicy = "optimistic"
	// ReservationEager reserves units in the catalog store on every cart
	// mutation and converts the reservation at submission.
	ReservationEager ReservationPolicy = "eager"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	// Reservation selects the active stock reservation policy. Exactly one
	// policy runs per deployment.
	Reservation ReservationPolicy

	DB     DatabaseConfig
	Redis  RedisConfig
	Mailer MailerConfig
	S3     S3Config
	Cart   CartConfig
	Worker WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// MailerConfig contains credentials for the transactional email API.
type MailerConfig struct {
	BaseURL    string
	APIKey     string
	FromEmail  string
	AdminEmail string
}

// S3Config contains the bucket used for product images.
type S3Config struct {
	Region string
	Bucket string
}

// CartConfig controls server-side cart lifetime.
type CartConfig struct {
	TTL time.Duration
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	ReservationSweepInterval time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	// Reservation policy
	switch p := ReservationPolicy(getEnv("RESERVATION_POLICY", string(ReservationOptimistic))); p {
	case ReservationOptimistic, ReservationEager:
		cfg.Reservation = p
	default:
		return nil, fmt.Errorf("invalid RESERVATION_POLICY %q: must be optimistic or eager", p)
	}

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Transactional email API
	cfg.Mailer = MailerConfig{
		BaseURL:    getEnv("MAILER_BASE_URL", "https://api.mailpost.io/v1"),
		APIKey:     getEnv("MAILER_API_KEY", ""),
		FromEmail:  getEnv("MAILER_FROM_EMAIL", "orders@tradehaus.example"),
		AdminEmail: getEnv("MAILER_ADMIN_EMAIL", ""),
	}

	// S3 (product images)
	cfg.S3 = S3Config{
		Region: getEnv("S3_REGION", "eu-west-1"),
		Bucket: getEnv("S3_BUCKET", "tradehaus-catalog"),
	}

	// Durations
	var err error
	if cfg.Cart.TTL, err = parseDurationEnv("CART_TTL", "2h"); err != nil {
		return nil, fmt.Errorf("invalid CART_TTL: %w", err)
	}
	if cfg.Worker.ReservationSweepInterval, err = parseDurationEnv("RESERVATION_SWEEP_INTERVAL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid RESERVATION_SWEEP_INTERVAL: %w", err)
	}

	// Basic validation for DB parameters — keeps messages concise and helpful.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	// Validate JWT_SECRET
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for admin authentication")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be > 0")
	}
	return d, nil
}
