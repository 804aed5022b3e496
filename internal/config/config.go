package config // package config loads application configuration from environment variables

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env      string // application environment (dev, test, prod)
	Port     string // HTTP port to listen on
	LogLevel string // slog level name: debug, info, warn, error

	DBUser string // MySQL username
	DBPass string // MySQL password (optional)
	DBHost string // MySQL host address
	DBPort string // MySQL port number
	DBName string // MySQL database name

	MongoURL string // MongoDB connection string
	MongoDB  string // MongoDB database holding cards and comments

	JWTSecret      string        // secret used to sign access tokens
	AccessTTL      time.Duration // access token lifetime
	RefreshTTLDays int           // refresh token lifetime in days
	BcryptCost     int           // bcrypt cost for password hashing

	RabbitURL string // AMQP URL; empty disables card activity events
}

// RefreshTTL returns the refresh token lifetime as a duration.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// Load reads an optional .env file and then the environment. Missing or
// malformed required values stop the program.
func Load() Config {
	_ = godotenv.Load()
	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// FromEnv builds a Config from the current environment only. It reports
// every missing required variable at once.
func FromEnv() (Config, error) {
	var missing []string
	must := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", "3000"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		MongoURL:       must("MONGO_URL"),
		MongoDB:        envStr("MONGO_DB", "taskboard"),
		JWTSecret:      must("JWT_SECRET"),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		RabbitURL:      os.Getenv("RABBITMQ_URL"),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	ttl, err := parseTTL(envStr("ACCESS_TOKEN_TTL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_TTL: %w", err)
	}
	cfg.AccessTTL = ttl
	if cfg.RefreshTTLDays < 1 {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_TTL_DAYS must be positive, got %d", cfg.RefreshTTLDays)
	}
	return cfg, nil
}

// parseTTL accepts Go durations ("15m", "1h") and the bare-suffix forms
// "7d" and plain seconds.
func parseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return checkTTL(time.Duration(n) * time.Second)
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return checkTTL(time.Duration(n) * 24 * time.Hour)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return checkTTL(d)
}

func checkTTL(d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return d, nil
}
