package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
)

type Postgres struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Database)
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type Outbox struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	StaleAfter   time.Duration
}

type Config struct {
	HTTPPort string
	GRPCPort string
	LogLevel string

	Postgres Postgres
	Kafka    Kafka
	Outbox   Outbox

	JWTSecret string
	JWTTTL    time.Duration

	TxRetryAttempts     int
	TxRetryBackoff      time.Duration
	ExpirySweepInterval time.Duration
	Policy              domain.Policy

	AdminUsername string
	AdminPassword string
}

// LoadEnv loads the first .env (or .example.env) found in the working
// directory or its two parents. A missing file is not an error: the process
// environment alone may be enough.
func LoadEnv() (string, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}

	possiblePaths := []string{
		filepath.Join(wd, ".env"),
		filepath.Join(wd, "..", ".env"),
		filepath.Join(wd, "..", "..", ".env"),
	}
	for _, envPath := range possiblePaths {
		if err := godotenv.Load(envPath); err == nil {
			return envPath, true
		}
	}
	for _, envPath := range possiblePaths {
		examplePath := filepath.Join(filepath.Dir(envPath), ".example.env")
		if err := godotenv.Load(examplePath); err == nil {
			return examplePath, true
		}
	}
	return "", false
}

func Load() (*Config, error) {
	var err error
	cfg := &Config{
		HTTPPort: getEnv("HTTP_PORT", "9000"),
		GRPCPort: getEnv("GRPC_PORT", "9001"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),
		Postgres: Postgres{
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "foodshare"),
		},
		Kafka: Kafka{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "foodshare.status-changes"),
		},
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		Policy:        domain.DefaultPolicy(),
	}

	if cfg.Postgres.Port, err = getInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Outbox.PollInterval, err = getDuration("OUTBOX_POLL_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.Outbox.BatchSize, err = getInt("OUTBOX_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.Outbox.MaxAttempts, err = getInt("OUTBOX_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.Outbox.StaleAfter, err = getDuration("OUTBOX_STALE_AFTER", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ExpirySweepInterval, err = getDuration("EXPIRY_SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.TxRetryAttempts, err = getInt("TX_RETRY_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.TxRetryBackoff, err = getDuration("TX_RETRY_BACKOFF", 50*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.Policy.AcceptPartialDonations, err = getBool("DONATE_WHILE_PARTIAL", cfg.Policy.AcceptPartialDonations); err != nil {
		return nil, err
	}
	if cfg.Policy.LockDonatedRequests, err = getBool("LOCK_DONATED_REQUESTS", cfg.Policy.LockDonatedRequests); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes long")
	}
	if c.TxRetryAttempts < 1 {
		return fmt.Errorf("TX_RETRY_ATTEMPTS must be at least 1")
	}
	if c.Outbox.BatchSize < 1 || c.Outbox.MaxAttempts < 1 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE and OUTBOX_MAX_ATTEMPTS must be positive")
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
