package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration

	StoreBackend string
	DatabaseURL  string
	DBMaxConns   int32
	DBMinConns   int32
	SQLitePath   string

	RetentionWindow time.Duration
	SweepBatchSize  int
	SweepSchedule   string
	CronSecret      string

	AdminToken      string
	AdminTokenHash  string
	JWTSecret       string
	AdminSessionTTL time.Duration

	CORSOrigins     []string
	RateLimitRPM    int
	PublicBaseURL   string
	PaymentProvider string
	WebhookSecret   string
	IPHashSalt      string
	CardPrice       string
	CardCurrency    string

	LogLevel  string
	LogFormat string
}

// Load reads the full server configuration from the environment and an
// optional .env file.
func Load() (*Config, error) {
	cfg := parse()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStore is Load for commands that only touch the database, such as
// migrate and sweep. Secrets for the HTTP surface are not required.
func LoadStore() (*Config, error) {
	cfg := parse()
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:         int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:         int32(getInt("DB_MIN_CONNS", 1)),
		SQLitePath:         getEnv("SQLITE_PATH", "./data/birthday-cards.db"),
		RetentionWindow:    getDuration("RETENTION_WINDOW", 7*24*time.Hour),
		SweepBatchSize:     getInt("SWEEP_BATCH_SIZE", 500),
		SweepSchedule:      strings.TrimSpace(os.Getenv("SWEEP_SCHEDULE")),
		CronSecret:         strings.TrimSpace(os.Getenv("CRON_SECRET")),
		AdminToken:         strings.TrimSpace(os.Getenv("ADMIN_TOKEN")),
		AdminTokenHash:     strings.TrimSpace(os.Getenv("ADMIN_TOKEN_HASH")),
		JWTSecret:          strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AdminSessionTTL:    getDuration("ADMIN_SESSION_TTL", 12*time.Hour),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:       getInt("RATE_LIMIT_RPM", 100),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		PaymentProvider:    getEnv("PAYMENT_PROVIDER", "sandbox"),
		WebhookSecret:      strings.TrimSpace(os.Getenv("PAYMENT_WEBHOOK_SECRET")),
		IPHashSalt:         strings.TrimSpace(os.Getenv("IP_HASH_SALT")),
		CardPrice:          getEnv("CARD_PRICE", "19.00"),
		CardCurrency:       getEnv("CARD_CURRENCY", "INR"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}
	cfg.StoreBackend = resolveBackend(strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND"))), cfg.DatabaseURL)
	return cfg
}

func resolveBackend(explicit string, databaseURL string) string {
	if explicit != "" {
		return explicit
	}
	if databaseURL != "" {
		return BackendPostgres
	}
	return BackendSQLite
}

func (c *Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.AdminToken == "" && c.AdminTokenHash == "" {
		return fmt.Errorf("ADMIN_TOKEN or ADMIN_TOKEN_HASH is required")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.CronSecret == "" {
		return fmt.Errorf("CRON_SECRET is required")
	}

	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive")
	}

	if c.PaymentProvider != "sandbox" {
		return fmt.Errorf("PAYMENT_PROVIDER %q is not supported", c.PaymentProvider)
	}

	return nil
}

// ValidateStore checks the settings every command needs: the store, the
// retention policy and logging.
func (c *Config) ValidateStore() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH cannot be empty")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendSQLite, c.StoreBackend)
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS and DB_MAX_CONNS are inconsistent")
	}

	if c.RetentionWindow <= 0 {
		return fmt.Errorf("RETENTION_WINDOW must be positive")
	}

	if c.SweepBatchSize <= 0 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be positive")
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
