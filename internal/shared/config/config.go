package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"eventwizard/internal/shared/constants"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// JWT configuration
	JWT JWTConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Upstream marketplace API
	Marketplace MarketplaceConfig

	// Kafka publishing of submitted events
	Kafka KafkaConfig

	// Wizard draft persistence
	Drafts DraftsConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	PublicRequests  int           `json:"public_requests"`
	WizardRequests  int           `json:"wizard_requests"`
	SubmitRequests  int           `json:"submit_requests"`
	CheckInRequests int           `json:"checkin_requests"`
	HealthRequests  int           `json:"health_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// MarketplaceConfig points at the REST API the wizard submits to
type MarketplaceConfig struct {
	BaseURL string
	Timeout time.Duration
}

// KafkaConfig holds the event-submitted publisher configuration
type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	RetryMax int
}

// DraftsConfig selects where wizard snapshots are kept between navigations
type DraftsConfig struct {
	Backend       string // memory, redis, postgres, badger
	TTL           time.Duration
	BadgerPath    string
	TimeZone      string
	Currency      string
	SessionIdle   time.Duration // open sessions untouched this long are closed
	PurgeInterval time.Duration
}

// DefaultJWTSecret is only fit for local development
const DefaultJWTSecret = "your-super-secret-jwt-key"

// Draft store backends
const (
	DraftBackendMemory   = "memory"
	DraftBackendRedis    = "redis"
	DraftBackendPostgres = "postgres"
	DraftBackendBadger   = "badger"
)

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "eventwizard_db"),
			User:     getEnv("DB_USER", "eventwizard_user"),
			Password: getEnv("DB_PASSWORD", "eventwizard_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},

		// JWT configuration
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", DefaultJWTSecret),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", false),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:  getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			WizardRequests:  getIntEnv("RATE_LIMIT_WIZARD_REQUESTS", 300),
			SubmitRequests:  getIntEnv("RATE_LIMIT_SUBMIT_REQUESTS", 10),
			CheckInRequests: getIntEnv("RATE_LIMIT_CHECKIN_REQUESTS", 120),
			HealthRequests:  getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 600),
			WhitelistedIPs:  getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// Marketplace API
		Marketplace: MarketplaceConfig{
			BaseURL: getEnv("MARKETPLACE_API_URL", "http://localhost:5000/api"),
			Timeout: getDurationEnv("MARKETPLACE_API_TIMEOUT", 20*time.Second),
		},

		// Kafka
		Kafka: KafkaConfig{
			Enabled:  getBoolEnv("KAFKA_ENABLED", false),
			Brokers:  getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:    getEnv("KAFKA_EVENT_SUBMITTED_TOPIC", "event-submissions"),
			RetryMax: getIntEnv("KAFKA_RETRY_MAX", 3),
		},

		// Drafts
		Drafts: DraftsConfig{
			Backend:       strings.ToLower(getEnv("DRAFT_STORE", DraftBackendMemory)),
			TTL:           getDurationEnv("DRAFT_TTL", constants.TTL_DRAFT_DEFAULT),
			BadgerPath:    getEnv("DRAFT_BADGER_PATH", "./data/drafts"),
			TimeZone:      getEnv("EVENT_TIME_ZONE", "UTC"),
			Currency:      getEnv("EVENT_CURRENCY", "ILS"),
			SessionIdle:   getPositiveDurationEnv("DRAFT_SESSION_IDLE", 30*time.Minute),
			PurgeInterval: getPositiveDurationEnv("DRAFT_PURGE_INTERVAL", 10*time.Minute),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
// getPositiveDurationEnv is getDurationEnv for intervals; zero and negative values use fallback
func getPositiveDurationEnv(key string, fallback time.Duration) time.Duration {
	if d := getDurationEnv(key, fallback); d > 0 {
		return d
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}

// EventLocation resolves the time zone wizard dates are interpreted in.
// Unknown zone names fall back to UTC.
func (c *Config) EventLocation() *time.Location {
	loc, err := time.LoadLocation(c.Drafts.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UsesRedis reports whether any component needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.RateLimit.Enabled || c.Drafts.Backend == DraftBackendRedis
}

// UsesPostgres reports whether drafts are kept in PostgreSQL
func (c *Config) UsesPostgres() bool {
	return c.Drafts.Backend == DraftBackendPostgres
}
