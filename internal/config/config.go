package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds application configuration
type Config struct {
	ServerPort string
	LogMode    string

	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	SessionDuration time.Duration
	CSRFSecret      string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
	EmailDebug   bool

	DigestEnabled    bool
	DigestInterval   time.Duration
	DigestLinkSecret string
	DigestLinkTTL    time.Duration

	FeedLimit    int
	AgeFitWeight float64
	TopicWeight  float64
	TagWeight    float64
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort: getEnv("PORT", "8080"),
		LogMode:    getEnv("LOG_MODE", "development"),

		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./littlesteps.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", ""),

		SessionDuration: getEnvDuration("SESSION_DURATION", 7*24*time.Hour),
		CSRFSecret:      getEnv("CSRF_SECRET", "dev-csrf-secret"),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Little Steps"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),
		EmailDebug:   getEnvBool("EMAIL_DEBUG", false),

		DigestEnabled:    getEnvBool("DIGEST_ENABLED", true),
		DigestInterval:   getEnvDuration("DIGEST_INTERVAL", 7*24*time.Hour),
		DigestLinkSecret: getEnv("DIGEST_LINK_SECRET", "dev-digest-secret"),
		DigestLinkTTL:    getEnvDuration("DIGEST_LINK_TTL", 30*24*time.Hour),

		FeedLimit:    getEnvInt("FEED_LIMIT", 20),
		AgeFitWeight: getEnvFloat("RELEVANCE_AGE_WEIGHT", 100),
		TopicWeight:  getEnvFloat("RELEVANCE_TOPIC_WEIGHT", 20),
		TagWeight:    getEnvFloat("RELEVANCE_TAG_WEIGHT", 15),
	}
}

// Validate checks that the loaded configuration is usable
func (c *Config) Validate() error {
	c.DatabaseType = strings.ToLower(c.DatabaseType)
	return validation.ValidateStruct(c,
		validation.Field(&c.ServerPort, validation.Required),
		validation.Field(&c.DatabaseType, validation.Required,
			validation.In("sqlite", "sqlite3", "postgres", "postgresql", "mysql")),
		validation.Field(&c.DatabasePath, validation.When(isSQLite(c.DatabaseType), validation.Required)),
		validation.Field(&c.DatabaseURL, validation.When(!isSQLite(c.DatabaseType), validation.Required)),
		validation.Field(&c.SessionDuration, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.CSRFSecret, validation.Required),
		validation.Field(&c.DigestInterval, validation.When(c.DigestEnabled, validation.Required, validation.Min(time.Hour))),
		validation.Field(&c.DigestLinkSecret, validation.Required),
		validation.Field(&c.FeedLimit, validation.Required, validation.Min(1), validation.Max(200)),
		validation.Field(&c.AgeFitWeight, validation.Min(0.0)),
		validation.Field(&c.TopicWeight, validation.Min(0.0)),
		validation.Field(&c.TagWeight, validation.Min(0.0)),
	)
}

func isSQLite(dbType string) bool {
	return dbType == "sqlite" || dbType == "sqlite3"
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return v
}
