package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port      string
	DBUrl     string
	AppEnv    string
	Timezone  string
	JWTSecret string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	LogLevel   string
	LogFile    string
	LogJSON    bool
	LogStdout  bool
	SentryDSN  string
	ServerName string

	MetricsEnabled bool

	RedisAddr        string
	RedisPassword    string
	OTPSendPerMinute int

	OTPInvalidatePrevious bool
	StatsWeekStart        string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	GoogleClientID string

	TextGenURL     string
	TextGenAPIKey  string
	TextGenModel   string
	TextGenTimeout time.Duration

	SupabaseURL        string
	SupabaseBucket     string
	SupabaseServiceKey string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugln("no .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	weekStart := strings.ToLower(strings.TrimSpace(getEnv("STATS_WEEK_START", "monday")))
	if weekStart != "monday" && weekStart != "sunday" {
		return nil, fmt.Errorf("STATS_WEEK_START must be monday or sunday, got %q", weekStart)
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		DBUrl:     getEnv("DB_URL", ""),
		AppEnv:    normalizeEnv(getEnv("APP_ENV", "production")),
		Timezone:  getEnv("APP_TIMEZONE", "UTC"),
		JWTSecret: jwtSecret,

		AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TTL", time.Hour),
		RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFile:    getEnv("LOG_FILE", ""),
		LogJSON:    getEnvBool("LOG_JSON", false),
		LogStdout:  getEnvBool("LOG_STDOUT", true),
		SentryDSN:  getEnv("SENTRY_DSN", ""),
		ServerName: getEnv("SERVER_NAME", "healthtrack-api"),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		OTPSendPerMinute: getEnvInt("OTP_SEND_PER_MINUTE", 5),

		OTPInvalidatePrevious: getEnvBool("OTP_INVALIDATE_PREVIOUS", false),
		StatsWeekStart:        weekStart,

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@healthtrack.local"),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		TextGenURL:     getEnv("TEXTGEN_URL", ""),
		TextGenAPIKey:  getEnv("TEXTGEN_API_KEY", ""),
		TextGenModel:   getEnv("TEXTGEN_MODEL", "gpt-4o-mini"),
		TextGenTimeout: getEnvDuration("TEXTGEN_TIMEOUT", 60*time.Second),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves APP_TIMEZONE; day boundaries for metrics and statistics use it.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) WeekStartsOnSunday() bool {
	return c != nil && c.StatsWeekStart == "sunday"
}

func (c *Config) SMTPEnabled() bool {
	return c != nil && c.SMTPHost != ""
}

func (c *Config) StorageEnabled() bool {
	return c != nil && c.SupabaseURL != "" && c.SupabaseBucket != "" && c.SupabaseServiceKey != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Warnf("invalid integer for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		log.Warnf("invalid duration for %s: %q, using %s", key, value, fallback)
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
