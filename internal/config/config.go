package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Placeholder credentials shipped in the sample .env; treated as "not configured".
const (
	placeholderEmailUser = "your_email@gmail.com"
	placeholderEmailPass = "your_app_password"
)

// Config holds all configuration values for the application
type Config struct {
	Port               string
	AllowedOrigins     []string
	LogLevel           string
	DatabaseURL        string
	RedisURL           string
	Environment        string
	ReferencePrefix    string
	DefaultCountryCode string
	MaxBodyBytes       int64
	TrustProxy         bool
	Email              EmailConfig
	RateLimit          RateLimitConfig
	Queue              QueueConfig
}

// EmailConfig configures outbound SMTP. Enabled is computed once at load time.
type EmailConfig struct {
	Enabled     bool
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	ContactTo   string
	SendTimeout time.Duration
}

// RateLimitConfig configures the fixed window limiter on form submissions
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int64
}

// QueueConfig configures the optional RabbitMQ event publisher
type QueueConfig struct {
	URL      string
	Exchange string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	var errs []string

	smtpPort, err := getIntEnv("MAIL_PORT", 587)
	if err != nil {
		errs = append(errs, err.Error())
	}
	sendTimeout, err := getDurationEnv("EMAIL_SEND_TIMEOUT", 15*time.Second)
	if err != nil {
		errs = append(errs, err.Error())
	}
	window, err := getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute)
	if err != nil {
		errs = append(errs, err.Error())
	}
	maxRequests, err := getIntEnv("RATE_LIMIT_MAX", 5)
	if err != nil {
		errs = append(errs, err.Error())
	}
	maxBody, err := getIntEnv("MAX_BODY_BYTES", 10<<20)
	if err != nil {
		errs = append(errs, err.Error())
	}
	trustProxy, err := getBoolEnv("TRUST_PROXY", false)
	if err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	emailUser := getEnv("EMAIL_USER", "")
	emailPass := getEnv("EMAIL_PASS", "")

	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174,http://localhost:3000")
	if frontend := getEnv("FRONTEND_URL", ""); frontend != "" {
		origins += "," + frontend
	}

	return &Config{
		Port:               getEnv("PORT", "5000"),
		AllowedOrigins:     parseOrigins(origins),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		Environment:        getEnv("ENVIRONMENT", "production"),
		ReferencePrefix:    getEnv("REFERENCE_PREFIX", "CF"),
		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "+1"),
		MaxBodyBytes:       int64(maxBody),
		TrustProxy:         trustProxy,
		Email: EmailConfig{
			Enabled:     IsEmailConfigured(emailUser, emailPass),
			Host:        getEnv("MAIL_HOST", "smtp.gmail.com"),
			Port:        smtpPort,
			Username:    emailUser,
			Password:    emailPass,
			From:        getEnv("EMAIL_FROM", emailUser),
			ContactTo:   getEnv("CONTACT_EMAIL", emailUser),
			SendTimeout: sendTimeout,
		},
		RateLimit: RateLimitConfig{
			Window:      window,
			MaxRequests: int64(maxRequests),
		},
		Queue: QueueConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "ex.contact"),
		},
	}, nil
}

// ExposeInternalErrors reports whether 500 responses carry the internal
// cause. Every environment except production does.
func (c *Config) ExposeInternalErrors() bool {
	return c.Environment != "production"
}

// IsEmailConfigured reports whether real SMTP credentials are present
func IsEmailConfigured(user, pass string) bool {
	return user != "" && pass != "" &&
		user != placeholderEmailUser && pass != placeholderEmailPass
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return parsed, nil
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, value)
	}
	return parsed, nil
}

// getDurationEnv gets a duration environment variable ("15m", "30s") with a fallback value
func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, value)
	}
	return parsed, nil
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" && !seen[trimmed] {
			seen[trimmed] = true
			result = append(result, trimmed)
		}
	}

	return result
}
