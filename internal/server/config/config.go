package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries all server settings. It is built once at startup and
// passed explicitly to the components that need it.
type Config struct {
	Port        string
	DatabaseURL string // optional: empty disables lead persistence and the Postgres rate-limit store

	// Outbound mail
	SMTPHost     string // optional: empty disables both notification emails
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	ToEmail      string

	// Optional integrations, disabled when unset
	SlackWebhookURL string
	HubSpotAPIKey   string

	// Attachments
	UploadDir     string
	MaxUploadSize int64

	// Submission throttling, per client IP
	RateLimitWindow time.Duration
	RateLimitMax    int

	AuditLogPath    string
	CleanupInterval time.Duration

	// bcrypt hash guarding the leads listing; empty disables the endpoint
	AdminPasswordHash string
}

// TeamEmails maps a submission purpose to the team inbox CC'd on the
// operator notification. The set of purposes is closed; unknown values
// simply get no CC.
var TeamEmails = map[string]string{
	"ai-ml-consulting":       "ai@didc.com",
	"enterprise-software":    "software@didc.com",
	"digital-transformation": "transformation@didc.com",
	"cloud-services":         "cloud@didc.com",
	"data-analytics":         "analytics@didc.com",
	"cybersecurity":          "security@didc.com",
	"partnership":            "partnerships@didc.com",
	"careers":                "careers@didc.com",
	"media":                  "press@didc.com",
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", "noreply@didc.com"),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@didc.com"),
		FromName:     getEnv("FROM_NAME", "DIDC Contact Form"),
		ToEmail:      getEnv("CONTACT_EMAIL", "hello@didc.com"),

		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
		HubSpotAPIKey:   getEnv("HUBSPOT_API_KEY", ""),

		UploadDir:     getEnv("UPLOAD_DIR", "./storage/uploads"),
		MaxUploadSize: getEnvInt64("MAX_UPLOAD_SIZE", 10*1024*1024), // 10MB

		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW_HOURS", 1*time.Hour),
		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 5),

		AuditLogPath:    getEnv("AUDIT_LOG_PATH", "./storage/logs/contact_submissions.log"),
		CleanupInterval: getEnvDuration("CLEANUP_INTERVAL_HOURS", 1*time.Hour),

		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if hours, err := strconv.ParseFloat(val, 64); err == nil {
			return time.Duration(hours * float64(time.Hour))
		}
	}
	return fallback
}
