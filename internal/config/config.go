package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	CORSAllowedOrigins []string
	AdminJWTSecret     string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Reminder worker tuning.
	ReminderPollInterval time.Duration
	ReminderBatchSize    int
	ReminderMaxAttempts  int
	ReminderBaseDelay    time.Duration
	ReminderEmailLead    time.Duration
	ReminderSMSLead      time.Duration

	// Outbox deliverer tuning.
	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	// SMS provider (Telnyx-compatible HTTP API).
	SMSAPIKey             string
	SMSMessagingProfileID string
	SMSFromNumber         string
	SMSBaseURL            string

	// Email provider selection: "sendgrid" or "ses".
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	EventsQueueURL      string

	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		ReminderPollInterval: getEnvAsDuration("REMINDER_POLL_INTERVAL", 30*time.Second),
		ReminderBatchSize:    getEnvAsInt("REMINDER_BATCH_SIZE", 25),
		ReminderMaxAttempts:  getEnvAsInt("REMINDER_MAX_ATTEMPTS", 5),
		ReminderBaseDelay:    getEnvAsDuration("REMINDER_BASE_DELAY", 2*time.Minute),
		ReminderEmailLead:    getEnvAsDuration("REMINDER_EMAIL_LEAD", 24*time.Hour),
		ReminderSMSLead:      getEnvAsDuration("REMINDER_SMS_LEAD", time.Hour),

		OutboxPollInterval: getEnvAsDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    getEnvAsInt("OUTBOX_BATCH_SIZE", 25),

		SMSAPIKey:             getEnv("SMS_API_KEY", ""),
		SMSMessagingProfileID: getEnv("SMS_MESSAGING_PROFILE_ID", ""),
		SMSFromNumber:         getEnv("SMS_FROM_NUMBER", ""),
		SMSBaseURL:            getEnv("SMS_BASE_URL", "https://api.telnyx.com"),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "GlossWorks"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "GlossWorks"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		EventsQueueURL:      getEnv("EVENTS_QUEUE_URL", ""),

		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
