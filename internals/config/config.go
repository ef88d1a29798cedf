package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port            string
	Environment     string
	LogLevel        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	SessionKey      string

	// Rate limiting
	RequestsPerMinute int
	BurstSize         int
	MaxWebSockets     int

	// QR rendering
	QRBackend  string
	QRSize     int
	QRMargin   int
	QRDark     string
	QRLight    string
	QRLevel    string
	QRCacheTTL time.Duration
	CopiedFor  time.Duration

	// Share sinks
	ShareDir         string
	TelegramBotToken string
	TelegramChatID   int64
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	SMTPFrom         string
	SMTPTo           string
	SinkMaxFailures  int
	SinkResetTimeout time.Duration
}

// Load reads .env when present, then the environment, falling back to defaults
func Load() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "production"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", "30s"),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", "30s"),
		IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", "120s"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", "10s"),
		SessionKey:      getEnv("SESSION_KEY", ""),

		RequestsPerMinute: getEnvAsInt("REQUESTS_PER_MINUTE", 120),
		BurstSize:         getEnvAsInt("BURST_SIZE", 20),
		MaxWebSockets:     getEnvAsInt("MAX_WEBSOCKETS", 50),

		QRBackend:  getEnv("QR_BACKEND", "skip2"),
		QRSize:     getEnvAsInt("QR_SIZE", 280),
		QRMargin:   getEnvAsInt("QR_MARGIN", 2),
		QRDark:     getEnv("QR_DARK", "#ffffff"),
		QRLight:    getEnv("QR_LIGHT", "#00000000"),
		QRLevel:    getEnv("QR_LEVEL", "H"),
		QRCacheTTL: getEnvAsDuration("QR_CACHE_TTL", "5m"),
		CopiedFor:  getEnvAsDuration("COPIED_FOR", "2s"),

		ShareDir:         getEnv("SHARE_DIR", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvAsInt64("TELEGRAM_CHAT_ID", 0),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:         getEnv("SMTP_USER", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:         getEnv("SMTP_FROM", ""),
		SMTPTo:           getEnv("SMTP_TO", ""),
		SinkMaxFailures:  getEnvAsInt("SINK_MAX_FAILURES", 3),
		SinkResetTimeout: getEnvAsDuration("SINK_RESET_TIMEOUT", "2m"),
	}
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// TelegramEnabled reports whether the Telegram sink has credentials
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// EmailEnabled reports whether the e-mail sink has a server and recipient
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPTo != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// Return default if parsing fails
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
