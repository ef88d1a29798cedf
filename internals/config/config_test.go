package config_test

import (
	"testing"
	"time"

	"github.com/ngenohkevin/cryptopay/internals/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "QR_SIZE", "QR_MARGIN", "QR_LEVEL", "COPIED_FOR", "TELEGRAM_BOT_TOKEN", "SMTP_HOST"} {
		t.Setenv(key, "")
	}

	cfg := config.Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 280, cfg.QRSize)
	assert.Equal(t, 2, cfg.QRMargin)
	assert.Equal(t, "H", cfg.QRLevel)
	assert.Equal(t, 2*time.Second, cfg.CopiedFor)
	assert.False(t, cfg.TelegramEnabled())
	assert.False(t, cfg.EmailEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("QR_SIZE", "512")
	t.Setenv("QR_CACHE_TTL", "not-a-duration")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_TO", "me@example.com")
	t.Setenv("ENVIRONMENT", "development")

	cfg := config.Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 512, cfg.QRSize)
	assert.Equal(t, 5*time.Minute, cfg.QRCacheTTL)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
	assert.True(t, cfg.TelegramEnabled())
	assert.True(t, cfg.EmailEnabled())
	assert.False(t, cfg.IsProduction())
}
