package server

import (
	"log/slog"

	"github.com/ngenohkevin/cryptopay/internals/config"
	"github.com/ngenohkevin/cryptopay/internals/monitoring"
	"github.com/ngenohkevin/cryptopay/internals/share"
)

// NewSinkRegistry registers every sink the configuration enables.
// Remote sinks sit behind their own circuit breaker; a Telegram bot that
// fails to connect is logged and left out rather than stopping startup.
func NewSinkRegistry(cfg *config.Config, recorder monitoring.Recorder, logger *slog.Logger) *share.Registry {
	registry := share.NewRegistry(recorder, logger)

	if cfg.ShareDir != "" {
		registry.Register("dir", share.DirSink{Dir: cfg.ShareDir})
		logger.Info("Directory sink enabled", "dir", cfg.ShareDir)
	}

	if cfg.TelegramEnabled() {
		sink, err := share.NewTelegramSink(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Error("Telegram sink disabled", "error", err)
		} else {
			registry.Register("telegram", share.Guard(sink,
				share.NewBreaker("telegram", cfg.SinkMaxFailures, cfg.SinkResetTimeout)))
			logger.Info("Telegram sink enabled", "chat_id", cfg.TelegramChatID)
		}
	}

	if cfg.EmailEnabled() {
		sink := share.NewEmailSink(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPTo)
		registry.Register("email", share.Guard(sink,
			share.NewBreaker("email", cfg.SinkMaxFailures, cfg.SinkResetTimeout)))
		logger.Info("Email sink enabled", "host", cfg.SMTPHost, "to", cfg.SMTPTo)
	}

	return registry
}
