// Package telegrambot hosts the bot surface: message ingestion and
// the command/callback handlers.
package telegrambot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/chatinsight/insight-bot/internal/analyze"
	"github.com/chatinsight/insight-bot/internal/core/domain"
	"github.com/chatinsight/insight-bot/internal/digest"
	"github.com/chatinsight/insight-bot/internal/platform/config"
	"github.com/chatinsight/insight-bot/internal/platform/observability"
	"github.com/chatinsight/insight-bot/internal/stats"
	db "github.com/chatinsight/insight-bot/internal/storage"
)

const updateTimeoutSeconds = 60

type Bot struct {
	cfg      *config.Config
	database *db.DB
	stats    *stats.Service
	analyzer *analyze.Service
	digester *digest.Service
	api      *tgbotapi.BotAPI
	logger   *zerolog.Logger
}

func New(
	cfg *config.Config,
	database *db.DB,
	statsService *stats.Service,
	analyzer *analyze.Service,
	digester *digest.Service,
	logger *zerolog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}

	return &Bot{
		cfg:      cfg,
		database: database,
		stats:    statsService,
		analyzer: analyzer,
		digester: digester,
		api:      api,
		logger:   logger,
	}, nil
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Str("bot", b.api.Self.UserName).Msg("bot started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}

			if update.Message == nil {
				continue
			}

			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	b.ingestMessage(ctx, msg)
}

// ingestMessage persists one non-command group message: the sender is
// upserted and the message inserted idempotently. Private chats are
// never persisted.
func (b *Bot) ingestMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || !(msg.Chat.IsGroup() || msg.Chat.IsSuperGroup()) {
		return
	}

	if msg.From == nil || msg.Text == "" {
		return
	}

	user, err := b.database.UpsertUser(ctx, identityFromTG(msg.From))
	if err != nil {
		observability.MessagesIngested.WithLabelValues(observability.StatusError).Inc()
		b.logger.Error().Err(err).Int64("tg_user_id", msg.From.ID).Msg("failed to upsert user")

		return
	}

	saved, err := b.database.SaveMessage(ctx, db.MessageData{
		UserID:      user.ID,
		TGMessageID: int64(msg.MessageID),
		ChatID:      msg.Chat.ID,
		Text:        msg.Text,
		CreatedAt:   msg.Time(),
	})
	if err != nil {
		observability.MessagesIngested.WithLabelValues(observability.StatusError).Inc()
		b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to save message")

		return
	}

	if saved == nil {
		// Duplicate delivery of the same (message, chat) pair is a no-op.
		observability.MessagesIngested.WithLabelValues(observability.StatusSkipped).Inc()
		b.logger.Debug().
			Int("tg_message_id", msg.MessageID).
			Int64("chat_id", msg.Chat.ID).
			Msg("duplicate message, skipped")

		return
	}

	observability.MessagesIngested.WithLabelValues(observability.StatusOK).Inc()
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command := msg.Command()

	b.logger.Info().
		Str("command", command).
		Int64("chat_id", msg.Chat.ID).
		Int64("user_id", msg.From.ID).
		Msg("handling command")

	var err error

	switch command {
	case "start", "help":
		b.handleStart(msg)
	case "stats":
		err = b.handleStats(ctx, msg)
	case "analyze":
		err = b.handleAnalyze(ctx, msg)
	case "digest":
		err = b.handleDigest(ctx, msg)
	default:
		b.reply(msg, "Unknown command. Try /stats, /analyze or /digest.")
	}

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError

		b.logger.Error().Err(err).Str("command", command).Msg("command failed")
		b.reply(msg, userErrorMessage(err))
	}

	observability.CommandsHandled.WithLabelValues(command, status).Inc()
}

func identityFromTG(from *tgbotapi.User) domain.UserIdentity {
	return domain.UserIdentity{
		TGUserID:  from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}
}
