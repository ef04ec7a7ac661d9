package telegrambot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/chatinsight/insight-bot/internal/core/llm"
	"github.com/chatinsight/insight-bot/internal/digest"
	"github.com/chatinsight/insight-bot/internal/stats"
)

const startMessage = `Hi! I keep track of this group's conversation and can tell you about it.

/stats — usage statistics for this chat
/analyze [@username] — communication style profile of a member
/digest [today|yesterday] — daily conversation digest`

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	b.reply(msg, startMessage)
}

// handleStats posts the stats menu. The button callbacks re-render the
// same message in place.
func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	text, err := b.renderStats(ctx, msg.Chat.ID, 0, statsViewGeneral, stats.PeriodAll)
	if err != nil {
		return err
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = statsKeyboard(statsViewGeneral, stats.PeriodAll)

	if _, err := b.api.Send(reply); err != nil {
		return fmt.Errorf("send stats menu: %w", err)
	}

	return nil
}

// Stats menu views.
const (
	statsViewGeneral = "general"
	statsViewUser    = "user"
)

// handleCallback drives the stats menu: callback data is
// "stats:<view>:<period>" and the originating message is edited in
// place with the re-rendered view.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	defer func() {
		// Always answer so the client stops the spinner.
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Error().Err(err).Msg("failed to answer callback")
		}
	}()

	if query.Message == nil || !strings.HasPrefix(query.Data, "stats:") {
		return
	}

	parts := strings.Split(query.Data, ":")
	if len(parts) != 3 {
		return
	}

	view, period := parts[1], parts[2]
	if view != statsViewGeneral && view != statsViewUser {
		return
	}

	if !stats.ValidPeriod(period) {
		return
	}

	chatID := query.Message.Chat.ID

	text, err := b.renderStats(ctx, chatID, query.From.ID, view, period)
	if err != nil {
		b.logger.Error().Err(err).Str("view", view).Str("period", period).Msg("failed to render stats")

		text = userErrorMessage(err)
	}

	edit := tgbotapi.NewEditMessageText(chatID, query.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	markup := statsKeyboard(view, period)
	edit.ReplyMarkup = &markup

	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error().Err(err).Msg("failed to edit stats message")
	}
}

func (b *Bot) renderStats(ctx context.Context, chatID, tgUserID int64, view, period string) (string, error) {
	if view == statsViewUser {
		userStats, err := b.stats.UserStats(ctx, chatID, tgUserID, period)
		if err != nil {
			return "", err
		}

		if userStats == nil {
			return "No messages recorded for you in this chat yet.", nil
		}

		return formatUserStats(userStats), nil
	}

	chatStats, err := b.stats.ChatStats(ctx, chatID, period)
	if err != nil {
		return "", err
	}

	return formatChatStats(chatStats), nil
}

func statsKeyboard(view, period string) tgbotapi.InlineKeyboardMarkup {
	viewRow := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(markActive("General", view == statsViewGeneral), "stats:general:"+period),
		tgbotapi.NewInlineKeyboardButtonData(markActive("My stats", view == statsViewUser), "stats:user:"+period),
	)

	periodRow := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(markActive("Today", period == stats.PeriodToday), "stats:"+view+":"+stats.PeriodToday),
		tgbotapi.NewInlineKeyboardButtonData(markActive("Week", period == stats.PeriodWeek), "stats:"+view+":"+stats.PeriodWeek),
		tgbotapi.NewInlineKeyboardButtonData(markActive("Month", period == stats.PeriodMonth), "stats:"+view+":"+stats.PeriodMonth),
		tgbotapi.NewInlineKeyboardButtonData(markActive("All", period == stats.PeriodAll), "stats:"+view+":"+stats.PeriodAll),
	)

	return tgbotapi.NewInlineKeyboardMarkup(viewRow, periodRow)
}

func markActive(label string, active bool) string {
	if active {
		return "• " + label
	}

	return label
}

// handleAnalyze resolves the target (explicit @username argument, then
// the replied-to sender, then the issuer) and posts the style profile.
func (b *Bot) handleAnalyze(ctx context.Context, msg *tgbotapi.Message) error {
	limit := b.cfg.AnalyzeMessageLimit
	order := llm.AnalyzeOrder()

	arg := strings.TrimSpace(msg.CommandArguments())

	switch {
	case arg != "":
		username := strings.TrimPrefix(arg, "@")

		analysis, err := b.analyzer.AnalyzeByUsername(ctx, username, limit, order)
		if err != nil {
			return err
		}

		if analysis == nil {
			b.reply(msg, fmt.Sprintf("I haven't seen @%s in this chat.", username))
			return nil
		}

		b.reply(msg, formatAnalysis(username, analysis))

		return nil
	case msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil:
		target := msg.ReplyToMessage.From

		analysis, err := b.analyzer.AnalyzeUser(ctx, target.ID, limit, order)
		if err != nil {
			return err
		}

		if analysis == nil {
			b.reply(msg, "I haven't seen that user in this chat.")
			return nil
		}

		b.reply(msg, formatAnalysis(displayNameTG(target), analysis))

		return nil
	default:
		analysis, err := b.analyzer.AnalyzeUser(ctx, msg.From.ID, limit, order)
		if err != nil {
			return err
		}

		if analysis == nil {
			b.reply(msg, "I haven't recorded any of your messages yet.")
			return nil
		}

		b.reply(msg, formatAnalysis(displayNameTG(msg.From), analysis))

		return nil
	}
}

// handleDigest posts a placeholder and edits it in place with the
// digest once it is ready.
func (b *Bot) handleDigest(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat == nil || !(msg.Chat.IsGroup() || msg.Chat.IsSuperGroup()) {
		b.reply(msg, "/digest only works in group chats.")
		return nil
	}

	period := strings.TrimSpace(msg.CommandArguments())
	if period == "" {
		period = digest.PeriodToday
	}

	if period != digest.PeriodToday && period != digest.PeriodYesterday {
		b.reply(msg, "Usage: /digest [today|yesterday]")
		return nil
	}

	placeholder := tgbotapi.NewMessage(msg.Chat.ID, "Putting the digest together…")

	sent, err := b.api.Send(placeholder)
	if err != nil {
		return fmt.Errorf("send digest placeholder: %w", err)
	}

	result, err := b.digester.DigestChat(ctx, msg.Chat.ID, period, llm.DefaultOrder())

	var text string

	switch {
	case err != nil:
		text = userErrorMessage(err)

		b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("digest failed")
	case result == nil:
		text = fmt.Sprintf("Nothing to digest for %s: no messages recorded.", period)
	default:
		text = formatDigest(result)
	}

	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sent.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML

	if _, err := b.api.Send(edit); err != nil {
		return fmt.Errorf("edit digest message: %w", err)
	}

	return nil
}
