package telegrambot

import (
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/chatinsight/insight-bot/internal/core/domain"
	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
)

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID
	reply.ParseMode = tgbotapi.ModeHTML

	if _, err := b.api.Send(reply); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to send reply")
	}
}

// userErrorMessage maps internal failures to something a chat member
// can act on. Provider internals stay in the logs.
func userErrorMessage(err error) string {
	switch {
	case errors.Is(err, coreerrors.ErrRateLimited):
		return "The analysis service is busy right now. Please try again in a minute."
	case errors.Is(err, coreerrors.ErrPayloadTooLarge):
		return "Too much text to analyze at once. Try a shorter period."
	case errors.Is(err, coreerrors.ErrBalanceExhausted), errors.Is(err, coreerrors.ErrInsufficientBalance):
		return "The analysis service is out of credit. Please tell the bot admin."
	case errors.Is(err, coreerrors.ErrAuthFailed):
		return "The bot is misconfigured. Please tell the bot admin."
	case errors.Is(err, coreerrors.ErrNoProvidersAvailable), errors.Is(err, coreerrors.ErrAllProvidersFailed):
		return "None of the analysis services responded. Please try again later."
	default:
		return "Something went wrong. Please try again later."
	}
}

var periodTitles = map[string]string{
	"today": "Today",
	"week":  "Last 7 days",
	"month": "Last month",
	"all":   "All time",
}

func periodTitle(period string) string {
	if title, ok := periodTitles[period]; ok {
		return title
	}

	return period
}

func formatChatStats(cs *domain.ChatStats) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>Chat statistics</b> (%s)\n\n", periodTitle(cs.Period))
	fmt.Fprintf(&sb, "Messages: <b>%d</b>\n", cs.TotalMessages)
	fmt.Fprintf(&sb, "Active members: <b>%d</b>\n", cs.TotalUsers)

	if len(cs.TopUsers) > 0 {
		sb.WriteString("\n<b>Most active</b>\n")

		for i, top := range cs.TopUsers {
			fmt.Fprintf(&sb, "%d. %s — %d\n", i+1, html.EscapeString(topUserName(top)), top.Count)
		}
	}

	return sb.String()
}

func topUserName(top domain.TopUser) string {
	if top.Username != "" {
		return "@" + top.Username
	}

	if top.FirstName != "" {
		return top.FirstName
	}

	return fmt.Sprintf("user %d", top.TGUserID)
}

func formatUserStats(us *domain.UserStats) string {
	name := us.FirstName
	if us.Username != "" {
		name = "@" + us.Username
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>Stats for %s</b> (%s)\n\n", html.EscapeString(name), periodTitle(us.Period))
	fmt.Fprintf(&sb, "Messages: <b>%d</b>\n", us.MessageCount)

	return sb.String()
}

func formatAnalysis(name string, a *domain.Analysis) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>Profile of %s</b>\n", html.EscapeString(name))
	fmt.Fprintf(&sb, "<i>based on %d messages, avg %.0f chars</i>\n\n", a.MessageCount, a.AvgMessageLen)
	fmt.Fprintf(&sb, "<b>Style:</b> %s\n", html.EscapeString(a.Style))
	fmt.Fprintf(&sb, "<b>Topics:</b> %s\n", html.EscapeString(a.Topics))
	fmt.Fprintf(&sb, "<b>Activity:</b> %s\n", html.EscapeString(a.Activity))
	fmt.Fprintf(&sb, "<b>Tone:</b> %s\n", html.EscapeString(a.Tone))
	fmt.Fprintf(&sb, "<b>Traits:</b> %s\n", html.EscapeString(a.Traits))

	return sb.String()
}

func formatDigest(d *domain.Digest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>Digest</b> (%s, %d messages)\n\n", d.Period, d.MessageCount)
	fmt.Fprintf(&sb, "%s\n", html.EscapeString(d.Summary))

	sb.WriteString("\n<b>Action items</b>\n")

	for _, item := range d.ActionItems {
		fmt.Fprintf(&sb, "• %s\n", html.EscapeString(item))
	}

	if d.Topics != "" {
		sb.WriteString("\n<b>Topics and tone</b>\n")
		fmt.Fprintf(&sb, "%s\n", html.EscapeString(d.Topics))
	}

	return sb.String()
}

func displayNameTG(from *tgbotapi.User) string {
	if from.UserName != "" {
		return "@" + from.UserName
	}

	if from.FirstName != "" {
		return from.FirstName
	}

	return fmt.Sprintf("user %d", from.ID)
}
