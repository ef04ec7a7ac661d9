// Package digest produces daily chat digests: a summary, action items
// and topic/tone context generated by the LLM provider chain over one
// chat's messages for a calendar day.
package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatinsight/insight-bot/internal/analyze"
	"github.com/chatinsight/insight-bot/internal/core/domain"
	"github.com/chatinsight/insight-bot/internal/core/llm"
)

const (
	// defaultMessageCap bounds how many messages feed one digest.
	defaultMessageCap = 200

	// maxPromptChars bounds the joined message text inside the prompt.
	maxPromptChars = 8000
)

// Digest periods. Both resolve to local calendar-day boundaries.
const (
	PeriodToday     = "today"
	PeriodYesterday = "yesterday"
)

const digestPromptTemplate = `You are an assistant that digests group-chat conversations. Below are the messages of one chat for %s, oldest first:

%s

Respond in plain text with exactly three sections, each starting with its header on its own line:
%s: <a short paragraph summarizing the conversation>
%s: <one task per line that participants explicitly agreed on or requested; leave the section empty if there are none>
%s: <the main discussion topics and the overall tone>`

// Store is the message-store surface the digester reads from.
type Store interface {
	MessagesByChat(ctx context.Context, chatID int64, from, to time.Time, limit int) ([]domain.Message, error)
}

// Service orchestrates chat digesting.
type Service struct {
	store      Store
	completer  analyze.Completer
	messageCap int
	now        func() time.Time
	logger     *zerolog.Logger
}

func New(store Store, completer analyze.Completer, messageCap int, logger *zerolog.Logger) *Service {
	if messageCap <= 0 {
		messageCap = defaultMessageCap
	}

	return &Service{
		store:      store,
		completer:  completer,
		messageCap: messageCap,
		now:        time.Now,
		logger:     logger,
	}
}

// DigestChat digests one chat for the given period. A window without
// messages yields (nil, nil): nothing to digest.
func (s *Service) DigestChat(ctx context.Context, chatID int64, period string, order []llm.ProviderName) (*domain.Digest, error) {
	from, to, err := PeriodBounds(period, s.now())
	if err != nil {
		return nil, err
	}

	messages, err := s.store.MessagesByChat(ctx, chatID, from, to, s.messageCap)
	if err != nil {
		return nil, fmt.Errorf("fetch chat messages: %w", err)
	}

	if len(messages) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(messages))
	for _, msg := range messages {
		texts = append(texts, msg.Text)
	}

	texts = analyze.TruncateMessages(texts, maxPromptChars)

	prompt := fmt.Sprintf(digestPromptTemplate,
		period,
		strings.Join(texts, "\n"),
		HeaderSummary, HeaderActionItems, HeaderTopics,
	)

	s.logger.Debug().
		Int64("chat_id", chatID).
		Str("period", period).
		Int("messages", len(messages)).
		Msg("running chat digest")

	provider, raw, err := s.completer.Complete(ctx, prompt, order)
	if err != nil {
		return nil, err
	}

	parsed := ParseDigestResponse(raw)

	return &domain.Digest{
		ChatID:       chatID,
		Period:       period,
		Summary:      parsed.Summary,
		ActionItems:  parsed.ActionItems,
		Topics:       parsed.Topics,
		MessageCount: len(messages),
		Provider:     string(provider),
	}, nil
}

// PeriodBounds resolves a digest period into local calendar-day
// boundaries [from, to).
func PeriodBounds(period string, now time.Time) (from, to time.Time, err error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case PeriodToday:
		return midnight, midnight.AddDate(0, 0, 1), nil
	case PeriodYesterday:
		return midnight.AddDate(0, 0, -1), midnight, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown digest period %q", period)
	}
}
