// Package analyze builds per-user communication-style profiles by
// prompting the LLM provider chain over a user's recent messages.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/chatinsight/insight-bot/internal/core/domain"
	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
	"github.com/chatinsight/insight-bot/internal/core/llm"
	db "github.com/chatinsight/insight-bot/internal/storage"
)

// maxAnalyzeMessages caps how many recent messages feed one analysis
// regardless of the requested limit.
const maxAnalyzeMessages = 30

// Store is the message-store surface the analyzer reads from.
type Store interface {
	UserByTGID(ctx context.Context, tgUserID int64) (*domain.User, error)
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
	MessagesByUser(ctx context.Context, userID int64, filter db.MessageFilter) ([]domain.Message, error)
}

// Completer runs a prompt through an ordered provider chain.
type Completer interface {
	Complete(ctx context.Context, prompt string, order []llm.ProviderName) (llm.ProviderName, string, error)
}

// Service orchestrates user analysis.
type Service struct {
	store     Store
	completer Completer
	logger    *zerolog.Logger
}

func New(store Store, completer Completer, logger *zerolog.Logger) *Service {
	return &Service{store: store, completer: completer, logger: logger}
}

// AnalyzeUser profiles the user identified by Telegram user id.
// Unknown users yield (nil, nil). A user without stored messages
// yields the insufficient-data sentinel record without any network
// call.
func (s *Service) AnalyzeUser(ctx context.Context, tgUserID int64, limit int, order []llm.ProviderName) (*domain.Analysis, error) {
	user, err := s.store.UserByTGID(ctx, tgUserID)
	if err != nil {
		if errors.Is(err, coreerrors.ErrUserNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("resolve user: %w", err)
	}

	return s.analyze(ctx, user, limit, order)
}

// AnalyzeByUsername profiles the user identified by handle. Unknown
// usernames yield (nil, nil).
func (s *Service) AnalyzeByUsername(ctx context.Context, username string, limit int, order []llm.ProviderName) (*domain.Analysis, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, coreerrors.ErrUserNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("resolve user: %w", err)
	}

	return s.analyze(ctx, user, limit, order)
}

func (s *Service) analyze(ctx context.Context, user *domain.User, limit int, order []llm.ProviderName) (*domain.Analysis, error) {
	if limit <= 0 || limit > maxAnalyzeMessages {
		limit = maxAnalyzeMessages
	}

	messages, err := s.store.MessagesByUser(ctx, user.ID, db.MessageFilter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	if len(messages) == 0 {
		result := InsufficientDataAnalysis()
		result.Period = periodLabel(0)

		return &result, nil
	}

	// MessagesByUser returns newest first; the prompt wants oldest
	// first so recent context sits closest to the instructions.
	texts := make([]string, 0, len(messages))
	totalLen := 0

	for i := len(messages) - 1; i >= 0; i-- {
		texts = append(texts, messages[i].Text)
		totalLen += utf8.RuneCountInString(messages[i].Text)
	}

	prompt := BuildAnalysisPrompt(DisplayName(user), texts)

	s.logger.Debug().
		Int64("tg_user_id", user.TGUserID).
		Int("messages", len(messages)).
		Msg("running user analysis")

	provider, raw, err := s.completer.Complete(ctx, prompt, order)
	if err != nil {
		return nil, err
	}

	result := ParseAnalysisResponse(raw)
	result.MessageCount = len(messages)
	result.AvgMessageLen = float64(totalLen) / float64(len(messages))
	result.Period = periodLabel(len(messages))
	result.Provider = string(provider)

	return &result, nil
}

// DisplayName picks the prompt header for a user: handle first, then
// first name, then a generic label.
func DisplayName(user *domain.User) string {
	switch {
	case user.Username != "":
		return "@" + user.Username
	case user.FirstName != "":
		return user.FirstName
	default:
		return "this user"
	}
}

func periodLabel(count int) string {
	return fmt.Sprintf("last %d messages", count)
}
