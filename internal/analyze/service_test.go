package analyze

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatinsight/insight-bot/internal/core/domain"
	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
	"github.com/chatinsight/insight-bot/internal/core/llm"
	db "github.com/chatinsight/insight-bot/internal/storage"
)

type stubStore struct {
	user       *domain.User
	userErr    error
	messages   []domain.Message
	msgErr     error
	lastFilter db.MessageFilter
}

func (s *stubStore) UserByTGID(_ context.Context, _ int64) (*domain.User, error) {
	return s.user, s.userErr
}

func (s *stubStore) UserByUsername(_ context.Context, _ string) (*domain.User, error) {
	return s.user, s.userErr
}

func (s *stubStore) MessagesByUser(_ context.Context, _ int64, filter db.MessageFilter) ([]domain.Message, error) {
	s.lastFilter = filter

	return s.messages, s.msgErr
}

type stubCompleter struct {
	provider   llm.ProviderName
	response   string
	err        error
	calls      int
	lastPrompt string
	lastOrder  []llm.ProviderName
}

func (s *stubCompleter) Complete(_ context.Context, prompt string, order []llm.ProviderName) (llm.ProviderName, string, error) {
	s.calls++
	s.lastPrompt = prompt
	s.lastOrder = order

	return s.provider, s.response, s.err
}

func newAnalyzer(store Store, completer Completer) *Service {
	logger := zerolog.Nop()

	return New(store, completer, &logger)
}

func messagesNewestFirst(texts ...string) []domain.Message {
	msgs := make([]domain.Message, len(texts))
	base := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	for i, text := range texts {
		msgs[i] = domain.Message{ID: int64(i + 1), Text: text, CreatedAt: base.Add(-time.Duration(i) * time.Minute)}
	}

	return msgs
}

func TestAnalyzeUserUnknown(t *testing.T) {
	store := &stubStore{userErr: coreerrors.ErrUserNotFound}
	completer := &stubCompleter{}

	got, err := newAnalyzer(store, completer).AnalyzeUser(context.Background(), 42, 30, llm.DefaultOrder())
	require.NoError(t, err)

	assert.Nil(t, got)
	assert.Zero(t, completer.calls)
}

func TestAnalyzeUserNoMessages(t *testing.T) {
	store := &stubStore{user: &domain.User{ID: 1, TGUserID: 42, Username: "alice"}}
	completer := &stubCompleter{}

	got, err := newAnalyzer(store, completer).AnalyzeUser(context.Background(), 42, 30, llm.DefaultOrder())
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, SentinelInsufficientData, got.Style)
	assert.Zero(t, got.MessageCount)
	assert.Zero(t, completer.calls, "no provider call without input")
}

func TestAnalyzeUserSuccess(t *testing.T) {
	store := &stubStore{
		user:     &domain.User{ID: 1, TGUserID: 42, Username: "alice"},
		messages: messagesNewestFirst("newest", "middle", "oldest"),
	}
	completer := &stubCompleter{
		provider: llm.ProviderQwen,
		response: "Style: terse\nTopics: ops\nActivity: daily\nTone: dry\nTraits: emoji",
	}

	got, err := newAnalyzer(store, completer).AnalyzeUser(context.Background(), 42, 30, llm.AnalyzeOrder())
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "terse", got.Style)
	assert.Equal(t, 3, got.MessageCount)
	assert.Equal(t, string(llm.ProviderQwen), got.Provider)
	assert.Equal(t, "last 3 messages", got.Period)
	assert.InDelta(t, 6.0, got.AvgMessageLen, 0.01)

	// Prompt gets the messages oldest first.
	assert.Contains(t, completer.lastPrompt, "oldest\nmiddle\nnewest")
	assert.Contains(t, completer.lastPrompt, "@alice")
	assert.Equal(t, llm.AnalyzeOrder(), completer.lastOrder)
}

func TestAnalyzeUserLimitClamped(t *testing.T) {
	store := &stubStore{user: &domain.User{ID: 1}}
	completer := &stubCompleter{}
	svc := newAnalyzer(store, completer)

	_, err := svc.AnalyzeUser(context.Background(), 42, 500, nil)
	require.NoError(t, err)
	assert.Equal(t, maxAnalyzeMessages, store.lastFilter.Limit)

	_, err = svc.AnalyzeUser(context.Background(), 42, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, maxAnalyzeMessages, store.lastFilter.Limit)

	_, err = svc.AnalyzeUser(context.Background(), 42, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, store.lastFilter.Limit)
}

func TestAnalyzeUserProviderFailure(t *testing.T) {
	store := &stubStore{
		user:     &domain.User{ID: 1},
		messages: messagesNewestFirst("hi"),
	}
	completer := &stubCompleter{err: coreerrors.ErrAllProvidersFailed}

	_, err := newAnalyzer(store, completer).AnalyzeUser(context.Background(), 42, 30, nil)
	require.ErrorIs(t, err, coreerrors.ErrAllProvidersFailed)
}

func TestAnalyzeByUsername(t *testing.T) {
	t.Run("unknown username yields nil", func(t *testing.T) {
		store := &stubStore{userErr: coreerrors.ErrUserNotFound}

		got, err := newAnalyzer(store, &stubCompleter{}).AnalyzeByUsername(context.Background(), "ghost", 30, nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		store := &stubStore{userErr: errors.New("db down")}

		_, err := newAnalyzer(store, &stubCompleter{}).AnalyzeByUsername(context.Background(), "alice", 30, nil)
		require.Error(t, err)
	})
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "@alice", DisplayName(&domain.User{Username: "alice", FirstName: "Alice"}))
	assert.Equal(t, "Alice", DisplayName(&domain.User{FirstName: "Alice"}))
	assert.Equal(t, "this user", DisplayName(&domain.User{}))
}
