package digest

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatinsight/insight-bot/internal/core/domain"
	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
	"github.com/chatinsight/insight-bot/internal/core/llm"
)

type stubStore struct {
	messages []domain.Message
	err      error

	lastFrom  time.Time
	lastTo    time.Time
	lastLimit int
}

func (s *stubStore) MessagesByChat(_ context.Context, _ int64, from, to time.Time, limit int) ([]domain.Message, error) {
	s.lastFrom = from
	s.lastTo = to
	s.lastLimit = limit

	return s.messages, s.err
}

type stubCompleter struct {
	provider   llm.ProviderName
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string, _ []llm.ProviderName) (llm.ProviderName, string, error) {
	s.calls++
	s.lastPrompt = prompt

	return s.provider, s.response, s.err
}

func newDigester(store Store, completer *stubCompleter) *Service {
	logger := zerolog.Nop()
	svc := New(store, completer, 200, &logger)
	svc.now = func() time.Time {
		return time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)
	}

	return svc
}

func TestPeriodBounds(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)
	midnight := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("today", func(t *testing.T) {
		from, to, err := PeriodBounds(PeriodToday, now)
		require.NoError(t, err)

		assert.Equal(t, midnight, from)
		assert.Equal(t, midnight.AddDate(0, 0, 1), to)
	})

	t.Run("yesterday", func(t *testing.T) {
		from, to, err := PeriodBounds(PeriodYesterday, now)
		require.NoError(t, err)

		assert.Equal(t, midnight.AddDate(0, 0, -1), from)
		assert.Equal(t, midnight, to)
	})

	t.Run("unknown period", func(t *testing.T) {
		_, _, err := PeriodBounds("tomorrow", now)
		require.Error(t, err)
	})
}

func TestDigestChatEmptyWindow(t *testing.T) {
	store := &stubStore{}
	completer := &stubCompleter{}

	got, err := newDigester(store, completer).DigestChat(context.Background(), -100500, PeriodToday, nil)
	require.NoError(t, err)

	assert.Nil(t, got)
	assert.Zero(t, completer.calls, "no provider call without messages")
}

func TestDigestChatSuccess(t *testing.T) {
	store := &stubStore{
		messages: []domain.Message{
			{Text: "morning"},
			{Text: "we should ship v2 today"},
			{Text: "agreed, I'll tag the release"},
		},
	}
	completer := &stubCompleter{
		provider: llm.ProviderGemini,
		response: "Summary: release day chatter\nAction items:\n- tag the v2 release\nTopics and tone: releases, focused",
	}

	got, err := newDigester(store, completer).DigestChat(context.Background(), -100500, PeriodToday, llm.DefaultOrder())
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, int64(-100500), got.ChatID)
	assert.Equal(t, PeriodToday, got.Period)
	assert.Equal(t, "release day chatter", got.Summary)
	assert.Equal(t, []string{"tag the v2 release"}, got.ActionItems)
	assert.Equal(t, "releases, focused", got.Topics)
	assert.Equal(t, 3, got.MessageCount)
	assert.Equal(t, string(llm.ProviderGemini), got.Provider)

	// Messages land in the prompt in store order, oldest first.
	assert.Contains(t, completer.lastPrompt, "morning\nwe should ship v2 today")
}

func TestDigestChatQueriesCalendarDay(t *testing.T) {
	store := &stubStore{}
	svc := newDigester(store, &stubCompleter{})

	_, err := svc.DigestChat(context.Background(), 1, PeriodYesterday, nil)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), store.lastFrom)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), store.lastTo)
	assert.Equal(t, 200, store.lastLimit)
}

func TestDigestChatProviderFailure(t *testing.T) {
	store := &stubStore{messages: []domain.Message{{Text: "hi"}}}
	completer := &stubCompleter{err: coreerrors.ErrAllProvidersFailed}

	_, err := newDigester(store, completer).DigestChat(context.Background(), 1, PeriodToday, nil)
	require.ErrorIs(t, err, coreerrors.ErrAllProvidersFailed)
}

func TestDigestChatInvalidPeriod(t *testing.T) {
	_, err := newDigester(&stubStore{}, &stubCompleter{}).DigestChat(context.Background(), 1, "week", nil)
	require.Error(t, err)
}
