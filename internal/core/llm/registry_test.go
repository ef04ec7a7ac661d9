package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
)

type fakeProvider struct {
	name      ProviderName
	available bool
	response  string
	err       error
	calls     int
}

func (f *fakeProvider) Name() ProviderName { return f.name }

func (f *fakeProvider) IsAvailable() bool { return f.available }

func (f *fakeProvider) Complete(_ context.Context, _ string) (string, error) {
	f.calls++

	return f.response, f.err
}

func newTestRegistry(providers ...Provider) *Registry {
	logger := zerolog.Nop()

	return NewRegistry(&logger, providers...)
}

func TestRegistryFirstSuccessWins(t *testing.T) {
	first := &fakeProvider{name: ProviderDeepSeek, available: true, response: "from deepseek"}
	second := &fakeProvider{name: ProviderQwen, available: true, response: "from qwen"}

	registry := newTestRegistry(first, second)

	name, text, err := registry.Complete(context.Background(), "hi", []ProviderName{ProviderDeepSeek, ProviderQwen})
	require.NoError(t, err)

	assert.Equal(t, ProviderDeepSeek, name)
	assert.Equal(t, "from deepseek", text)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls)
}

func TestRegistryFallsBackOnError(t *testing.T) {
	first := &fakeProvider{name: ProviderDeepSeek, available: true, err: errors.New("boom")}
	second := &fakeProvider{name: ProviderQwen, available: true, response: "rescued"}

	registry := newTestRegistry(first, second)

	name, text, err := registry.Complete(context.Background(), "hi", []ProviderName{ProviderDeepSeek, ProviderQwen})
	require.NoError(t, err)

	assert.Equal(t, ProviderQwen, name)
	assert.Equal(t, "rescued", text)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestRegistrySkipsUnavailable(t *testing.T) {
	first := &fakeProvider{name: ProviderDeepSeek, available: false}
	second := &fakeProvider{name: ProviderQwen, available: true, response: "ok"}

	registry := newTestRegistry(first, second)

	name, _, err := registry.Complete(context.Background(), "hi", []ProviderName{ProviderDeepSeek, ProviderQwen})
	require.NoError(t, err)

	assert.Equal(t, ProviderQwen, name)
	assert.Zero(t, first.calls, "unavailable provider must not be called")
}

func TestRegistryExhaustion(t *testing.T) {
	t.Run("all failed surfaces last error", func(t *testing.T) {
		first := &fakeProvider{name: ProviderDeepSeek, available: true, err: errors.New("first down")}
		second := &fakeProvider{name: ProviderQwen, available: true, err: errors.New("second down")}

		registry := newTestRegistry(first, second)

		_, _, err := registry.Complete(context.Background(), "hi", []ProviderName{ProviderDeepSeek, ProviderQwen})
		require.ErrorIs(t, err, coreerrors.ErrAllProvidersFailed)
		assert.Contains(t, err.Error(), "second down")
	})

	t.Run("balance exhaustion is reported specifically", func(t *testing.T) {
		first := &fakeProvider{
			name:      ProviderDeepSeek,
			available: true,
			err:       fmt.Errorf("deepseek: %w", coreerrors.ErrInsufficientBalance),
		}
		second := &fakeProvider{name: ProviderQwen, available: true, err: errors.New("also down")}

		registry := newTestRegistry(first, second)

		_, _, err := registry.Complete(context.Background(), "hi", []ProviderName{ProviderDeepSeek, ProviderQwen})
		require.ErrorIs(t, err, coreerrors.ErrBalanceExhausted)
	})

	t.Run("nothing configured", func(t *testing.T) {
		registry := newTestRegistry(&fakeProvider{name: ProviderDeepSeek, available: false})

		_, _, err := registry.Complete(context.Background(), "hi", []ProviderName{ProviderDeepSeek, ProviderGemini})
		require.ErrorIs(t, err, coreerrors.ErrNoProvidersAvailable)
	})
}

func TestRegistryRespectsCallerOrder(t *testing.T) {
	deepseek := &fakeProvider{name: ProviderDeepSeek, available: true, response: "ds"}
	qwen := &fakeProvider{name: ProviderQwen, available: true, response: "qw"}

	registry := newTestRegistry(deepseek, qwen)

	name, _, err := registry.Complete(context.Background(), "hi", []ProviderName{ProviderQwen, ProviderDeepSeek})
	require.NoError(t, err)

	assert.Equal(t, ProviderQwen, name)
	assert.Zero(t, deepseek.calls)
}

func TestRegistryAvailable(t *testing.T) {
	registry := newTestRegistry(
		&fakeProvider{name: ProviderDeepSeek, available: true},
		&fakeProvider{name: ProviderQwen, available: false},
	)

	assert.True(t, registry.Available(ProviderDeepSeek))
	assert.False(t, registry.Available(ProviderQwen))
	assert.False(t, registry.Available(ProviderGemini))
}

func TestDefaultOrders(t *testing.T) {
	assert.Equal(t, []ProviderName{ProviderQwen, ProviderGemini, ProviderDeepSeek}, DefaultOrder())
	assert.Equal(t, []ProviderName{ProviderDeepSeek, ProviderQwen, ProviderGemini}, AnalyzeOrder())
}
