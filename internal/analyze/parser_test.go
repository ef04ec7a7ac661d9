package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAnalysisResponse(t *testing.T) {
	t.Run("well formed response", func(t *testing.T) {
		raw := `Style: concise and direct
Topics: infrastructure, on-call
Activity: bursts in the morning
Tone: dry
Traits: loves emoji`

		got := ParseAnalysisResponse(raw)

		assert.Equal(t, "concise and direct", got.Style)
		assert.Equal(t, "infrastructure, on-call", got.Topics)
		assert.Equal(t, "bursts in the morning", got.Activity)
		assert.Equal(t, "dry", got.Tone)
		assert.Equal(t, "loves emoji", got.Traits)
	})

	t.Run("labels match case insensitively", func(t *testing.T) {
		got := ParseAnalysisResponse("STYLE: shouty\ntone: calm")

		assert.Equal(t, "shouty", got.Style)
		assert.Equal(t, "calm", got.Tone)
	})

	t.Run("missing labels keep the sentinel", func(t *testing.T) {
		got := ParseAnalysisResponse("Style: terse")

		assert.Equal(t, "terse", got.Style)
		assert.Equal(t, SentinelNotSpecified, got.Topics)
		assert.Equal(t, SentinelNotSpecified, got.Activity)
		assert.Equal(t, SentinelNotSpecified, got.Tone)
		assert.Equal(t, SentinelNotSpecified, got.Traits)
	})

	t.Run("last occurrence wins", func(t *testing.T) {
		got := ParseAnalysisResponse("Style: first\nStyle: second")

		assert.Equal(t, "second", got.Style)
	})

	t.Run("empty values are ignored", func(t *testing.T) {
		got := ParseAnalysisResponse("Style:\nTopics:   ")

		assert.Equal(t, SentinelNotSpecified, got.Style)
		assert.Equal(t, SentinelNotSpecified, got.Topics)
	})

	t.Run("garbage degrades to all sentinels", func(t *testing.T) {
		got := ParseAnalysisResponse("I'm sorry, I cannot help with that.")

		assert.Equal(t, SentinelNotSpecified, got.Style)
		assert.Equal(t, SentinelNotSpecified, got.Traits)
	})

	t.Run("surrounding whitespace is trimmed", func(t *testing.T) {
		got := ParseAnalysisResponse("  Tone:  warm and friendly  \n")

		assert.Equal(t, "warm and friendly", got.Tone)
	})
}

func TestInsufficientDataAnalysis(t *testing.T) {
	got := InsufficientDataAnalysis()

	assert.Equal(t, SentinelInsufficientData, got.Style)
	assert.Equal(t, SentinelInsufficientData, got.Topics)
	assert.Equal(t, SentinelInsufficientData, got.Activity)
	assert.Equal(t, SentinelInsufficientData, got.Tone)
	assert.Equal(t, SentinelInsufficientData, got.Traits)
}
