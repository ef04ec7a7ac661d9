package analyze

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// maxPromptChars bounds the joined message text inside the prompt.
	maxPromptChars = 6000

	// truncateKeepRatio is the share of messages kept (by count, newest
	// side) when the joined text exceeds the budget. Dropping whole old
	// messages sacrifices stale context instead of cutting mid-message.
	truncateKeepRatio = 0.6
)

// Response field labels the model is instructed to emit, one per line.
const (
	LabelStyle    = "Style"
	LabelTopics   = "Topics"
	LabelActivity = "Activity"
	LabelTone     = "Tone"
	LabelTraits   = "Traits"
)

const analysisPromptTemplate = `You are a communication analyst. Study the chat messages written by %s and describe the author's communication style.

Messages (oldest first):
%s

Respond in plain text without any markup, exactly five lines, each line starting with its label:
%s: <one sentence describing the writing style>
%s: <the main topics the author writes about>
%s: <how actively and in what rhythm the author participates>
%s: <the emotional tone of the messages>
%s: <notable traits or quirks of the author's communication>`

// BuildAnalysisPrompt assembles the fixed-template analysis prompt for
// a display name and the author's message texts ordered oldest first.
func BuildAnalysisPrompt(displayName string, texts []string) string {
	kept := TruncateMessages(texts, maxPromptChars)

	return fmt.Sprintf(analysisPromptTemplate,
		displayName,
		strings.Join(kept, "\n"),
		LabelStyle, LabelTopics, LabelActivity, LabelTone, LabelTraits,
	)
}

// TruncateMessages keeps only the most recent ceil(N*0.6) messages (by
// count) when the joined text exceeds maxChars. The slice is assumed
// oldest first, so the head is dropped.
func TruncateMessages(texts []string, maxChars int) []string {
	joined := strings.Join(texts, "\n")
	if utf8.RuneCountInString(joined) <= maxChars {
		return texts
	}

	keep := (len(texts)*6 + 9) / 10 // ceil(N * 0.6)
	if keep < 1 {
		keep = 1
	}

	return texts[len(texts)-keep:]
}
