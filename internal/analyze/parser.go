package analyze

import (
	"strings"

	"github.com/chatinsight/insight-bot/internal/core/domain"
)

// Sentinel values for analysis fields.
const (
	// SentinelNotSpecified fills any field the model response did not
	// carry a label for.
	SentinelNotSpecified = "not specified"

	// SentinelInsufficientData fills every field when the user has no
	// stored messages.
	SentinelInsufficientData = "insufficient data"
)

// ParseAnalysisResponse extracts the five labeled fields from the raw
// model output. The parse is best-effort: labels are matched
// case-insensitively per line, the last occurrence of a label wins,
// and fields never seen keep the "not specified" sentinel. Malformed
// output degrades to partial sentinel-filled results, it never fails.
func ParseAnalysisResponse(raw string) domain.Analysis {
	result := domain.Analysis{
		Style:    SentinelNotSpecified,
		Topics:   SentinelNotSpecified,
		Activity: SentinelNotSpecified,
		Tone:     SentinelNotSpecified,
		Traits:   SentinelNotSpecified,
	}

	fields := map[string]*string{
		strings.ToLower(LabelStyle):    &result.Style,
		strings.ToLower(LabelTopics):   &result.Topics,
		strings.ToLower(LabelActivity): &result.Activity,
		strings.ToLower(LabelTone):     &result.Tone,
		strings.ToLower(LabelTraits):   &result.Traits,
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)

		for label, target := range fields {
			prefix := label + ":"
			if strings.HasPrefix(lower, prefix) {
				value := strings.TrimSpace(line[len(prefix):])
				if value != "" {
					*target = value
				}

				break
			}
		}
	}

	return result
}

// InsufficientDataAnalysis returns the sentinel record used when a
// user has no stored messages.
func InsufficientDataAnalysis() domain.Analysis {
	return domain.Analysis{
		Style:    SentinelInsufficientData,
		Topics:   SentinelInsufficientData,
		Activity: SentinelInsufficientData,
		Tone:     SentinelInsufficientData,
		Traits:   SentinelInsufficientData,
	}
}
