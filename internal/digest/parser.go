package digest

import (
	"regexp"
	"strings"
)

// Section headers the model is instructed to emit.
const (
	HeaderSummary     = "Summary"
	HeaderActionItems = "Action items"
	HeaderTopics      = "Topics and tone"
)

// SentinelNoTasks replaces an empty action-item list; a digest never
// carries zero entries.
const SentinelNoTasks = "no explicit tasks"

// Each pattern captures the text between its own header and the next
// header (or end of text). Parsing is best-effort: a missing section
// yields an empty string.
var (
	summaryRe = regexp.MustCompile(`(?is)\bsummary:\s*(.*?)\s*(?:\baction\s+items:|\btopics\s+and\s+tone:|\z)`)
	actionsRe = regexp.MustCompile(`(?is)\baction\s+items:\s*(.*?)\s*(?:\bsummary:|\btopics\s+and\s+tone:|\z)`)
	topicsRe  = regexp.MustCompile(`(?is)\btopics\s+and\s+tone:\s*(.*?)\s*(?:\bsummary:|\baction\s+items:|\z)`)

	bulletRe = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)
)

// ParsedDigest is the three-section breakdown of a raw digest response.
type ParsedDigest struct {
	Summary     string
	ActionItems []string
	Topics      string
}

// ParseDigestResponse splits the raw model output into the three
// sections and normalizes the action items.
func ParseDigestResponse(raw string) ParsedDigest {
	return ParsedDigest{
		Summary:     extractSection(summaryRe, raw),
		ActionItems: parseActionItems(extractSection(actionsRe, raw)),
		Topics:      extractSection(topicsRe, raw),
	}
}

func extractSection(re *regexp.Regexp, raw string) string {
	match := re.FindStringSubmatch(raw)
	if len(match) < 2 {
		return ""
	}

	return strings.TrimSpace(match[1])
}

// parseActionItems splits a section into one entry per line with
// bullet markers stripped and blanks dropped. An empty result is
// replaced by the single sentinel entry.
func parseActionItems(section string) []string {
	var items []string

	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}

		items = append(items, line)
	}

	if len(items) == 0 {
		return []string{SentinelNoTasks}
	}

	return items
}
