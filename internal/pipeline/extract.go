package pipeline

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/froosterton/reddih/internal"
)

var reDigits = regexp.MustCompile(`[^0-9]`)

// ParseDetectedMentions parses the vision model's reply into mentions. The
// expected shape is a JSON array of {"name": ..., "value": ...} objects,
// optionally wrapped in a markdown code fence; bare strings and string
// values like "4,200,000" are tolerated. Anything unparseable yields an
// empty slice, never an error.
func ParseDetectedMentions(raw string) []internal.DetectedMention {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var entries []any
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		return nil
	}

	mentions := make([]internal.DetectedMention, 0, len(entries))
	for _, entry := range entries {
		switch t := entry.(type) {
		case string:
			if name := strings.TrimSpace(t); name != "" {
				mentions = append(mentions, internal.DetectedMention{RawName: name})
			}
		case map[string]any:
			name, _ := t["name"].(string)
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			mentions = append(mentions, internal.DetectedMention{
				RawName:  name,
				RawValue: parseDisplayedValue(t["value"]),
			})
		}
	}

	return mentions
}

func parseDisplayedValue(v any) int64 {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0
		}
		return int64(t)
	case string:
		digits := reDigits.ReplaceAllString(t, "")
		if digits == "" {
			return 0
		}
		parsed, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
