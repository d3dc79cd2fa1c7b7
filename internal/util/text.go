package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reNonAllowed = regexp.MustCompile(`[^a-z0-9\s]`)
	reSpaces     = regexp.MustCompile(`\s+`)
)

// NormalizeName canonicalizes an item name for comparison. Idempotent:
// normalizing an already-normalized string is a no-op.
func NormalizeName(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.ReplaceAll(s, "’", "'")
	s = strings.ReplaceAll(s, "‘", "'")
	s = strings.ReplaceAll(s, "'s", "s")
	s = reNonAllowed.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeAcronym is the lookup key form for catalog acronyms.
func NormalizeAcronym(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

func WordCount(s string) int {
	return len(strings.Fields(s))
}

// FormatValue renders an item value with thousands separators, e.g.
// 24000000 -> "24,000,000".
func FormatValue(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func StringPtr(v string) *string { return &v }

func Int64Ptr(v int64) *int64 { return &v }
