package parser

import (
	"regexp"
	"strings"
)

var keywordSeparatorRegex = regexp.MustCompile(`[\n,]+`)

// ParseKeywords splits user input on newlines and commas, trimming blanks.
func ParseKeywords(text string) []string {
	parts := keywordSeparatorRegex.Split(text, -1)
	keywords := make([]string, 0, len(parts))

	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			keywords = append(keywords, k)
		}
	}

	return keywords
}

// Truncate cuts s to at most n characters (runes, not bytes).
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
