package enhance

import (
	"regexp"
	"strings"
)

var (
	numberedLineRx = regexp.MustCompile(`^\d+\.\s*`)
	whitespaceRx   = regexp.MustCompile(`\s+`)
)

// parseNumberedList extracts entries from an LLM response expected to be a
// newline-delimited numbered list. Lines without a numeric prefix are
// discarded; surviving lines are trimmed and stripped of wrapping quotes.
func parseNumberedList(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !numberedLineRx.MatchString(line) {
			continue
		}
		line = numberedLineRx.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		line = stripWrappingQuotes(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func stripWrappingQuotes(s string) string {
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

// normalizeQuery collapses whitespace, trims and lowercases.
func normalizeQuery(s string) string {
	return strings.ToLower(strings.TrimSpace(whitespaceRx.ReplaceAllString(s, " ")))
}

// finalize normalizes candidates, drops strings shorter than 3 runes,
// removes duplicates order-preserving and truncates to targetCount.
func finalize(candidates []string, targetCount int) []string {
	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		n := normalizeQuery(c)
		if len([]rune(n)) < 3 || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
		if targetCount > 0 && len(out) == targetCount {
			break
		}
	}
	return out
}

// dedupeExact removes exact duplicates preserving first occurrence.
func dedupeExact(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
