package translation

import (
	"regexp"
	"strings"
)

// MaxExplainLength is the rune limit applied to explanations before the
// ellipsis is appended.
const MaxExplainLength = 200

var (
	codeFenceRe = regexp.MustCompile("```[a-zA-Z]*\n?")
	linkRe      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	headingRe   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	listRe      = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// CleanExplanation strips the markdown artifacts chat models tend to add
// despite plain-text instructions, and collapses whitespace.
func CleanExplanation(s string) string {
	s = codeFenceRe.ReplaceAllString(s, "")
	s = linkRe.ReplaceAllString(s, "$1")
	s = headingRe.ReplaceAllString(s, "")
	s = listRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "`", "")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// TruncateExplanation cuts s to MaxExplainLength runes, appending "..."
// when something was cut off.
func TruncateExplanation(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxExplainLength {
		return s
	}
	return string(runes[:MaxExplainLength]) + "..."
}
