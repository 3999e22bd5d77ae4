// Package batch reads word list files for bulk phonetic and meaning
// lookups.
package batch

import (
	"fmt"
	"os"
	"strings"
)

// ReadWordFile reads one word or phrase per line. Blank lines and lines
// starting with '#' are skipped; repeated words (case-insensitive) are
// returned once, in first-seen order.
func ReadWordFile(filename string) ([]string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read word file: %w", err)
	}

	var words []string
	seen := make(map[string]struct{})

	for _, line := range splitLines(string(content)) {
		word := strings.TrimSpace(line)
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}

		key := strings.ToLower(word)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		words = append(words, word)
	}

	return words, nil
}

// splitLines splits a string by newlines, tolerating Windows line endings
func splitLines(s string) []string {
	var lines []string
	current := ""
	for _, r := range s {
		if r == '\n' {
			lines = append(lines, current)
			current = ""
		} else if r != '\r' {
			current += string(r)
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
