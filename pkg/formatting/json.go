package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParseFailed reports content that does not decode as JSON.
var ErrParseFailed = errors.New("content is not valid JSON")

var typography = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"‘", "'",
	"’", "'",
	"—", "-",
	"–", "-",
)

// Parse decodes content into T after removing any markdown code fence
// markers around it.
func Parse[T any](content string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(StripFences(content)), &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return v, nil
}

// StripFences removes markdown code fence markers, keeping the fenced content.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// NormalizeTypography replaces typographic quotes and dashes with their ASCII forms.
func NormalizeTypography(s string) string {
	return typography.Replace(s)
}

// RemoveTrailingCommas drops commas that directly precede a closing ] or },
// ignoring whitespace between them. Commas inside string literals are kept.
func RemoveTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}

		if c == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == ']' || s[j] == '}') {
				continue
			}
		}

		b.WriteByte(c)
	}

	return b.String()
}

// ExtractBalanced returns the first balanced span that starts at the first
// occurrence of open and ends at its matching close. The depth scan skips
// delimiters inside JSON string literals and honors backslash escapes.
// Returns false when open does not occur or the span is never closed.
func ExtractBalanced(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1]), true
			}
		}
	}

	return "", false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t'
}
