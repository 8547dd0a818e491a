package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Split strips one leading prefix from raw and cuts the remainder at the first
// whitespace rune. The delimiter itself is dropped; nothing else is trimmed.
func Split(prefix, raw string) (action, argument string) {
	rest := strings.TrimPrefix(raw, prefix)

	i := strings.IndexFunc(rest, unicode.IsSpace)
	if i < 0 {
		return rest, ""
	}

	_, width := utf8.DecodeRuneInString(rest[i:])
	return rest[:i], rest[i+width:]
}

// HasPrefix reports whether content is addressed to the bot at all.
func HasPrefix(prefix, content string) bool {
	return prefix != "" && strings.HasPrefix(content, prefix)
}
