package textnorm

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxChars is the character budget for a single embedding input,
	// kept under the provider's 8192-token request limit.
	MaxChars = 8000

	truncationMarker = "... [truncated]"

	placeholderEmpty   = "Empty content"
	placeholderCleaned = "Empty content after cleaning"
)

// Clean converts arbitrary source text (PR bodies, issue descriptions) into
// an embedding-safe string: Unicode is NFKD-normalized, control and
// zero-width characters are stripped, whitespace runs collapse to single
// spaces, invalid UTF-8 is discarded, and the result is truncated to
// MaxChars. The result is always non-empty valid UTF-8.
func Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return placeholderEmpty
	}

	text = norm.NFKD.String(text)

	var b strings.Builder
	b.Grow(len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			// Ranging over a string yields RuneError with size 1 for
			// invalid bytes; drop them (lossy re-encode, not an error).
			if _, size := utf8.DecodeRuneInString(text[i:]); size == 1 {
				continue
			}
		}
		if r == '\n' || r == '\t' || r == '\r' {
			b.WriteRune(r)
			continue
		}
		if unicode.In(r, unicode.C) || isZeroWidth(r) {
			continue
		}
		b.WriteRune(r)
	}

	// Collapse all whitespace runs (including the newlines kept above)
	// to single spaces.
	text = strings.Join(strings.Fields(b.String()), " ")

	if runes := []rune(text); len(runes) > MaxChars {
		slog.Debug("truncating embedding input", "chars", len(runes))
		text = string(runes[:MaxChars]) + truncationMarker
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return placeholderCleaned
	}
	return text
}

// isZeroWidth reports whether r is in the invisible separator/formatting
// ranges that confuse embedding tokenizers.
func isZeroWidth(r rune) bool {
	switch {
	case r >= 0x200B && r <= 0x200F:
		return true
	case r >= 0x2028 && r <= 0x202F:
		return true
	case r == 0xFEFF:
		return true
	}
	return false
}
