package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength bounds URL paths in logs
	MaxPathLength = 500
	// MaxTitleLength bounds task and group titles in logs
	MaxTitleLength = 200
	// MaxErrorMessageLength bounds error messages in logs
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength is used when no limit is given
	MaxGeneralStringLength = 2000
	// MaxDebugContentLength bounds classifier prompts and responses
	MaxDebugContentLength = 10000
)

// SanitizeString makes s safe to log: invalid UTF-8 and control characters
// are dropped and the result is cut to maxLength bytes on a rune boundary.
func SanitizeString(s string, maxLength int) string {
	return sanitize(s, maxLength, true)
}

// SanitizeLine is SanitizeString for single-line fields: newlines, tabs and
// carriage returns are replaced by spaces so one entry cannot forge another.
func SanitizeLine(s string, maxLength int) string {
	return sanitize(s, maxLength, false)
}

// SanitizePath sanitizes a request path
func SanitizePath(path string) string {
	return SanitizeLine(path, MaxPathLength)
}

// SanitizeTitle sanitizes a user-entered task title
func SanitizeTitle(title string) string {
	return SanitizeLine(title, MaxTitleLength)
}

// SanitizeError sanitizes an error message
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeDebugContent sanitizes classifier prompts and responses
func SanitizeDebugContent(content string) string {
	return SanitizeString(content, MaxDebugContentLength)
}

func sanitize(s string, maxLength int, multiline bool) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var b strings.Builder
	b.Grow(min(len(s), maxLength+3))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			if multiline {
				b.WriteRune(r)
			} else {
				b.WriteByte(' ')
			}
		case unicode.IsPrint(r) || r == ' ':
			if b.Len()+utf8.RuneLen(r) > maxLength {
				b.WriteString("...")
				return b.String()
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
