package util

import (
	"regexp"
	"strings"
)

// An opening fence must sit on its own line. Fences inside properly escaped
// JSON strings follow a literal \n and never match.
var jsonFenceRegex = regexp.MustCompile("(?m)^[ \t]*```(?:json|JSON)?[ \t\r]*$")

// ExtractJSON pulls the JSON payload out of a free-text model response.
//
// An opening code fence marks where scanning starts, so brackets in any prose
// before it are ignored. The closing fence is never searched for: generated
// code inside string values often carries its own fences. The first JSON value
// wins, whichever of '[' or '{' appears first, so an object that merely
// contains an array is returned as the object. An array cut off by the token
// limit is closed after its last complete element.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	if loc := jsonFenceRegex.FindStringIndex(s); loc != nil {
		if rest := s[loc[1]:]; strings.ContainsAny(rest, "[{") {
			s = rest
		}
	}

	arrayStart := strings.IndexByte(s, '[')
	objectStart := strings.IndexByte(s, '{')

	switch {
	case arrayStart == -1 && objectStart == -1:
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	case objectStart != -1 && (arrayStart == -1 || objectStart < arrayStart):
		if end := findMatchingBracket(s, objectStart, '{', '}'); end != -1 {
			return s[objectStart : end+1]
		}
		return s[objectStart:]
	default:
		if end := findMatchingBracket(s, arrayStart, '[', ']'); end != -1 {
			return s[arrayStart : end+1]
		}
		return repairTruncatedArray(s[arrayStart:])
	}
}

// findMatchingBracket returns the index of the bracket closing the one at
// startPos, skipping brackets inside string literals, or -1.
func findMatchingBracket(s string, startPos int, openChar, closeChar byte) int {
	depth := 0
	inString := false
	escaped := false

	for i := startPos; i < len(s); i++ {
		ch := s[i]

		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// repairTruncatedArray keeps every element of s (which starts with '[') that
// was closed before the text ended, and closes the array.
func repairTruncatedArray(s string) string {
	depth := 0
	inString := false
	escaped := false
	lastComplete := -1

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			if !inString && depth == 1 {
				lastComplete = i
			}
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 1 {
				lastComplete = i
			}
		}
	}

	if lastComplete == -1 {
		return "[]"
	}
	return strings.TrimRight(s[:lastComplete+1], " \n\r\t,") + "]"
}

// SanitizeJSON escapes raw newlines that models leave inside string literals
func SanitizeJSON(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if escaped {
			result.WriteByte(ch)
			escaped = false
			continue
		}

		switch {
		case ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString && ch == '\t':
			result.WriteString("\\t")
			continue
		case inString && (ch == '\n' || ch == '\r'):
			result.WriteString("\\n")
			if ch == '\r' && i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			continue
		}

		result.WriteByte(ch)
	}

	return result.String()
}
