package dynfunc

import (
	"encoding/json"
	"strings"
)

// reply is the constrained shape the system instruction demands from the
// backend: a single top-level object with "response" and, only when response
// is null, an "error" string.
type reply struct {
	Response *json.RawMessage `json:"response"`
	Error    string           `json:"error"`
}

// parseReply extracts the first balanced JSON object from raw backend text
// and decodes it. Models routinely wrap the object in prose ("Sure! {...}
// Let me know...") or code fences, so extraction scans rather than trusting
// the whole payload.
func parseReply(raw string) (any, error) {
	candidate := extractJSONObject(raw)
	if candidate == "" {
		return nil, ErrResponseParse
	}

	var r reply
	if err := json.Unmarshal([]byte(candidate), &r); err != nil {
		if err = json.Unmarshal([]byte(sanitizeJSONEscapes(candidate)), &r); err != nil {
			return nil, ErrResponseParse
		}
	}
	if r.Response == nil {
		return nil, &SemanticError{Message: r.Error}
	}

	var value any
	if err := json.Unmarshal(*r.Response, &value); err != nil {
		return nil, ErrResponseParse
	}
	if value == nil {
		return nil, &SemanticError{Message: r.Error}
	}
	return value, nil
}

// extractJSONObject locates the first top-level JSON object in s and returns
// it, or "" if none is balanced. String literals are honored so braces inside
// quoted values do not affect depth tracking.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inStr := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inStr {
			if ch == '\\' {
				i++ // skip escaped character
				continue
			}
			if ch == '"' {
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// sanitizeJSONEscapes fixes invalid JSON escape sequences produced by some
// LLMs. Valid JSON escapes: \", \\, \/, \b, \f, \n, \r, \t, \uXXXX. Invalid
// ones (e.g. \% or \Y) are corrected by dropping the backslash.
func sanitizeJSONEscapes(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))
	inString := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '"' && (i == 0 || s[i-1] != '\\') {
			inString = !inString
			buf.WriteByte(ch)
			continue
		}
		if inString && ch == '\\' && i+1 < len(s) {
			next := s[i+1]
			switch next {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				buf.WriteByte(ch)
			default:
				continue
			}
			continue
		}
		buf.WriteByte(ch)
	}
	return buf.String()
}
