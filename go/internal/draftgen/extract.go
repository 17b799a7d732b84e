package draftgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errNoJSONSpan = errors.New("no JSON object span found")

// decodeDraftFields parses text as a JSON object, falling back to the span between
// the first '{' and the last '}' when the whole text is not valid JSON.
// usedFallback reports whether the span was needed.
func decodeDraftFields(text string) (fields map[string]json.RawMessage, usedFallback bool, err error) {
	if err := json.Unmarshal([]byte(text), &fields); err == nil && fields != nil {
		return fields, false, nil
	}

	span, ok := objectSpan(text)
	if !ok {
		return nil, true, errNoJSONSpan
	}

	fields = nil
	if err := json.Unmarshal([]byte(span), &fields); err != nil {
		return nil, true, fmt.Errorf("JSON parse error: %w", err)
	}
	if fields == nil {
		return nil, true, errors.New("JSON parse error: not an object")
	}
	return fields, true, nil
}

// objectSpan returns the greedy substring from the first '{' through the last '}'.
func objectSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// fieldText coerces a JSON value to text. Strings are unquoted, null or a missing key
// is empty, and any other value keeps its literal JSON form.
func fieldText(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case trimmed == "null":
		return ""
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return trimmed
		}
		return strings.TrimSpace(s)
	default:
		return trimmed
	}
}
