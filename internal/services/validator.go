package services

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidateAnswerText accepts any non-blank answer text and returns it trimmed.
func ValidateAnswerText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("%w: empty answer text", ErrInvalidResponse)
	}
	return text, nil
}

// ParseGuidanceList parses a JSON array of strings, optionally wrapped in a markdown
// code fence. Any non-string element rejects the whole list; blank entries are dropped.
func ParseGuidanceList(raw string) ([]string, error) {
	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty guidance response", ErrInvalidResponse)
	}

	var elements []interface{}
	if err := json.Unmarshal([]byte(cleaned), &elements); err != nil {
		return nil, fmt.Errorf("%w: guidance is not a JSON array: %v", ErrInvalidResponse, err)
	}

	items := make([]string, 0, len(elements))
	for i, element := range elements {
		s, ok := element.(string)
		if !ok {
			return nil, fmt.Errorf("%w: guidance element %d is %T, not a string", ErrInvalidResponse, i, element)
		}
		if s = strings.TrimSpace(s); s != "" {
			items = append(items, s)
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: guidance list is empty", ErrInvalidResponse)
	}
	return items, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		// language tag such as "json" on the fence line
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "[{\"") {
			s = s[nl+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
