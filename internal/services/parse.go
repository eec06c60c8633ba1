package services

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON pulls the first JSON object out of a model response. Models
// wrap JSON in code fences or prose often enough that a bare Unmarshal
// would reject otherwise usable output.
func extractJSON(content string) (string, error) {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return s[start : end+1], nil
}

// decodeResponse extracts and unmarshals the JSON object in a model
// response into out.
func decodeResponse(content string, out any) error {
	raw, err := extractJSON(content)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to parse oracle response: %w", err)
	}
	return nil
}
