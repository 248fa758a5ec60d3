// Package ai holds the reasoning oracle contract shared by the gemini and openai backends.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Oracle is a stateless text-in/text-out reasoning service.
type Oracle interface {
	Chat(ctx context.Context, prompt string) (string, error)
	Model() string
}

// ExtractJSON strips markdown code fences around a JSON payload.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// FindJSON returns the first balanced JSON array or object embedded in free text.
// Models often wrap a structured answer in a sentence of prose.
func FindJSON(raw string) (string, bool) {
	raw = ExtractJSON(raw)
	start := strings.IndexAny(raw, "[{")
	if start == -1 {
		return "", false
	}

	open := raw[start]
	closing := byte(']')
	if open == '{' {
		closing = '}'
	}

	end := strings.LastIndexByte(raw, closing)
	if end <= start {
		return "", false
	}

	candidate := raw[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}

// CoerceString renders loosely typed JSON values as trimmed text.
func CoerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
