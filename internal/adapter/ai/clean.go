// Package ai provides response cleaning shared by the AI provider adapters.
// LLMs routinely wrap JSON in markdown fences or prepend prose; the helpers
// here recover the payload without hiding failures: callers get an explicit
// error and fall back to a typed empty default.
package ai

import (
	"encoding/json"
	"strings"
)

// CleanJSONResponse strips markdown code fences and extracts the first
// balanced JSON object from mixed content.
func CleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)
	return extractJSON(response)
}

// extractJSON returns the first balanced {...} object, or the input unchanged
// when no object is found.
func extractJSON(response string) string {
	start := strings.Index(response, "{")
	if start == -1 {
		return response
	}
	depth := 0
	for i := start; i < len(response); i++ {
		switch response[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return response
}

// DecodeLenient unmarshals raw into v: first a strict parse, then a retry on
// the fence-stripped extraction. The error from the final attempt is returned
// so failure stays observable; callers substitute their typed empty default.
func DecodeLenient(raw string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}
	return json.Unmarshal([]byte(CleanJSONResponse(raw)), v)
}
