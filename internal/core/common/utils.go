package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON unmarshals a structured oracle response into T. Model output is
// frequently wrapped in markdown fences or prose, so the first balanced-ish
// object between the outermost braces is what gets decoded. Anything that
// still fails to decode is a malformed response and must be retried by the
// caller, never dropped.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	jsonStr := strings.TrimSpace(response)
	jsonStr = strings.TrimPrefix(jsonStr, "```json")
	jsonStr = strings.TrimPrefix(jsonStr, "```")
	jsonStr = strings.TrimSuffix(jsonStr, "```")

	start := strings.IndexByte(jsonStr, '{')
	end := strings.LastIndexByte(jsonStr, '}')

	if start == -1 || end == -1 || start >= end {
		return zero, fmt.Errorf("no JSON object found in response")
	}
	jsonStr = jsonStr[start : end+1]

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
	}

	return result, nil
}
