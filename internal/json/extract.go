// Package json provides JSON extraction utilities for parsing model output.
//
// Models often return JSON embedded in prose or wrapped in markdown fences,
// and put JSON objects where plain action inputs were expected. This package
// finds such objects and decodes them.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// extractJSON finds and returns the first complete JSON object in a response.
// It handles:
// 1. Pure JSON response
// 2. JSON wrapped in markdown code blocks (```json ... ```)
// 3. JSON object embedded in text, found by brace matching that skips string literals
func extractJSON(response string) (string, error) {
	response = stripMarkdownCodeBlocks(response)

	if json.Valid([]byte(response)) && strings.HasPrefix(response, "{") {
		return response, nil
	}

	for start := strings.Index(response, "{"); start != -1; {
		end := matchingBrace(response, start)
		if end == -1 {
			break
		}
		candidate := response[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
		next := strings.Index(response[start+1:], "{")
		if next == -1 {
			break
		}
		start += next + 1
	}

	preview := response
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("failed to extract valid JSON from response: %q", preview)
}

// matchingBrace returns the index of the brace closing the one at open, or -1.
func matchingBrace(s string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripMarkdownCodeBlocks removes markdown code block markers from a response.
// Handles patterns like ```json\n...\n``` or ```\n...\n```
func stripMarkdownCodeBlocks(response string) string {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimSpace(trimmed)
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	return trimmed
}

// ExtractJSONFromResponse extracts and parses the first JSON object in a response.
func ExtractJSONFromResponse[T any](response string) (T, error) {
	var result T
	jsonStr, err := extractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

// IsObject reports whether s, after trimming fences and whitespace, is a JSON object.
func IsObject(s string) bool {
	s = stripMarkdownCodeBlocks(s)
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

// FlatObject decodes a single-level JSON object into string values.
// Numbers keep their literal text, booleans become "true"/"false", null becomes "".
// Nested objects and arrays are rejected.
func FlatObject(s string) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(stripMarkdownCodeBlocks(s))))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			return nil, fmt.Errorf("field %q must be a scalar", k)
		}
	}
	return out, nil
}
