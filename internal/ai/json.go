package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON strips markdown fences, repairs common model JSON mistakes, and
// unmarshals the completion into v.
func DecodeJSON(raw string, v interface{}) error {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	text = repairJSON(text)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("malformed model output: %w", err)
	}
	return nil
}

// repairJSON fixes the most common formatting slip in model JSON output:
// a missing opening quote before an object key (`, type":` -> `, "type":`).
func repairJSON(s string) string {
	result := []rune(s)
	fixed := make([]rune, 0, len(result)+16)

	i := 0
	for i < len(result) {
		ch := result[i]
		if ch != '{' && ch != ',' {
			fixed = append(fixed, ch)
			i++
			continue
		}
		fixed = append(fixed, ch)
		i++
		for i < len(result) && (result[i] == ' ' || result[i] == '\n' || result[i] == '\t') {
			fixed = append(fixed, result[i])
			i++
		}
		if i >= len(result) || result[i] == '"' || !isLetter(result[i]) {
			continue
		}
		keyStart := i
		for i < len(result) && (isLetter(result[i]) || result[i] == '_') {
			i++
		}
		if i+1 < len(result) && result[i] == '"' && result[i+1] == ':' {
			// Unquoted key with a trailing quote: add the missing opening quote.
			fixed = append(fixed, '"')
			fixed = append(fixed, result[keyStart:i]...)
		} else {
			fixed = append(fixed, result[keyStart:i]...)
		}
	}
	return string(fixed)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
