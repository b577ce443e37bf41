package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedJSON     = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKey    = regexp.MustCompile(`([{,]\s*)([A-Za-z_]\w*)(\s*:)`)
	controlChars   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
	errEmptyOutput = fmt.Errorf("empty input")
)

// ParseAIJSON decodes a JSON object from language model output. The object
// may sit inside a markdown fence or among prose; trailing commas and
// unquoted keys are repaired before giving up.
func ParseAIJSON(input string, target interface{}) error {
	input = strings.TrimPrefix(strings.TrimSpace(input), "\ufeff")
	if input == "" {
		return errEmptyOutput
	}

	candidates := []string{input}
	if m := fencedJSON.FindStringSubmatch(input); len(m) > 1 {
		candidates = append(candidates, m[1])
	}
	if obj := firstObject(input); obj != "" {
		candidates = append(candidates, obj)
	}

	for _, c := range candidates {
		if err := json.Unmarshal([]byte(c), target); err == nil {
			return nil
		}
	}
	for _, c := range candidates {
		if err := json.Unmarshal([]byte(repair(c)), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to parse JSON from input: %s", truncateString(input, 100))
}

// firstObject returns the first balanced {...} block of s, honouring
// string literals
func firstObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escape := false
	for i, ch := range s[start:] {
		switch {
		case escape:
			escape = false
		case ch == '\\' && inString:
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : start+i+1]
			}
		}
	}
	return ""
}

// repair fixes the syntax slips models commonly make
func repair(s string) string {
	s = trailingComma.ReplaceAllString(s, "$1")
	s = unquotedKey.ReplaceAllString(s, `$1"$2"$3`)
	s = controlChars.ReplaceAllString(s, "")
	return s
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
