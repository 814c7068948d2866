package alignment

import (
	"encoding/json"
	"regexp"
	"strings"
)

var codeFencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)```")

// extractJSONObject returns the JSON payload of a model reply. A fenced
// code block wins; otherwise the first brace that starts a complete JSON
// value is used, so stray braces in surrounding prose are skipped.
func extractJSONObject(content string) string {
	if m := codeFencePattern.FindStringSubmatch(content); m != nil {
		if body := strings.TrimSpace(m[1]); body != "" {
			content = body
		}
	}

	for i := 0; i < len(content); i++ {
		next := strings.IndexByte(content[i:], '{')
		if next == -1 {
			break
		}
		i += next

		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(content[i:])).Decode(&raw); err == nil {
			return string(raw)
		}
	}

	return strings.TrimSpace(content)
}

func decodeReply(content string, v any) error {
	return json.Unmarshal([]byte(extractJSONObject(content)), v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
