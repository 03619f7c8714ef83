package webclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxMessageLen = 200

// HTTPError represents a non-2xx HTTP response.
type HTTPError struct {
	StatusCode int
	Body       []byte
	RetryAfter string
}

func (e *HTTPError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Message extracts a human readable explanation from the response body.
// JSON bodies are searched for "message" then "error"; anything else is
// returned trimmed and truncated.
func (e *HTTPError) Message() string {
	if len(e.Body) > 0 {
		var payload map[string]any
		if json.Unmarshal(e.Body, &payload) == nil {
			for _, key := range []string{"message", "error"} {
				if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
					return truncate(strings.TrimSpace(s))
				}
			}
			return ""
		}
		if text := strings.TrimSpace(string(e.Body)); text != "" {
			return truncate(text)
		}
	}
	return ""
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	return s[:maxMessageLen] + "..."
}
