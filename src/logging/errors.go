package logging

import (
	"errors"
	"net/http"
	"strings"

	"github.com/stake-plus/mission-agent/src/webclient"
)

// IsRateLimit reports whether err describes a rate-limited request.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *webclient.HTTPError
	if errors.As(err, &httpErr) {
		return IsRateLimitStatus(httpErr.StatusCode)
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range rateLimitHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

var rateLimitHints = []string{"rate_limit", "rate limit", "too many requests"}

// IsRateLimitStatus reports whether status is HTTP 429.
func IsRateLimitStatus(status int) bool {
	return status == http.StatusTooManyRequests
}
