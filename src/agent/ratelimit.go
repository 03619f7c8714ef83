package agent

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"time"
)

// DefaultCooldown applies when a 429 carries no readable wait time.
const DefaultCooldown = 60 * time.Second

var cooldownPattern = regexp.MustCompile(`(?i)(\d+)\s*seconds?`)

// CooldownFromMessage reads "<n> seconds" out of a rate-limit message and
// falls back to def.
func CooldownFromMessage(msg string, def time.Duration) time.Duration {
	m := cooldownPattern.FindStringSubmatch(msg)
	if m == nil {
		return def
	}
	secs, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || secs <= 0 || secs > int64(math.MaxInt64/time.Second) {
		return def
	}
	return time.Duration(secs) * time.Second
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
