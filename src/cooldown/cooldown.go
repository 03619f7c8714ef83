// Package cooldown remembers until when the mission API asked us to back off,
// so a restarted agent does not walk straight back into a 429.
package cooldown

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/OneOfOne/xxhash"
)

// Store keeps the end of the current rate-limit cooldown.
type Store interface {
	Until(ctx context.Context) (time.Time, error)
	Set(ctx context.Context, until time.Time) error
}

// Key derives a storage key from the bearer token without exposing it.
func Key(bearerToken string) string {
	return "mission-agent:cooldown:" + strconv.FormatUint(xxhash.ChecksumString64(bearerToken), 16)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.Mutex
	until time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Until(context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.until, nil
}

func (m *MemoryStore) Set(_ context.Context, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.until = until
	return nil
}
