package agent

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of the agent for status reporting.
type Snapshot struct {
	Running       bool              `json:"running"`
	Cycles        int64             `json:"cycles"`
	Errors        int64             `json:"errors"`
	Outcomes      map[Outcome]int64 `json:"outcomes"`
	LastCycleID   string            `json:"lastCycleId,omitempty"`
	LastOutcome   Outcome           `json:"lastOutcome,omitempty"`
	LastError     string            `json:"lastError,omitempty"`
	LastCycleAt   time.Time         `json:"lastCycleAt,omitempty"`
	CooldownUntil time.Time         `json:"cooldownUntil,omitempty"`
	StartedAt     time.Time         `json:"startedAt,omitempty"`
}

type stats struct {
	mu   sync.Mutex
	snap Snapshot
}

func newStats() *stats {
	return &stats{snap: Snapshot{Outcomes: map[Outcome]int64{}}}
}

func (s *stats) record(cycleID string, outcome Outcome, err error, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Cycles++
	s.snap.Outcomes[outcome]++
	s.snap.LastCycleID = cycleID
	s.snap.LastOutcome = outcome
	s.snap.LastCycleAt = at
	s.snap.LastError = ""
	if err != nil {
		s.snap.Errors++
		s.snap.LastError = err.Error()
	}
}

func (s *stats) cooldown(until time.Time) {
	s.mu.Lock()
	s.snap.CooldownUntil = until
	s.mu.Unlock()
}

func (s *stats) started(at time.Time) {
	s.mu.Lock()
	s.snap.StartedAt = at
	s.mu.Unlock()
}

func (s *stats) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.snap
	out.Outcomes = make(map[Outcome]int64, len(s.snap.Outcomes))
	for k, v := range s.snap.Outcomes {
		out.Outcomes[k] = v
	}
	return out
}
