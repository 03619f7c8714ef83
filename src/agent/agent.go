package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stake-plus/mission-agent/src/cooldown"
	"github.com/stake-plus/mission-agent/src/logging"
	"github.com/stake-plus/mission-agent/src/notify"
	"github.com/stake-plus/mission-agent/src/remote"
)

// MinErrorBackoff is the floor used when no error backoff is configured.
const MinErrorBackoff = 5 * time.Second

// Remote is the mission API as seen by the agent. *remote.Client satisfies it.
type Remote interface {
	GetCharacter(ctx context.Context) remote.Result[remote.Character]
	GetMissionList(ctx context.Context) remote.Result[[]remote.Mission]
	AcceptMission(ctx context.Context, id remote.ID) remote.Result[remote.Mission]
	SolveMission(ctx context.Context, solution any) remote.Result[remote.SolveResponse]
	LevelUp(ctx context.Context, victoryToken string) remote.Result[remote.Character]
	SelectMission(ctx context.Context, missions []remote.Mission, preferred string) remote.Result[remote.Mission]
}

// Solver turns a puzzle into a solution. *solver.Registry satisfies it.
type Solver interface {
	Solve(puzzleType string, payload json.RawMessage) (any, error)
}

// Config is fixed for the lifetime of an Agent.
type Config struct {
	// Delay separates successive remote calls and successive cycles.
	Delay               time.Duration
	PreferredDifficulty string
	// EnergyThreshold skips the cycle while energy <= threshold.
	EnergyThreshold int
	// ErrorBackoff follows an unexpected cycle error; zero means max(Delay, 5s).
	ErrorBackoff time.Duration
	// RateLimitCooldown applies when a 429 message has no wait time; zero means 60s.
	RateLimitCooldown time.Duration
}

// Deps bundles collaborators. Remote and Solver are required.
type Deps struct {
	Remote   Remote
	Solver   Solver
	Cooldown cooldown.Store
	Notifier notify.Notifier
	Logger   *log.Logger
	// Sleep and Now exist for tests; they default to Sleep and time.Now.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
	NewID func() string
}

// Agent runs mission cycles one after another until stopped.
type Agent struct {
	cfg      Config
	remote   Remote
	solver   Solver
	cooldown cooldown.Store
	notifier notify.Notifier
	logger   *log.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	newID    func() string
	stats    *stats

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New validates deps and returns an idle agent.
func New(cfg Config, deps Deps) (*Agent, error) {
	if deps.Remote == nil {
		return nil, errors.New("agent: remote client is required")
	}
	if deps.Solver == nil {
		return nil, errors.New("agent: solver is required")
	}
	if cfg.Delay < 0 {
		return nil, fmt.Errorf("agent: negative delay %s", cfg.Delay)
	}
	if cfg.RateLimitCooldown <= 0 {
		cfg.RateLimitCooldown = DefaultCooldown
	}

	a := &Agent{
		cfg:      cfg,
		remote:   deps.Remote,
		solver:   deps.Solver,
		cooldown: deps.Cooldown,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		sleep:    deps.Sleep,
		now:      deps.Now,
		newID:    deps.NewID,
		stats:    newStats(),
	}
	if a.cooldown == nil {
		a.cooldown = cooldown.NewMemoryStore()
	}
	if a.notifier == nil {
		a.notifier = notify.Nop{}
	}
	if a.logger == nil {
		a.logger = logging.Discard()
	}
	if a.sleep == nil {
		a.sleep = Sleep
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.newID == nil {
		a.newID = uuid.NewString
	}
	return a, nil
}

// Start launches the run loop. It returns false when the agent is already running.
func (a *Agent) Start(ctx context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		a.logger.Printf("Agent is already running.")
		return false
	}
	// a loop stopped earlier may still be finishing its cycle
	prev := a.done
	a.running = true
	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	a.stats.started(a.now())
	a.logger.Printf("Agent started.")

	stop, done := a.stop, a.done
	go func() {
		if prev != nil {
			<-prev
		}
		a.run(ctx, stop, done)
	}()
	return true
}

// Stop prevents further cycles. A cycle already in flight runs to completion;
// use Wait to block until it has.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		a.logger.Printf("Agent is not running.")
		return
	}
	a.running = false
	close(a.stop)
	a.logger.Printf("Agent stopping.")
}

// Wait blocks until the run loop started by the last Start has exited.
func (a *Agent) Wait() {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Running reports whether Start has been called without a matching Stop.
func (a *Agent) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Snapshot returns counters for the status endpoint.
func (a *Agent) Snapshot() Snapshot {
	snap := a.stats.snapshot()
	snap.Running = a.Running()
	return snap
}

func (a *Agent) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer func() {
		// a cancelled ctx ends the loop without Stop; a later Start must not be refused
		a.mu.Lock()
		if a.running && a.stop == stop {
			a.running = false
		}
		a.mu.Unlock()
	}()

	// idle waits between cycles end early on Stop; cycles themselves only see ctx.
	idle, cancelIdle := context.WithCancel(ctx)
	defer cancelIdle()
	go func() {
		select {
		case <-stop:
			cancelIdle()
		case <-idle.Done():
		}
	}()

	for {
		select {
		case <-stop:
			a.logger.Printf("Agent stopped.")
			return
		case <-ctx.Done():
			a.logger.Printf("Agent stopped: %v", ctx.Err())
			return
		default:
		}

		wait := a.cfg.Delay
		if _, err := a.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			wait = a.errorBackoff()
			a.logger.Printf("ERROR: cycle failed: %v; backing off %s", err, wait)
		}
		_ = a.sleep(idle, wait)
	}
}

func (a *Agent) errorBackoff() time.Duration {
	if a.cfg.ErrorBackoff > 0 {
		return a.cfg.ErrorBackoff
	}
	if a.cfg.Delay > MinErrorBackoff {
		return a.cfg.Delay
	}
	return MinErrorBackoff
}
