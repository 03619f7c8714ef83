package agent

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/stake-plus/mission-agent/src/notify"
	"github.com/stake-plus/mission-agent/src/remote"
	"github.com/stake-plus/mission-agent/src/solver"
)

// cycle carries the state of one pass; nothing in it outlives RunCycle.
type cycle struct {
	*Agent
	id string
}

// RunCycle performs one pass: character, energy check, mission acquisition,
// solution, submission and level-up. Modeled failures end the cycle with an
// Outcome and a nil error; the error is reserved for unexpected conditions
// (store failures, cancellation, panics).
func (a *Agent) RunCycle(ctx context.Context) (outcome Outcome, err error) {
	c := &cycle{Agent: a, id: a.newID()}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
		if err != nil {
			outcome = OutcomeError
		}
		a.stats.record(c.id, outcome, err, a.now())
	}()
	return c.execute(ctx)
}

func (c *cycle) logf(format string, args ...any) {
	c.logger.Printf("cycle=%s "+format, append([]any{c.id}, args...)...)
}

func (c *cycle) execute(ctx context.Context) (Outcome, error) {
	if err := c.awaitCooldown(ctx); err != nil {
		return OutcomeError, err
	}

	c.logf("Getting character data...")
	charRes := c.remote.GetCharacter(ctx)
	if charRes.RateLimited() {
		return c.rateLimited(ctx, charRes.Endpoint, charRes.Err)
	}
	if !charRes.OK {
		c.logf("Failed to get character data: %s", charRes)
		return OutcomeCharacterFailed, nil
	}
	character := charRes.Data
	if err := c.pause(ctx); err != nil {
		return OutcomeError, err
	}

	if character.Energy <= c.cfg.EnergyThreshold {
		c.logf("Not enough energy to perform actions (energy=%d).", character.Energy)
		return OutcomeNoEnergy, nil
	}

	mission := character.ActiveMission
	if mission == nil {
		var (
			outcome Outcome
			err     error
		)
		mission, outcome, err = c.ensureMission(ctx)
		if mission == nil {
			return outcome, err
		}
	}

	return c.solve(ctx, mission)
}

// ensureMission lists missions, accepts one of the preferred difficulty and
// re-reads the character to pick up the assignment.
func (c *cycle) ensureMission(ctx context.Context) (*remote.Mission, Outcome, error) {
	c.logf("No active mission, trying to get mission list...")
	listRes := c.remote.GetMissionList(ctx)
	if listRes.RateLimited() {
		outcome, err := c.rateLimited(ctx, listRes.Endpoint, listRes.Err)
		return nil, outcome, err
	}
	if !listRes.OK {
		c.logf("Failed to get mission list: %s", listRes)
		return nil, OutcomeMissionListFailed, nil
	}
	if err := c.pause(ctx); err != nil {
		return nil, OutcomeError, err
	}

	acceptRes := c.remote.SelectMission(ctx, listRes.Data, c.cfg.PreferredDifficulty)
	if acceptRes.RateLimited() {
		outcome, err := c.rateLimited(ctx, acceptRes.Endpoint, acceptRes.Err)
		return nil, outcome, err
	}
	if !acceptRes.OK {
		if acceptRes.Conflict() {
			c.logf("Mission already accepted or unavailable, will retry next cycle: %s", acceptRes)
		} else {
			c.logf("Failed to accept mission: %s", acceptRes)
		}
		return nil, OutcomeSelectFailed, nil
	}
	c.logf("Accepted mission %s (%s).", acceptRes.Data.ID, acceptRes.Data.Difficulty)
	if err := c.pause(ctx); err != nil {
		return nil, OutcomeError, err
	}

	updated := c.remote.GetCharacter(ctx)
	if updated.RateLimited() {
		outcome, err := c.rateLimited(ctx, updated.Endpoint, updated.Err)
		return nil, outcome, err
	}
	if !updated.OK {
		c.logf("Failed to get updated character with active mission: %s", updated)
		return nil, OutcomeRefetchFailed, nil
	}
	if err := c.pause(ctx); err != nil {
		return nil, OutcomeError, err
	}
	if updated.Data.ActiveMission == nil {
		c.logf("No active mission available.")
		return nil, OutcomeNoActiveMission, nil
	}
	return updated.Data.ActiveMission, "", nil
}

func (c *cycle) solve(ctx context.Context, mission *remote.Mission) (Outcome, error) {
	c.logf("Solving mission %s (puzzle %s, type %s)...", mission.ID, mission.Puzzle.ID, mission.Puzzle.Type)

	var solution any
	if mission.HasSolution() {
		c.logf("Mission carries a solution, submitting it as is.")
		solution = mission.Solution
	} else {
		solved, err := c.solver.Solve(mission.Puzzle.Type, mission.Puzzle.Payload)
		if err != nil {
			if errors.Is(err, solver.ErrUnknownSolver) {
				c.logf("ERROR: no solver registered for puzzle type %q; add one to handle mission %s", mission.Puzzle.Type, mission.ID)
			} else {
				c.logf("ERROR: solving puzzle %s failed: %v", mission.Puzzle.ID, err)
			}
			return OutcomeSolveFailed, nil
		}
		if solved == nil {
			c.logf("WARNING: solver for %q produced no answer, submitting null.", mission.Puzzle.Type)
		}
		solution = solved
	}

	solveRes := c.remote.SolveMission(ctx, solution)
	if solveRes.RateLimited() {
		return c.rateLimited(ctx, solveRes.Endpoint, solveRes.Err)
	}
	if !solveRes.OK {
		c.logf("Failed to solve mission: %s", solveRes)
		return OutcomeSubmitFailed, nil
	}
	if err := c.pause(ctx); err != nil {
		return OutcomeError, err
	}

	token, ok := solveRes.Data.VictoryToken()
	if !ok {
		c.logf("Mission submitted but the reward carried no victory token.")
		return OutcomeNoReward, nil
	}
	c.logf("Mission solved successfully, leveling up character...")

	levelRes := c.remote.LevelUp(ctx, token)
	if levelRes.RateLimited() {
		return c.rateLimited(ctx, levelRes.Endpoint, levelRes.Err)
	}
	if !levelRes.OK {
		c.logf("Failed to level up character: %s", levelRes)
		return OutcomeLevelUpFailed, nil
	}
	c.logf("Character leveled up successfully (level=%d energy=%d).", levelRes.Data.Level, levelRes.Data.Energy)

	if err := c.notifier.LevelUp(ctx, notify.Event{
		CycleID:    c.id,
		MissionID:  mission.ID.String(),
		Difficulty: mission.Difficulty,
		PuzzleType: mission.Puzzle.Type,
		Level:      levelRes.Data.Level,
		Energy:     levelRes.Data.Energy,
	}); err != nil {
		c.logf("WARNING: level-up notification failed: %v", err)
	}

	if err := c.pause(ctx); err != nil {
		return OutcomeError, err
	}
	return OutcomeCompleted, nil
}

func (c *cycle) pause(ctx context.Context) error {
	return c.sleep(ctx, c.cfg.Delay)
}

// rateLimited records and waits out a 429 cooldown, then ends the cycle.
func (c *cycle) rateLimited(ctx context.Context, endpoint, msg string) (Outcome, error) {
	wait := CooldownFromMessage(msg, c.cfg.RateLimitCooldown)
	until := c.now().Add(wait)
	c.stats.cooldown(until)
	if err := c.cooldown.Set(ctx, until); err != nil {
		c.logf("WARNING: could not persist cooldown: %v", err)
	}
	c.logf("Rate limited on %s. Waiting %s before retrying...", endpoint, wait)
	if err := c.sleep(ctx, wait); err != nil {
		return OutcomeError, err
	}
	return OutcomeRateLimited, nil
}

// awaitCooldown honours a cooldown recorded earlier, possibly by a previous process.
func (c *cycle) awaitCooldown(ctx context.Context) error {
	until, err := c.cooldown.Until(ctx)
	if err != nil {
		return fmt.Errorf("read cooldown: %w", err)
	}
	remaining := until.Sub(c.now())
	if remaining <= 0 {
		return nil
	}
	c.stats.cooldown(until)
	c.logf("Cooldown active, waiting %s before contacting the API.", remaining)
	return c.sleep(ctx, remaining)
}
