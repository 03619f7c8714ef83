package agent

// Outcome names the exit a cycle took.
type Outcome string

const (
	OutcomeCompleted         Outcome = "completed"
	OutcomeCharacterFailed   Outcome = "character_failed"
	OutcomeNoEnergy          Outcome = "no_energy"
	OutcomeRateLimited       Outcome = "rate_limited"
	OutcomeMissionListFailed Outcome = "mission_list_failed"
	OutcomeSelectFailed      Outcome = "select_failed"
	OutcomeRefetchFailed     Outcome = "refetch_failed"
	OutcomeNoActiveMission   Outcome = "no_active_mission"
	OutcomeSolveFailed       Outcome = "solve_failed"
	OutcomeSubmitFailed      Outcome = "submit_failed"
	OutcomeNoReward          Outcome = "no_reward"
	OutcomeLevelUpFailed     Outcome = "level_up_failed"
	// OutcomeError marks a cycle that ended with an unexpected error.
	OutcomeError Outcome = "error"
)
