package match

// Phase is the orchestrator's top-level state. The power-up and swap
// window are orthogonal overlay flags on PhasePlaying, tracked in
// MatchState, not additional phases.
type Phase int

const (
	PhasePlaying Phase = iota
	PhaseLevelTransition
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseLevelTransition:
		return "level_transition"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// MatchState is the per-match aggregate mutated exclusively by the
// orchestrator. All timers are polled-decrement counters advanced once
// per tick.
type MatchState struct {
	Phase  Phase
	Lives  int
	Level  int
	Scores [2]int

	TotalPellets     int
	PelletsCollected int

	PowerUpActive    bool
	PowerUpRemaining float64

	SwapWindowActive    bool
	SwapInitiator       int
	SwapWindowRemaining float64

	SwapOnCooldown        bool
	SwapCooldownRemaining float64

	TransitionRemaining float64

	HighScore int
}
