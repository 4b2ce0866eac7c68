// Package match defines the discrete gameplay events emitted by the
// match orchestrator. Presentation collaborators subscribe to these;
// the simulation never depends on their delivery.
package match

import (
	"context"

	"pellet-run/server/logging"
)

const (
	// EventPelletCollected is emitted when a player picks up a pellet.
	EventPelletCollected logging.EventType = "match.pellet_collected"
	// EventPowerUpStarted is emitted when a power pellet activates
	// scared mode on all pursuers.
	EventPowerUpStarted logging.EventType = "match.powerup_started"
	// EventPowerUpEnded is emitted when the power-up timer expires.
	EventPowerUpEnded logging.EventType = "match.powerup_ended"
	// EventSwapWindowOpened is emitted when a player requests a swap.
	EventSwapWindowOpened logging.EventType = "match.swap_window_opened"
	// EventSwapWindowClosed is emitted when a window times out or is
	// consumed by execution.
	EventSwapWindowClosed logging.EventType = "match.swap_window_closed"
	// EventSwapExecuted is emitted when both players complete a swap.
	EventSwapExecuted logging.EventType = "match.swap_executed"
	// EventLevelComplete is emitted once when the last pellet is taken.
	EventLevelComplete logging.EventType = "match.level_complete"
	// EventLevelStarted is emitted after the transition delay when the
	// next level begins ticking.
	EventLevelStarted logging.EventType = "match.level_started"
	// EventGameOver is emitted once when both players are dead.
	EventGameOver logging.EventType = "match.game_over"
	// EventPursuerEaten is emitted when a scared pursuer is consumed.
	EventPursuerEaten logging.EventType = "match.pursuer_eaten"
	// EventPlayerHit is emitted when a lethal pursuer reaches a player.
	EventPlayerHit logging.EventType = "match.player_hit"
	// EventHighScore is emitted when the combined score sets a record.
	EventHighScore logging.EventType = "match.high_score"
	// EventConfigFault is emitted for mitigated configuration faults
	// such as a zero-pellet level.
	EventConfigFault logging.EventType = "match.config_fault"
)

// PelletCollectedPayload captures one pellet pickup.
type PelletCollectedPayload struct {
	CellX     int    `json:"cellX"`
	CellY     int    `json:"cellY"`
	Kind      string `json:"kind"`
	Points    int    `json:"points"`
	Collected int    `json:"collected"`
	Total     int    `json:"total"`
}

// PowerUpPayload captures the power-up duration in seconds.
type PowerUpPayload struct {
	Duration float64 `json:"duration"`
}

// SwapWindowPayload captures swap window metadata.
type SwapWindowPayload struct {
	Initiator string  `json:"initiator"`
	Window    float64 `json:"window,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

// SwapExecutedPayload distinguishes the two execution modes.
type SwapExecutedPayload struct {
	Mode string `json:"mode"`
}

// LevelPayload captures level accounting.
type LevelPayload struct {
	Level        int `json:"level"`
	TotalPellets int `json:"totalPellets"`
}

// GameOverPayload captures the terminal scores.
type GameOverPayload struct {
	Level  int   `json:"level"`
	Scores []int `json:"scores"`
}

// PursuerEatenPayload captures the bonus granted to the eating player.
type PursuerEatenPayload struct {
	Points int `json:"points"`
}

// PlayerHitPayload captures a life-loss collision.
type PlayerHitPayload struct {
	LivesRemaining int  `json:"livesRemaining"`
	Fatal          bool `json:"fatal"`
}

// HighScorePayload captures a new combined-score record.
type HighScorePayload struct {
	Score int `json:"score"`
}

// ConfigFaultPayload describes a mitigated configuration fault.
type ConfigFaultPayload struct {
	Detail string `json:"detail"`
}

// Emit publishes a gameplay event with the standard category and
// severity. Helpers below wrap it per event type.
func Emit(ctx context.Context, pub logging.Publisher, eventType logging.EventType, tick uint64, actor logging.EntityRef, severity logging.Severity, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

// PelletCollected publishes a pellet pickup event.
func PelletCollected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PelletCollectedPayload) {
	Emit(ctx, pub, EventPelletCollected, tick, actor, logging.SeverityDebug, payload)
}

// PowerUpStarted publishes power-up activation.
func PowerUpStarted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PowerUpPayload) {
	Emit(ctx, pub, EventPowerUpStarted, tick, actor, logging.SeverityInfo, payload)
}

// PowerUpEnded publishes power-up expiry.
func PowerUpEnded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	Emit(ctx, pub, EventPowerUpEnded, tick, actor, logging.SeverityInfo, nil)
}

// SwapWindowOpened publishes a newly opened swap window.
func SwapWindowOpened(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SwapWindowPayload) {
	Emit(ctx, pub, EventSwapWindowOpened, tick, actor, logging.SeverityInfo, payload)
}

// SwapWindowClosed publishes window closure, by timeout or execution.
func SwapWindowClosed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SwapWindowPayload) {
	Emit(ctx, pub, EventSwapWindowClosed, tick, actor, logging.SeverityInfo, payload)
}

// SwapExecuted publishes a completed swap.
func SwapExecuted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SwapExecutedPayload) {
	Emit(ctx, pub, EventSwapExecuted, tick, actor, logging.SeverityInfo, payload)
}

// LevelComplete publishes the level-complete transition.
func LevelComplete(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LevelPayload) {
	Emit(ctx, pub, EventLevelComplete, tick, actor, logging.SeverityInfo, payload)
}

// LevelStarted publishes the start of the next level.
func LevelStarted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LevelPayload) {
	Emit(ctx, pub, EventLevelStarted, tick, actor, logging.SeverityInfo, payload)
}

// GameOver publishes the terminal transition.
func GameOver(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload GameOverPayload) {
	Emit(ctx, pub, EventGameOver, tick, actor, logging.SeverityInfo, payload)
}

// PursuerEaten publishes a consumed pursuer.
func PursuerEaten(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload PursuerEatenPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPursuerEaten,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

// PlayerHit publishes a life-loss collision.
func PlayerHit(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PlayerHitPayload) {
	Emit(ctx, pub, EventPlayerHit, tick, actor, logging.SeverityInfo, payload)
}

// HighScore publishes a new record.
func HighScore(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload HighScorePayload) {
	Emit(ctx, pub, EventHighScore, tick, actor, logging.SeverityInfo, payload)
}

// ConfigFault publishes a mitigated configuration fault.
func ConfigFault(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ConfigFaultPayload) {
	Emit(ctx, pub, EventConfigFault, tick, actor, logging.SeverityWarn, payload)
}
