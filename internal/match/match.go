// Package match implements the authoritative game-state machine:
// pellet accounting, scoring, power-up and swap timers, lives, level
// progression, and the collision-triggered transitions between them.
// Everything here runs single-threaded inside the simulation tick.
package match

import (
	"context"
	"fmt"
	"math/rand"

	"pellet-run/server/internal/grid"
	"pellet-run/server/internal/maze"
	"pellet-run/server/internal/motion"
	"pellet-run/server/internal/pursuit"
	"pellet-run/server/logging"
	matchlog "pellet-run/server/logging/match"
)

// Config tunes a match. Zero values fall back to defaults.
type Config struct {
	StartLives int
	MaxLives   int

	DotPoints          int
	PowerPoints        int
	PursuerEatenPoints int

	PowerUpDuration float64
	SwapWindow      float64
	SwapCooldown    float64
	TransitionDelay float64

	PlayerSpeed           float64 // cells per second
	PursuerSpeed          float64
	PursuerSpeedIncrement float64 // added per completed level

	Pursuit pursuit.Config
}

func (c Config) normalized() Config {
	if c.StartLives <= 0 {
		c.StartLives = 3
	}
	if c.MaxLives <= 0 {
		c.MaxLives = 5
	}
	if c.DotPoints <= 0 {
		c.DotPoints = 10
	}
	if c.PowerPoints <= 0 {
		c.PowerPoints = 50
	}
	if c.PursuerEatenPoints <= 0 {
		c.PursuerEatenPoints = 200
	}
	if c.PowerUpDuration <= 0 {
		c.PowerUpDuration = 8
	}
	if c.SwapWindow <= 0 {
		c.SwapWindow = 2
	}
	if c.SwapCooldown <= 0 {
		c.SwapCooldown = 10
	}
	if c.TransitionDelay <= 0 {
		c.TransitionDelay = 3
	}
	if c.PlayerSpeed <= 0 {
		c.PlayerSpeed = 5
	}
	if c.PursuerSpeed <= 0 {
		c.PursuerSpeed = 4
	}
	if c.PursuerSpeedIncrement < 0 {
		c.PursuerSpeedIncrement = 0
	}
	return c
}

// HighScores is the persistence collaborator: a plain get/set contract.
type HighScores interface {
	Load() (int, error)
	Save(score int) error
}

// Input is the per-player, per-tick intent supplied by the input
// collaborator. Direction zero means no key held.
type Input struct {
	Direction     grid.Cell
	SwapRequested bool
}

// Swap execution modes reported in the swap_executed event.
const (
	SwapModeNormal          = "normal"
	SwapModeLastOneStanding = "last_one_standing"
)

// Orchestrator owns the MatchState and holds non-owning references to
// both player movers and every pursuer.
type Orchestrator struct {
	grid      *grid.Grid
	layout    *maze.Layout
	cfg       Config
	publisher logging.Publisher
	store     HighScores
	pellets   Spawner

	players  [2]*motion.Mover
	pursuers []*pursuit.Pursuer

	state MatchState
	tick  uint64
}

// New wires a match over a parsed layout. The spawner, store, and
// publisher may not be nil; pass NewField, a storage implementation or
// stub, and logging.NopPublisher() respectively when unused.
func New(layout *maze.Layout, cfg Config, pellets Spawner, store HighScores, publisher logging.Publisher, rng *rand.Rand) *Orchestrator {
	cfg = cfg.normalized()
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	o := &Orchestrator{
		grid:      layout.Grid,
		layout:    layout,
		cfg:       cfg,
		publisher: publisher,
		store:     store,
		pellets:   pellets,
	}

	for slot := range o.players {
		slot := slot
		m := motion.NewMover(layout.Grid, layout.PlayerSpawns[slot], cfg.PlayerSpeed)
		m.SetCellEntered(func(c grid.Cell) { o.collectPellet(slot, c) })
		o.players[slot] = m
	}

	pursuitCfg := cfg.Pursuit
	pursuitCfg.Home = layout.Home
	pursuitCfg.Exit = layout.Exit
	for _, spawn := range layout.PursuerSpawns {
		m := motion.NewMover(layout.Grid, spawn, cfg.PursuerSpeed)
		o.pursuers = append(o.pursuers, pursuit.New(layout.Grid, m, pursuitCfg, rng))
	}

	o.state.Lives = cfg.StartLives
	o.state.Level = 1
	o.loadHighScore()
	o.startLevel()
	return o
}

// State returns a copy of the match aggregate.
func (o *Orchestrator) State() MatchState { return o.state }

// Tick returns the current simulation tick counter.
func (o *Orchestrator) Tick() uint64 { return o.tick }

// Player returns the mover for a slot, nil for an invalid slot.
func (o *Orchestrator) Player(slot int) *motion.Mover {
	if slot < 0 || slot >= len(o.players) {
		return nil
	}
	return o.players[slot]
}

// Pursuers returns the live pursuer list. Callers must not mutate it.
func (o *Orchestrator) Pursuers() []*pursuit.Pursuer { return o.pursuers }

// Pellets exposes the spawner for snapshotting.
func (o *Orchestrator) Pellets() Spawner { return o.pellets }

// Advance runs one simulation tick: timers first, then input and
// motion, then pursuer behavior, then collision-triggered state
// transitions. Nothing here blocks; the delays are modeled as counters
// so state stays observable mid-hold.
func (o *Orchestrator) Advance(dt float64, inputs [2]Input) {
	if dt <= 0 {
		return
	}
	o.tick++

	switch o.state.Phase {
	case PhaseGameOver:
		return
	case PhaseLevelTransition:
		o.state.TransitionRemaining -= dt
		if o.state.TransitionRemaining <= 0 {
			o.finishLevelTransition()
		}
		return
	}

	o.advanceTimers(dt)

	for slot, in := range inputs {
		player := o.players[slot]
		if player.Alive() {
			player.Buffer(in.Direction)
		}
		if in.SwapRequested {
			o.InitiateSwap(slot)
		}
	}

	for _, player := range o.players {
		if !player.Alive() {
			continue
		}
		player.StepBuffered()
		player.Advance(dt)
	}
	if o.state.Phase != PhasePlaying {
		// The final pellet completed the level mid-motion; pursuers and
		// collisions are disabled for the rest of this tick.
		return
	}

	targets := o.targetViews()
	for _, p := range o.pursuers {
		p.Tick(dt, targets)
	}

	o.resolveCollisions()
}

func (o *Orchestrator) advanceTimers(dt float64) {
	if o.state.PowerUpActive {
		o.state.PowerUpRemaining -= dt
		if o.state.PowerUpRemaining <= 0 {
			o.endPowerUp()
		}
	}
	if o.state.SwapWindowActive {
		o.state.SwapWindowRemaining -= dt
		if o.state.SwapWindowRemaining <= 0 {
			o.closeSwapWindow("timeout")
		}
	}
	if o.state.SwapOnCooldown {
		o.state.SwapCooldownRemaining -= dt
		if o.state.SwapCooldownRemaining <= 0 {
			o.state.SwapOnCooldown = false
			o.state.SwapCooldownRemaining = 0
		}
	}
}

func (o *Orchestrator) targetViews() []pursuit.Target {
	targets := make([]pursuit.Target, len(o.players))
	for i, player := range o.players {
		targets[i] = pursuit.Target{Cell: player.Cell(), Alive: player.Alive()}
	}
	return targets
}

// collectPellet runs from the cell-entered callback of a player mover.
func (o *Orchestrator) collectPellet(slot int, c grid.Cell) {
	if o.state.Phase != PhasePlaying {
		return
	}
	kind := o.pellets.Take(c)
	if kind == PelletNone {
		return
	}

	points := o.cfg.DotPoints
	if kind == PelletPower {
		points = o.cfg.PowerPoints
	}
	o.state.Scores[slot] += points
	if o.state.PelletsCollected < o.state.TotalPellets {
		o.state.PelletsCollected++
	}

	matchlog.PelletCollected(context.Background(), o.publisher, o.tick, o.playerRef(slot), matchlog.PelletCollectedPayload{
		CellX:     c.X,
		CellY:     c.Y,
		Kind:      kind.String(),
		Points:    points,
		Collected: o.state.PelletsCollected,
		Total:     o.state.TotalPellets,
	})

	if kind == PelletPower {
		o.activatePowerUp()
	}
	o.updateHighScore()

	if o.state.TotalPellets > 0 && o.state.PelletsCollected >= o.state.TotalPellets {
		o.beginLevelTransition()
	}
}

// activatePowerUp arms the scared timer on every pursuer and clears the
// swap cooldown: eating a power pellet both empowers offense and
// forgives the swap penalty.
func (o *Orchestrator) activatePowerUp() {
	o.state.PowerUpActive = true
	o.state.PowerUpRemaining = o.cfg.PowerUpDuration
	o.state.SwapOnCooldown = false
	o.state.SwapCooldownRemaining = 0
	for _, p := range o.pursuers {
		p.SetScared(true)
	}
	matchlog.PowerUpStarted(context.Background(), o.publisher, o.tick, o.matchRef(), matchlog.PowerUpPayload{
		Duration: o.cfg.PowerUpDuration,
	})
}

func (o *Orchestrator) endPowerUp() {
	o.state.PowerUpActive = false
	o.state.PowerUpRemaining = 0
	for _, p := range o.pursuers {
		p.SetScared(false)
	}
	matchlog.PowerUpEnded(context.Background(), o.publisher, o.tick, o.matchRef())
}

// InitiateSwap processes one player's swap request. The first request
// opens a window; a second request from the other player inside the
// window executes the swap; repeat requests from the initiator and any
// request during cooldown are no-ops.
func (o *Orchestrator) InitiateSwap(slot int) {
	if o.state.Phase != PhasePlaying || o.state.SwapOnCooldown {
		return
	}
	if !o.state.SwapWindowActive {
		o.state.SwapWindowActive = true
		o.state.SwapInitiator = slot
		o.state.SwapWindowRemaining = o.cfg.SwapWindow
		matchlog.SwapWindowOpened(context.Background(), o.publisher, o.tick, o.playerRef(slot), matchlog.SwapWindowPayload{
			Initiator: o.playerRef(slot).ID,
			Window:    o.cfg.SwapWindow,
		})
		return
	}
	if slot == o.state.SwapInitiator {
		return
	}
	o.executeSwap()
}

func (o *Orchestrator) closeSwapWindow(reason string) {
	initiator := o.state.SwapInitiator
	o.state.SwapWindowActive = false
	o.state.SwapWindowRemaining = 0
	matchlog.SwapWindowClosed(context.Background(), o.publisher, o.tick, o.playerRef(initiator), matchlog.SwapWindowPayload{
		Initiator: o.playerRef(initiator).ID,
		Reason:    reason,
	})
}

// executeSwap runs one of the two mutually exclusive modes. Normal
// exchanges positions only; last-one-standing additionally exchanges
// life state so a team can tag in its eliminated member. Both-dead is
// unreachable here because game over precedes it.
func (o *Orchestrator) executeSwap() {
	first, second := o.players[0], o.players[1]
	mode := SwapModeNormal

	switch {
	case first.Alive() != second.Alive():
		mode = SwapModeLastOneStanding
		living, dead := first, second
		if second.Alive() {
			living, dead = second, first
		}
		pos := living.Cell()
		dead.Teleport(pos, false)
		dead.Revive()
		living.Teleport(pos, false)
		living.Kill()
	default:
		a, b := first.Cell(), second.Cell()
		first.Teleport(b, false)
		second.Teleport(a, false)
	}

	o.closeSwapWindow("executed")
	o.state.SwapOnCooldown = true
	o.state.SwapCooldownRemaining = o.cfg.SwapCooldown
	matchlog.SwapExecuted(context.Background(), o.publisher, o.tick, o.matchRef(), matchlog.SwapExecutedPayload{Mode: mode})
}

func (o *Orchestrator) resolveCollisions() {
	for i, p := range o.pursuers {
		if p.Respawning() {
			continue
		}
		for slot, player := range o.players {
			if !player.Alive() || p.Mover().Cell() != player.Cell() {
				continue
			}
			if p.Scared() {
				p.Eaten()
				o.state.Scores[slot] += o.cfg.PursuerEatenPoints
				matchlog.PursuerEaten(context.Background(), o.publisher, o.tick, o.playerRef(slot), o.pursuerRef(i), matchlog.PursuerEatenPayload{
					Points: o.cfg.PursuerEatenPoints,
				})
				o.updateHighScore()
				break
			}
			o.handlePlayerHit(slot)
			if o.state.Phase == PhaseGameOver {
				return
			}
			break
		}
	}
}

// handlePlayerHit spends a shared life on the hit player, or kills that
// player permanently once the pool is empty. Only the hit player is
// affected; the partner plays on.
func (o *Orchestrator) handlePlayerHit(slot int) {
	player := o.players[slot]
	if o.state.Lives > 0 {
		o.state.Lives--
		player.Teleport(player.Spawn(), false)
		matchlog.PlayerHit(context.Background(), o.publisher, o.tick, o.playerRef(slot), matchlog.PlayerHitPayload{
			LivesRemaining: o.state.Lives,
		})
		return
	}
	player.Kill()
	matchlog.PlayerHit(context.Background(), o.publisher, o.tick, o.playerRef(slot), matchlog.PlayerHitPayload{
		Fatal: true,
	})
	if !o.players[0].Alive() && !o.players[1].Alive() {
		o.gameOver()
	}
}

func (o *Orchestrator) gameOver() {
	o.state.Phase = PhaseGameOver
	matchlog.GameOver(context.Background(), o.publisher, o.tick, o.matchRef(), matchlog.GameOverPayload{
		Level:  o.state.Level,
		Scores: []int{o.state.Scores[0], o.state.Scores[1]},
	})
}

func (o *Orchestrator) beginLevelTransition() {
	o.state.Phase = PhaseLevelTransition
	o.state.TransitionRemaining = o.cfg.TransitionDelay
	if o.state.SwapWindowActive {
		o.closeSwapWindow("level_transition")
	}
	matchlog.LevelComplete(context.Background(), o.publisher, o.tick, o.matchRef(), matchlog.LevelPayload{
		Level:        o.state.Level,
		TotalPellets: o.state.TotalPellets,
	})
}

// finishLevelTransition advances to the next level: speed scaling,
// bonus life up to the cap, everything back on its spawn, and a fresh
// pellet field.
func (o *Orchestrator) finishLevelTransition() {
	if o.state.PowerUpActive {
		o.endPowerUp()
	}
	o.state.SwapOnCooldown = false
	o.state.SwapCooldownRemaining = 0
	o.state.TransitionRemaining = 0

	o.pellets.Clear()
	o.state.Level++
	if o.state.Lives < o.cfg.MaxLives {
		o.state.Lives++
	}

	speed := o.cfg.PursuerSpeed + float64(o.state.Level-1)*o.cfg.PursuerSpeedIncrement
	for _, p := range o.pursuers {
		p.Mover().SetSpeed(speed)
		p.Reset()
	}
	for slot, player := range o.players {
		player.Teleport(o.layout.PlayerSpawns[slot], false)
	}

	o.state.Phase = PhasePlaying
	o.startLevel()
}

// startLevel delegates pellet placement to the spawner and then
// recounts live pellets by category; the recount is authoritative.
func (o *Orchestrator) startLevel() {
	for _, fault := range o.pellets.SpawnPellets(o.state.Level) {
		matchlog.ConfigFault(context.Background(), o.publisher, o.tick, o.matchRef(), matchlog.ConfigFaultPayload{Detail: fault})
	}
	dots, power := o.pellets.Count()
	o.state.TotalPellets = dots + power
	o.state.PelletsCollected = 0
	if o.state.TotalPellets == 0 {
		// A zero-pellet level is a configuration fault, not a crash: no
		// collection can happen, the match keeps ticking.
		matchlog.ConfigFault(context.Background(), o.publisher, o.tick, o.matchRef(), matchlog.ConfigFaultPayload{
			Detail: fmt.Sprintf("level %d spawned zero pellets", o.state.Level),
		})
	}
	matchlog.LevelStarted(context.Background(), o.publisher, o.tick, o.matchRef(), matchlog.LevelPayload{
		Level:        o.state.Level,
		TotalPellets: o.state.TotalPellets,
	})
}

// Restart fully resets the match out of game over: scores, lives,
// level, overlays, and every entity back to its spawn.
func (o *Orchestrator) Restart() {
	o.state = MatchState{
		Lives:     o.cfg.StartLives,
		Level:     1,
		HighScore: o.state.HighScore,
	}
	for slot, player := range o.players {
		player.Teleport(o.layout.PlayerSpawns[slot], false)
		player.Revive()
		player.SetSpeed(o.cfg.PlayerSpeed)
	}
	for _, p := range o.pursuers {
		p.Mover().SetSpeed(o.cfg.PursuerSpeed)
		p.Reset()
	}
	o.startLevel()
}

func (o *Orchestrator) loadHighScore() {
	if o.store == nil {
		return
	}
	score, err := o.store.Load()
	if err != nil {
		matchlog.ConfigFault(context.Background(), o.publisher, o.tick, o.matchRef(), matchlog.ConfigFaultPayload{
			Detail: fmt.Sprintf("load high score: %v", err),
		})
		return
	}
	o.state.HighScore = score
}

// updateHighScore persists whenever the combined score sets a record.
// Persistence failure degrades to an event; the match plays on.
func (o *Orchestrator) updateHighScore() {
	combined := o.state.Scores[0] + o.state.Scores[1]
	if combined <= o.state.HighScore {
		return
	}
	o.state.HighScore = combined
	matchlog.HighScore(context.Background(), o.publisher, o.tick, o.matchRef(), matchlog.HighScorePayload{Score: combined})
	if o.store == nil {
		return
	}
	if err := o.store.Save(combined); err != nil {
		matchlog.ConfigFault(context.Background(), o.publisher, o.tick, o.matchRef(), matchlog.ConfigFaultPayload{
			Detail: fmt.Sprintf("save high score: %v", err),
		})
	}
}

func (o *Orchestrator) playerRef(slot int) logging.EntityRef {
	return logging.EntityRef{ID: fmt.Sprintf("player-%d", slot+1), Kind: logging.EntityKindPlayer}
}

func (o *Orchestrator) pursuerRef(index int) logging.EntityRef {
	return logging.EntityRef{ID: fmt.Sprintf("pursuer-%d", index+1), Kind: logging.EntityKindPursuer}
}

func (o *Orchestrator) matchRef() logging.EntityRef {
	return logging.EntityRef{ID: "match", Kind: logging.EntityKindMatch}
}
