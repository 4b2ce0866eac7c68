// Package motion implements the discrete grid-movement state machine
// shared by player-controlled and pursuer entities. A mover is either
// idle on a cell or interpolating into a cardinally adjacent one; game
// logic only ever reads the discrete cell, the continuous position
// exists for presentation.
package motion

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"pellet-run/server/internal/grid"
)

// Mover holds the movement state for one entity. It is mutated by
// exactly one owner per tick plus explicit Teleport calls from the
// orchestrator.
type Mover struct {
	grid *grid.Grid

	current grid.Cell
	target  grid.Cell
	pos     grid.Point
	from    grid.Point
	to      grid.Point

	tween  *gween.Tween
	moving bool

	speed    float64 // cells per second
	alive    bool
	spawn    grid.Cell
	heading  grid.Cell
	buffered grid.Cell

	onEnter func(grid.Cell)
}

// NewMover constructs an idle, living mover parked on its spawn cell.
func NewMover(g *grid.Grid, spawn grid.Cell, speed float64) *Mover {
	m := &Mover{
		grid:    g,
		current: spawn,
		target:  spawn,
		spawn:   spawn,
		speed:   speed,
		alive:   true,
	}
	m.pos = g.ToWorld(spawn)
	return m
}

// SetCellEntered registers the callback fired when a move completes and
// the mover settles on its target cell.
func (m *Mover) SetCellEntered(fn func(grid.Cell)) { m.onEnter = fn }

// Cell returns the authoritative discrete position.
func (m *Mover) Cell() grid.Cell { return m.current }

// TargetCell returns the cell currently being entered. Equal to Cell
// while idle.
func (m *Mover) TargetCell() grid.Cell { return m.target }

// Position returns the interpolated world-space position.
func (m *Mover) Position() grid.Point { return m.pos }

// Moving reports whether the mover is mid-move.
func (m *Mover) Moving() bool { return m.moving }

// Heading returns the direction of the last successful move, or zero
// when stopped.
func (m *Mover) Heading() grid.Cell { return m.heading }

// Spawn returns the fixed respawn origin.
func (m *Mover) Spawn() grid.Cell { return m.spawn }

// Speed returns the movement rate in cells per second.
func (m *Mover) Speed() float64 { return m.speed }

// SetSpeed adjusts the movement rate. A move already in progress keeps
// its original duration.
func (m *Mover) SetSpeed(speed float64) {
	if speed > 0 {
		m.speed = speed
	}
}

// Alive reports the life flag. Motion itself does not gate on it; a
// dead entity is hidden by its caller, not frozen here.
func (m *Mover) Alive() bool { return m.alive }

// Kill clears the life flag without touching position.
func (m *Mover) Kill() { m.alive = false }

// Revive sets the life flag without touching position.
func (m *Mover) Revive() { m.alive = true }

// BeginMove starts interpolating toward the neighbor in dir. It is a
// no-op returning false when already moving, when dir is not a unit
// cardinal delta, or when the destination is not walkable. On success
// the direction becomes the current heading.
func (m *Mover) BeginMove(dir grid.Cell) bool {
	if m.moving || m.speed <= 0 {
		return false
	}
	next := m.current.Add(dir)
	if !grid.Adjacent(m.current, next) {
		return false
	}
	if !m.grid.IsWalkable(next) {
		return false
	}
	m.target = next
	m.from = m.pos
	m.to = m.grid.ToWorld(next)
	m.tween = gween.New(0, 1, float32(1/m.speed), ease.Linear)
	m.moving = true
	m.heading = dir
	return true
}

// Advance progresses an in-flight move by dt seconds. On arrival the
// continuous position snaps exactly to the target cell's world center,
// the discrete cell commits, and the cell-entered callback fires.
func (m *Mover) Advance(dt float64) {
	if !m.moving || m.tween == nil {
		return
	}
	t, finished := m.tween.Update(float32(dt))
	if finished {
		m.pos = m.to
		m.current = m.target
		m.moving = false
		m.tween = nil
		if m.onEnter != nil {
			m.onEnter(m.current)
		}
		return
	}
	f := float64(t)
	m.pos = grid.Point{
		X: m.from.X + (m.to.X-m.from.X)*f,
		Y: m.from.Y + (m.to.Y-m.from.Y)*f,
	}
}

// Teleport relocates the mover instantly, cancelling any in-flight
// move. When keepHeading is false the heading and buffered direction
// are cleared as well; respawns want a clean stop while some callers
// prefer to preserve momentum intent.
func (m *Mover) Teleport(c grid.Cell, keepHeading bool) {
	m.current = c
	m.target = c
	m.pos = m.grid.ToWorld(c)
	m.moving = false
	m.tween = nil
	if !keepHeading {
		m.heading = grid.Cell{}
		m.buffered = grid.Cell{}
	}
}

// Buffer records the most recent desired direction. Held keys re-buffer
// every tick so the request stays pending across cell boundaries.
func (m *Mover) Buffer(dir grid.Cell) {
	if dir.X == 0 && dir.Y == 0 {
		return
	}
	m.buffered = dir
}

// Buffered returns the pending turn request, zero when none.
func (m *Mover) Buffered() grid.Cell { return m.buffered }

// StepBuffered applies the buffered-turn policy while idle: attempt the
// buffered turn first and clear it on success, otherwise continue on
// the current heading, otherwise stop with a zero heading. Turns only
// take effect at cell boundaries and a failed turn never interrupts
// forward motion unless forward is blocked too.
func (m *Mover) StepBuffered() {
	if m.moving {
		return
	}
	if m.buffered.X != 0 || m.buffered.Y != 0 {
		if m.BeginMove(m.buffered) {
			m.buffered = grid.Cell{}
			return
		}
	}
	if m.heading.X != 0 || m.heading.Y != 0 {
		if !m.BeginMove(m.heading) {
			m.heading = grid.Cell{}
		}
	}
}
