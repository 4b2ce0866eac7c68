// Package pursuit implements the per-pursuer decision engine: priority
// ordered target selection, budgeted breadth-first path search,
// randomized behavior injection, and the timed respawn sequence.
package pursuit

import (
	"math"
	"math/rand"

	"pellet-run/server/internal/grid"
	"pellet-run/server/internal/motion"
)

// searchArrivedRadius treats "close enough" as success so a moving goal
// does not invalidate an otherwise good path. Anything under 1.5 cells
// is adjacency or closer.
const searchArrivedRadius = 1.5

// Config tunes one pursuer. Zero values are replaced by defaults via
// normalized.
type Config struct {
	// RecalcInterval bounds path-search cost: decisions are made on
	// this period, not every tick.
	RecalcInterval float64
	// RandomInterval and RandomJitter drive the independent override
	// timer; the jitter desynchronizes multiple pursuers.
	RandomInterval float64
	RandomJitter   float64
	// RandomChance is the probability that an override fires when the
	// timer elapses. Higher values make pursuers individually less
	// threatening; it is a difficulty knob, not a bug.
	RandomChance float64
	// SearchBudget caps BFS iterations before degrading to a greedy
	// step.
	SearchBudget int
	// RespawnDelay holds an eaten pursuer at its spawn before it
	// reactivates.
	RespawnDelay float64
	// Home is the rectangular region pursuers start inside; Exit is the
	// fixed cell they path toward until they leave it.
	Home grid.Rect
	Exit grid.Cell
}

func (c Config) normalized() Config {
	if c.RecalcInterval <= 0 {
		c.RecalcInterval = 0.25
	}
	if c.RandomInterval <= 0 {
		c.RandomInterval = 4
	}
	if c.RandomJitter < 0 {
		c.RandomJitter = 0
	}
	if c.RandomChance < 0 {
		c.RandomChance = 0
	}
	if c.SearchBudget <= 0 {
		c.SearchBudget = 512
	}
	if c.RespawnDelay <= 0 {
		c.RespawnDelay = 3
	}
	return c
}

// Target is the read-only view of one player the pursuer reacts to.
type Target struct {
	Cell  grid.Cell
	Alive bool
}

// Pursuer owns its path plan and drives one mover. It never mutates
// player state; collisions are reported upward by the orchestrator.
type Pursuer struct {
	grid  *grid.Grid
	mover *motion.Mover
	cfg   Config
	rng   *rand.Rand

	plan        []grid.Cell
	scared      bool
	respawning  bool
	respawnLeft float64
	leftHome    bool
	recalcLeft  float64
	randomLeft  float64
	randomFired bool
	lastTarget  grid.Cell
	hasTarget   bool
}

// New constructs a pursuer around an existing mover. The RNG must be
// non-nil; pass a seeded source for deterministic matches.
func New(g *grid.Grid, mover *motion.Mover, cfg Config, rng *rand.Rand) *Pursuer {
	cfg = cfg.normalized()
	p := &Pursuer{
		grid:  g,
		mover: mover,
		cfg:   cfg,
		rng:   rng,
	}
	p.leftHome = !cfg.Home.Contains(mover.Cell())
	p.randomLeft = cfg.RandomInterval + rng.Float64()*cfg.RandomJitter
	return p
}

// Mover exposes the underlying movement state machine.
func (p *Pursuer) Mover() *motion.Mover { return p.mover }

// Scared reports flight mode.
func (p *Pursuer) Scared() bool { return p.scared }

// Respawning reports whether the timed respawn hold is active.
// Collisions against a respawning pursuer are ignored by the
// orchestrator.
func (p *Pursuer) Respawning() bool { return p.respawning }

// SetScared toggles flight mode, discards any in-progress plan, and
// forces the next tick to recompute immediately.
func (p *Pursuer) SetScared(scared bool) {
	p.scared = scared
	p.plan = nil
	p.recalcLeft = 0
}

// Eaten starts the timed respawn sequence: the pursuer relocates to its
// spawn instantly and ordinary behavior stays suspended until the delay
// elapses. The scared flag is held; the orchestrator clears it when the
// power-up expires.
func (p *Pursuer) Eaten() {
	if p.respawning {
		return
	}
	p.mover.Teleport(p.mover.Spawn(), false)
	p.plan = nil
	p.respawning = true
	p.respawnLeft = p.cfg.RespawnDelay
}

// Reset returns the pursuer to its level-start state: parked on spawn,
// not scared, home egress re-armed. Used at level transitions and full
// restarts.
func (p *Pursuer) Reset() {
	p.mover.Teleport(p.mover.Spawn(), false)
	p.plan = nil
	p.scared = false
	p.respawning = false
	p.respawnLeft = 0
	p.leftHome = !p.cfg.Home.Contains(p.mover.Cell())
	p.recalcLeft = 0
	p.randomLeft = p.cfg.RandomInterval + p.rng.Float64()*p.cfg.RandomJitter
}

// Plan returns a copy of the remaining path for introspection. The live
// plan is a single-consumer queue; callers must never drain it.
func (p *Pursuer) Plan() []grid.Cell {
	if len(p.plan) == 0 {
		return nil
	}
	out := make([]grid.Cell, len(p.plan))
	copy(out, p.plan)
	return out
}

// Tick advances the pursuer by one simulation step. Timers first, then
// the interval decision, then plan consumption and motion.
func (p *Pursuer) Tick(dt float64, targets []Target) {
	if p.respawning {
		p.respawnLeft -= dt
		if p.respawnLeft <= 0 {
			p.respawning = false
			p.respawnLeft = 0
			p.leftHome = !p.cfg.Home.Contains(p.mover.Cell())
			p.recalcLeft = 0
		}
		return
	}

	if !p.leftHome && !p.cfg.Home.Contains(p.mover.Cell()) {
		// Egress is complete the moment any cell outside the rectangle
		// is occupied; only a respawn re-enters egress mode.
		p.leftHome = true
	}

	p.randomLeft -= dt
	if p.randomLeft <= 0 {
		p.randomLeft = p.cfg.RandomInterval + p.rng.Float64()*p.cfg.RandomJitter
		if p.rng.Float64() < p.cfg.RandomChance {
			p.randomFired = true
			p.plan = nil
			p.recalcLeft = 0
		}
	}

	p.recalcLeft -= dt
	if p.recalcLeft <= 0 {
		p.recalcLeft = p.cfg.RecalcInterval
		p.decide(targets)
	}

	if !p.mover.Moving() && len(p.plan) > 0 {
		cur := p.mover.Cell()
		next := p.plan[0]
		if !grid.Adjacent(cur, next) || !p.grid.IsWalkable(next) {
			// Stale plan: discard and force recomputation instead of
			// waiting out the interval.
			p.plan = nil
			p.recalcLeft = 0
		} else {
			p.plan = p.plan[1:]
			p.mover.BeginMove(grid.Cell{X: next.X - cur.X, Y: next.Y - cur.Y})
		}
	}

	p.mover.Advance(dt)
}

// decide rebuilds the plan following the behavior priority order:
// randomized override, home-area egress, pursue/flee, idle-random.
func (p *Pursuer) decide(targets []Target) {
	cur := p.mover.Cell()

	if p.randomFired {
		p.randomFired = false
		if neighbors := p.grid.WalkableNeighbors(cur); len(neighbors) > 0 {
			p.plan = []grid.Cell{neighbors[p.rng.Intn(len(neighbors))]}
		}
		return
	}

	if !p.leftHome {
		p.plan = p.search(cur, p.cfg.Exit)
		if len(p.plan) == 0 && cur != p.cfg.Exit {
			// Within the arrival radius of the exit but still inside the
			// rectangle: the radius must not strand egress, so step onto
			// the exit cell itself.
			p.plan = p.greedyStep(cur, p.cfg.Exit)
		}
		return
	}

	goal, tracking := p.selectTarget(cur, targets)
	if !tracking && !p.hasTarget {
		// Nothing to chase and nothing remembered: wander one cell.
		if neighbors := p.grid.WalkableNeighbors(cur); len(neighbors) > 0 {
			p.plan = []grid.Cell{neighbors[p.rng.Intn(len(neighbors))]}
		}
		return
	}

	if p.scared {
		p.plan = p.fleeStep(cur, goal)
		return
	}
	p.plan = p.search(cur, goal)
}

// selectTarget picks the nearer of the living players and remembers it.
// When no player is alive the last valid target persists so the pursuer
// keeps patrolling toward it.
func (p *Pursuer) selectTarget(cur grid.Cell, targets []Target) (grid.Cell, bool) {
	best := grid.Cell{}
	bestDist := math.MaxFloat64
	found := false
	for _, t := range targets {
		if !t.Alive {
			continue
		}
		if d := cellDistance(cur, t.Cell); d < bestDist {
			best = t.Cell
			bestDist = d
			found = true
		}
	}
	if found {
		p.lastTarget = best
		p.hasTarget = true
		return best, true
	}
	return p.lastTarget, false
}

// fleeStep is the greedy single-step flight: the adjacent walkable cell
// maximizing distance to the threat.
func (p *Pursuer) fleeStep(cur, threat grid.Cell) []grid.Cell {
	var best grid.Cell
	bestDist := -1.0
	for _, n := range p.grid.WalkableNeighbors(cur) {
		if d := cellDistance(n, threat); d > bestDist {
			best = n
			bestDist = d
		}
	}
	if bestDist < 0 {
		return nil
	}
	return []grid.Cell{best}
}

// greedyStep is the budget-exhaustion fallback: the adjacent walkable
// cell minimizing distance to the goal. Degrading beats stalling.
func (p *Pursuer) greedyStep(cur, goal grid.Cell) []grid.Cell {
	var best grid.Cell
	bestDist := math.MaxFloat64
	found := false
	for _, n := range p.grid.WalkableNeighbors(cur) {
		if d := cellDistance(n, goal); d < bestDist {
			best = n
			bestDist = d
			found = true
		}
	}
	if !found {
		return nil
	}
	return []grid.Cell{best}
}

// search runs a breadth-first search from start toward goal, bounded by
// the configured iteration budget. A start already within the arrival
// radius yields an empty plan (already arrived). Budget exhaustion
// never fails outright; it falls back to a single greedy step.
func (p *Pursuer) search(start, goal grid.Cell) []grid.Cell {
	if cellDistance(start, goal) < searchArrivedRadius {
		return nil
	}

	visited := map[grid.Cell]struct{}{start: {}}
	parent := make(map[grid.Cell]grid.Cell)
	queue := []grid.Cell{start}
	iterations := 0
	var arrived grid.Cell
	reached := false

	for len(queue) > 0 && iterations < p.cfg.SearchBudget {
		cur := queue[0]
		queue = queue[1:]
		iterations++
		if cellDistance(cur, goal) < searchArrivedRadius {
			arrived = cur
			reached = true
			break
		}
		for _, n := range p.grid.WalkableNeighbors(cur) {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			parent[n] = cur
			queue = append(queue, n)
		}
	}

	if !reached {
		return p.greedyStep(start, goal)
	}

	path := make([]grid.Cell, 0)
	for c := arrived; c != start; c = parent[c] {
		path = append(path, c)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func cellDistance(a, b grid.Cell) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
