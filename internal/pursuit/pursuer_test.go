package pursuit

import (
	"math/rand"
	"testing"

	"pellet-run/server/internal/grid"
	"pellet-run/server/internal/motion"
)

// ringGrid builds an open 7x5 box with a solid interior block, so every
// route between opposite corners goes around the ring.
func ringGrid() *grid.Grid {
	rows := make([][]bool, 5)
	for y := range rows {
		rows[y] = make([]bool, 7)
		for x := range rows[y] {
			edge := x == 0 || y == 0 || x == 6 || y == 4
			rows[y][x] = edge
		}
	}
	return grid.New(rows, 1)
}

func newTestPursuer(g *grid.Grid, spawn grid.Cell, cfg Config) *Pursuer {
	mover := motion.NewMover(g, spawn, 4)
	return New(g, mover, cfg, rand.New(rand.NewSource(1)))
}

func TestSearchPlanIsAdjacentAndWalkable(t *testing.T) {
	g := ringGrid()
	start := grid.Cell{X: 0, Y: 0}
	goal := grid.Cell{X: 6, Y: 4}
	p := newTestPursuer(g, start, Config{SearchBudget: 512})

	plan := p.search(start, goal)
	if len(plan) == 0 {
		t.Fatalf("search returned empty plan for connected region")
	}

	prev := start
	for i, c := range plan {
		if !grid.Adjacent(prev, c) {
			t.Fatalf("plan[%d] = %v not adjacent to %v", i, c, prev)
		}
		if !g.IsWalkable(c) {
			t.Fatalf("plan[%d] = %v not walkable", i, c)
		}
		prev = c
	}

	last := plan[len(plan)-1]
	if dx, dy := last.X-goal.X, last.Y-goal.Y; dx*dx+dy*dy > 2 {
		t.Fatalf("plan ends at %v, not within arrival radius of %v", last, goal)
	}
}

func TestSearchAlreadyArrived(t *testing.T) {
	g := ringGrid()
	start := grid.Cell{X: 0, Y: 0}
	p := newTestPursuer(g, start, Config{})

	if plan := p.search(start, start); plan != nil {
		t.Fatalf("search on own cell = %v, want nil", plan)
	}
	if plan := p.search(start, grid.Cell{X: 1, Y: 0}); plan != nil {
		t.Fatalf("search on adjacent goal = %v, want nil", plan)
	}
}

func TestSearchBudgetExhaustionFallsBackToGreedy(t *testing.T) {
	g := ringGrid()
	start := grid.Cell{X: 0, Y: 0}
	goal := grid.Cell{X: 6, Y: 4}
	p := newTestPursuer(g, start, Config{SearchBudget: 1})

	plan := p.search(start, goal)
	if len(plan) != 1 {
		t.Fatalf("greedy fallback plan = %v, want a single step", plan)
	}
	if !grid.Adjacent(start, plan[0]) || !g.IsWalkable(plan[0]) {
		t.Fatalf("greedy step %v invalid from %v", plan[0], start)
	}
}

func TestHomeEgressTargetsExit(t *testing.T) {
	g := ringGrid()
	home := grid.Rect{Min: grid.Cell{X: 0, Y: 0}, Max: grid.Cell{X: 1, Y: 0}}
	exit := grid.Cell{X: 4, Y: 0}
	p := newTestPursuer(g, grid.Cell{X: 0, Y: 0}, Config{Home: home, Exit: exit})

	// A living target behind the pursuer must not preempt egress.
	targets := []Target{{Cell: grid.Cell{X: 0, Y: 2}, Alive: true}}
	p.decide(targets)

	plan := p.Plan()
	if len(plan) == 0 {
		t.Fatalf("no egress plan")
	}
	if plan[0] != (grid.Cell{X: 1, Y: 0}) {
		t.Fatalf("egress first step = %v, want (1,0) toward exit", plan[0])
	}
}

func TestEgressCompletesOnLeavingHome(t *testing.T) {
	g := ringGrid()
	home := grid.Rect{Min: grid.Cell{X: 0, Y: 0}, Max: grid.Cell{X: 1, Y: 0}}
	exit := grid.Cell{X: 4, Y: 0}
	p := newTestPursuer(g, grid.Cell{X: 0, Y: 0}, Config{Home: home, Exit: exit, RecalcInterval: 0.05})

	for i := 0; i < 600 && !p.leftHome; i++ {
		p.Tick(1.0/15, nil)
	}
	if !p.leftHome {
		t.Fatalf("pursuer never left home: at %v", p.Mover().Cell())
	}
	if home.Contains(p.Mover().Cell()) {
		t.Fatalf("leftHome set while still inside home at %v", p.Mover().Cell())
	}
}

func TestEgressNotStrandedNextToExit(t *testing.T) {
	// The home rectangle ends one cell short of the exit, so the pursuer
	// starts inside the search arrival radius of its egress goal. The
	// radius must not leave it parked in the rectangle forever.
	g := ringGrid()
	home := grid.Rect{Min: grid.Cell{X: 0, Y: 0}, Max: grid.Cell{X: 2, Y: 0}}
	exit := grid.Cell{X: 3, Y: 0}
	p := newTestPursuer(g, grid.Cell{X: 2, Y: 0}, Config{Home: home, Exit: exit, RecalcInterval: 0.05})

	p.decide(nil)
	plan := p.Plan()
	if len(plan) != 1 || plan[0] != exit {
		t.Fatalf("egress plan inside arrival radius = %v, want [%v]", plan, exit)
	}

	for i := 0; i < 120 && !p.leftHome; i++ {
		p.Tick(1.0/15, nil)
	}
	if !p.leftHome {
		t.Fatalf("pursuer stranded in home: at %v, plan=%v", p.Mover().Cell(), p.Plan())
	}
}

func TestScaredFleeStepIncreasesDistance(t *testing.T) {
	g := ringGrid()
	p := newTestPursuer(g, grid.Cell{X: 3, Y: 0}, Config{})
	p.leftHome = true
	p.SetScared(true)

	threat := grid.Cell{X: 1, Y: 0}
	p.decide([]Target{{Cell: threat, Alive: true}})

	plan := p.Plan()
	if len(plan) != 1 {
		t.Fatalf("flee plan = %v, want a single step", plan)
	}
	if cellDistance(plan[0], threat) <= cellDistance(p.Mover().Cell(), threat) {
		t.Fatalf("flee step %v does not increase distance from %v", plan[0], threat)
	}
}

func TestChasePlanTracksNearestLivingTarget(t *testing.T) {
	g := ringGrid()
	p := newTestPursuer(g, grid.Cell{X: 3, Y: 0}, Config{})
	p.leftHome = true

	near := grid.Cell{X: 5, Y: 0}
	far := grid.Cell{X: 0, Y: 4}
	p.decide([]Target{
		{Cell: far, Alive: true},
		{Cell: near, Alive: true},
	})

	plan := p.Plan()
	if len(plan) == 0 {
		t.Fatalf("no chase plan")
	}
	if plan[0] != (grid.Cell{X: 4, Y: 0}) {
		t.Fatalf("chase first step = %v, want (4,0) toward nearer target", plan[0])
	}

	// Dead targets are ignored; the last living position persists.
	p.decide([]Target{{Cell: near, Alive: false}})
	if p.lastTarget != near {
		t.Fatalf("lastTarget = %v, want %v retained", p.lastTarget, near)
	}
}

func TestEatenHoldsRespawnThenReactivates(t *testing.T) {
	g := ringGrid()
	spawn := grid.Cell{X: 0, Y: 0}
	p := newTestPursuer(g, spawn, Config{RespawnDelay: 0.5})
	p.leftHome = true
	p.SetScared(true)

	p.Mover().Teleport(grid.Cell{X: 4, Y: 0}, false)
	p.Eaten()

	if !p.Respawning() {
		t.Fatalf("not respawning after Eaten")
	}
	if got := p.Mover().Cell(); got != spawn {
		t.Fatalf("eaten pursuer at %v, want spawn %v", got, spawn)
	}
	if !p.Scared() {
		t.Fatalf("scared flag dropped by Eaten; expiry owns it")
	}

	p.Tick(0.3, nil)
	if !p.Respawning() {
		t.Fatalf("respawn hold ended early")
	}
	if got := p.Mover().Cell(); got != spawn {
		t.Fatalf("moved during respawn hold: %v", got)
	}

	p.Tick(0.3, nil)
	if p.Respawning() {
		t.Fatalf("respawn hold never ended")
	}
}

func TestStalePlanDiscarded(t *testing.T) {
	g := ringGrid()
	p := newTestPursuer(g, grid.Cell{X: 0, Y: 0}, Config{RecalcInterval: 100})
	p.leftHome = true
	p.recalcLeft = 100 // keep decide out of the way

	p.plan = []grid.Cell{{X: 5, Y: 5}} // not adjacent, not walkable
	p.Tick(0.01, nil)

	if len(p.plan) != 0 && p.plan[0] == (grid.Cell{X: 5, Y: 5}) {
		t.Fatalf("stale plan survived: %v", p.plan)
	}
	if p.recalcLeft > 0.01 {
		t.Fatalf("stale plan did not force recomputation, recalcLeft = %v", p.recalcLeft)
	}
}

func TestRandomOverridePlansSingleNeighbor(t *testing.T) {
	g := ringGrid()
	p := newTestPursuer(g, grid.Cell{X: 3, Y: 0}, Config{RandomChance: 1, RandomInterval: 0.1})
	p.leftHome = true
	p.randomFired = true

	p.decide([]Target{{Cell: grid.Cell{X: 6, Y: 4}, Alive: true}})

	plan := p.Plan()
	if len(plan) != 1 {
		t.Fatalf("random override plan = %v, want a single step", plan)
	}
	if !grid.Adjacent(grid.Cell{X: 3, Y: 0}, plan[0]) {
		t.Fatalf("random step %v not adjacent", plan[0])
	}
	if p.randomFired {
		t.Fatalf("randomFired not consumed")
	}
}

func TestRandomOverrideForcesImmediateDecision(t *testing.T) {
	g := ringGrid()
	p := newTestPursuer(g, grid.Cell{X: 3, Y: 0}, Config{RandomChance: 1, RecalcInterval: 0.25})
	p.leftHome = true
	p.recalcLeft = 0.25 // mid-interval when the override timer fires
	p.randomLeft = 0.001

	p.Tick(0.01, nil)

	if p.randomFired {
		t.Fatalf("override rolled but not consumed within the same tick")
	}
	if !p.Mover().Moving() {
		t.Fatalf("override did not produce a move; pursuer is idling out the recalc interval")
	}
}
