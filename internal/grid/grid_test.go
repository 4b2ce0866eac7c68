package grid

import "testing"

func openGrid(width, height int, cellSize float64) *Grid {
	rows := make([][]bool, height)
	for y := range rows {
		rows[y] = make([]bool, width)
		for x := range rows[y] {
			rows[y][x] = true
		}
	}
	return New(rows, cellSize)
}

func TestWorldRoundTrip(t *testing.T) {
	for _, size := range []float64{1, 8, 32.5} {
		g := openGrid(7, 5, size)
		for y := 0; y < g.Height(); y++ {
			for x := 0; x < g.Width(); x++ {
				c := Cell{X: x, Y: y}
				got := g.ToGrid(g.ToWorld(c))
				if got != c {
					t.Fatalf("cellSize %v: round trip of %v = %v", size, c, got)
				}
			}
		}
	}
}

func TestWalkabilityOutOfBounds(t *testing.T) {
	g := openGrid(4, 3, 1)
	cases := []Cell{
		{X: -1, Y: 0},
		{X: 0, Y: -1},
		{X: 4, Y: 0},
		{X: 0, Y: 3},
		{X: 100, Y: 100},
		{X: -100, Y: -100},
	}
	for _, c := range cases {
		if g.IsWalkable(c) {
			t.Errorf("IsWalkable(%v) = true outside bounds", c)
		}
	}
	if !g.IsWalkable(Cell{X: 0, Y: 0}) {
		t.Errorf("IsWalkable(0,0) = false inside open grid")
	}
}

func TestWalkableNeighborsFiltersWalls(t *testing.T) {
	// 3x3 with a blocked center-right cell.
	rows := [][]bool{
		{true, true, true},
		{true, true, false},
		{true, true, true},
	}
	g := New(rows, 1)

	got := g.WalkableNeighbors(Cell{X: 1, Y: 1})
	want := map[Cell]bool{
		{X: 1, Y: 2}: true,
		{X: 1, Y: 0}: true,
		{X: 0, Y: 1}: true,
	}
	if len(got) != len(want) {
		t.Fatalf("neighbors of (1,1) = %v, want 3 cells", got)
	}
	for _, c := range got {
		if !want[c] {
			t.Errorf("unexpected neighbor %v", c)
		}
	}
}

func TestAdjacent(t *testing.T) {
	a := Cell{X: 2, Y: 2}
	for _, c := range []Cell{{X: 2, Y: 3}, {X: 2, Y: 1}, {X: 1, Y: 2}, {X: 3, Y: 2}} {
		if !Adjacent(a, c) {
			t.Errorf("Adjacent(%v, %v) = false", a, c)
		}
	}
	for _, c := range []Cell{a, {X: 3, Y: 3}, {X: 2, Y: 4}, {X: 0, Y: 0}} {
		if Adjacent(a, c) {
			t.Errorf("Adjacent(%v, %v) = true", a, c)
		}
	}
}

func TestNearestWalkable(t *testing.T) {
	rows := [][]bool{
		{false, false, false},
		{false, false, true},
		{false, false, false},
	}
	g := New(rows, 1)

	got, ok := g.NearestWalkable(Cell{X: 0, Y: 0}, 3)
	if !ok {
		t.Fatalf("NearestWalkable found nothing")
	}
	if (got != Cell{X: 2, Y: 1}) {
		t.Fatalf("NearestWalkable = %v, want (2,1)", got)
	}

	if same, ok := g.NearestWalkable(Cell{X: 2, Y: 1}, 3); !ok || (same != Cell{X: 2, Y: 1}) {
		t.Fatalf("NearestWalkable on a walkable cell = %v ok=%v, want identity", same, ok)
	}

	blocked := New([][]bool{{false}}, 1)
	if _, ok := blocked.NearestWalkable(Cell{}, 2); ok {
		t.Fatalf("NearestWalkable succeeded on a fully blocked grid")
	}
}

func TestNearestWalkablePrefersCardinalOverCorner(t *testing.T) {
	// Ring 1 around (1,1) holds two candidates: the corner (0,0) at
	// distance sqrt(2) and the edge (2,1) at distance 1. The edge must
	// win regardless of scan order.
	rows := [][]bool{
		{true, false, false},
		{false, false, true},
		{false, false, false},
	}
	g := New(rows, 1)

	got, ok := g.NearestWalkable(Cell{X: 1, Y: 1}, 1)
	if !ok {
		t.Fatalf("NearestWalkable found nothing")
	}
	if (got != Cell{X: 2, Y: 1}) {
		t.Fatalf("NearestWalkable = %v, want the closer edge cell (2,1)", got)
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{Min: Cell{X: 1, Y: 1}, Max: Cell{X: 3, Y: 2}}
	for _, c := range []Cell{{X: 1, Y: 1}, {X: 3, Y: 2}, {X: 2, Y: 1}} {
		if !r.Contains(c) {
			t.Errorf("Contains(%v) = false", c)
		}
	}
	for _, c := range []Cell{{X: 0, Y: 1}, {X: 4, Y: 2}, {X: 2, Y: 3}} {
		if r.Contains(c) {
			t.Errorf("Contains(%v) = true", c)
		}
	}
}
