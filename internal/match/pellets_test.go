package match

import (
	"strings"
	"testing"

	"pellet-run/server/internal/grid"
	"pellet-run/server/internal/maze"
)

var testRows = []string{
	"#######",
	"#1.E.2#",
	"#.###.#",
	"#*.P.*#",
	"#######",
}

func testLayout(t *testing.T) *maze.Layout {
	t.Helper()
	layout, err := maze.Parse(testRows, 1)
	if err != nil {
		t.Fatalf("parse test maze: %v", err)
	}
	return layout
}

func TestSpawnPelletsExcludesReservedCells(t *testing.T) {
	layout := testLayout(t)
	field := NewField(layout)

	if faults := field.SpawnPellets(1); len(faults) != 0 {
		t.Fatalf("unexpected faults: %v", faults)
	}

	reserved := []grid.Cell{
		layout.PlayerSpawns[0],
		layout.PlayerSpawns[1],
		layout.Exit,
		layout.PursuerSpawns[0],
	}
	for _, c := range reserved {
		if kind := field.Take(c); kind != PelletNone {
			t.Errorf("pellet %v spawned on reserved cell %v", kind, c)
		}
	}

	dots, power := field.Count()
	if power != len(layout.PowerCells) {
		t.Errorf("power pellets = %d, want %d", power, len(layout.PowerCells))
	}
	if dots == 0 {
		t.Errorf("no dots spawned")
	}

	for _, c := range layout.PowerCells {
		if kind := field.Take(c); kind != PelletPower {
			t.Errorf("cell %v holds %v, want power pellet", c, kind)
		}
	}
}

func TestTakeIsDestructive(t *testing.T) {
	layout := testLayout(t)
	field := NewField(layout)
	field.SpawnPellets(1)

	target := grid.Cell{X: 2, Y: 3}
	if kind := field.Take(target); kind != PelletDot {
		t.Fatalf("first take = %v, want dot", kind)
	}
	if kind := field.Take(target); kind != PelletNone {
		t.Fatalf("second take = %v, want none", kind)
	}

	dotsBefore, _ := field.Count()
	field.Clear()
	if dots, power := field.Count(); dots != 0 || power != 0 {
		t.Fatalf("counts after Clear = %d/%d, want zero", dots, power)
	}
	if dotsBefore == 0 {
		t.Fatalf("Count returned zero dots before Clear")
	}
}

func TestPowerCornerFallsBackToNearestWalkable(t *testing.T) {
	layout := testLayout(t)
	// Point one power corner at a wall; the spawner must relocate it.
	layout.PowerCells = []grid.Cell{{X: 3, Y: 2}}
	field := NewField(layout)

	faults := field.SpawnPellets(1)
	if len(faults) != 1 || !strings.Contains(faults[0], "power") {
		t.Fatalf("faults = %v, want one power-pellet relocation fault", faults)
	}

	_, power := field.Count()
	if power != 1 {
		t.Fatalf("power pellets = %d, want 1 after fallback", power)
	}
}

func TestSnapshotListsLivePellets(t *testing.T) {
	layout := testLayout(t)
	field := NewField(layout)
	field.SpawnPellets(1)

	dots, power := field.Count()
	snapshot := field.Snapshot()
	if len(snapshot) != dots+power {
		t.Fatalf("snapshot has %d pellets, counts say %d", len(snapshot), dots+power)
	}
	for _, p := range snapshot {
		if p.Kind == PelletNone {
			t.Fatalf("snapshot contains a none pellet at %v", p.Cell)
		}
	}
}
