package match

import (
	"fmt"

	"pellet-run/server/internal/grid"
	"pellet-run/server/internal/maze"
)

// PelletKind distinguishes ordinary dots from power pellets.
type PelletKind int

const (
	PelletNone PelletKind = iota
	PelletDot
	PelletPower
)

func (k PelletKind) String() string {
	switch k {
	case PelletDot:
		return "dot"
	case PelletPower:
		return "power"
	default:
		return "none"
	}
}

// Pellet is a broadcast-friendly pellet marker.
type Pellet struct {
	Cell grid.Cell  `json:"cell"`
	Kind PelletKind `json:"kind"`
}

// Spawner is the pellet collaborator boundary. The orchestrator calls
// SpawnPellets at level start and then recounts through Count — the
// recount, not the spawner's own bookkeeping, is authoritative.
type Spawner interface {
	// SpawnPellets places the level's pellets and returns descriptions
	// of any mitigated configuration faults.
	SpawnPellets(level int) []string
	// Take removes and returns the pellet at the cell, PelletNone when
	// the cell is empty.
	Take(c grid.Cell) PelletKind
	// Count reports live pellets by category.
	Count() (dots, power int)
	// Clear removes all remaining pellets.
	Clear()
	// Snapshot copies the live pellets for broadcasting.
	Snapshot() []Pellet
}

// powerCornerSearchRadius bounds the expanding-ring fallback when an
// authored power-pellet cell is not walkable.
const powerCornerSearchRadius = 4

// Field is the default Spawner: a dot on every walkable cell outside
// the home area, power pellets at the authored corner markers.
type Field struct {
	grid    *grid.Grid
	layout  *maze.Layout
	pellets map[grid.Cell]PelletKind
}

// NewField builds an empty pellet field over the layout.
func NewField(layout *maze.Layout) *Field {
	return &Field{
		grid:    layout.Grid,
		layout:  layout,
		pellets: make(map[grid.Cell]PelletKind),
	}
}

// SpawnPellets repopulates the field. Cells inside the pursuer home
// rectangle, the exit cell, and both player spawn cells stay empty.
func (f *Field) SpawnPellets(level int) []string {
	f.Clear()
	var faults []string

	for y := 0; y < f.grid.Height(); y++ {
		for x := 0; x < f.grid.Width(); x++ {
			c := grid.Cell{X: x, Y: y}
			if !f.grid.IsWalkable(c) || f.excluded(c) {
				continue
			}
			f.pellets[c] = PelletDot
		}
	}

	for _, corner := range f.layout.PowerCells {
		target := corner
		if !f.grid.IsWalkable(target) {
			fallback, ok := f.grid.NearestWalkable(target, powerCornerSearchRadius)
			if !ok {
				faults = append(faults, fmt.Sprintf("power pellet at (%d,%d) has no walkable cell within %d rings", corner.X, corner.Y, powerCornerSearchRadius))
				continue
			}
			faults = append(faults, fmt.Sprintf("power pellet at (%d,%d) not walkable, moved to (%d,%d)", corner.X, corner.Y, fallback.X, fallback.Y))
			target = fallback
		}
		f.pellets[target] = PelletPower
	}
	return faults
}

func (f *Field) excluded(c grid.Cell) bool {
	if f.layout.Home.Contains(c) || c == f.layout.Exit {
		return true
	}
	for _, spawn := range f.layout.PlayerSpawns {
		if c == spawn {
			return true
		}
	}
	return false
}

// Take removes and returns the pellet at c.
func (f *Field) Take(c grid.Cell) PelletKind {
	kind, ok := f.pellets[c]
	if !ok {
		return PelletNone
	}
	delete(f.pellets, c)
	return kind
}

// Count reports live pellets by category.
func (f *Field) Count() (dots, power int) {
	for _, kind := range f.pellets {
		switch kind {
		case PelletDot:
			dots++
		case PelletPower:
			power++
		}
	}
	return dots, power
}

// Clear removes every pellet.
func (f *Field) Clear() {
	f.pellets = make(map[grid.Cell]PelletKind)
}

// Snapshot copies the live pellets.
func (f *Field) Snapshot() []Pellet {
	out := make([]Pellet, 0, len(f.pellets))
	for c, kind := range f.pellets {
		out = append(out, Pellet{Cell: c, Kind: kind})
	}
	return out
}
