// Package maze parses designer-authored maze layouts into the
// walkability grid and the spawn/home/exit markers the simulation
// consumes. Layouts are text rows, one character per cell.
package maze

import (
	"encoding/json"
	"fmt"
	"os"

	"pellet-run/server/internal/grid"
)

// Layout characters. Anything else is a parse error.
const (
	charWall         = '#'
	charOpen         = '.'
	charPowerPellet  = '*'
	charPlayerOne    = '1'
	charPlayerTwo    = '2'
	charPursuerSpawn = 'P'
	charExit         = 'E'
)

// Layout is the parsed, immutable result of a maze definition.
type Layout struct {
	Grid          *grid.Grid
	Rows          []string
	PlayerSpawns  [2]grid.Cell
	PursuerSpawns []grid.Cell
	Home          grid.Rect
	Exit          grid.Cell
	PowerCells    []grid.Cell
}

// Definition is the designer-authored JSON contract. The schema
// generator under cmd/schema reflects this type so map files can be
// validated in editor tooling.
type Definition struct {
	Name     string   `json:"name,omitempty" jsonschema:"title=Maze name,description=Display name for the maze"`
	CellSize float64  `json:"cellSize,omitempty" jsonschema:"title=Cell size,description=World-space edge length of one cell; defaults to 1"`
	Rows     []string `json:"rows" jsonschema:"title=Maze rows,description=Top-to-bottom rows; one character per cell (# wall . open * power pellet 1/2 player spawns P pursuer spawn E home exit)"`
}

// Parse builds a layout from text rows ordered top to bottom. All rows
// must share one width and the layout must name both player spawns, at
// least one pursuer spawn, and exactly one exit cell.
func Parse(rows []string, cellSize float64) (*Layout, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("maze: no rows")
	}
	width := len(rows[0])
	height := len(rows)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("maze: row %d is %d cells wide, want %d", i, len(row), width)
		}
	}

	walkable := make([][]bool, height)
	for y := range walkable {
		walkable[y] = make([]bool, width)
	}

	layout := &Layout{Rows: rows}
	havePlayer := [2]bool{}
	haveExit := false

	for i, row := range rows {
		y := height - 1 - i // text rows run top to bottom, grid Y runs up
		for x, ch := range row {
			cell := grid.Cell{X: x, Y: y}
			switch ch {
			case charWall:
				continue
			case charOpen:
			case charPowerPellet:
				layout.PowerCells = append(layout.PowerCells, cell)
			case charPlayerOne:
				layout.PlayerSpawns[0] = cell
				havePlayer[0] = true
			case charPlayerTwo:
				layout.PlayerSpawns[1] = cell
				havePlayer[1] = true
			case charPursuerSpawn:
				layout.PursuerSpawns = append(layout.PursuerSpawns, cell)
			case charExit:
				if haveExit {
					return nil, fmt.Errorf("maze: multiple exit cells")
				}
				layout.Exit = cell
				haveExit = true
			default:
				return nil, fmt.Errorf("maze: unknown character %q at row %d col %d", ch, i, x)
			}
			walkable[y][x] = true
		}
	}

	if !havePlayer[0] || !havePlayer[1] {
		return nil, fmt.Errorf("maze: both player spawns (1 and 2) are required")
	}
	if len(layout.PursuerSpawns) == 0 {
		return nil, fmt.Errorf("maze: at least one pursuer spawn (P) is required")
	}
	if !haveExit {
		return nil, fmt.Errorf("maze: exit cell (E) is required")
	}

	layout.Home = boundingRect(layout.PursuerSpawns)
	layout.Grid = grid.New(walkable, cellSize)
	return layout, nil
}

// ParseDefinition decodes a JSON definition and parses its rows.
func ParseDefinition(data []byte) (*Layout, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("maze: decode definition: %w", err)
	}
	cellSize := def.CellSize
	if cellSize <= 0 {
		cellSize = 1
	}
	return Parse(def.Rows, cellSize)
}

// LoadDefinition reads and parses a JSON definition file.
func LoadDefinition(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("maze: read %s: %w", path, err)
	}
	return ParseDefinition(data)
}

func boundingRect(cells []grid.Cell) grid.Rect {
	r := grid.Rect{Min: cells[0], Max: cells[0]}
	for _, c := range cells[1:] {
		if c.X < r.Min.X {
			r.Min.X = c.X
		}
		if c.Y < r.Min.Y {
			r.Min.Y = c.Y
		}
		if c.X > r.Max.X {
			r.Max.X = c.X
		}
		if c.Y > r.Max.Y {
			r.Max.Y = c.Y
		}
	}
	return r
}

// DefaultRows is the built-in maze used when no definition file is
// configured. Pursuers start in the center box and leave through the
// gap above it toward the exit marker.
var DefaultRows = []string{
	"###################",
	"#*.......#.......*#",
	"#.##.###.#.###.##.#",
	"#.................#",
	"#.##.#.#####.#.##.#",
	"#....#...#...#....#",
	"####.###.#.###.####",
	"#........E........#",
	"#.####.#...#.####.#",
	"#.#....#PPP#....#.#",
	"#.#.##.#####.##.#.#",
	"#......1.#.2......#",
	"#.####.#.#.#.####.#",
	"#*.......#.......*#",
	"###################",
}

// Default parses DefaultRows with unit cell size.
func Default() (*Layout, error) {
	return Parse(DefaultRows, 1)
}
