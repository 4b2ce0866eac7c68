// Package grid models the discretized walkable map shared by every
// simulation component. The walkability table is supplied once at
// construction by the map-authoring step and is immutable afterwards.
package grid

// Cell is one discrete, integer-addressed unit of the walkable map.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the cell offset by the provided delta.
func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y}
}

// Point is a world-space position derived from a cell via ToWorld.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Direction deltas in the fixed enumeration order used for neighbor
// iteration. Order matters: downstream tie-breaking depends on it.
var (
	DirUp    = Cell{X: 0, Y: 1}
	DirDown  = Cell{X: 0, Y: -1}
	DirLeft  = Cell{X: -1, Y: 0}
	DirRight = Cell{X: 1, Y: 0}

	// NeighborOffsets enumerates the four cardinal deltas as up, down,
	// left, right.
	NeighborOffsets = [4]Cell{DirUp, DirDown, DirLeft, DirRight}
)

// Grid owns the immutable walkability table plus the grid/world mapping.
type Grid struct {
	width    int
	height   int
	cellSize float64
	walkable []bool
}

// New constructs a grid from a row-major walkability table indexed as
// rows[y][x]. Ragged rows are treated as blocked past their length.
func New(rows [][]bool, cellSize float64) *Grid {
	height := len(rows)
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if cellSize <= 0 {
		cellSize = 1
	}
	g := &Grid{
		width:    width,
		height:   height,
		cellSize: cellSize,
		walkable: make([]bool, width*height),
	}
	for y, row := range rows {
		for x, open := range row {
			if open {
				g.walkable[y*width+x] = true
			}
		}
	}
	return g
}

// Width reports the number of columns.
func (g *Grid) Width() int { return g.width }

// Height reports the number of rows.
func (g *Grid) Height() int { return g.height }

// CellSize reports the world-space edge length of one cell.
func (g *Grid) CellSize() float64 { return g.cellSize }

// InBounds reports whether the cell is addressable.
func (g *Grid) InBounds(c Cell) bool {
	return g != nil && c.X >= 0 && c.Y >= 0 && c.X < g.width && c.Y < g.height
}

// IsWalkable reports whether the cell is inside the map and open.
// Out-of-bounds cells are always non-walkable.
func (g *Grid) IsWalkable(c Cell) bool {
	if !g.InBounds(c) {
		return false
	}
	return g.walkable[c.Y*g.width+c.X]
}

// ToWorld projects a cell to its world-space center. The mapping is
// centered so index (width-1)/2 lands near the world origin.
func (g *Grid) ToWorld(c Cell) Point {
	return Point{
		X: (float64(c.X) - float64(g.width-1)/2) * g.cellSize,
		Y: (float64(c.Y) - float64(g.height-1)/2) * g.cellSize,
	}
}

// ToGrid inverts ToWorld by rounding to the nearest cell center. For any
// in-bounds integer cell c, ToGrid(ToWorld(c)) == c.
func (g *Grid) ToGrid(p Point) Cell {
	return Cell{
		X: roundToInt(p.X/g.cellSize + float64(g.width-1)/2),
		Y: roundToInt(p.Y/g.cellSize + float64(g.height-1)/2),
	}
}

func roundToInt(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

// WalkableNeighbors returns the walkable cardinal neighbors of c in the
// fixed up, down, left, right order.
func (g *Grid) WalkableNeighbors(c Cell) []Cell {
	neighbors := make([]Cell, 0, 4)
	for _, delta := range NeighborOffsets {
		n := c.Add(delta)
		if g.IsWalkable(n) {
			neighbors = append(neighbors, n)
		}
	}
	return neighbors
}

// Adjacent reports whether a and b are cardinally adjacent.
func Adjacent(a, b Cell) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx+dy == 1
}

// NearestWalkable searches outward in expanding square rings for the
// closest walkable cell. It mitigates configuration faults such as an
// authored marker landing on a wall. The second return is false when no
// walkable cell exists within maxRadius rings.
func (g *Grid) NearestWalkable(c Cell, maxRadius int) (Cell, bool) {
	if g.IsWalkable(c) {
		return c, true
	}
	for r := 1; r <= maxRadius; r++ {
		var best Cell
		bestDist := -1
		consider := func(n Cell) {
			if !g.IsWalkable(n) {
				return
			}
			d := (n.X-c.X)*(n.X-c.X) + (n.Y-c.Y)*(n.Y-c.Y)
			if bestDist < 0 || d < bestDist {
				best = n
				bestDist = d
			}
		}
		// Only the perimeter of ring r; inner cells were covered by
		// earlier rings.
		for dx := -r; dx <= r; dx++ {
			consider(Cell{X: c.X + dx, Y: c.Y - r})
			consider(Cell{X: c.X + dx, Y: c.Y + r})
		}
		for dy := -r + 1; dy <= r-1; dy++ {
			consider(Cell{X: c.X - r, Y: c.Y + dy})
			consider(Cell{X: c.X + r, Y: c.Y + dy})
		}
		if bestDist >= 0 {
			return best, true
		}
	}
	return Cell{}, false
}

// Rect is an inclusive rectangular cell region, used for the pursuer
// home area.
type Rect struct {
	Min Cell
	Max Cell
}

// Contains reports whether the cell lies inside the rectangle.
func (r Rect) Contains(c Cell) bool {
	return c.X >= r.Min.X && c.X <= r.Max.X && c.Y >= r.Min.Y && c.Y <= r.Max.Y
}
