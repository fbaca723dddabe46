// pkg/core/grid.go
package core

import "fmt"

// Hex is an offset coordinate on a pointy-top grid where odd rows are shifted right.
type Hex struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (h Hex) String() string {
	return fmt.Sprintf("%d,%d", h.Row, h.Col)
}

// Terrain is the immutable terrain type of a cell.
type Terrain int

const (
	Flat Terrain = iota
	Mountain
	Hill
	Swamp
	Lake
	Forest
)

var terrainNames = map[Terrain]string{
	Flat:     "flat",
	Mountain: "mountain",
	Hill:     "hill",
	Swamp:    "swamp",
	Lake:     "lake",
	Forest:   "forest",
}

func (t Terrain) String() string {
	if name, ok := terrainNames[t]; ok {
		return name
	}
	return fmt.Sprintf("terrain(%d)", int(t))
}

// Valid reports whether t is one of the known terrain types.
func (t Terrain) Valid() bool {
	_, ok := terrainNames[t]
	return ok
}

// Grid is the terrain map. Cells is indexed [row][col].
type Grid struct {
	Rows  int         `json:"rows"`
	Cols  int         `json:"cols"`
	Cells [][]Terrain `json:"cells"`
}

// NewGrid creates a grid filled with the given terrain.
func NewGrid(rows, cols int, fill Terrain) *Grid {
	cells := make([][]Terrain, rows)
	for r := range cells {
		cells[r] = make([]Terrain, cols)
		for c := range cells[r] {
			cells[r][c] = fill
		}
	}
	return &Grid{Rows: rows, Cols: cols, Cells: cells}
}

// Contains reports whether h lies inside the grid.
func (g *Grid) Contains(h Hex) bool {
	return h.Row >= 0 && h.Row < g.Rows && h.Col >= 0 && h.Col < g.Cols
}

// TerrainAt returns the terrain at h. Out-of-grid hexes read as Lake so that
// callers treat them as impassable.
func (g *Grid) TerrainAt(h Hex) Terrain {
	if !g.Contains(h) {
		return Lake
	}
	return g.Cells[h.Row][h.Col]
}

// Set overwrites the terrain at h. It is a no-op outside the grid.
func (g *Grid) Set(h Hex, t Terrain) {
	if g.Contains(h) {
		g.Cells[h.Row][h.Col] = t
	}
}

// Validate checks the grid dimensions against its cells.
func (g *Grid) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("invalid grid dimensions %dx%d", g.Rows, g.Cols)
	}
	if len(g.Cells) != g.Rows {
		return fmt.Errorf("grid has %d rows of cells, expected %d", len(g.Cells), g.Rows)
	}
	for r, row := range g.Cells {
		if len(row) != g.Cols {
			return fmt.Errorf("grid row %d has %d cells, expected %d", r, len(row), g.Cols)
		}
		for c, t := range row {
			if !t.Valid() {
				return fmt.Errorf("grid cell %d,%d has unknown terrain %d", r, c, int(t))
			}
		}
	}
	return nil
}
