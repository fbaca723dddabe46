package rules

import (
	"github.com/hexfront/engine/internal/geo"
	"github.com/hexfront/engine/pkg/core"
)

// Visible returns the hexes seen by the living units of side.
func Visible(grid *core.Grid, units []*core.Unit, side core.Side) map[core.Hex]bool {
	seen := make(map[core.Hex]bool)
	for _, u := range units {
		if !u.Alive() || u.Side != side {
			continue
		}
		radius := VisionRange(u.Type, grid.TerrainAt(u.Pos))
		for _, h := range geo.WithinRange(u.Pos, radius, grid.Rows, grid.Cols) {
			seen[h] = true
		}
	}
	return seen
}

// VisibleEnemies returns the living enemy units standing on a hex seen by side.
func VisibleEnemies(grid *core.Grid, units []*core.Unit, side core.Side) []*core.Unit {
	seen := Visible(grid, units, side)
	var out []*core.Unit
	for _, u := range units {
		if u.Alive() && u.Side != side && seen[u.Pos] {
			out = append(out, u)
		}
	}
	return out
}
