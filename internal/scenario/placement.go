package scenario

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/hexfront/engine/internal/rules"
	"github.com/hexfront/engine/pkg/core"
)

// StartMinutes is the game clock at the start of a battle (06:00)
const StartMinutes = 6 * 60

// generalBuffer keeps generals this many rows behind the front of their quarter
const generalBuffer = 3

var (
	blueOrder = []core.UnitType{core.Spy, core.Supply, core.Cavalry, core.Artillery, core.Infantry}
	redOrder  = []core.UnitType{core.Infantry, core.Artillery, core.Cavalry, core.Spy, core.Supply}
)

// DefaultCounts is the number of units of each type per side
func DefaultCounts() map[core.UnitType]int {
	return map[core.UnitType]int{
		core.Infantry:  12,
		core.Artillery: 4,
		core.Cavalry:   4,
		core.Supply:    2,
		core.Spy:       1,
		core.General:   1,
	}
}

// ParseCounts converts unit counts keyed by type name
func ParseCounts(named map[string]int) (map[core.UnitType]int, error) {
	byName := make(map[string]core.UnitType, len(core.UnitTypes))
	for _, t := range core.UnitTypes {
		byName[t.String()] = t
	}
	out := make(map[core.UnitType]int, len(named))
	for name, n := range named {
		t, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown unit type %q", name)
		}
		if n < 0 {
			return nil, fmt.Errorf("negative count %d for %s", n, name)
		}
		out[t] = n
	}
	return out, nil
}

// PlaceUnits deploys both armies: blue in the top quarter of the map, red in the bottom
// quarter, never on a lake and never two on one hex. Generals keep a three-row buffer
// from the front of their quarter. Ids run from 0 in placement order. Units that find no
// free hex are reported in the error; the placed units are returned regardless.
func PlaceUnits(grid *core.Grid, counts map[core.UnitType]int, rng *rand.Rand) ([]*core.Unit, error) {
	if grid.Rows < 4 || grid.Cols < 1 {
		return nil, fmt.Errorf("map %dx%d too small for deployment", grid.Rows, grid.Cols)
	}
	quarter := grid.Rows / 4

	p := &placer{grid: grid, rng: rng, taken: make(map[core.Hex]bool)}
	blueRows := [2]int{0, quarter}
	redRows := [2]int{grid.Rows - quarter, grid.Rows}

	for _, t := range blueOrder {
		p.deploy(core.Blue, t, counts[t], blueRows)
	}
	for _, t := range redOrder {
		p.deploy(core.Red, t, counts[t], redRows)
	}

	depth := max(1, quarter-generalBuffer)
	p.deploy(core.Blue, core.General, counts[core.General], [2]int{0, depth})
	redStart := min(grid.Rows-quarter+generalBuffer, grid.Rows-1)
	p.deploy(core.Red, core.General, counts[core.General], [2]int{redStart, min(grid.Rows, redStart+depth)})

	return p.units, errors.Join(p.errs...)
}

type placer struct {
	grid  *core.Grid
	rng   *rand.Rand
	taken map[core.Hex]bool
	units []*core.Unit
	errs  []error
}

// deploy places n units of type t on random free hexes in rows [band[0], band[1])
func (p *placer) deploy(side core.Side, t core.UnitType, n int, band [2]int) {
	if n <= 0 {
		return
	}
	free := p.free(band)
	p.rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	for i := range n {
		if i >= len(free) {
			p.errs = append(p.errs, fmt.Errorf("no room for %d of %d %s %s in rows %d-%d", n-i, n, side, t, band[0], band[1]-1))
			return
		}
		h := free[i]
		p.taken[h] = true
		p.units = append(p.units, &core.Unit{
			ID:       len(p.units),
			Type:     t,
			Side:     side,
			Pos:      h,
			Previous: h,
			Health:   rules.MaxHealth(t),
		})
	}
}

func (p *placer) free(band [2]int) []core.Hex {
	var out []core.Hex
	for r := band[0]; r < band[1]; r++ {
		for c := range p.grid.Cols {
			h := core.Hex{Row: r, Col: c}
			if p.grid.TerrainAt(h) == core.Lake || p.taken[h] {
				continue
			}
			out = append(out, h)
		}
	}
	return out
}
