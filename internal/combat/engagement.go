// Package combat discovers engagements between the two armies and resolves them.
package combat

import (
	"github.com/hexfront/engine/internal/battle"
	"github.com/hexfront/engine/internal/geo"
	"github.com/hexfront/engine/internal/rules"
	"github.com/hexfront/engine/pkg/core"
)

// Engagement is one closed cluster of units that fight together in an interval.
// Attackers and Defenders carry reporting labels only; the math is symmetric.
type Engagement struct {
	Attackers     []*core.Unit
	Defenders     []*core.Unit
	FirstAttacker *core.Unit
	FirstDefender *core.Unit
}

// Units returns every participant, attackers first
func (e Engagement) Units() []*core.Unit {
	out := make([]*core.Unit, 0, len(e.Attackers)+len(e.Defenders))
	out = append(out, e.Attackers...)
	return append(out, e.Defenders...)
}

// AttackerSide returns the side carrying the attacker label
func (e Engagement) AttackerSide() core.Side {
	if e.FirstAttacker == nil {
		return core.Blue
	}
	return e.FirstAttacker.Side
}

// unitSet keeps insertion order so that discovery is reproducible
type unitSet struct {
	order []*core.Unit
	has   map[int]bool
}

func newUnitSet() *unitSet {
	return &unitSet{has: make(map[int]bool)}
}

func (s *unitSet) add(u *core.Unit) bool {
	if s.has[u.ID] {
		return false
	}
	s.has[u.ID] = true
	s.order = append(s.order, u)
	return true
}

func (s *unitSet) len() int {
	return len(s.order)
}

// rangeOf is the effective combat range of u on its current terrain
func rangeOf(grid *core.Grid, u *core.Unit) int {
	return rules.Range(u.Type, grid.TerrainAt(u.Pos))
}

// Discover computes the disjoint engagements of the current interval on a stable view
// of the roster. Blue units seed the search; a closure touching a unit already claimed
// by an earlier closure is dropped whole.
func Discover(ctx *battle.Context) []Engagement {
	grid := ctx.Grid
	blues := ctx.Side(core.Blue)
	reds := ctx.Side(core.Red)
	if len(blues) == 0 || len(reds) == 0 {
		return nil
	}

	claimedBlue := make(map[int]bool)
	claimedRed := make(map[int]bool)
	var out []Engagement

	for _, seed := range blues {
		if claimedBlue[seed.ID] {
			continue
		}

		// friendly screen around the seed, seed first
		screen := []*core.Unit{seed}
		for _, b := range blues {
			if b.ID != seed.ID && geo.Distance(seed.Pos, b.Pos) <= rules.MaxRange {
				screen = append(screen, b)
			}
		}

		attackers := newUnitSet()
		defenders := newUnitSet()
		for _, b := range screen {
			rb := rangeOf(grid, b)
			for _, r := range reds {
				d := geo.Distance(b.Pos, r.Pos)
				if d <= rb || d <= rangeOf(grid, r) {
					defenders.add(r)
					attackers.add(b)
				}
			}
		}
		if defenders.len() == 0 {
			continue
		}
		firstAttacker, firstDefender := attackers.order[0], defenders.order[0]

		grow(grid, blues, reds, attackers, defenders)

		if overlaps(attackers, claimedBlue) || overlaps(defenders, claimedRed) {
			continue
		}
		for _, u := range attackers.order {
			claimedBlue[u.ID] = true
		}
		for _, u := range defenders.order {
			claimedRed[u.ID] = true
		}

		e := Engagement{
			Attackers:     attackers.order,
			Defenders:     defenders.order,
			FirstAttacker: firstAttacker,
			FirstDefender: firstDefender,
		}
		// red pushed into blue's half: red carries the attacker label
		if firstDefender.Pos.Row < grid.Rows/2 {
			e.Attackers, e.Defenders = e.Defenders, e.Attackers
			e.FirstAttacker, e.FirstDefender = e.FirstDefender, e.FirstAttacker
		}
		out = append(out, e)
	}
	return out
}

// grow extends both sets to the fixed point of the in-range relation, alternating
// blues in range of new defenders and reds in range of new attackers.
func grow(grid *core.Grid, blues, reds []*core.Unit, attackers, defenders *unitSet) {
	frontier := defenders.order
	for len(frontier) > 0 {
		var newAttackers []*core.Unit
		for _, r := range frontier {
			rr := rangeOf(grid, r)
			for _, b := range blues {
				if !attackers.has[b.ID] && geo.Distance(b.Pos, r.Pos) <= rr {
					attackers.add(b)
					newAttackers = append(newAttackers, b)
				}
			}
		}

		var newDefenders []*core.Unit
		for _, b := range newAttackers {
			rb := rangeOf(grid, b)
			for _, r := range reds {
				if !defenders.has[r.ID] && geo.Distance(b.Pos, r.Pos) <= rb {
					defenders.add(r)
					newDefenders = append(newDefenders, r)
				}
			}
		}
		frontier = newDefenders
	}
}

func overlaps(s *unitSet, claimed map[int]bool) bool {
	for _, u := range s.order {
		if claimed[u.ID] {
			return true
		}
	}
	return false
}
