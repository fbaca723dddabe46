// Package supply heals units standing next to a friendly supply train.
package supply

import (
	"github.com/hexfront/engine/internal/battle"
	"github.com/hexfront/engine/internal/geo"
	"github.com/hexfront/engine/internal/rules"
	"github.com/hexfront/engine/pkg/core"
)

// DefaultRatePerMinute is the share of max health recovered per game minute
const DefaultRatePerMinute = 0.005

// Healed is the health gained by one unit in a pass
type Healed struct {
	UnitID int
	Gain   float64
}

// Recover heals every living non-supply unit below its maximum that has a same-side
// supply unit on its hex or an adjacent one. The caller holds the context lock.
func Recover(ctx *battle.Context, elapsedMinutes, ratePerMinute float64) []Healed {
	if ctx.GameOver || elapsedMinutes <= 0 || ratePerMinute <= 0 {
		return nil
	}
	units := ctx.Living()

	depots := make(map[core.Side][]core.Hex)
	for _, u := range units {
		if u.Type == core.Supply {
			depots[u.Side] = append(depots[u.Side], u.Pos)
		}
	}

	var out []Healed
	for _, u := range units {
		if u.Type == core.Supply {
			continue
		}
		maxHealth := rules.MaxHealth(u.Type)
		if u.Health >= maxHealth || !supplied(u, depots[u.Side]) {
			continue
		}
		if gain := ctx.Heal(u.ID, maxHealth*ratePerMinute*elapsedMinutes); gain > 0 {
			out = append(out, Healed{UnitID: u.ID, Gain: gain})
		}
	}
	return out
}

func supplied(u *core.Unit, depots []core.Hex) bool {
	for _, d := range depots {
		if geo.Distance(u.Pos, d) <= 1 {
			return true
		}
	}
	return false
}
