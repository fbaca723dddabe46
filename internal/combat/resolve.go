package combat

import (
	"math"

	"github.com/hexfront/engine/internal/battle"
	"github.com/hexfront/engine/internal/geo"
	"github.com/hexfront/engine/internal/rules"
	"github.com/hexfront/engine/pkg/core"
)

// Rand is the random source used by resolution; *rand.Rand satisfies it
type Rand interface {
	Float64() float64
}

// Curve holds the constants of the outcome model
type Curve struct {
	DamageScale      float64
	Randomness       float64
	Exponent         float64
	VictoryThreshold float64
	DrawFraction     float64
}

// DefaultCurve returns the stock combat constants
func DefaultCurve() Curve {
	return Curve{
		DamageScale:      0.1,
		Randomness:       0.4,
		Exponent:         0.7,
		VictoryThreshold: 1.10,
		DrawFraction:     0.25,
	}
}

// Resolution is the outcome of one engagement before damage is spread
type Resolution struct {
	Outcome      core.Outcome
	Target       core.DamageTarget
	Damage       float64
	AttackPower  float64
	DefensePower float64
}

// Resolve compares the two totals after a symmetric random perturbation and a
// diminishing-returns exponent. A decisive winner deals the margin, scaled; a draw
// deals a fraction of the combined power to both sides.
func (c Curve) Resolve(attack, defense float64, rng Rand) Resolution {
	perturb := func(v float64) float64 {
		return math.Max(0, v*(1+(rng.Float64()*2-1)*c.Randomness))
	}
	a := perturb(attack)
	d := perturb(defense)
	pa := math.Pow(a, c.Exponent)
	pd := math.Pow(d, c.Exponent)

	res := Resolution{AttackPower: a, DefensePower: d}
	switch {
	case pa > pd*c.VictoryThreshold:
		res.Outcome = core.AttackerWins
		res.Target = core.DamageDefender
		res.Damage = (a - d) * c.DamageScale
	case pd > pa*c.VictoryThreshold:
		res.Outcome = core.DefenderWins
		res.Target = core.DamageAttacker
		res.Damage = (d - a) * c.DamageScale
	default:
		res.Outcome = core.Draw
		res.Target = core.DamageBoth
		res.Damage = (a + d) * c.DamageScale * c.DrawFraction
	}
	res.Damage = math.Max(0, res.Damage)
	return res
}

// Tally is the aggregated strength of an engagement and the units that take damage
type Tally struct {
	Attack  float64
	Defense float64
	// AttackerTargets are attackers within range of some defender
	AttackerTargets []*core.Unit
	// DefenderTargets are defenders within range of some attacker
	DefenderTargets []*core.Unit
}

// Evaluate sums attack over attackers that reach a defender and defense over defenders
// that reach an attacker.
func Evaluate(grid *core.Grid, e Engagement) Tally {
	var t Tally
	attackerHit := newUnitSet()
	defenderHit := newUnitSet()

	for _, a := range e.Attackers {
		ra := rangeOf(grid, a)
		contributes := false
		for _, d := range e.Defenders {
			if geo.Distance(a.Pos, d.Pos) <= ra {
				contributes = true
				defenderHit.add(d)
			}
		}
		if contributes {
			t.Attack += rules.Attack(a.Type)
		}
	}
	for _, d := range e.Defenders {
		rd := rangeOf(grid, d)
		contributes := false
		for _, a := range e.Attackers {
			if geo.Distance(a.Pos, d.Pos) <= rd {
				contributes = true
				attackerHit.add(a)
			}
		}
		if contributes {
			t.Defense += rules.Defense(d.Type)
		}
	}
	t.AttackerTargets = attackerHit.order
	t.DefenderTargets = defenderHit.order
	return t
}

// Shares splits damage across units proportionally to stat. Units with a larger stat
// never receive a smaller share.
func Shares(units []*core.Unit, damage float64, stat func(core.UnitType) float64) map[int]float64 {
	out := make(map[int]float64, len(units))
	if len(units) == 0 || damage <= 0 {
		return out
	}
	total := 0.0
	for _, u := range units {
		total += stat(u.Type)
	}
	for _, u := range units {
		if total > 0 {
			out[u.ID] = damage * stat(u.Type) / total
		} else {
			out[u.ID] = damage / float64(len(units))
		}
	}
	return out
}

// Distribute applies damage to units by Shares and returns the actual losses and
// the units brought to zero health. Losses stop at each unit's remaining health.
func Distribute(ctx *battle.Context, units []*core.Unit, damage float64, stat func(core.UnitType) float64) (map[int]float64, []*core.Unit) {
	losses := make(map[int]float64, len(units))
	var eliminated []*core.Unit
	shares := Shares(units, damage, stat)
	for _, u := range units {
		loss, dead := ctx.Damage(u.ID, shares[u.ID])
		losses[u.ID] = loss
		if dead {
			eliminated = append(eliminated, u)
		}
	}
	return losses, eliminated
}
