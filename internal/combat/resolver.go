package combat

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/hexfront/engine/internal/battle"
	"github.com/hexfront/engine/internal/rules"
	"github.com/hexfront/engine/pkg/core"
)

// DefaultIntervalMinutes is the game time between two engagement passes
const DefaultIntervalMinutes = 25

// Canceller drops pending movement for a unit; the movement scheduler satisfies it
type Canceller interface {
	Forget(id int)
}

// Options configure a Resolver
type Options struct {
	IntervalMinutes float64
	Curve           Curve
	Rand            Rand
	Canceller       Canceller
	Logger          *slog.Logger
}

// Result is one resolved engagement
type Result struct {
	Engagement Engagement
	Tally      Tally
	Resolution Resolution
	// Updated holds the post-combat state of surviving participants
	Updated    []core.UnitState
	Eliminated []core.UnitState
	// Trumpet is set when the engagement brought in units not engaged before
	Trumpet bool
	// EndsGame is set when a General fell in this engagement
	EndsGame bool
	Winner   core.Side
}

// EliminatedIDs returns the ids of the units removed by this engagement
func (r Result) EliminatedIDs() []int {
	ids := make([]int, 0, len(r.Eliminated))
	for _, u := range r.Eliminated {
		ids = append(ids, u.ID)
	}
	return ids
}

// Report is the outcome of one engagement pass
type Report struct {
	Ran      bool
	Results  []Result
	GameOver bool
	Winner   core.Side
}

// Resolver runs the periodic engagement pass on the authority
type Resolver struct {
	ctx     *battle.Context
	opts    Options
	log     *slog.Logger
	engaged map[int]bool
}

// NewResolver creates a Resolver over ctx
func NewResolver(ctx *battle.Context, opts Options) *Resolver {
	if opts.IntervalMinutes <= 0 {
		opts.IntervalMinutes = DefaultIntervalMinutes
	}
	if opts.Curve == (Curve{}) {
		opts.Curve = DefaultCurve()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		ctx:     ctx,
		opts:    opts,
		log:     log.With("component", "combat"),
		engaged: make(map[int]bool),
	}
}

// Due reports whether an engagement pass is owed at the current game time
func (r *Resolver) Due() bool {
	return !r.ctx.GameOver && r.ctx.GameMinutes >= r.ctx.LastCombat+r.opts.IntervalMinutes
}

// RunInterval resolves every engagement of the current interval if one is due.
// The caller holds the context lock. A fallen General ends the game and stops the pass.
func (r *Resolver) RunInterval() Report {
	var rep Report
	if !r.Due() {
		return rep
	}
	rep.Ran = true
	r.ctx.ClearCombatHexes()
	r.ctx.LastCombat = r.ctx.GameMinutes

	engagements := Discover(r.ctx)
	if len(engagements) == 0 {
		clear(r.engaged)
		return rep
	}

	for _, e := range engagements {
		res := r.resolve(e)
		rep.Results = append(rep.Results, res)
		if res.EndsGame {
			rep.GameOver = true
			rep.Winner = res.Winner
			r.ctx.End(res.Winner)
			r.log.Info("General eliminated, game over", "winner", string(res.Winner))
			break
		}
	}
	return rep
}

func (r *Resolver) resolve(e Engagement) Result {
	res := Result{Engagement: e}

	for _, u := range e.Units() {
		if !r.engaged[u.ID] {
			r.engaged[u.ID] = true
			res.Trumpet = true
		}
		r.ctx.MarkCombat(u.Pos)
	}

	res.Tally = Evaluate(r.ctx.Grid, e)
	res.Resolution = r.opts.Curve.Resolve(res.Tally.Attack, res.Tally.Defense, r.opts.Rand)

	var eliminated []*core.Unit
	if res.Resolution.Damage > 0 {
		if res.Resolution.Target == core.DamageDefender || res.Resolution.Target == core.DamageBoth {
			_, dead := Distribute(r.ctx, res.Tally.DefenderTargets, res.Resolution.Damage, rules.Defense)
			eliminated = append(eliminated, dead...)
		}
		if res.Resolution.Target == core.DamageAttacker || res.Resolution.Target == core.DamageBoth {
			_, dead := Distribute(r.ctx, res.Tally.AttackerTargets, res.Resolution.Damage, rules.Attack)
			eliminated = append(eliminated, dead...)
		}
	}

	r.log.Debug("Engagement resolved",
		"attackers", len(e.Attackers),
		"defenders", len(e.Defenders),
		"attack", res.Tally.Attack,
		"defense", res.Tally.Defense,
		"outcome", string(res.Resolution.Outcome),
		"damage", res.Resolution.Damage,
		"eliminated", len(eliminated),
	)

	for _, u := range eliminated {
		if u.Type == core.General && !res.EndsGame {
			res.EndsGame = true
			res.Winner = u.Side.Opponent()
		}
	}

	for _, u := range e.Units() {
		if u.Alive() {
			res.Updated = append(res.Updated, u.State())
		}
	}
	for _, u := range eliminated {
		res.Eliminated = append(res.Eliminated, u.State())
		if r.opts.Canceller != nil {
			r.opts.Canceller.Forget(u.ID)
		}
		r.ctx.Remove(u.ID)
	}
	return res
}
