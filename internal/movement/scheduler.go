// Package movement advances units toward their targets one hex per timed step.
package movement

import (
	"log/slog"
	"math"
	"time"

	"github.com/hexfront/engine/internal/battle"
	"github.com/hexfront/engine/internal/cache"
	"github.com/hexfront/engine/internal/geo"
	"github.com/hexfront/engine/internal/rules"
	"github.com/hexfront/engine/pkg/core"
)

const (
	// DefaultMsPerGameMinute is the real time one game minute lasts
	DefaultMsPerGameMinute = 50

	distanceWeight  = 1000.0
	previousPenalty = 300.0
	jitterSpan      = 0.01
	loopVisits      = 3
)

// Stopper is the part of *time.Timer the scheduler needs
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f after d
type AfterFunc func(d time.Duration, f func()) Stopper

// RealAfterFunc wraps time.AfterFunc
func RealAfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Outcome is what a single step did to a unit
type Outcome int

const (
	Idle Outcome = iota
	Stepped
	Arrived
	Blocked
	Looped
)

func (o Outcome) String() string {
	switch o {
	case Stepped:
		return "stepped"
	case Arrived:
		return "arrived"
	case Blocked:
		return "blocked"
	case Looped:
		return "looped"
	}
	return "idle"
}

// Observer receives movement notifications. Calls happen with the context lock held.
type Observer interface {
	Moved(u *core.Unit, from core.Hex)
	Stopped(u *core.Unit, outcome Outcome)
}

// Options configure a Scheduler
type Options struct {
	MsPerGameMinute float64
	AfterFunc       AfterFunc
	// Jitter returns values in [0,1). Nil disables the tie-break jitter.
	Jitter   func() float64
	Observer Observer
	Logger   *slog.Logger
}

type handle struct {
	timer Stopper
	gen   uint64
}

// Scheduler owns the per-unit movement timers of one battle context.
// Assign, Activate, Cancel, Pending and PendingCount expect the caller to hold the context lock.
type Scheduler struct {
	ctx     *battle.Context
	opts    Options
	log     *slog.Logger
	ledger  *cache.VisitLedger
	pending map[int]*handle
	gen     uint64
}

// NewScheduler creates a Scheduler over ctx
func NewScheduler(ctx *battle.Context, opts Options) *Scheduler {
	if opts.MsPerGameMinute <= 0 {
		opts.MsPerGameMinute = DefaultMsPerGameMinute
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = RealAfterFunc
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		ctx:     ctx,
		opts:    opts,
		log:     log.With("component", "movement"),
		ledger:  cache.NewVisitLedger(),
		pending: make(map[int]*handle),
	}
}

// Assign gives unit id a new target. Any pending step is cancelled first so that
// the unit never has two steppers. The unit starts moving on the next Activate.
func (s *Scheduler) Assign(id int, target core.Hex) bool {
	s.Cancel(id)
	u, ok := s.ctx.Unit(id)
	if !ok || !u.Alive() {
		return false
	}
	if !s.ctx.Grid.Contains(target) {
		s.log.Warn("Target outside grid", "unit", id, "target", target.String())
		return false
	}
	t := target
	u.Target = &t
	u.Previous = u.Pos
	s.ledger.Clear(id)
	return true
}

// Activate runs one step for every living unit that has an order and no pending timer
func (s *Scheduler) Activate() int {
	if s.ctx.GameOver {
		return 0
	}
	started := 0
	for _, u := range s.ctx.Living() {
		if !u.HasOrder() {
			continue
		}
		if _, busy := s.pending[u.ID]; busy {
			continue
		}
		s.Step(u.ID)
		started++
	}
	return started
}

// Cancel stops the pending timer of unit id, if any
func (s *Scheduler) Cancel(id int) {
	if h, ok := s.pending[id]; ok {
		h.timer.Stop()
		delete(s.pending, id)
	}
}

// Forget cancels the timer of unit id and drops its visit history
func (s *Scheduler) Forget(id int) {
	s.Cancel(id)
	s.ledger.Clear(id)
}

// CancelAll stops every pending timer
func (s *Scheduler) CancelAll() {
	for id := range s.pending {
		s.Cancel(id)
	}
	s.ledger.Reset()
}

// Pending reports whether unit id has a timer outstanding
func (s *Scheduler) Pending(id int) bool {
	_, ok := s.pending[id]
	return ok
}

// PendingCount returns the number of outstanding timers
func (s *Scheduler) PendingCount() int {
	return len(s.pending)
}

// Step moves unit id by one hex and schedules the next step if the target is not reached.
// The caller holds the context lock.
func (s *Scheduler) Step(id int) Outcome {
	s.Cancel(id)

	u, ok := s.ctx.Unit(id)
	if !ok || !u.Alive() {
		s.ledger.Clear(id)
		return Idle
	}
	if !u.HasOrder() {
		s.stop(u, Idle)
		return Idle
	}
	target := *u.Target

	next, minutes, ok := s.choose(u, target)
	if !ok {
		s.log.Debug("No viable neighbor", "unit", id, "pos", u.Pos.String(), "target", target.String())
		s.stop(u, Blocked)
		return Blocked
	}

	from := u.Pos
	if err := s.ctx.MoveUnit(id, next); err != nil {
		s.log.Warn("Move rejected", "unit", id, "error", err)
		s.stop(u, Blocked)
		return Blocked
	}
	if s.opts.Observer != nil {
		s.opts.Observer.Moved(u, from)
	}

	if s.ledger.Visit(id, next) >= loopVisits {
		s.log.Debug("Movement loop detected", "unit", id, "hex", next.String())
		s.stop(u, Looped)
		return Looped
	}
	if next == target {
		s.stop(u, Arrived)
		return Arrived
	}

	s.schedule(id, minutes)
	return Stepped
}

// choose scores the viable neighbors of u and returns the best one
func (s *Scheduler) choose(u *core.Unit, target core.Hex) (core.Hex, float64, bool) {
	type candidate struct {
		hex     core.Hex
		minutes float64
	}
	grid := s.ctx.Grid
	var viable []candidate
	for _, n := range geo.Neighbors(u.Pos, grid.Rows, grid.Cols) {
		minutes := rules.StepMinutes(u.Type, grid.TerrainAt(n))
		if math.IsInf(minutes, 1) {
			continue
		}
		if other, ok := s.ctx.UnitAt(n); ok && other.ID != u.ID {
			continue
		}
		viable = append(viable, candidate{n, minutes})
	}
	if len(viable) == 0 {
		return core.Hex{}, 0, false
	}

	onlyPrevious := len(viable) == 1 && viable[0].hex == u.Previous
	best := -1
	bestScore := math.Inf(1)
	for i, c := range viable {
		score := float64(geo.Distance(c.hex, target))*distanceWeight + c.minutes
		if c.hex == u.Previous && !onlyPrevious {
			score += previousPenalty
		}
		if s.opts.Jitter != nil {
			score += s.opts.Jitter()*jitterSpan - jitterSpan/2
		}
		if score < bestScore {
			best = i
			bestScore = score
		}
	}
	return viable[best].hex, viable[best].minutes, true
}

func (s *Scheduler) schedule(id int, minutes float64) {
	s.gen++
	h := &handle{gen: s.gen}
	s.pending[id] = h
	delay := time.Duration(minutes * s.opts.MsPerGameMinute * float64(time.Millisecond))
	gen := h.gen
	h.timer = s.opts.AfterFunc(delay, func() { s.fire(id, gen) })
}

// fire runs on the timer goroutine; stale generations are ignored
func (s *Scheduler) fire(id int, gen uint64) {
	s.ctx.Lock()
	defer s.ctx.Unlock()
	h, ok := s.pending[id]
	if !ok || h.gen != gen {
		return
	}
	delete(s.pending, id)
	if s.ctx.GameOver {
		return
	}
	s.Step(id)
}

// stop returns u to idle: no target, no timer, empty ledger
func (s *Scheduler) stop(u *core.Unit, outcome Outcome) {
	s.Cancel(u.ID)
	s.ledger.Clear(u.ID)
	u.ClearOrder()
	if outcome != Idle && s.opts.Observer != nil {
		s.opts.Observer.Stopped(u, outcome)
	}
}
