// Package engine drives one peer's simulation: the frame tick, the authority's
// engagement pass and snapshots, and the follower's reconciliation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hexfront/engine/internal/battle"
	"github.com/hexfront/engine/internal/combat"
	"github.com/hexfront/engine/internal/movement"
	"github.com/hexfront/engine/internal/queue"
	"github.com/hexfront/engine/internal/rules"
	"github.com/hexfront/engine/internal/supply"
	"github.com/hexfront/engine/pkg/core"
	"github.com/hexfront/engine/pkg/streaming"
)

const (
	DefaultFrameInterval = 16 * time.Millisecond
	DefaultSyncInterval  = 100 * time.Millisecond
)

var (
	// ErrWrongSide is returned for orders given to a unit the caller does not command
	ErrWrongSide = errors.New("unit belongs to the other side")
	// ErrGameOver is returned for orders after the game ended
	ErrGameOver = errors.New("game over")
	// ErrInvalidOrder is returned when the scheduler refuses a target
	ErrInvalidOrder = errors.New("invalid order")
	// ErrNotAuthority is returned when a follower calls an authority-only operation
	ErrNotAuthority = errors.New("not the authority")
)

// Sender delivers protocol messages to the other peer; *peer.Conn satisfies it
type Sender interface {
	Send(typ string, payload any) error
}

// Options configure an Engine
type Options struct {
	Side            core.Side
	MsPerGameMinute float64
	FrameInterval   time.Duration
	SyncInterval    time.Duration
	CombatInterval  float64
	SupplyRate      float64
	Curve           combat.Curve
	// Seed feeds the authority's tie-break and combat randomness. 0 seeds from the clock.
	Seed      int64
	AfterFunc movement.AfterFunc
	Sender    Sender
	Journal   Journal
	Logger    *slog.Logger
}

// TickReport summarizes one frame
type TickReport struct {
	Minutes  float64
	Started  int
	Combat   combat.Report
	Healed   []supply.Healed
	GameOver bool
}

// Status is a point-in-time view for monitoring
type Status struct {
	Side        core.Side
	Authority   bool
	GameMinutes float64
	Sequence    uint64
	Alive       map[core.Side]int
	Pending     int
	// VisibleEnemies counts the opposing units inside the local side's vision
	VisibleEnemies int
	GameOver       bool
	Winner         core.Side
}

// Engine owns the simulation of one peer. Blue is the authority.
type Engine struct {
	ctx      *battle.Context
	sched    *movement.Scheduler
	resolver *combat.Resolver
	opts     Options
	log      *slog.Logger

	authority bool
	outbox    *queue.Queue[streaming.Envelope]
	lastTick  time.Time

	minuteBits atomic.Uint64
	sequence   atomic.Uint64

	done     chan struct{}
	doneOnce sync.Once
}

// New creates an Engine over ctx
func New(ctx *battle.Context, opts Options) *Engine {
	if opts.MsPerGameMinute <= 0 {
		opts.MsPerGameMinute = movement.DefaultMsPerGameMinute
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = DefaultSyncInterval
	}
	if opts.SupplyRate <= 0 {
		opts.SupplyRate = supply.DefaultRatePerMinute
	}
	if opts.Journal == nil {
		opts.Journal = NopJournal{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		ctx:       ctx,
		opts:      opts,
		log:       log.With("component", "engine", "side", string(opts.Side)),
		authority: opts.Side == core.Blue,
		outbox:    queue.New[streaming.Envelope](),
		done:      make(chan struct{}),
	}

	rng := rand.New(rand.NewSource(seed))
	mopts := movement.Options{
		MsPerGameMinute: opts.MsPerGameMinute,
		AfterFunc:       opts.AfterFunc,
		Observer:        e,
		Logger:          log,
	}
	// the follower steps deterministically and is corrected by snapshots
	if e.authority {
		mopts.Jitter = rng.Float64
	}
	e.sched = movement.NewScheduler(ctx, mopts)

	if e.authority {
		e.resolver = combat.NewResolver(ctx, combat.Options{
			IntervalMinutes: opts.CombatInterval,
			Curve:           opts.Curve,
			Rand:            rng,
			Canceller:       e.sched,
			Logger:          log,
		})
	}
	e.mirror()
	return e
}

// Context returns the simulation state; callers hold its lock while reading it
func (e *Engine) Context() *battle.Context {
	return e.ctx
}

// Scheduler returns the movement scheduler driven by this engine
func (e *Engine) Scheduler() *movement.Scheduler {
	return e.sched
}

// Authority reports whether this engine resolves combat and sends snapshots
func (e *Engine) Authority() bool {
	return e.authority
}

// Side returns the army controlled by the local player
func (e *Engine) Side() core.Side {
	return e.opts.Side
}

// Done is closed once the game has ended on this peer
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Tick advances the game clock by the real time since the previous tick and runs
// the frame phases: movement activation, the engagement pass (authority only)
// and supply recovery. Messages produced are sent after the lock is released.
func (e *Engine) Tick(now time.Time) TickReport {
	e.ctx.Lock()
	rep := e.tick(now)
	e.ctx.Unlock()

	e.flush()
	if rep.GameOver {
		e.finish()
	}
	return rep
}

func (e *Engine) tick(now time.Time) TickReport {
	var rep TickReport
	if e.lastTick.IsZero() {
		e.lastTick = now
	}
	elapsed := now.Sub(e.lastTick)
	e.lastTick = now

	if e.ctx.GameOver {
		rep.GameOver = true
		return rep
	}

	if elapsed > 0 {
		rep.Minutes = float64(elapsed) / float64(time.Millisecond) / e.opts.MsPerGameMinute
		e.ctx.Advance(rep.Minutes)
	}

	rep.Started = e.sched.Activate()

	if e.resolver != nil {
		rep.Combat = e.resolver.RunInterval()
		e.publishCombat(now, rep.Combat)
	}

	if !e.ctx.GameOver {
		rep.Healed = supply.Recover(e.ctx, rep.Minutes, e.opts.SupplyRate)
	}

	if e.ctx.GameOver {
		e.sched.CancelAll()
		rep.GameOver = true
	}
	e.mirror()
	return rep
}

// publishCombat turns an engagement pass into protocol messages and journal entries.
// The engagement that ends the game is reported by GAME_OVER alone.
func (e *Engine) publishCombat(now time.Time, rep combat.Report) {
	for _, res := range rep.Results {
		if res.Trumpet {
			e.enqueue(streaming.TypePlaySound, streaming.PlaySoundPayload{Sound: streaming.SoundTrumpet})
		}
		e.journalEngagement(now, res)

		if res.EndsGame {
			e.log.Info("Game over", "winner", string(res.Winner), "minute", e.ctx.GameMinutes)
			e.enqueue(streaming.TypeGameOver, streaming.GameOverPayload{Outcome: res.Winner})
			continue
		}

		updated := make([]streaming.CombatUnit, 0, len(res.Updated))
		for _, u := range res.Updated {
			updated = append(updated, streaming.CombatUnit{ID: u.ID, Health: u.Health, Row: u.Row, Col: u.Col})
		}
		e.enqueue(streaming.TypeCombatResult, streaming.CombatResultPayload{
			UpdatedUnits:      updated,
			EliminatedUnitIDs: res.EliminatedIDs(),
		})
	}
}

func (e *Engine) journalEngagement(now time.Time, res combat.Result) {
	ids := func(units []*core.Unit) []int {
		out := make([]int, 0, len(units))
		for _, u := range units {
			out = append(out, u.ID)
		}
		return out
	}
	e.opts.Journal.Engagement(core.EngagementEvent{
		Time:          now,
		GameMinutes:   e.ctx.GameMinutes,
		AttackerSide:  res.Engagement.AttackerSide(),
		AttackerIDs:   ids(res.Engagement.Attackers),
		DefenderIDs:   ids(res.Engagement.Defenders),
		AttackTotal:   res.Tally.Attack,
		DefenseTotal:  res.Tally.Defense,
		Outcome:       res.Resolution.Outcome,
		Target:        res.Resolution.Target,
		Damage:        res.Resolution.Damage,
		EliminatedIDs: res.EliminatedIDs(),
	})
	for _, u := range res.Eliminated {
		e.opts.Journal.Elimination(core.EliminationEvent{
			Time:        now,
			GameMinutes: e.ctx.GameMinutes,
			UnitID:      u.ID,
			Type:        u.Type,
			Side:        u.Side,
			Pos:         u.Pos(),
		})
	}
}

// Order assigns a target to one of the local side's units and forwards it to the other peer.
func (e *Engine) Order(id int, target core.Hex) error {
	e.ctx.Lock()
	err := e.order(id, target)
	e.ctx.Unlock()
	e.flush()
	return err
}

func (e *Engine) order(id int, target core.Hex) error {
	if e.ctx.GameOver {
		return ErrGameOver
	}
	u, ok := e.ctx.Unit(id)
	if !ok || !u.Alive() {
		return fmt.Errorf("order unit %d: %w", id, battle.ErrUnknownUnit)
	}
	if u.Side != e.opts.Side {
		return fmt.Errorf("order unit %d: %w", id, ErrWrongSide)
	}
	from := u.Pos
	if !e.sched.Assign(id, target) {
		return fmt.Errorf("order unit %d to %s: %w", id, target, ErrInvalidOrder)
	}
	e.opts.Journal.Order(core.OrderEvent{
		Time:        time.Now(),
		GameMinutes: e.ctx.GameMinutes,
		UnitID:      id,
		Side:        u.Side,
		From:        from,
		Target:      target,
	})
	e.enqueue(streaming.TypeMoveOrder, streaming.MoveOrderPayload{UnitID: id, TargetRow: target.Row, TargetCol: target.Col})
	return nil
}

// RemoteOrder applies an order received from the other peer. Only the other side's
// units may be ordered this way.
func (e *Engine) RemoteOrder(id int, target core.Hex) error {
	e.ctx.Lock()
	defer e.ctx.Unlock()

	if e.ctx.GameOver {
		return ErrGameOver
	}
	u, ok := e.ctx.Unit(id)
	if !ok || !u.Alive() {
		return fmt.Errorf("remote order unit %d: %w", id, battle.ErrUnknownUnit)
	}
	if u.Side == e.opts.Side {
		return fmt.Errorf("remote order unit %d: %w", id, ErrWrongSide)
	}
	from := u.Pos
	if !e.sched.Assign(id, target) {
		return fmt.Errorf("remote order unit %d to %s: %w", id, target, ErrInvalidOrder)
	}
	e.opts.Journal.Order(core.OrderEvent{
		Time:        time.Now(),
		GameMinutes: e.ctx.GameMinutes,
		UnitID:      id,
		Side:        u.Side,
		From:        from,
		Target:      target,
		Remote:      true,
	})
	return nil
}

// Abort ends the game without a winner, e.g. when the other peer leaves.
func (e *Engine) Abort(reason string) {
	e.ctx.Lock()
	if e.ctx.End("") {
		e.log.Warn("Game aborted", "reason", reason)
	}
	e.sched.CancelAll()
	e.mirror()
	e.ctx.Unlock()
	e.finish()
}

// Run ticks every frame and, on the authority, sends a snapshot every sync interval.
// It returns when ctx is cancelled or the game ends.
func (e *Engine) Run(ctx context.Context) error {
	frame := time.NewTicker(e.opts.FrameInterval)
	defer frame.Stop()

	var syncC <-chan time.Time
	if e.authority {
		syncTicker := time.NewTicker(e.opts.SyncInterval)
		defer syncTicker.Stop()
		syncC = syncTicker.C
	}

	e.log.Info("Engine running", "authority", e.authority, "frame", e.opts.FrameInterval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.done:
			e.finalSync()
			return nil
		case now := <-frame.C:
			if rep := e.Tick(now); rep.GameOver {
				e.finalSync()
				return nil
			}
		case <-syncC:
			if _, err := e.SyncSnapshot(); err != nil {
				e.log.Warn("Snapshot not sent", "error", err)
			}
		}
	}
}

func (e *Engine) finalSync() {
	if !e.authority {
		return
	}
	if _, err := e.SyncSnapshot(); err != nil {
		e.log.Debug("Final snapshot not sent", "error", err)
	}
}

// Status returns a view of the engine for monitoring
func (e *Engine) Status() Status {
	e.ctx.Lock()
	defer e.ctx.Unlock()
	return Status{
		Side:           e.opts.Side,
		Authority:      e.authority,
		GameMinutes:    e.ctx.GameMinutes,
		Sequence:       e.ctx.Sequence,
		Alive:          e.ctx.Count(),
		Pending:        e.sched.PendingCount(),
		VisibleEnemies: len(rules.VisibleEnemies(e.ctx.Grid, e.ctx.Living(), e.opts.Side)),
		GameOver:       e.ctx.GameOver,
		Winner:         e.ctx.Winner,
	}
}

// LogAttrs returns the game minute and sequence last seen by a tick without
// taking the simulation lock. It is meant for logging.ContextProvider.
func (e *Engine) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("side", string(e.opts.Side)),
		slog.Float64("gameMinute", math.Round(math.Float64frombits(e.minuteBits.Load())*10)/10),
		slog.Uint64("seq", e.sequence.Load()),
	}
}

// Moved implements movement.Observer
func (e *Engine) Moved(*core.Unit, core.Hex) {}

// Stopped implements movement.Observer
func (e *Engine) Stopped(u *core.Unit, outcome movement.Outcome) {
	switch outcome {
	case movement.Blocked, movement.Looped:
		e.log.Info("Order cleared", "unit", u.ID, "pos", u.Pos.String(), "reason", outcome.String())
	default:
		e.log.Debug("Unit stopped", "unit", u.ID, "pos", u.Pos.String(), "reason", outcome.String())
	}
}

func (e *Engine) mirror() {
	e.minuteBits.Store(math.Float64bits(e.ctx.GameMinutes))
	e.sequence.Store(e.ctx.Sequence)
}

func (e *Engine) finish() {
	e.doneOnce.Do(func() { close(e.done) })
}

func (e *Engine) enqueue(typ string, payload any) {
	env, err := streaming.NewEnvelope(typ, payload)
	if err != nil {
		e.log.Error("Dropping unencodable message", "type", typ, "error", err)
		return
	}
	e.outbox.Push(env)
}

// flush sends queued messages in order. A failed send does not hold back the messages
// behind it. It must not be called with the context lock held.
func (e *Engine) flush() {
	if e.opts.Sender == nil {
		e.outbox.GetAndEmpty()
		return
	}
	err := e.outbox.Drain(func(env streaming.Envelope) error {
		var payload any
		if len(env.Payload) > 0 {
			payload = env.Payload
		}
		if err := e.opts.Sender.Send(env.Type, payload); err != nil {
			return fmt.Errorf("send %s: %w", env.Type, err)
		}
		return nil
	})
	if err != nil {
		e.log.Warn("Messages not sent", "error", err)
	}
}
