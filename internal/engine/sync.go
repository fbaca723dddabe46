package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/hexfront/engine/internal/rules"
	"github.com/hexfront/engine/pkg/core"
	"github.com/hexfront/engine/pkg/streaming"
)

// SyncSnapshot sends the full state under the next sequence number. Authority only.
func (e *Engine) SyncSnapshot() (uint64, error) {
	if !e.authority {
		return 0, ErrNotAuthority
	}
	e.ctx.Lock()
	e.ctx.Sequence++
	seq := e.ctx.Sequence
	snap := e.ctx.Snapshot(seq, false)
	e.mirror()
	e.opts.Journal.Sync(core.SyncEvent{Time: time.Now(), SequenceNumber: seq, Units: len(snap.Units)})
	e.enqueue(streaming.TypeStateSync, streaming.StateSyncPayload{State: snap})
	e.ctx.Unlock()

	e.flush()
	return seq, nil
}

// SendInitialState sends the map, roster and seed once the follower has joined. Authority only.
func (e *Engine) SendInitialState(seed int64) error {
	if !e.authority {
		return ErrNotAuthority
	}
	e.ctx.Lock()
	e.ctx.Sequence++
	snap := e.ctx.Snapshot(e.ctx.Sequence, true)
	e.mirror()
	e.enqueue(streaming.TypeGameState, streaming.GameStatePayload{State: snap, Seed: seed})
	e.ctx.Unlock()

	e.flush()
	e.log.Info("Initial state sent", "units", len(snap.Units), "rows", snap.Rows, "cols", snap.Cols)
	return nil
}

// LoadGameState replaces the map and roster with the authority's initial state.
func (e *Engine) LoadGameState(snap core.Snapshot) error {
	grid := &core.Grid{Rows: snap.Rows, Cols: snap.Cols, Cells: snap.Map}
	if err := grid.Validate(); err != nil {
		return fmt.Errorf("load game state: %w", err)
	}

	e.ctx.Lock()
	defer e.ctx.Unlock()
	e.sched.CancelAll()
	e.ctx.Grid = grid
	err := e.ctx.ReplaceUnits(unitsOf(snap.Units))
	e.ctx.GameMinutes = snap.GameTimeInMinutes
	e.ctx.SetCombatHexes(snap.CombatHexes)
	e.ctx.Sequence = snap.SequenceNumber
	e.mirror()
	e.log.Info("Game state loaded", "units", len(snap.Units), "rows", snap.Rows, "cols", snap.Cols)
	return err
}

// ApplySnapshot overwrites the local state with snap when it is newer than the last one applied.
// Pending steps of units that were removed or retargeted are cancelled. Snapshots with a
// sequence number at or below the last applied one are ignored.
func (e *Engine) ApplySnapshot(snap core.Snapshot) (bool, error) {
	e.ctx.Lock()
	defer e.ctx.Unlock()

	if snap.SequenceNumber <= e.ctx.Sequence {
		e.log.Debug("Stale snapshot ignored", "seq", snap.SequenceNumber, "last", e.ctx.Sequence)
		return false, nil
	}

	incoming := make(map[int]core.UnitState, len(snap.Units))
	for _, s := range snap.Units {
		incoming[s.ID] = s
	}
	for _, u := range e.ctx.Units() {
		s, ok := incoming[u.ID]
		if !ok || s.Health <= 0 {
			e.sched.Forget(u.ID)
			continue
		}
		if !sameTarget(u.Target, s.Target()) {
			e.sched.Forget(u.ID)
		}
	}

	err := e.ctx.ReplaceUnits(unitsOf(snap.Units))
	e.ctx.GameMinutes = snap.GameTimeInMinutes
	e.ctx.SetCombatHexes(snap.CombatHexes)
	e.ctx.Sequence = snap.SequenceNumber
	e.mirror()
	e.opts.Journal.Sync(core.SyncEvent{
		Time:           time.Now(),
		SequenceNumber: snap.SequenceNumber,
		Units:          len(snap.Units),
		Applied:        true,
	})
	return true, err
}

// ApplyCombatResult applies health and position updates and removes eliminated units.
// Applying the same result twice leaves the state unchanged.
func (e *Engine) ApplyCombatResult(p streaming.CombatResultPayload) error {
	e.ctx.Lock()
	defer e.ctx.Unlock()

	var errs []error
	for _, cu := range p.UpdatedUnits {
		u, ok := e.ctx.Unit(cu.ID)
		if !ok {
			continue
		}
		if cu.Health <= 0 {
			e.sched.Forget(cu.ID)
			e.ctx.Remove(cu.ID)
			continue
		}
		u.Health = min(cu.Health, rules.MaxHealth(u.Type))
		to := core.Hex{Row: cu.Row, Col: cu.Col}
		if to != u.Pos {
			// a correction is not a step: keep the hex the unit last left
			previous := u.Previous
			if err := e.ctx.MoveUnit(cu.ID, to); err != nil {
				errs = append(errs, err)
			}
			u.Previous = previous
		}
	}
	for _, id := range p.EliminatedUnitIDs {
		e.sched.Forget(id)
		e.ctx.Remove(id)
	}
	return errors.Join(errs...)
}

// EndGame records the authority's verdict and stops all movement.
func (e *Engine) EndGame(winner core.Side) {
	e.ctx.Lock()
	if e.ctx.End(winner) {
		e.log.Info("Game over", "winner", string(winner))
	}
	e.sched.CancelAll()
	e.mirror()
	e.ctx.Unlock()
	e.finish()
}

func unitsOf(states []core.UnitState) []*core.Unit {
	units := make([]*core.Unit, 0, len(states))
	for _, s := range states {
		units = append(units, s.Unit())
	}
	return units
}

func sameTarget(a, b *core.Hex) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
