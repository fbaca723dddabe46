package parser

import (
	"fmt"
	"math"

	"github.com/hexfront/engine/internal/rules"
	"github.com/hexfront/engine/pkg/core"
	"github.com/hexfront/engine/pkg/streaming"
)

// ParseStateSync decodes a periodic snapshot. Snapshots without a sequence number are rejected.
func (p *Parser) ParseStateSync(env streaming.Envelope) (core.Snapshot, error) {
	payload, err := decode[streaming.StateSyncPayload](env, streaming.TypeStateSync)
	if err != nil {
		return core.Snapshot{}, err
	}
	snap := payload.State
	if snap.SequenceNumber == 0 {
		return snap, fmt.Errorf("%w: missing sequence number", ErrInvalidPayload)
	}
	if err := p.checkSnapshot(snap); err != nil {
		return snap, err
	}
	return snap, nil
}

// ParseGameState decodes the initial state. The terrain map is required.
func (p *Parser) ParseGameState(env streaming.Envelope) (streaming.GameStatePayload, error) {
	payload, err := decode[streaming.GameStatePayload](env, streaming.TypeGameState)
	if err != nil {
		return payload, err
	}
	grid := &core.Grid{Rows: payload.State.Rows, Cols: payload.State.Cols, Cells: payload.State.Map}
	if err := grid.Validate(); err != nil {
		return payload, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	p.SetGrid(grid)
	if err := p.checkSnapshot(payload.State); err != nil {
		return payload, err
	}
	p.logger.Debug("Parsed game state", "rows", grid.Rows, "cols", grid.Cols, "units", len(payload.State.Units))
	return payload, nil
}

// ParseCombatResult decodes an engagement delta
func (p *Parser) ParseCombatResult(env streaming.Envelope) (streaming.CombatResultPayload, error) {
	payload, err := decode[streaming.CombatResultPayload](env, streaming.TypeCombatResult)
	if err != nil {
		return payload, err
	}
	for _, u := range payload.UpdatedUnits {
		if err := checkHealth(u.ID, u.Health); err != nil {
			return payload, err
		}
		if err := p.checkHex(core.Hex{Row: u.Row, Col: u.Col}); err != nil {
			return payload, err
		}
	}
	return payload, nil
}

func (p *Parser) checkSnapshot(snap core.Snapshot) error {
	if math.IsNaN(snap.GameTimeInMinutes) || snap.GameTimeInMinutes < 0 {
		return fmt.Errorf("%w: invalid game time %v", ErrInvalidPayload, snap.GameTimeInMinutes)
	}
	seen := make(map[int]bool, len(snap.Units))
	for _, u := range snap.Units {
		if seen[u.ID] {
			return fmt.Errorf("%w: duplicate unit id %d", ErrInvalidPayload, u.ID)
		}
		seen[u.ID] = true
		if err := checkUnit(u); err != nil {
			return err
		}
		if err := p.checkHex(u.Pos()); err != nil {
			return err
		}
		if t := u.Target(); t != nil {
			if err := p.checkHex(*t); err != nil {
				return err
			}
		}
	}
	for _, h := range snap.CombatHexes {
		if err := p.checkHex(h); err != nil {
			return err
		}
	}
	return nil
}

func checkUnit(u core.UnitState) error {
	if !u.Type.Valid() {
		return fmt.Errorf("%w: unit %d has unknown type %d", ErrInvalidPayload, u.ID, int(u.Type))
	}
	if err := checkSide(u.Side); err != nil {
		return err
	}
	if err := checkHealth(u.ID, u.Health); err != nil {
		return err
	}
	if u.Health > rules.MaxHealth(u.Type) {
		return fmt.Errorf("%w: unit %d health %.2f above maximum", ErrInvalidPayload, u.ID, u.Health)
	}
	return nil
}

func checkHealth(id int, health float64) error {
	if math.IsNaN(health) || health < 0 {
		return fmt.Errorf("%w: unit %d has negative health", ErrInvalidPayload, id)
	}
	return nil
}
