// Package convert maps between journal events and their GORM rows
package convert

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/hexfront/engine/internal/model"
	"github.com/hexfront/engine/pkg/core"
)

func idsFromJSON(data datatypes.JSON) ([]int, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// unitTypeFromName is the inverse of core.UnitType.String
func unitTypeFromName(name string) (core.UnitType, bool) {
	for _, t := range core.UnitTypes {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// OrderToCore converts a GORM Order to a core.OrderEvent
func OrderToCore(o model.Order) core.OrderEvent {
	return core.OrderEvent{
		Time:        o.Time,
		GameMinutes: o.GameMinutes,
		UnitID:      o.UnitID,
		Side:        core.Side(o.Side),
		From:        core.Hex{Row: o.FromRow, Col: o.FromCol},
		Target:      core.Hex{Row: o.TargetRow, Col: o.TargetCol},
		Remote:      o.Remote,
	}
}

// EngagementToCore converts a GORM Engagement to a core.EngagementEvent
func EngagementToCore(e model.Engagement) (core.EngagementEvent, error) {
	attackers, err := idsFromJSON(e.Attackers)
	if err != nil {
		return core.EngagementEvent{}, fmt.Errorf("attackers: %w", err)
	}
	defenders, err := idsFromJSON(e.Defenders)
	if err != nil {
		return core.EngagementEvent{}, fmt.Errorf("defenders: %w", err)
	}
	eliminated, err := idsFromJSON(e.Eliminated)
	if err != nil {
		return core.EngagementEvent{}, fmt.Errorf("eliminated: %w", err)
	}
	return core.EngagementEvent{
		Time:          e.Time,
		GameMinutes:   e.GameMinutes,
		AttackerSide:  core.Side(e.AttackerSide),
		AttackerIDs:   attackers,
		DefenderIDs:   defenders,
		AttackTotal:   e.AttackTotal,
		DefenseTotal:  e.DefenseTotal,
		Outcome:       core.Outcome(e.Outcome),
		Target:        core.DamageTarget(e.Target),
		Damage:        e.Damage,
		EliminatedIDs: eliminated,
	}, nil
}

// EliminationToCore converts a GORM Elimination to a core.EliminationEvent
func EliminationToCore(e model.Elimination) (core.EliminationEvent, error) {
	t, ok := unitTypeFromName(e.UnitType)
	if !ok {
		return core.EliminationEvent{}, fmt.Errorf("unknown unit type %q", e.UnitType)
	}
	return core.EliminationEvent{
		Time:        e.Time,
		GameMinutes: e.GameMinutes,
		UnitID:      e.UnitID,
		Type:        t,
		Side:        core.Side(e.Side),
		Pos:         core.Hex{Row: e.Row, Col: e.Col},
	}, nil
}
