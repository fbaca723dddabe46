package convert

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/hexfront/engine/internal/model"
	"github.com/hexfront/engine/pkg/core"
)

// idsToJSON stores a list of unit ids; nil becomes an empty array
func idsToJSON(ids []int) (datatypes.JSON, error) {
	if ids == nil {
		ids = []int{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// GameToGorm converts a core.GameInfo to a GORM Game
func GameToGorm(g core.GameInfo) model.Game {
	return model.Game{
		SessionID: g.ID,
		Side:      string(g.Side),
		Rows:      g.Rows,
		Cols:      g.Cols,
		Seed:      g.Seed,
		StartTime: g.StartTime,
	}
}

// OrderToGorm converts a core.OrderEvent to a GORM Order
func OrderToGorm(gameID uint, e core.OrderEvent) model.Order {
	return model.Order{
		Time:        e.Time,
		GameID:      gameID,
		GameMinutes: e.GameMinutes,
		UnitID:      e.UnitID,
		Side:        string(e.Side),
		FromRow:     e.From.Row,
		FromCol:     e.From.Col,
		TargetRow:   e.Target.Row,
		TargetCol:   e.Target.Col,
		Remote:      e.Remote,
	}
}

// EngagementToGorm converts a core.EngagementEvent to a GORM Engagement
func EngagementToGorm(gameID uint, e core.EngagementEvent) (model.Engagement, error) {
	attackers, err := idsToJSON(e.AttackerIDs)
	if err != nil {
		return model.Engagement{}, fmt.Errorf("attackers: %w", err)
	}
	defenders, err := idsToJSON(e.DefenderIDs)
	if err != nil {
		return model.Engagement{}, fmt.Errorf("defenders: %w", err)
	}
	eliminated, err := idsToJSON(e.EliminatedIDs)
	if err != nil {
		return model.Engagement{}, fmt.Errorf("eliminated: %w", err)
	}
	return model.Engagement{
		Time:         e.Time,
		GameID:       gameID,
		GameMinutes:  e.GameMinutes,
		AttackerSide: string(e.AttackerSide),
		Attackers:    attackers,
		Defenders:    defenders,
		AttackTotal:  e.AttackTotal,
		DefenseTotal: e.DefenseTotal,
		Outcome:      string(e.Outcome),
		Target:       string(e.Target),
		Damage:       e.Damage,
		Eliminated:   eliminated,
	}, nil
}

// EliminationToGorm converts a core.EliminationEvent to a GORM Elimination
func EliminationToGorm(gameID uint, e core.EliminationEvent) model.Elimination {
	return model.Elimination{
		Time:        e.Time,
		GameID:      gameID,
		GameMinutes: e.GameMinutes,
		UnitID:      e.UnitID,
		UnitType:    e.Type.String(),
		Side:        string(e.Side),
		Row:         e.Pos.Row,
		Col:         e.Pos.Col,
	}
}

// SyncToGorm converts a core.SyncEvent to a GORM SyncRecord
func SyncToGorm(gameID uint, e core.SyncEvent) model.SyncRecord {
	return model.SyncRecord{
		Time:           e.Time,
		GameID:         gameID,
		SequenceNumber: e.SequenceNumber,
		Units:          e.Units,
		Applied:        e.Applied,
	}
}
