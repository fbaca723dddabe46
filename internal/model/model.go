package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the journal schema
var DatabaseModels = []interface{}{
	&Game{},
	&Order{},
	&Engagement{},
	&Elimination{},
	&SyncRecord{},
}

////////////////////////
// SESSION MODELS
////////////////////////

// Game is one session between two peers, seen from the local side
type Game struct {
	gorm.Model
	SessionID string       `json:"sessionId" gorm:"size:64;uniqueIndex"`
	Side      string       `json:"side" gorm:"size:8"`
	Rows      int          `json:"rows"`
	Cols      int          `json:"cols"`
	Seed      int64        `json:"seed"`
	StartTime time.Time    `json:"startTime"`
	EndTime   sql.NullTime `json:"endTime"`
	Ended     bool         `json:"ended"`
	Winner    string       `json:"winner" gorm:"size:8"`
}

func (*Game) TableName() string {
	return "games"
}

////////////////////////
// EVENT MODELS
////////////////////////

// Order is a move order, local or received from the other peer
type Order struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time        time.Time `json:"time" gorm:"index:idx_order_time"`
	GameID      uint      `json:"gameId" gorm:"index:idx_order_game_id"`
	Game        Game      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:GameID;"`
	GameMinutes float64   `json:"gameMinutes"`
	UnitID      int       `json:"unitId"`
	Side        string    `json:"side" gorm:"size:8"`
	FromRow     int       `json:"fromRow"`
	FromCol     int       `json:"fromCol"`
	TargetRow   int       `json:"targetRow"`
	TargetCol   int       `json:"targetCol"`
	Remote      bool      `json:"remote"`
}

func (*Order) TableName() string {
	return "orders"
}

// Engagement is one resolved fight. Participant ids are stored as JSON arrays.
type Engagement struct {
	ID           uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time         time.Time      `json:"time" gorm:"index:idx_engagement_time"`
	GameID       uint           `json:"gameId" gorm:"index:idx_engagement_game_id"`
	Game         Game           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:GameID;"`
	GameMinutes  float64        `json:"gameMinutes"`
	AttackerSide string         `json:"attackerSide" gorm:"size:8"`
	Attackers    datatypes.JSON `json:"attackers"`
	Defenders    datatypes.JSON `json:"defenders"`
	AttackTotal  float64        `json:"attackTotal"`
	DefenseTotal float64        `json:"defenseTotal"`
	Outcome      string         `json:"outcome" gorm:"size:16"`
	Target       string         `json:"target" gorm:"size:16"`
	Damage       float64        `json:"damage"`
	Eliminated   datatypes.JSON `json:"eliminated"`
}

func (*Engagement) TableName() string {
	return "engagements"
}

// Elimination is a unit removed by combat
type Elimination struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time        time.Time `json:"time"`
	GameID      uint      `json:"gameId" gorm:"index:idx_elimination_game_id"`
	Game        Game      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:GameID;"`
	GameMinutes float64   `json:"gameMinutes"`
	UnitID      int       `json:"unitId"`
	UnitType    string    `json:"unitType" gorm:"size:16"`
	Side        string    `json:"side" gorm:"size:8"`
	Row         int       `json:"row"`
	Col         int       `json:"col"`
}

func (*Elimination) TableName() string {
	return "eliminations"
}

// SyncRecord is a snapshot sent by the authority or applied by the follower
type SyncRecord struct {
	ID             uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time           time.Time `json:"time"`
	GameID         uint      `json:"gameId" gorm:"index:idx_sync_game_id"`
	Game           Game      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:GameID;"`
	SequenceNumber uint64    `json:"sequenceNumber"`
	Units          int       `json:"units"`
	Applied        bool      `json:"applied"`
}

func (*SyncRecord) TableName() string {
	return "sync_records"
}
