// pkg/core/events.go
package core

import (
	"time"
)

// OrderEvent records a move order given to a unit.
type OrderEvent struct {
	Time        time.Time
	GameMinutes float64
	UnitID      int
	Side        Side
	From        Hex
	Target      Hex
	Remote      bool // order arrived over the wire
}

// Outcome is the result category of an engagement.
type Outcome string

const (
	AttackerWins Outcome = "attacker"
	DefenderWins Outcome = "defender"
	Draw         Outcome = "draw"
)

// DamageTarget names which side of an engagement took damage.
type DamageTarget string

const (
	DamageAttacker DamageTarget = "attacker"
	DamageDefender DamageTarget = "defender"
	DamageBoth     DamageTarget = "both"
)

// EngagementEvent records one resolved engagement.
type EngagementEvent struct {
	Time          time.Time
	GameMinutes   float64
	AttackerSide  Side
	AttackerIDs   []int
	DefenderIDs   []int
	AttackTotal   float64
	DefenseTotal  float64
	Outcome       Outcome
	Target        DamageTarget
	Damage        float64
	EliminatedIDs []int
}

// EliminationEvent records a unit removed from the roster.
type EliminationEvent struct {
	Time        time.Time
	GameMinutes float64
	UnitID      int
	Type        UnitType
	Side        Side
	Pos         Hex
}

// SyncEvent records a snapshot sent or applied.
type SyncEvent struct {
	Time           time.Time
	SequenceNumber uint64
	Units          int
	Applied        bool
}
