// pkg/core/unit.go
package core

import "fmt"

// UnitType identifies the kind of unit and its rules profile.
type UnitType int

const (
	Infantry UnitType = iota
	Artillery
	Cavalry
	Supply
	Spy
	General
)

var unitTypeNames = map[UnitType]string{
	Infantry:  "infantry",
	Artillery: "artillery",
	Cavalry:   "cavalry",
	Supply:    "supply",
	Spy:       "spy",
	General:   "general",
}

func (t UnitType) String() string {
	if name, ok := unitTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unit(%d)", int(t))
}

// Valid reports whether t is one of the known unit types.
func (t UnitType) Valid() bool {
	_, ok := unitTypeNames[t]
	return ok
}

// UnitTypes lists every unit type in enum order.
var UnitTypes = []UnitType{Infantry, Artillery, Cavalry, Supply, Spy, General}

// Side is one of the two armies. Blue is always the authority.
type Side string

const (
	Blue Side = "blue"
	Red  Side = "red"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == Blue {
		return Red
	}
	return Blue
}

// Valid reports whether s names one of the two armies.
func (s Side) Valid() bool {
	return s == Blue || s == Red
}

// Unit is a live unit in the roster.
type Unit struct {
	ID       int
	Type     UnitType
	Side     Side
	Pos      Hex
	Health   float64
	Target   *Hex
	Previous Hex
}

// Alive reports whether the unit still has health.
func (u *Unit) Alive() bool {
	return u != nil && u.Health > 0
}

// HasOrder reports whether the unit has a target different from its position.
func (u *Unit) HasOrder() bool {
	return u.Target != nil && *u.Target != u.Pos
}

// ClearOrder drops the target and resets the previous hex to the current one.
func (u *Unit) ClearOrder() {
	u.Target = nil
	u.Previous = u.Pos
}

// State converts the unit to its wire representation.
func (u *Unit) State() UnitState {
	s := UnitState{
		ID:          u.ID,
		Type:        u.Type,
		Side:        u.Side,
		Row:         u.Pos.Row,
		Col:         u.Pos.Col,
		Health:      u.Health,
		PreviousRow: u.Previous.Row,
		PreviousCol: u.Previous.Col,
	}
	if u.Target != nil {
		row, col := u.Target.Row, u.Target.Col
		s.TargetRow = &row
		s.TargetCol = &col
	}
	return s
}

// UnitState is the wire shape of a unit inside snapshots.
type UnitState struct {
	ID          int      `json:"id"`
	Type        UnitType `json:"type"`
	Side        Side     `json:"side"`
	Row         int      `json:"row"`
	Col         int      `json:"col"`
	Health      float64  `json:"health"`
	TargetRow   *int     `json:"targetRow"`
	TargetCol   *int     `json:"targetCol"`
	PreviousRow int      `json:"previousRow"`
	PreviousCol int      `json:"previousCol"`
}

// Pos returns the hex the state refers to.
func (s UnitState) Pos() Hex {
	return Hex{Row: s.Row, Col: s.Col}
}

// Target returns the target hex, or nil when either coordinate is missing.
func (s UnitState) Target() *Hex {
	if s.TargetRow == nil || s.TargetCol == nil {
		return nil
	}
	return &Hex{Row: *s.TargetRow, Col: *s.TargetCol}
}

// Unit converts the wire state back to a roster unit.
func (s UnitState) Unit() *Unit {
	return &Unit{
		ID:       s.ID,
		Type:     s.Type,
		Side:     s.Side,
		Pos:      s.Pos(),
		Health:   s.Health,
		Target:   s.Target(),
		Previous: Hex{Row: s.PreviousRow, Col: s.PreviousCol},
	}
}
