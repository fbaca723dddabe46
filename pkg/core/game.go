// pkg/core/game.go
package core

import "time"

// GameInfo describes a running game session.
type GameInfo struct {
	ID        string
	Side      Side // side of the local peer
	Rows      int
	Cols      int
	Seed      int64
	StartTime time.Time
}

// Snapshot is a full authoritative state, sent periodically to the follower.
type Snapshot struct {
	SequenceNumber    uint64      `json:"sequenceNumber"`
	GameTimeInMinutes float64     `json:"gameTimeInMinutes"`
	Map               [][]Terrain `json:"map,omitempty"`
	Rows              int         `json:"rows"`
	Cols              int         `json:"cols"`
	Units             []UnitState `json:"units"`
	CombatHexes       []Hex       `json:"combatHexes"`
}

// JournalSummary counts what a journal recorded for the current game.
type JournalSummary struct {
	GameID       string    `json:"gameId"`
	Orders       int       `json:"orders"`
	Engagements  int       `json:"engagements"`
	Eliminations int       `json:"eliminations"`
	Syncs        int       `json:"syncs"`
	Winner       Side      `json:"winner,omitempty"`
	Ended        bool      `json:"ended"`
	StartTime    time.Time `json:"startTime"`
}
