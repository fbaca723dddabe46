package streaming

import (
	"encoding/json"
	"fmt"

	"github.com/hexfront/engine/pkg/core"
)

// Message type constants of the game protocol.
const (
	TypeAssignColor        = "ASSIGN_COLOR"
	TypeRedPlayerConnected = "RED_PLAYER_CONNECTED"
	TypePlayerLeft         = "PLAYER_LEFT"
	TypeChatMessage        = "CHAT_MESSAGE"
	TypeMoveOrder          = "MOVE_ORDER"
	TypeStateSync          = "STATE_SYNC"
	TypeCombatResult       = "COMBAT_RESULT"
	TypePlaySound          = "PLAY_SOUND"
	TypeGameOver           = "GAME_OVER"
	TypeError              = "ERROR"
	TypeGameState          = "GAME_STATE"
)

// SoundTrumpet is the cue played when fresh units join a fight.
const SoundTrumpet = "trumpet"

// ErrGameFull is the message sent to a third connection.
const ErrGameFull = "Game already full."

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into an envelope of type t. A nil payload leaves it empty.
func NewEnvelope(t string, payload any) (Envelope, error) {
	env := Envelope{Type: t}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	env.Payload = data
	return env, nil
}

// Encode marshals an envelope of type t for the wire.
func Encode(t string, payload any) ([]byte, error) {
	env, err := NewEnvelope(t, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// AssignColorPayload tells a peer which army it commands.
type AssignColorPayload struct {
	Color core.Side `json:"color"`
}

// PlayerLeftPayload names the army whose peer disconnected.
type PlayerLeftPayload struct {
	Army core.Side `json:"army"`
}

// ChatPayload is free text between the two peers.
type ChatPayload struct {
	From core.Side `json:"from"`
	Text string    `json:"text"`
}

// MoveOrderPayload sets a unit destination.
type MoveOrderPayload struct {
	UnitID    int `json:"unitId"`
	TargetRow int `json:"targetRow"`
	TargetCol int `json:"targetCol"`
}

// Target returns the ordered hex.
func (p MoveOrderPayload) Target() core.Hex {
	return core.Hex{Row: p.TargetRow, Col: p.TargetCol}
}

// StateSyncPayload carries a periodic authoritative snapshot.
type StateSyncPayload struct {
	State core.Snapshot `json:"state"`
}

// CombatUnit is the post-combat state of a surviving participant.
type CombatUnit struct {
	ID     int     `json:"id"`
	Health float64 `json:"health"`
	Row    int     `json:"row"`
	Col    int     `json:"col"`
}

// CombatResultPayload is the delta produced by one engagement.
type CombatResultPayload struct {
	UpdatedUnits      []CombatUnit `json:"updatedUnits"`
	EliminatedUnitIDs []int        `json:"eliminatedUnitIds"`
}

// PlaySoundPayload triggers a cosmetic cue.
type PlaySoundPayload struct {
	Sound string `json:"sound"`
}

// GameOverPayload names the winning army.
type GameOverPayload struct {
	Outcome core.Side `json:"outcome"`
}

// ErrorPayload carries a session or protocol rejection.
type ErrorPayload struct {
	Message string `json:"message"`
}

// GameStatePayload is the initial full state including the terrain.
type GameStatePayload struct {
	State core.Snapshot `json:"state"`
	Seed  int64         `json:"seed,omitempty"`
}
