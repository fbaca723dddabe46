package streaming

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfront/engine/pkg/core"
)

func TestEncode_WireShape(t *testing.T) {
	data, err := Encode(TypeMoveOrder, MoveOrderPayload{UnitID: 4, TargetRow: 2, TargetCol: 5})
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"MOVE_ORDER","payload":{"unitId":4,"targetRow":2,"targetCol":5}}`, string(data))
}

func TestEncode_NoPayload(t *testing.T) {
	data, err := Encode(TypeRedPlayerConnected, nil)
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"RED_PLAYER_CONNECTED"}`, string(data))
}

func TestNewEnvelope_MarshalError(t *testing.T) {
	_, err := NewEnvelope(TypeChatMessage, make(chan int))
	assert.Error(t, err)
}

func TestStateSync_TargetIsNullable(t *testing.T) {
	row, col := 3, 4
	payload := StateSyncPayload{State: core.Snapshot{
		SequenceNumber: 9,
		Units: []core.UnitState{
			{ID: 1, Type: core.Cavalry, Side: core.Red, Health: 15},
			{ID: 2, Type: core.Spy, Side: core.Blue, Health: 5, TargetRow: &row, TargetCol: &col},
		},
	}}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded StateSyncPayload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded.State.Units[0].Target())
	assert.Equal(t, &core.Hex{Row: 3, Col: 4}, decoded.State.Units[1].Target())
	assert.Contains(t, string(data), `"targetRow":null`)
}
