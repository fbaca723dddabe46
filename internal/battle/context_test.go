package battle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfront/engine/pkg/core"
)

func newTestContext(t *testing.T, units ...*core.Unit) *Context {
	t.Helper()
	ctx := NewContext(core.NewGrid(10, 10, core.Flat))
	for _, u := range units {
		require.NoError(t, ctx.Add(u))
	}
	return ctx
}

func infantry(id int, side core.Side, row, col int) *core.Unit {
	pos := core.Hex{Row: row, Col: col}
	return &core.Unit{ID: id, Type: core.Infantry, Side: side, Pos: pos, Previous: pos, Health: 12}
}

func TestContext_AddAndLookup(t *testing.T) {
	ctx := newTestContext(t, infantry(3, core.Blue, 1, 1), infantry(1, core.Red, 8, 8))

	u, ok := ctx.Unit(3)
	require.True(t, ok)
	assert.Equal(t, core.Blue, u.Side)

	at, ok := ctx.UnitAt(core.Hex{Row: 8, Col: 8})
	require.True(t, ok)
	assert.Equal(t, 1, at.ID)

	ids := []int{}
	for _, u := range ctx.Units() {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []int{1, 3}, ids)
	assert.Equal(t, 4, ctx.NextID())
}

func TestContext_AddRejects(t *testing.T) {
	ctx := newTestContext(t, infantry(0, core.Blue, 1, 1))

	err := ctx.Add(infantry(1, core.Red, 1, 1))
	assert.True(t, errors.Is(err, ErrOccupied))

	err = ctx.Add(infantry(2, core.Red, 20, 1))
	assert.True(t, errors.Is(err, ErrOutOfGrid))

	assert.Error(t, ctx.Add(infantry(0, core.Red, 2, 2)), "duplicate id")

	dead := infantry(5, core.Red, 3, 3)
	dead.Health = 0
	assert.Error(t, ctx.Add(dead))
}

func TestContext_MoveUnit(t *testing.T) {
	ctx := newTestContext(t, infantry(0, core.Blue, 1, 1), infantry(1, core.Blue, 1, 3))

	require.NoError(t, ctx.MoveUnit(0, core.Hex{Row: 1, Col: 2}))
	u, _ := ctx.Unit(0)
	assert.Equal(t, core.Hex{Row: 1, Col: 2}, u.Pos)
	assert.Equal(t, core.Hex{Row: 1, Col: 1}, u.Previous)

	_, ok := ctx.UnitAt(core.Hex{Row: 1, Col: 1})
	assert.False(t, ok)

	err := ctx.MoveUnit(0, core.Hex{Row: 1, Col: 3})
	assert.True(t, errors.Is(err, ErrOccupied))

	err = ctx.MoveUnit(42, core.Hex{Row: 0, Col: 0})
	assert.True(t, errors.Is(err, ErrUnknownUnit))
}

func TestContext_MoveOntoDeadUnit(t *testing.T) {
	ctx := newTestContext(t, infantry(0, core.Blue, 1, 1), infantry(1, core.Red, 1, 2))
	ctx.Damage(1, 100)

	require.NoError(t, ctx.MoveUnit(0, core.Hex{Row: 1, Col: 2}))
	at, ok := ctx.UnitAt(core.Hex{Row: 1, Col: 2})
	require.True(t, ok)
	assert.Equal(t, 0, at.ID)
}

func TestContext_DamageFloorsAtZero(t *testing.T) {
	ctx := newTestContext(t, infantry(0, core.Blue, 1, 1))

	loss, dead := ctx.Damage(0, 5)
	assert.InDelta(t, 5.0, loss, 1e-9)
	assert.False(t, dead)

	loss, dead = ctx.Damage(0, 50)
	assert.InDelta(t, 7.0, loss, 1e-9)
	assert.True(t, dead)

	u, _ := ctx.Unit(0)
	assert.Equal(t, 0.0, u.Health)
	assert.Empty(t, ctx.Living())
}

func TestContext_HealCapsAtMax(t *testing.T) {
	ctx := newTestContext(t, infantry(0, core.Blue, 1, 1))
	ctx.Damage(0, 2)

	gain := ctx.Heal(0, 5)
	assert.InDelta(t, 2.0, gain, 1e-9)
	u, _ := ctx.Unit(0)
	assert.Equal(t, 12.0, u.Health)
	assert.Zero(t, ctx.Heal(0, 1))
}

func TestContext_Remove(t *testing.T) {
	ctx := newTestContext(t, infantry(0, core.Blue, 1, 1))

	u, ok := ctx.Remove(0)
	require.True(t, ok)
	assert.Equal(t, 0, u.ID)

	_, ok = ctx.UnitAt(core.Hex{Row: 1, Col: 1})
	assert.False(t, ok)
	_, ok = ctx.Remove(0)
	assert.False(t, ok)
}

func TestContext_ReplaceUnits(t *testing.T) {
	ctx := newTestContext(t, infantry(0, core.Blue, 1, 1), infantry(1, core.Blue, 1, 2))

	// swap positions, which a sequential move could not do
	err := ctx.ReplaceUnits([]*core.Unit{infantry(0, core.Blue, 1, 2), infantry(1, core.Blue, 1, 1)})
	require.NoError(t, err)

	at, _ := ctx.UnitAt(core.Hex{Row: 1, Col: 1})
	assert.Equal(t, 1, at.ID)

	err = ctx.ReplaceUnits([]*core.Unit{infantry(0, core.Blue, 1, 2), infantry(1, core.Blue, 1, 2)})
	assert.True(t, errors.Is(err, ErrOccupied))
	assert.Len(t, ctx.Units(), 1)
}

func TestContext_CombatHexes(t *testing.T) {
	ctx := newTestContext(t)
	ctx.MarkCombat(core.Hex{Row: 3, Col: 1})
	ctx.MarkCombat(core.Hex{Row: 1, Col: 5})
	ctx.MarkCombat(core.Hex{Row: 1, Col: 2})

	assert.Equal(t, []core.Hex{{Row: 1, Col: 2}, {Row: 1, Col: 5}, {Row: 3, Col: 1}}, ctx.CombatHexes())

	ctx.ClearCombatHexes()
	assert.Empty(t, ctx.CombatHexes())

	ctx.SetCombatHexes([]core.Hex{{Row: 0, Col: 0}})
	assert.Len(t, ctx.CombatHexes(), 1)
}

func TestContext_EndOnce(t *testing.T) {
	ctx := newTestContext(t)

	assert.True(t, ctx.End(core.Red))
	assert.False(t, ctx.End(core.Blue))
	assert.Equal(t, core.Red, ctx.Winner)
}

func TestContext_Snapshot(t *testing.T) {
	ctx := newTestContext(t, infantry(0, core.Blue, 1, 1), infantry(1, core.Red, 8, 8))
	target := core.Hex{Row: 2, Col: 2}
	u, _ := ctx.Unit(0)
	u.Target = &target
	ctx.Advance(12.5)
	ctx.Advance(-3)

	snap := ctx.Snapshot(7, false)
	assert.Equal(t, uint64(7), snap.SequenceNumber)
	assert.Equal(t, 12.5, snap.GameTimeInMinutes)
	assert.Nil(t, snap.Map)
	require.Len(t, snap.Units, 2)
	assert.Equal(t, &target, snap.Units[0].Target())
	assert.Nil(t, snap.Units[1].Target())

	assert.Len(t, ctx.Snapshot(8, true).Map, 10)
}

func TestContext_Count(t *testing.T) {
	ctx := newTestContext(t, infantry(0, core.Blue, 1, 1), infantry(1, core.Red, 8, 8), infantry(2, core.Red, 8, 6))

	assert.Equal(t, map[core.Side]int{core.Blue: 1, core.Red: 2}, ctx.Count())
	assert.Len(t, ctx.Side(core.Red), 2)
}
