package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfront/engine/internal/engine"
	"github.com/hexfront/engine/pkg/core"
)

type order struct {
	id     int
	target core.Hex
}

type fakeCommander struct {
	orders []order
	err    error
	status engine.Status
}

func (f *fakeCommander) Order(id int, target core.Hex) error {
	if f.err != nil {
		return f.err
	}
	f.orders = append(f.orders, order{id, target})
	return nil
}

func (f *fakeCommander) Status() engine.Status { return f.status }

type fakeChat struct{ lines []string }

func (f *fakeChat) Say(text string) error {
	f.lines = append(f.lines, text)
	return nil
}

func TestExecute_Move(t *testing.T) {
	eng := &fakeCommander{}
	reply, err := execute("move 4 10 12", eng, &fakeChat{})
	require.NoError(t, err)
	assert.Equal(t, "unit 4 ordered to 10,12", reply)
	assert.Equal(t, []order{{4, core.Hex{Row: 10, Col: 12}}}, eng.orders)
}

func TestExecute_MoveErrors(t *testing.T) {
	eng := &fakeCommander{}
	_, err := execute("move 4 10", eng, &fakeChat{})
	assert.Error(t, err)
	_, err = execute("move a 1 2", eng, &fakeChat{})
	assert.Error(t, err)

	eng.err = engine.ErrWrongSide
	_, err = execute("MOVE 1 2 3", eng, &fakeChat{})
	assert.ErrorIs(t, err, engine.ErrWrongSide)
	assert.Empty(t, eng.orders)
}

func TestExecute_Say(t *testing.T) {
	chat := &fakeChat{}
	_, err := execute("say  hold the ridge ", &fakeCommander{}, chat)
	require.NoError(t, err)
	assert.Equal(t, []string{"hold the ridge"}, chat.lines)

	_, err = execute("say", &fakeCommander{}, chat)
	assert.Error(t, err)
}

func TestExecute_Unknown(t *testing.T) {
	_, err := execute("retreat", &fakeCommander{}, &fakeChat{})
	assert.True(t, errors.Is(err, errUnknownCommand))
}

func TestFormatStatus(t *testing.T) {
	got := formatStatus(engine.Status{
		Side:           core.Blue,
		Authority:      true,
		GameMinutes:    6*60 + 45.7,
		Sequence:       12,
		Alive:          map[core.Side]int{core.Red: 20, core.Blue: 23},
		Pending:        3,
		VisibleEnemies: 2,
	})
	assert.Equal(t, "blue (authority) day 1 06:45 seq=12 blue=23 red=20 moving=3 visibleEnemies=2", got)

	got = formatStatus(engine.Status{Side: core.Red, GameMinutes: 1440 + 60, GameOver: true, Winner: core.Red})
	assert.Equal(t, "red day 2 01:00 seq=0 moving=0 visibleEnemies=0 winner=red", got)

	got = formatStatus(engine.Status{Side: core.Red, GameOver: true})
	assert.True(t, strings.HasSuffix(got, " aborted"), got)
}

func TestRunCommands(t *testing.T) {
	eng := &fakeCommander{status: engine.Status{Side: core.Red}}
	chat := &fakeChat{}
	in := strings.NewReader("move 1 2 3\n\nbogus\nsay hi\nstatus\n")
	var out bytes.Buffer

	require.NoError(t, runCommands(context.Background(), in, &out, eng, chat))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "unit 1 ordered to 2,3", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "error: unknown command"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "red day 1 00:00"), lines[2])
	assert.Equal(t, []string{"hi"}, chat.lines)
}

func TestRunCommands_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runCommands(ctx, strings.NewReader("status\n"), &bytes.Buffer{}, &fakeCommander{}, &fakeChat{})
	assert.ErrorIs(t, err, context.Canceled)
}
