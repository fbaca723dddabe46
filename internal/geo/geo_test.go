package geo

import (
	"errors"
	"testing"

	"github.com/hexfront/engine/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexFromString_Valid(t *testing.T) {
	h, err := HexFromString("2, 5")
	require.NoError(t, err)
	assert.Equal(t, core.Hex{Row: 2, Col: 5}, h)
}

func TestHexFromString_Invalid(t *testing.T) {
	for _, input := range []string{"", "2", "a,b", "1,2,3", "1,"} {
		_, err := HexFromString(input)
		if !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("input %q: expected ErrInvalidCoordinates, got %v", input, err)
		}
	}
}

func TestNeighbors_EvenRow(t *testing.T) {
	got := Neighbors(core.Hex{Row: 2, Col: 2}, 10, 10)
	assert.Equal(t, []core.Hex{
		{Row: 1, Col: 1}, {Row: 1, Col: 2},
		{Row: 2, Col: 1}, {Row: 2, Col: 3},
		{Row: 3, Col: 1}, {Row: 3, Col: 2},
	}, got)
}

func TestNeighbors_OddRow(t *testing.T) {
	got := Neighbors(core.Hex{Row: 3, Col: 2}, 10, 10)
	assert.Equal(t, []core.Hex{
		{Row: 2, Col: 2}, {Row: 2, Col: 3},
		{Row: 3, Col: 1}, {Row: 3, Col: 3},
		{Row: 4, Col: 2}, {Row: 4, Col: 3},
	}, got)
}

func TestNeighbors_Corner(t *testing.T) {
	got := Neighbors(core.Hex{Row: 0, Col: 0}, 10, 10)
	assert.ElementsMatch(t, []core.Hex{{Row: 0, Col: 1}, {Row: 1, Col: 0}}, got)
}

func TestNeighbors_AreAtDistanceOne(t *testing.T) {
	for r := 0; r < 6; r++ {
		for c := 0; c < 6; c++ {
			h := core.Hex{Row: r, Col: c}
			for _, n := range Neighbors(h, 6, 6) {
				assert.Equal(t, 1, Distance(h, n), "%v -> %v", h, n)
				assert.True(t, Adjacent(n, h))
			}
		}
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b core.Hex
		want int
	}{
		{core.Hex{Row: 2, Col: 2}, core.Hex{Row: 2, Col: 5}, 3},
		{core.Hex{Row: 0, Col: 0}, core.Hex{Row: 0, Col: 0}, 0},
		{core.Hex{Row: 0, Col: 0}, core.Hex{Row: 1, Col: 0}, 1},
		{core.Hex{Row: 0, Col: 0}, core.Hex{Row: 1, Col: 1}, 2},
		{core.Hex{Row: 1, Col: 0}, core.Hex{Row: 2, Col: 1}, 1},
		{core.Hex{Row: 0, Col: 0}, core.Hex{Row: 4, Col: 0}, 4},
		{core.Hex{Row: 0, Col: 0}, core.Hex{Row: 4, Col: 2}, 4},
		{core.Hex{Row: 0, Col: 0}, core.Hex{Row: 4, Col: 3}, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Distance(tt.a, tt.b), "%v -> %v", tt.a, tt.b)
		assert.Equal(t, tt.want, Distance(tt.b, tt.a), "%v -> %v", tt.b, tt.a)
	}
}

func TestWithinRange(t *testing.T) {
	center := core.Hex{Row: 5, Col: 5}
	assert.Len(t, WithinRange(center, 0, 12, 12), 1)
	assert.Len(t, WithinRange(center, 1, 12, 12), 7)
	assert.Len(t, WithinRange(center, 2, 12, 12), 19)
	assert.Empty(t, WithinRange(center, -1, 12, 12))

	for _, h := range WithinRange(center, 3, 12, 12) {
		assert.LessOrEqual(t, Distance(center, h), 3)
	}
}

func TestWithinRange_ClipsToGrid(t *testing.T) {
	got := WithinRange(core.Hex{Row: 0, Col: 0}, 1, 5, 5)
	assert.ElementsMatch(t, []core.Hex{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 0}}, got)
}
