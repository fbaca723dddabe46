package geo

import (
	"errors"
	"strconv"
	"strings"

	"github.com/hexfront/engine/pkg/core"
)

// HEX GEOMETRY
// Offset coordinates, pointy-top hexes, odd rows shifted right. Distances are computed
// in cube space after converting to axial (q = col - floor(row/2), r = row).

// ErrInvalidCoordinates is returned when a hex string cannot be parsed
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

var (
	evenRowOffsets = [6][2]int{{-1, -1}, {-1, 0}, {0, -1}, {0, 1}, {1, -1}, {1, 0}}
	oddRowOffsets  = [6][2]int{{-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, 0}, {1, 1}}
)

// HexFromString parses "row,col" into a hex
func HexFromString(coords string) (core.Hex, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.Hex{}, ErrInvalidCoordinates
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return core.Hex{}, ErrInvalidCoordinates
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return core.Hex{}, ErrInvalidCoordinates
	}
	return core.Hex{Row: row, Col: col}, nil
}

// InBounds reports whether h lies in a rows x cols grid
func InBounds(h core.Hex, rows, cols int) bool {
	return h.Row >= 0 && h.Row < rows && h.Col >= 0 && h.Col < cols
}

// Neighbors returns the in-bounds neighbors of h in a fixed order
func Neighbors(h core.Hex, rows, cols int) []core.Hex {
	offsets := evenRowOffsets
	if h.Row&1 == 1 {
		offsets = oddRowOffsets
	}
	out := make([]core.Hex, 0, 6)
	for _, o := range offsets {
		n := core.Hex{Row: h.Row + o[0], Col: h.Col + o[1]}
		if InBounds(n, rows, cols) {
			out = append(out, n)
		}
	}
	return out
}

// Adjacent reports whether a and b share an edge
func Adjacent(a, b core.Hex) bool {
	return Distance(a, b) == 1
}

// toCube converts an offset hex to cube coordinates
func toCube(h core.Hex) (x, y, z int) {
	// floor division for negative rows
	q := h.Col - floorHalf(h.Row)
	r := h.Row
	return q, -q - r, r
}

func floorHalf(n int) int {
	if n >= 0 {
		return n / 2
	}
	return -((-n + 1) / 2)
}

// Distance returns the hex-step distance between a and b
func Distance(a, b core.Hex) int {
	ax, ay, az := toCube(a)
	bx, by, bz := toCube(b)
	return max(abs(ax-bx), abs(ay-by), abs(az-bz))
}

// WithinRange returns every in-bounds hex at distance <= radius from center, center included
func WithinRange(center core.Hex, radius, rows, cols int) []core.Hex {
	if radius < 0 {
		return nil
	}
	var out []core.Hex
	for r := center.Row - radius; r <= center.Row+radius; r++ {
		for c := center.Col - radius - 1; c <= center.Col+radius+1; c++ {
			h := core.Hex{Row: r, Col: c}
			if InBounds(h, rows, cols) && Distance(center, h) <= radius {
				out = append(out, h)
			}
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
