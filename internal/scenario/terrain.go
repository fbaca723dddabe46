// Package scenario builds the starting position of a game: the terrain map and
// the two armies.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/hexfront/engine/internal/geo"
	"github.com/hexfront/engine/pkg/core"
)

const (
	// AspectRatio is cols per row for a generated map
	AspectRatio = 1.5
	// MountainProbability is the chance an unassigned hex becomes a mountain
	MountainProbability = 0.05

	baseHeight = 40
)

// MapOptions tune terrain generation
type MapOptions struct {
	MountainProbability float64
	LakeSizeMin         int
	LakeSizeMax         int
	MaxLakes            int
	ForestSizeMin       int
	ForestSizeMax       int
	MaxForests          int
}

// DefaultMapOptions scales lake and forest sizes to the map height
func DefaultMapOptions(rows int) MapOptions {
	ratio := float64(rows) / baseHeight
	round := func(v float64) int { return int(math.Round(v)) }

	lakeMin := max(1, min(2, round(5*ratio)))
	forestMin := max(1, min(5, round(5*ratio)))
	return MapOptions{
		MountainProbability: MountainProbability,
		LakeSizeMin:         lakeMin,
		LakeSizeMax:         max(lakeMin, min(5, round(15*ratio))),
		MaxLakes:            max(1, round(float64(rows)/1.2)),
		ForestSizeMin:       forestMin,
		ForestSizeMax:       max(forestMin, min(15, round(15*ratio))),
		MaxForests:          max(1, rows),
	}
}

func (o MapOptions) normalized() MapOptions {
	o.LakeSizeMin = max(1, o.LakeSizeMin)
	o.LakeSizeMax = max(o.LakeSizeMin, o.LakeSizeMax)
	o.MaxLakes = max(1, o.MaxLakes)
	o.ForestSizeMin = max(1, o.ForestSizeMin)
	o.ForestSizeMax = max(o.ForestSizeMin, o.ForestSizeMax)
	o.MaxForests = max(1, o.MaxForests)
	return o
}

// Dimensions returns rows and cols for a map of the given height
func Dimensions(height int) (int, int) {
	return height, int(math.Round(float64(height) * AspectRatio))
}

// cell states while generating; negative values are not yet terrain
type cell int

const (
	unassigned cell = -1 - iota
	hillCandidate
	swampCandidate
)

func terrainCell(t core.Terrain) cell { return cell(t) }

type builder struct {
	rows, cols int
	cells      [][]cell
	rng        *rand.Rand
}

func (b *builder) at(h core.Hex) cell {
	return b.cells[h.Row][h.Col]
}

func (b *builder) set(h core.Hex, c cell) {
	b.cells[h.Row][h.Col] = c
}

func (b *builder) neighbors(h core.Hex) []core.Hex {
	return geo.Neighbors(h, b.rows, b.cols)
}

// GenerateMap creates a random terrain map. Mountains are ringed by hills, lakes by
// swamps; forests grow as clusters and the rest is flat.
func GenerateMap(rows, cols int, rng *rand.Rand, opts MapOptions) (*core.Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid map dimensions %dx%d", rows, cols)
	}
	if rng == nil {
		return nil, errors.New("nil random source")
	}
	opts = opts.normalized()
	b := &builder{rows: rows, cols: cols, rng: rng, cells: make([][]cell, rows)}
	for r := range b.cells {
		b.cells[r] = make([]cell, cols)
		for c := range b.cells[r] {
			b.cells[r][c] = unassigned
		}
	}

	b.placeMountains(opts.MountainProbability)
	for range rng.Intn(opts.MaxLakes) + 3 {
		b.growCluster(core.Lake, opts.LakeSizeMin, opts.LakeSizeMax)
	}
	b.ringLakes()
	for range rng.Intn(opts.MaxForests) + 3 {
		b.growCluster(core.Forest, opts.ForestSizeMin, opts.ForestSizeMax)
	}

	grid := core.NewGrid(rows, cols, core.Flat)
	for r := range rows {
		for c := range cols {
			h := core.Hex{Row: r, Col: c}
			grid.Set(h, b.resolve(h))
		}
	}
	return grid, nil
}

func (b *builder) placeMountains(prob float64) {
	for r := range b.rows {
		for c := range b.cols {
			h := core.Hex{Row: r, Col: c}
			if b.at(h) != unassigned || b.rng.Float64() >= prob {
				continue
			}
			blocked := false
			for _, n := range b.neighbors(h) {
				switch b.at(n) {
				case terrainCell(core.Lake), swampCandidate, terrainCell(core.Forest):
					blocked = true
				}
			}
			if blocked {
				continue
			}
			b.set(h, terrainCell(core.Mountain))
			for _, n := range b.neighbors(h) {
				if b.at(n) == unassigned {
					b.set(n, hillCandidate)
				}
			}
		}
	}
}

// growCluster floods a cluster of t from a random unassigned start hex
func (b *builder) growCluster(t core.Terrain, sizeMin, sizeMax int) int {
	size := sizeMin
	if sizeMax > sizeMin {
		size += b.rng.Intn(sizeMax - sizeMin + 1)
	}

	var start core.Hex
	found := false
	for range 100 {
		h := core.Hex{Row: b.rng.Intn(b.rows), Col: b.rng.Intn(b.cols)}
		if b.at(h) == unassigned {
			start, found = h, true
			break
		}
	}
	if !found {
		return 0
	}

	b.set(start, terrainCell(t))
	placed := 1
	queue := []core.Hex{start}
	for len(queue) > 0 && placed < size {
		cur := queue[0]
		queue = queue[1:]
		ns := b.neighbors(cur)
		b.rng.Shuffle(len(ns), func(i, j int) { ns[i], ns[j] = ns[j], ns[i] })
		for _, n := range ns {
			if b.at(n) != unassigned {
				continue
			}
			b.set(n, terrainCell(t))
			queue = append(queue, n)
			placed++
			if placed == size {
				break
			}
		}
	}
	return placed
}

func (b *builder) ringLakes() {
	for r := range b.rows {
		for c := range b.cols {
			h := core.Hex{Row: r, Col: c}
			if b.at(h) != terrainCell(core.Lake) {
				continue
			}
			for _, n := range b.neighbors(h) {
				if b.at(n) == unassigned {
					b.set(n, swampCandidate)
				}
			}
		}
	}
}

func (b *builder) resolve(h core.Hex) core.Terrain {
	switch v := b.at(h); v {
	case hillCandidate:
		return core.Hill
	case swampCandidate:
		return core.Swamp
	case unassigned:
		nearLake := false
		for _, n := range b.neighbors(h) {
			switch b.at(n) {
			case terrainCell(core.Mountain):
				return core.Hill
			case terrainCell(core.Lake):
				nearLake = true
			}
		}
		if nearLake {
			return core.Swamp
		}
		return core.Flat
	default:
		return core.Terrain(v)
	}
}
