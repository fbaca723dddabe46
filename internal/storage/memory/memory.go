// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/hexfront/engine/pkg/core"
)

// ErrNoGame is returned when events arrive before StartGame
var ErrNoGame = errors.New("no game started")

// Backend keeps the journal of the current game in memory
type Backend struct {
	info  *core.GameInfo
	ended bool
	// winner is empty until EndGame; an aborted game also ends without one
	winner  core.Side
	endTime time.Time

	orders       []core.OrderEvent
	engagements  []core.EngagementEvent
	eliminations []core.EliminationEvent
	syncs        []core.SyncEvent

	mu sync.RWMutex
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartGame begins a new journal, dropping whatever the previous game recorded
func (b *Backend) StartGame(info *core.GameInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.info = info
	b.ended = false
	b.winner = ""
	b.endTime = time.Time{}
	b.orders = nil
	b.engagements = nil
	b.eliminations = nil
	b.syncs = nil
	return nil
}

// EndGame records the outcome
func (b *Backend) EndGame(winner core.Side) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.info == nil {
		return ErrNoGame
	}
	b.ended = true
	b.winner = winner
	b.endTime = time.Now()
	return nil
}

// RecordOrder appends a move order
func (b *Backend) RecordOrder(e *core.OrderEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.info == nil {
		return ErrNoGame
	}
	b.orders = append(b.orders, *e)
	return nil
}

// RecordEngagement appends a resolved engagement
func (b *Backend) RecordEngagement(e *core.EngagementEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.info == nil {
		return ErrNoGame
	}
	b.engagements = append(b.engagements, *e)
	return nil
}

// RecordElimination appends an eliminated unit
func (b *Backend) RecordElimination(e *core.EliminationEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.info == nil {
		return ErrNoGame
	}
	b.eliminations = append(b.eliminations, *e)
	return nil
}

// RecordSync appends a snapshot sent or applied
func (b *Backend) RecordSync(e *core.SyncEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.info == nil {
		return ErrNoGame
	}
	b.syncs = append(b.syncs, *e)
	return nil
}

// Summary counts the recorded events
func (b *Backend) Summary() (core.JournalSummary, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.info == nil {
		return core.JournalSummary{}, ErrNoGame
	}
	return core.JournalSummary{
		GameID:       b.info.ID,
		Orders:       len(b.orders),
		Engagements:  len(b.engagements),
		Eliminations: len(b.eliminations),
		Syncs:        len(b.syncs),
		Winner:       b.winner,
		Ended:        b.ended,
		StartTime:    b.info.StartTime,
	}, nil
}

// Engagements returns a copy of the recorded engagements
func (b *Backend) Engagements() []core.EngagementEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.EngagementEvent, len(b.engagements))
	copy(out, b.engagements)
	return out
}

// Eliminations returns a copy of the recorded eliminations
func (b *Backend) Eliminations() []core.EliminationEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.EliminationEvent, len(b.eliminations))
	copy(out, b.eliminations)
	return out
}

// Orders returns a copy of the recorded orders
func (b *Backend) Orders() []core.OrderEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.OrderEvent, len(b.orders))
	copy(out, b.orders)
	return out
}
