package cache

import (
	"sync"

	"github.com/hexfront/engine/pkg/core"
)

// VisitLedger counts how many times each unit entered each hex during its current order
type VisitLedger struct {
	mu     sync.RWMutex
	visits map[int]map[core.Hex]int
}

// NewVisitLedger creates a new VisitLedger
func NewVisitLedger() *VisitLedger {
	return &VisitLedger{
		visits: make(map[int]map[core.Hex]int),
	}
}

// Visit records an entry of unit id into h and returns the new count
func (l *VisitLedger) Visit(id int, h core.Hex) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	hexes, ok := l.visits[id]
	if !ok {
		hexes = make(map[core.Hex]int)
		l.visits[id] = hexes
	}
	hexes[h]++
	return hexes[h]
}

// Count returns how many times unit id entered h
func (l *VisitLedger) Count(id int, h core.Hex) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.visits[id][h]
}

// Clear forgets every visit of unit id
func (l *VisitLedger) Clear(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.visits, id)
}

// Reset clears all units from the ledger
func (l *VisitLedger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visits = make(map[int]map[core.Hex]int)
}
