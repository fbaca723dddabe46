package engine

import "github.com/hexfront/engine/pkg/core"

// Journal records game events. Implementations must not block; the engine calls
// them with the simulation lock held.
type Journal interface {
	Order(core.OrderEvent)
	Engagement(core.EngagementEvent)
	Elimination(core.EliminationEvent)
	Sync(core.SyncEvent)
}

// NopJournal discards everything
type NopJournal struct{}

func (NopJournal) Order(core.OrderEvent)             {}
func (NopJournal) Engagement(core.EngagementEvent)   {}
func (NopJournal) Elimination(core.EliminationEvent) {}
func (NopJournal) Sync(core.SyncEvent)               {}
