// internal/storage/storage.go
package storage

import "github.com/hexfront/engine/pkg/core"

// Backend is the interface all journal implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Game management
	StartGame(info *core.GameInfo) error
	EndGame(winner core.Side) error

	// Event recording
	RecordOrder(e *core.OrderEvent) error
	RecordEngagement(e *core.EngagementEvent) error
	RecordElimination(e *core.EliminationEvent) error
	RecordSync(e *core.SyncEvent) error
}

// Summarizer is an optional interface for backends that can report what they hold
type Summarizer interface {
	Summary() (core.JournalSummary, error)
}
