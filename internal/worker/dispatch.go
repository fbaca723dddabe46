package worker

import (
	"fmt"

	"github.com/hexfront/engine/internal/dispatcher"
	"github.com/hexfront/engine/pkg/core"
)

// Journal event types routed through the dispatcher
const (
	EventOrder       = "journal:order"
	EventEngagement  = "journal:engagement"
	EventElimination = "journal:elimination"
	EventSync        = "journal:sync"
)

// RegisterHandlers registers the journal handlers with the dispatcher.
// Every handler is buffered: the engine journals while holding the simulation lock.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	m.dispatcher = d

	d.Register(EventOrder, m.handleOrder, dispatcher.Buffered(m.deps.Buffer), dispatcher.Logged())
	d.Register(EventEngagement, m.handleEngagement, dispatcher.Buffered(m.deps.Buffer), dispatcher.Logged())
	d.Register(EventElimination, m.handleElimination, dispatcher.Buffered(m.deps.Buffer), dispatcher.Logged())
	// Snapshots arrive ten times a second; losing one under load is acceptable
	d.Register(EventSync, m.handleSync, dispatcher.Buffered(m.deps.Buffer))
}

func (m *Manager) handleOrder(e dispatcher.Event) (any, error) {
	obj, ok := e.Data.(core.OrderEvent)
	if !ok {
		return nil, fmt.Errorf("%w: %T for %s", ErrUnexpectedData, e.Data, e.Type)
	}
	return nil, m.timed(func() error { return m.backend.RecordOrder(&obj) })
}

func (m *Manager) handleEngagement(e dispatcher.Event) (any, error) {
	obj, ok := e.Data.(core.EngagementEvent)
	if !ok {
		return nil, fmt.Errorf("%w: %T for %s", ErrUnexpectedData, e.Data, e.Type)
	}
	return nil, m.timed(func() error { return m.backend.RecordEngagement(&obj) })
}

func (m *Manager) handleElimination(e dispatcher.Event) (any, error) {
	obj, ok := e.Data.(core.EliminationEvent)
	if !ok {
		return nil, fmt.Errorf("%w: %T for %s", ErrUnexpectedData, e.Data, e.Type)
	}
	return nil, m.timed(func() error { return m.backend.RecordElimination(&obj) })
}

func (m *Manager) handleSync(e dispatcher.Event) (any, error) {
	obj, ok := e.Data.(core.SyncEvent)
	if !ok {
		return nil, fmt.Errorf("%w: %T for %s", ErrUnexpectedData, e.Data, e.Type)
	}
	return nil, m.timed(func() error { return m.backend.RecordSync(&obj) })
}

func (m *Manager) dispatch(typ string, data any) {
	if m.dispatcher == nil {
		return
	}
	if _, err := m.dispatcher.Dispatch(dispatcher.Event{Type: typ, Data: data}); err != nil {
		m.deps.Logger.Debug("journal entry dropped", "type", typ, "error", err)
	}
}

// Order journals a move order
func (m *Manager) Order(e core.OrderEvent) { m.dispatch(EventOrder, e) }

// Engagement journals a resolved engagement
func (m *Manager) Engagement(e core.EngagementEvent) { m.dispatch(EventEngagement, e) }

// Elimination journals a removed unit
func (m *Manager) Elimination(e core.EliminationEvent) { m.dispatch(EventElimination, e) }

// Sync journals a snapshot sent or applied
func (m *Manager) Sync(e core.SyncEvent) { m.dispatch(EventSync, e) }
