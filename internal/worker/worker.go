package worker

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hexfront/engine/internal/dispatcher"
	"github.com/hexfront/engine/internal/storage"
	"github.com/hexfront/engine/pkg/core"
)

// ErrUnexpectedData is returned when a journal event carries the wrong payload type
var ErrUnexpectedData = errors.New("unexpected journal data")

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Logger *slog.Logger
	// Buffer is the queue size of each journal handler
	Buffer int
}

// Manager moves journal entries from the simulation onto the storage backend.
// It implements engine.Journal by dispatching each entry to a buffered handler,
// so the engine never waits on the database.
type Manager struct {
	deps       Dependencies
	backend    storage.Backend
	dispatcher *dispatcher.Dispatcher

	lastWrite atomic.Int64
	failures  atomic.Int64
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Buffer <= 0 {
		deps.Buffer = 1000
	}
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// Backend returns the storage backend entries are written to
func (m *Manager) Backend() storage.Backend {
	return m.backend
}

// GetLastDBWriteDuration returns the duration of the last backend write.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	return time.Duration(m.lastWrite.Load())
}

// Failures returns how many journal writes the backend rejected
func (m *Manager) Failures() int64 {
	return m.failures.Load()
}

func (m *Manager) timed(write func() error) error {
	start := time.Now()
	err := write()
	m.lastWrite.Store(int64(time.Since(start)))
	if err != nil {
		m.failures.Add(1)
	}
	return err
}

// StartGame opens the session row in the backend
func (m *Manager) StartGame(info core.GameInfo) error {
	return m.timed(func() error { return m.backend.StartGame(&info) })
}

// EndGame closes the session row in the backend
func (m *Manager) EndGame(winner core.Side) error {
	return m.timed(func() error { return m.backend.EndGame(winner) })
}
