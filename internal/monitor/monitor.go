package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/hexfront/engine/internal/engine"
	"github.com/hexfront/engine/internal/storage"
	"github.com/hexfront/engine/pkg/core"
)

// DefaultInterval is how often the status file is rewritten
const DefaultInterval = time.Second

// StatusSource reports the simulation state of the local peer
type StatusSource interface {
	Status() engine.Status
}

// PointWriter accepts telemetry points
type PointWriter interface {
	WritePoint(*influxdb2_write.Point) error
}

// WriteStats exposes journal write health
type WriteStats interface {
	GetLastDBWriteDuration() time.Duration
	Failures() int64
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Engine     StatusSource
	Journal    storage.Summarizer // optional
	Writes     WriteStats         // optional
	Telemetry  PointWriter        // optional
	Logger     *slog.Logger
	StatusPath string
	Interval   time.Duration
}

// Report is the content of the status file
type Report struct {
	Time                time.Time            `json:"time"`
	Side                core.Side            `json:"side"`
	Authority           bool                 `json:"authority"`
	GameMinutes         float64              `json:"gameMinutes"`
	Sequence            uint64               `json:"sequence"`
	Alive               map[core.Side]int    `json:"alive"`
	PendingTimers       int                  `json:"pendingTimers"`
	VisibleEnemies      int                  `json:"visibleEnemies"`
	GameOver            bool                 `json:"gameOver"`
	Winner              core.Side            `json:"winner,omitempty"`
	Journal             *core.JournalSummary `json:"journal,omitempty"`
	LastWriteDurationMs float64              `json:"lastWriteDurationMs"`
	JournalFailures     int64                `json:"journalFailures"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	stopped   chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus collects the current report
func (s *Service) GetStatus() Report {
	st := s.deps.Engine.Status()
	r := Report{
		Time:           time.Now(),
		Side:           st.Side,
		Authority:      st.Authority,
		GameMinutes:    st.GameMinutes,
		Sequence:       st.Sequence,
		Alive:          st.Alive,
		PendingTimers:  st.Pending,
		VisibleEnemies: st.VisibleEnemies,
		GameOver:       st.GameOver,
		Winner:         st.Winner,
	}
	if s.deps.Journal != nil {
		if summary, err := s.deps.Journal.Summary(); err == nil {
			r.Journal = &summary
		}
	}
	if s.deps.Writes != nil {
		r.LastWriteDurationMs = float64(s.deps.Writes.GetLastDBWriteDuration().Microseconds()) / 1000
		r.JournalFailures = s.deps.Writes.Failures()
	}
	return r
}

// Point converts a report to a telemetry point
func Point(r Report) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement("match_status").
		AddTag("side", string(r.Side)).
		AddField("game_minutes", r.GameMinutes).
		AddField("sequence", int64(r.Sequence)).
		AddField("alive_blue", r.Alive[core.Blue]).
		AddField("alive_red", r.Alive[core.Red]).
		AddField("pending_timers", r.PendingTimers).
		AddField("visible_enemies", r.VisibleEnemies).
		AddField("game_over", r.GameOver).
		SetTime(r.Time)
	if r.Journal != nil {
		p.AddField("engagements", r.Journal.Engagements).
			AddField("eliminations", r.Journal.Eliminations)
	}
	return p
}

// WriteStatus writes one report to the status file and the telemetry sink
func (s *Service) WriteStatus() (Report, error) {
	r := s.GetStatus()

	if s.deps.StatusPath != "" {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return r, fmt.Errorf("encode status: %w", err)
		}
		if err := os.WriteFile(s.deps.StatusPath, append(data, '\n'), 0o644); err != nil {
			return r, fmt.Errorf("write status file: %w", err)
		}
	}
	if s.deps.Telemetry != nil {
		if err := s.deps.Telemetry.WritePoint(Point(r)); err != nil {
			return r, fmt.Errorf("write telemetry: %w", err)
		}
	}
	return r, nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.stopped = make(chan struct{})
	stop, stopped := s.stopChan, s.stopped
	s.mu.Unlock()

	go func() {
		defer close(stopped)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "path", s.deps.StatusPath)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				// last report so the file reflects the final state
				if _, err := s.WriteStatus(); err != nil {
					logger.Error("Error writing status", "error", err)
				}
				return
			case <-ticker.C:
				if _, err := s.WriteStatus(); err != nil {
					logger.Error("Error writing status", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for the final report
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	stopped := s.stopped
	s.isRunning = false
	s.mu.Unlock()
	<-stopped
}
