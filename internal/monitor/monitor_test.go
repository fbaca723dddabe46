package monitor

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfront/engine/internal/engine"
	"github.com/hexfront/engine/internal/storage/memory"
	"github.com/hexfront/engine/pkg/core"
)

type fakeEngine struct{ status engine.Status }

func (f fakeEngine) Status() engine.Status { return f.status }

type fakeWrites struct{}

func (fakeWrites) GetLastDBWriteDuration() time.Duration { return 1500 * time.Microsecond }
func (fakeWrites) Failures() int64                       { return 2 }

type pointRecorder struct {
	mu     sync.Mutex
	points []*influxdb2_write.Point
	err    error
}

func (p *pointRecorder) WritePoint(pt *influxdb2_write.Point) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.points = append(p.points, pt)
	return p.err
}

func (p *pointRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.points)
}

func testStatus() engine.Status {
	return engine.Status{
		Side:           core.Blue,
		Authority:      true,
		GameMinutes:    125.5,
		Sequence:       42,
		Alive:          map[core.Side]int{core.Blue: 20, core.Red: 18},
		Pending:        7,
		VisibleEnemies: 3,
	}
}

func TestWriteStatus_File(t *testing.T) {
	journal := memory.New()
	require.NoError(t, journal.StartGame(&core.GameInfo{ID: "g1"}))
	require.NoError(t, journal.RecordEngagement(&core.EngagementEvent{}))

	path := filepath.Join(t.TempDir(), "status.json")
	s := NewService(Dependencies{
		Engine:     fakeEngine{testStatus()},
		Journal:    journal,
		Writes:     fakeWrites{},
		StatusPath: path,
	})

	_, err := s.WriteStatus()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var r Report
	require.NoError(t, json.Unmarshal(data, &r))

	assert.Equal(t, core.Blue, r.Side)
	assert.True(t, r.Authority)
	assert.Equal(t, uint64(42), r.Sequence)
	assert.Equal(t, 18, r.Alive[core.Red])
	assert.Equal(t, 7, r.PendingTimers)
	assert.Equal(t, 3, r.VisibleEnemies)
	require.NotNil(t, r.Journal)
	assert.Equal(t, 1, r.Journal.Engagements)
	assert.InDelta(t, 1.5, r.LastWriteDurationMs, 1e-9)
	assert.Equal(t, int64(2), r.JournalFailures)
}

func TestWriteStatus_JournalNotStarted(t *testing.T) {
	s := NewService(Dependencies{Engine: fakeEngine{testStatus()}, Journal: memory.New()})
	r, err := s.WriteStatus()
	require.NoError(t, err)
	assert.Nil(t, r.Journal)
}

func TestWriteStatus_TelemetryError(t *testing.T) {
	rec := &pointRecorder{err: errors.New("down")}
	s := NewService(Dependencies{Engine: fakeEngine{testStatus()}, Telemetry: rec})
	_, err := s.WriteStatus()
	assert.Error(t, err)
	assert.Equal(t, 1, rec.count())
}

func TestPoint(t *testing.T) {
	r := Report{
		Time:        time.Unix(60, 0),
		Side:        core.Red,
		GameMinutes: 10,
		Alive:       map[core.Side]int{core.Blue: 1, core.Red: 2},
		Journal:     &core.JournalSummary{Engagements: 4},
	}
	line := influxdb2_write.PointToLineProtocol(Point(r), time.Second)
	assert.Contains(t, line, "match_status,side=red ")
	assert.Contains(t, line, "alive_red=2i")
	assert.Contains(t, line, "engagements=4i")
	assert.Contains(t, line, " 60")
}

func TestStartStop(t *testing.T) {
	rec := &pointRecorder{}
	s := NewService(Dependencies{
		Engine:    fakeEngine{testStatus()},
		Telemetry: rec,
		Interval:  5 * time.Millisecond,
	})

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool { return rec.count() >= 2 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	n := rec.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, rec.count(), "no writes after Stop")

	s.Stop()
}
