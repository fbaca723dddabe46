// internal/storage/memory/memory_test.go
package memory

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hexfront/engine/pkg/core"
)

func startedBackend(t *testing.T) *Backend {
	t.Helper()
	b := New()
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := b.StartGame(&core.GameInfo{ID: "g1", Side: core.Blue, Rows: 40, Cols: 30, StartTime: time.Unix(100, 0)}); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	return b
}

func TestInitAndClose(t *testing.T) {
	b := New()
	if err := b.Init(); err != nil {
		t.Errorf("Init failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestRecordBeforeStart(t *testing.T) {
	b := New()
	if err := b.RecordOrder(&core.OrderEvent{UnitID: 1}); !errors.Is(err, ErrNoGame) {
		t.Errorf("expected ErrNoGame, got %v", err)
	}
	if err := b.EndGame(core.Blue); !errors.Is(err, ErrNoGame) {
		t.Errorf("expected ErrNoGame, got %v", err)
	}
	if _, err := b.Summary(); !errors.Is(err, ErrNoGame) {
		t.Errorf("expected ErrNoGame, got %v", err)
	}
}

func TestRecordAndSummary(t *testing.T) {
	b := startedBackend(t)

	_ = b.RecordOrder(&core.OrderEvent{UnitID: 1, Target: core.Hex{Row: 3, Col: 4}})
	_ = b.RecordOrder(&core.OrderEvent{UnitID: 2, Remote: true})
	_ = b.RecordEngagement(&core.EngagementEvent{AttackerIDs: []int{1}, DefenderIDs: []int{9}, Outcome: core.AttackerWins})
	_ = b.RecordElimination(&core.EliminationEvent{UnitID: 9, Type: core.Spy, Side: core.Red})
	_ = b.RecordSync(&core.SyncEvent{SequenceNumber: 1})
	_ = b.RecordSync(&core.SyncEvent{SequenceNumber: 2})
	if err := b.EndGame(core.Blue); err != nil {
		t.Fatalf("EndGame failed: %v", err)
	}

	s, err := b.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if s.GameID != "g1" {
		t.Errorf("expected game g1, got %s", s.GameID)
	}
	if s.Orders != 2 || s.Engagements != 1 || s.Eliminations != 1 || s.Syncs != 2 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if !s.Ended || s.Winner != core.Blue {
		t.Errorf("expected ended with blue winner, got %+v", s)
	}
	if !s.StartTime.Equal(time.Unix(100, 0)) {
		t.Errorf("unexpected start time %v", s.StartTime)
	}

	if got := b.Orders(); len(got) != 2 || got[0].Target != (core.Hex{Row: 3, Col: 4}) || !got[1].Remote {
		t.Errorf("unexpected orders: %+v", got)
	}
	if got := b.Eliminations(); len(got) != 1 || got[0].Type != core.Spy {
		t.Errorf("unexpected eliminations: %+v", got)
	}
	if got := b.Engagements(); len(got) != 1 || got[0].Outcome != core.AttackerWins {
		t.Errorf("unexpected engagements: %+v", got)
	}
}

func TestStartGameResets(t *testing.T) {
	b := startedBackend(t)
	_ = b.RecordOrder(&core.OrderEvent{UnitID: 1})
	_ = b.EndGame(core.Red)

	if err := b.StartGame(&core.GameInfo{ID: "g2"}); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	s, _ := b.Summary()
	if s.GameID != "g2" || s.Orders != 0 || s.Ended || s.Winner != "" {
		t.Errorf("journal not reset: %+v", s)
	}
}

func TestCopiesAreIndependent(t *testing.T) {
	b := startedBackend(t)
	_ = b.RecordEngagement(&core.EngagementEvent{Damage: 1})

	got := b.Engagements()
	got[0].Damage = 99
	if b.Engagements()[0].Damage != 1 {
		t.Error("caller mutated stored engagement")
	}
}

func TestConcurrentRecording(t *testing.T) {
	b := startedBackend(t)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = b.RecordOrder(&core.OrderEvent{UnitID: id})
			_ = b.RecordSync(&core.SyncEvent{SequenceNumber: uint64(id)})
		}(i)
	}
	wg.Wait()

	s, _ := b.Summary()
	if s.Orders != 50 || s.Syncs != 50 {
		t.Errorf("expected 50 orders and syncs, got %+v", s)
	}
}
