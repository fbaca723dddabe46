// Package sqlitestorage implements the storage.Backend interface on a private in-memory
// SQLite database through GORM. The database is discarded when the backend closes.
package sqlitestorage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/hexfront/engine/internal/database"
	"github.com/hexfront/engine/internal/model"
	"github.com/hexfront/engine/internal/model/convert"
	"github.com/hexfront/engine/pkg/core"
)

// ErrNoGame is returned when events arrive before StartGame
var ErrNoGame = errors.New("no game started")

// Backend writes journal rows with GORM.
type Backend struct {
	mu   sync.Mutex
	db   *gorm.DB
	game *model.Game
}

// New creates a new SQLite journal backend. The database opens in Init.
func New() *Backend {
	return &Backend{}
}

// Init opens the in-memory database and migrates the schema.
func (b *Backend) Init() error {
	db, err := database.GetSqliteDB("")
	if err != nil {
		return fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	if err := database.Setup(db); err != nil {
		_ = database.Close(db)
		return err
	}
	b.mu.Lock()
	b.db = db
	b.mu.Unlock()
	return nil
}

// Close drops the database.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := database.Close(b.db)
	b.db = nil
	b.game = nil
	return err
}

// DB exposes the handle for queries
func (b *Backend) DB() *gorm.DB {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.db
}

// StartGame inserts the game row that later events hang off.
func (b *Backend) StartGame(info *core.GameInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return errors.New("backend not initialized")
	}
	g := convert.GameToGorm(*info)
	if err := b.db.Create(&g).Error; err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	b.game = &g
	return nil
}

// EndGame stamps the end time and winner on the game row.
func (b *Backend) EndGame(winner core.Side) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.game == nil {
		return ErrNoGame
	}
	b.game.Ended = true
	b.game.Winner = string(winner)
	b.game.EndTime = sql.NullTime{Time: time.Now(), Valid: true}
	if err := b.db.Save(b.game).Error; err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

// RecordOrder inserts an order row
func (b *Backend) RecordOrder(e *core.OrderEvent) error {
	return b.insert(func(gameID uint) (any, error) {
		o := convert.OrderToGorm(gameID, *e)
		return &o, nil
	})
}

// RecordEngagement inserts an engagement row
func (b *Backend) RecordEngagement(e *core.EngagementEvent) error {
	return b.insert(func(gameID uint) (any, error) {
		g, err := convert.EngagementToGorm(gameID, *e)
		if err != nil {
			return nil, err
		}
		return &g, nil
	})
}

// RecordElimination inserts an elimination row
func (b *Backend) RecordElimination(e *core.EliminationEvent) error {
	return b.insert(func(gameID uint) (any, error) {
		g := convert.EliminationToGorm(gameID, *e)
		return &g, nil
	})
}

// RecordSync inserts a sync row
func (b *Backend) RecordSync(e *core.SyncEvent) error {
	return b.insert(func(gameID uint) (any, error) {
		s := convert.SyncToGorm(gameID, *e)
		return &s, nil
	})
}

func (b *Backend) insert(row func(gameID uint) (any, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.game == nil {
		return ErrNoGame
	}
	r, err := row(b.game.ID)
	if err != nil {
		return err
	}
	// Omit the association so GORM does not upsert the game with every row
	return b.db.Omit("Game").Create(r).Error
}

// Summary counts the rows recorded for the current game
func (b *Backend) Summary() (core.JournalSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.game == nil {
		return core.JournalSummary{}, ErrNoGame
	}

	s := core.JournalSummary{
		GameID:    b.game.SessionID,
		Winner:    core.Side(b.game.Winner),
		Ended:     b.game.Ended,
		StartTime: b.game.StartTime,
	}
	counts := []struct {
		model any
		dst   *int
	}{
		{&model.Order{}, &s.Orders},
		{&model.Engagement{}, &s.Engagements},
		{&model.Elimination{}, &s.Eliminations},
		{&model.SyncRecord{}, &s.Syncs},
	}
	for _, c := range counts {
		var n int64
		if err := b.db.Model(c.model).Where("game_id = ?", b.game.ID).Count(&n).Error; err != nil {
			return s, fmt.Errorf("failed to count %T: %w", c.model, err)
		}
		*c.dst = int(n)
	}
	return s, nil
}

// Engagements loads the engagements of the current game in insertion order
func (b *Backend) Engagements() ([]core.EngagementEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.game == nil {
		return nil, ErrNoGame
	}
	var rows []model.Engagement
	if err := b.db.Where("game_id = ?", b.game.ID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.EngagementEvent, 0, len(rows))
	for _, r := range rows {
		e, err := convert.EngagementToCore(r)
		if err != nil {
			return nil, fmt.Errorf("engagement %d: %w", r.ID, err)
		}
		out = append(out, e)
	}
	return out, nil
}
