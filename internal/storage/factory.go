// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/hexfront/engine/internal/config"
	"github.com/hexfront/engine/internal/storage/memory"
	sqlitestorage "github.com/hexfront/engine/internal/storage/sqlite"
)

// NewBackend creates a journal backend based on configuration
func NewBackend(cfg config.JournalConfig) (Backend, error) {
	switch cfg.Type {
	case "sqlite":
		return sqlitestorage.New(), nil
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown journal type: %s", cfg.Type)
	}
}
