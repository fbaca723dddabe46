// internal/storage/storage_test.go
package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfront/engine/internal/config"
	"github.com/hexfront/engine/internal/storage"
	"github.com/hexfront/engine/internal/storage/memory"
	sqlitestorage "github.com/hexfront/engine/internal/storage/sqlite"
)

var (
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Summarizer = (*memory.Backend)(nil)
	_ storage.Backend    = (*sqlitestorage.Backend)(nil)
	_ storage.Summarizer = (*sqlitestorage.Backend)(nil)
)

func TestNewBackend(t *testing.T) {
	b, err := storage.NewBackend(config.JournalConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)

	b, err = storage.NewBackend(config.JournalConfig{})
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)

	b, err = storage.NewBackend(config.JournalConfig{Type: "sqlite"})
	require.NoError(t, err)
	assert.IsType(t, &sqlitestorage.Backend{}, b)

	_, err = storage.NewBackend(config.JournalConfig{Type: "postgres"})
	assert.EqualError(t, err, "unknown journal type: postgres")
}
