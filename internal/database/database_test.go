package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfront/engine/internal/model"
)

func TestGetSqliteDB_InMemoryIsPrivate(t *testing.T) {
	a, err := GetSqliteDB("")
	require.NoError(t, err)
	defer Close(a)
	b, err := GetSqliteDB("")
	require.NoError(t, err)
	defer Close(b)

	require.NoError(t, Setup(a))
	require.NoError(t, a.Create(&model.Game{SessionID: "s1", Side: "blue"}).Error)

	assert.True(t, a.Migrator().HasTable(&model.Game{}))
	assert.False(t, b.Migrator().HasTable(&model.Game{}))
}

func TestSetup_CreatesAllTables(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Setup(db))
	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
}
