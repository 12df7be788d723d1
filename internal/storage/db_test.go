package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenNilConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)
}

func TestOpenInMemory(t *testing.T) {
	db := testDB(t)
	require.NotNil(t, db.Conn())

	// The schema must be in place without a migrations run on disk.
	var n int
	err := db.Conn().QueryRow(`SELECT COUNT(*) FROM game_batches`).Scan(&n)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	config := DefaultConfig(path)
	config.AutoMigrate = true

	db, err := Open(config)
	require.NoError(t, err)
	defer db.Close()

	var n int
	err = db.Conn().QueryRow(`SELECT COUNT(*) FROM cached_games`).Scan(&n)
	require.NoError(t, err)
	assert.Zero(t, n)
}
