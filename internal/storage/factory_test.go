package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/models"
)

func TestNewActivityStorageBackends(t *testing.T) {
	for _, storageType := range []string{"sqlite", "badger"} {
		t.Run(storageType, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()

			config := common.NewDefaultConfig()
			config.Storage.Type = storageType
			config.Storage.SQLite.Path = filepath.Join(dir, "peulot.db")
			config.Storage.Badger.Path = filepath.Join(dir, "badger")

			store, err := NewActivityStorage(ctx, config, common.NewConsoleLogger())
			require.NoError(t, err)
			defer store.Close()

			require.NoError(t, store.EnsureSchema(ctx))
			id, err := store.InsertActivity(ctx, models.NewActivity("טקסט", "https://forum.test/topic/1", nil))
			require.NoError(t, err)
			assert.Equal(t, int64(1), id)
		})
	}
}

func TestNewActivityStorageUnsupported(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Storage.Type = "mongo"

	_, err := NewActivityStorage(context.Background(), config, common.NewConsoleLogger())
	assert.Error(t, err)
}

func TestNewActivityStoragePostgresRequiresDSN(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Storage.Type = "postgres"
	config.Storage.Postgres.DSN = ""

	_, err := NewActivityStorage(context.Background(), config, common.NewConsoleLogger())
	assert.Error(t, err)
}
