package storage

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/interfaces"
	"github.com/ternarybob/peulot/internal/storage/badger"
	"github.com/ternarybob/peulot/internal/storage/postgres"
	"github.com/ternarybob/peulot/internal/storage/sqlite"
)

// NewActivityStorage opens the backend named by config.Storage.Type.
// The schema is not created here; callers run EnsureSchema.
func NewActivityStorage(ctx context.Context, config *common.Config, logger arbor.ILogger) (interfaces.ActivityStorage, error) {
	switch config.Storage.Type {
	case "", "sqlite":
		db, err := sqlite.NewSQLiteDB(logger, &config.Storage.SQLite)
		if err != nil {
			return nil, err
		}
		return sqlite.NewActivityStorage(db, logger), nil

	case "badger":
		db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
		if err != nil {
			return nil, err
		}
		return badger.NewActivityStorage(db, logger), nil

	case "postgres":
		db, err := postgres.NewPostgresDB(ctx, logger, &config.Storage.Postgres)
		if err != nil {
			return nil, err
		}
		return postgres.NewActivityStorage(db, logger), nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s (expected sqlite, badger or postgres)", config.Storage.Type)
	}
}
