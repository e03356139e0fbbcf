package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/peulot/internal/common"
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// SQLiteDB owns the single connection to the activity database
type SQLiteDB struct {
	db     *sql.DB
	logger arbor.ILogger
	path   string
}

// NewSQLiteDB opens the database at config.Path, creating its directory.
// Pragmas travel in the DSN so every connection the pool opens gets them.
func NewSQLiteDB(logger arbor.ILogger, config *common.SQLiteConfig) (*SQLiteDB, error) {
	if config.Path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dataSourceName(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; a second connection to :memory: would see an empty database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", config.Path, err)
	}

	logger.Debug().
		Str("path", config.Path).
		Int("busy_timeout_ms", busyTimeout(config)).
		Bool("wal", config.WALMode).
		Msg("SQLite database opened")

	return &SQLiteDB{db: db, logger: logger, path: config.Path}, nil
}

func dataSourceName(config *common.SQLiteConfig) string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout(config)))
	params.Add("_pragma", "synchronous(NORMAL)")
	if config.WALMode && config.Path != memoryPath {
		params.Add("_pragma", "journal_mode(WAL)")
	}
	return config.Path + "?" + params.Encode()
}

func busyTimeout(config *common.SQLiteConfig) int {
	if config.BusyTimeoutMS <= 0 {
		return 5000
	}
	return config.BusyTimeoutMS
}

// DB returns the underlying database handle
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

// Ping verifies the database is reachable
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Debug().Str("path", s.path).Msg("SQLite database closed")
	return s.db.Close()
}
