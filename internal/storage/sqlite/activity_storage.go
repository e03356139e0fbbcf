package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/peulot/internal/interfaces"
	"github.com/ternarybob/peulot/internal/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS activities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	topic TEXT NOT NULL,
	description TEXT,
	games_and_methods TEXT NOT NULL,
	age_group TEXT,
	duration TEXT,
	materials TEXT,
	tags TEXT,
	source_url TEXT UNIQUE,
	created_at INTEGER NOT NULL
);
`

const selectColumns = `id, topic, description, games_and_methods, age_group, duration, materials, tags, source_url, created_at`

// ActivityStorage implements interfaces.ActivityStorage on SQLite.
// Manual records are stored with a NULL source_url so the UNIQUE
// constraint only applies to scraped records.
type ActivityStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewActivityStorage creates a new ActivityStorage instance
func NewActivityStorage(db *SQLiteDB, logger arbor.ILogger) *ActivityStorage {
	return &ActivityStorage{
		db:     db,
		logger: logger,
	}
}

var _ interfaces.ActivityStorage = (*ActivityStorage)(nil)

// EnsureSchema creates the activities table if absent
func (s *ActivityStorage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: failed to create activities table: %v", interfaces.ErrStorage, err)
	}
	return nil
}

// InsertActivity stores a record in a single atomic INSERT
func (s *ActivityStorage) InsertActivity(ctx context.Context, activity *models.Activity) (int64, error) {
	if err := activity.Validate(); err != nil {
		return 0, fmt.Errorf("%w: invalid activity: %v", interfaces.ErrStorage, err)
	}

	materials, err := models.EncodeList(activity.Materials)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", interfaces.ErrStorage, err)
	}
	tags, err := models.EncodeList(activity.Tags)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", interfaces.ErrStorage, err)
	}

	var sourceURL sql.NullString
	if !activity.IsManual() {
		sourceURL = sql.NullString{String: activity.SourceURL, Valid: true}
	}

	createdAt := activity.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO activities (topic, description, games_and_methods, age_group, duration, materials, tags, source_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.db.ExecContext(ctx, query,
		activity.Topic, activity.Description, activity.GamesAndMethods,
		activity.AgeGroup, activity.Duration, materials, tags,
		sourceURL, createdAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", interfaces.ErrDuplicateSourceURL, activity.SourceURL)
		}
		return 0, fmt.Errorf("%w: failed to insert activity: %v", interfaces.ErrStorage, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read inserted id: %v", interfaces.ErrStorage, err)
	}

	activity.ID = id
	activity.CreatedAt = createdAt
	return id, nil
}

// ListActivities returns every record ordered by id
func (s *ActivityStorage) ListActivities(ctx context.Context) ([]*models.Activity, error) {
	rows, err := s.db.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM activities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list activities: %v", interfaces.ErrStorage, err)
	}
	defer rows.Close()

	activities := make([]*models.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate activities: %v", interfaces.ErrStorage, err)
	}

	return activities, nil
}

// GetActivity returns one record by id
func (s *ActivityStorage) GetActivity(ctx context.Context, id int64) (*models.Activity, error) {
	row := s.db.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM activities WHERE id = ?`, id)

	activity, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", interfaces.ErrNotFound, id)
	}
	return activity, err
}

// CountActivities returns the number of stored records
func (s *ActivityStorage) CountActivities(ctx context.Context) (int, error) {
	var count int
	if err := s.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: failed to count activities: %v", interfaces.ErrStorage, err)
	}
	return count, nil
}

// Close closes the underlying database
func (s *ActivityStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	var (
		activity                        models.Activity
		description, ageGroup, duration sql.NullString
		materials, tags, sourceURL      sql.NullString
		createdAt                       int64
	)

	err := row.Scan(&activity.ID, &activity.Topic, &description, &activity.GamesAndMethods,
		&ageGroup, &duration, &materials, &tags, &sourceURL, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan activity: %v", interfaces.ErrStorage, err)
	}

	activity.Description = description.String
	activity.AgeGroup = ageGroup.String
	activity.Duration = duration.String
	activity.CreatedAt = time.Unix(createdAt, 0).UTC()

	activity.SourceURL = models.ManualSourceURL
	if sourceURL.Valid {
		activity.SourceURL = sourceURL.String
	}

	if activity.Materials, err = models.DecodeList(materials.String); err != nil {
		return nil, fmt.Errorf("%w: activity %d materials: %v", interfaces.ErrStorage, activity.ID, err)
	}
	if activity.Tags, err = models.DecodeList(tags.String); err != nil {
		return nil, fmt.Errorf("%w: activity %d tags: %v", interfaces.ErrStorage, activity.ID, err)
	}

	return &activity, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
