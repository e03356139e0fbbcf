package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/peulot/internal/interfaces"
	"github.com/ternarybob/peulot/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS activities (
	id BIGSERIAL PRIMARY KEY,
	topic TEXT NOT NULL,
	description TEXT,
	games_and_methods TEXT NOT NULL,
	age_group TEXT,
	duration TEXT,
	materials TEXT,
	tags TEXT,
	source_url TEXT UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectColumns = `id, topic, description, games_and_methods, age_group, duration, materials, tags, source_url, created_at`

const uniqueViolation = "23505"

// ActivityStorage implements interfaces.ActivityStorage on PostgreSQL.
// Manual records carry a NULL source_url.
type ActivityStorage struct {
	db     *PostgresDB
	logger arbor.ILogger
}

// NewActivityStorage creates a new ActivityStorage instance
func NewActivityStorage(db *PostgresDB, logger arbor.ILogger) *ActivityStorage {
	return &ActivityStorage{db: db, logger: logger}
}

var _ interfaces.ActivityStorage = (*ActivityStorage)(nil)

func (s *ActivityStorage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: failed to create activities table: %v", interfaces.ErrStorage, err)
	}
	return nil
}

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

	var sourceURL *string
	if !activity.IsManual() {
		sourceURL = &activity.SourceURL
	}

	createdAt := activity.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	const query = `INSERT INTO activities (topic, description, games_and_methods, age_group, duration, materials, tags, source_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`

	var id int64
	err = s.db.pool.QueryRow(ctx, query,
		activity.Topic, activity.Description, activity.GamesAndMethods,
		activity.AgeGroup, activity.Duration, materials, tags,
		sourceURL, createdAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("%w: %s", interfaces.ErrDuplicateSourceURL, activity.SourceURL)
		}
		return 0, fmt.Errorf("%w: failed to insert activity: %v", interfaces.ErrStorage, err)
	}

	activity.ID = id
	activity.CreatedAt = createdAt
	return id, nil
}

func (s *ActivityStorage) ListActivities(ctx context.Context) ([]*models.Activity, error) {
	rows, err := s.db.pool.Query(ctx, `SELECT `+selectColumns+` FROM activities ORDER BY id`)
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

func (s *ActivityStorage) GetActivity(ctx context.Context, id int64) (*models.Activity, error) {
	row := s.db.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM activities WHERE id = $1`, id)

	activity, err := scanActivity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", interfaces.ErrNotFound, id)
	}
	return activity, err
}

func (s *ActivityStorage) CountActivities(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: failed to count activities: %v", interfaces.ErrStorage, err)
	}
	return int(count), nil
}

func (s *ActivityStorage) Close() error {
	return s.db.Close()
}

func scanActivity(row pgx.Row) (*models.Activity, error) {
	var (
		activity                        models.Activity
		description, ageGroup, duration *string
		materials, tags, sourceURL      *string
	)

	err := row.Scan(&activity.ID, &activity.Topic, &description, &activity.GamesAndMethods,
		&ageGroup, &duration, &materials, &tags, &sourceURL, &activity.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan activity: %v", interfaces.ErrStorage, err)
	}

	activity.Description = deref(description)
	activity.AgeGroup = deref(ageGroup)
	activity.Duration = deref(duration)
	activity.SourceURL = models.ManualSourceURL
	if sourceURL != nil {
		activity.SourceURL = *sourceURL
	}

	if activity.Materials, err = models.DecodeList(deref(materials)); err != nil {
		return nil, fmt.Errorf("%w: activity %d materials: %v", interfaces.ErrStorage, activity.ID, err)
	}
	if activity.Tags, err = models.DecodeList(deref(tags)); err != nil {
		return nil, fmt.Errorf("%w: activity %d tags: %v", interfaces.ErrStorage, activity.ID, err)
	}

	return &activity, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
