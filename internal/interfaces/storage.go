package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/peulot/internal/models"
)

var (
	// ErrDuplicateSourceURL is returned when a scraped source_url is already stored.
	// It is an expected outcome on re-runs, reported separately from ErrStorage.
	ErrDuplicateSourceURL = errors.New("duplicate source_url")

	// ErrNotFound is returned by GetActivity for an unknown id
	ErrNotFound = errors.New("activity not found")

	// ErrStorage wraps unexpected persistence failures
	ErrStorage = errors.New("storage failure")
)

// ActivityStorage - interface for activity persistence.
// Inserts are atomic: a failed insert leaves no partial record.
type ActivityStorage interface {
	// EnsureSchema creates the activities table (or equivalent) if absent. Idempotent.
	EnsureSchema(ctx context.Context) error

	// InsertActivity stores a new record and returns its id.
	// Returns ErrDuplicateSourceURL when a non-manual source_url already exists.
	InsertActivity(ctx context.Context, activity *models.Activity) (int64, error)

	ListActivities(ctx context.Context) ([]*models.Activity, error)
	GetActivity(ctx context.Context, id int64) (*models.Activity, error)
	CountActivities(ctx context.Context) (int, error)

	Close() error
}
