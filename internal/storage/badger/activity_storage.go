package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/peulot/internal/interfaces"
	"github.com/ternarybob/peulot/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

var idSequenceKey = []byte("_seq:activities")

// activityRecord is the stored form of models.Activity.
// List fields keep the same JSON-array encoding as the relational stores.
type activityRecord struct {
	ID              uint64 `badgerhold:"key"`
	Topic           string
	Description     string
	GamesAndMethods string
	AgeGroup        string
	Duration        string
	Materials       string
	Tags            string
	SourceURL       string `badgerhold:"index"`
	CreatedAt       time.Time
}

// ActivityStorage implements interfaces.ActivityStorage on Badger
type ActivityStorage struct {
	db     *BadgerDB
	logger arbor.ILogger

	mu  sync.Mutex
	seq *badger.Sequence
}

// NewActivityStorage creates a new ActivityStorage instance
func NewActivityStorage(db *BadgerDB, logger arbor.ILogger) *ActivityStorage {
	return &ActivityStorage{
		db:     db,
		logger: logger,
	}
}

var _ interfaces.ActivityStorage = (*ActivityStorage)(nil)

// EnsureSchema leases the id sequence. Badger has no table to create.
func (s *ActivityStorage) EnsureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq != nil {
		return nil
	}

	seq, err := s.db.Store().Badger().GetSequence(idSequenceKey, 64)
	if err != nil {
		return fmt.Errorf("%w: failed to open id sequence: %v", interfaces.ErrStorage, err)
	}
	s.seq = seq
	return nil
}

// InsertActivity checks the source_url index and inserts in one transaction
func (s *ActivityStorage) InsertActivity(ctx context.Context, activity *models.Activity) (int64, error) {
	if err := activity.Validate(); err != nil {
		return 0, fmt.Errorf("%w: invalid activity: %v", interfaces.ErrStorage, err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	record, err := toRecord(activity)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", interfaces.ErrStorage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to allocate id: %v", interfaces.ErrStorage, err)
	}
	// Sequences start at 0; ids start at 1 like the relational stores
	record.ID = next + 1

	store := s.db.Store()
	err = store.Badger().Update(func(tx *badger.Txn) error {
		if !activity.IsManual() {
			var existing []activityRecord
			query := badgerhold.Where("SourceURL").Eq(record.SourceURL).Index("SourceURL")
			if err := store.TxFind(tx, &existing, query); err != nil {
				return err
			}
			if len(existing) > 0 {
				return interfaces.ErrDuplicateSourceURL
			}
		}
		return store.TxInsert(tx, record.ID, record)
	})
	if errors.Is(err, interfaces.ErrDuplicateSourceURL) {
		return 0, fmt.Errorf("%w: %s", interfaces.ErrDuplicateSourceURL, activity.SourceURL)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert activity: %v", interfaces.ErrStorage, err)
	}

	activity.ID = int64(record.ID)
	activity.CreatedAt = record.CreatedAt
	return activity.ID, nil
}

// ListActivities returns every record ordered by id
func (s *ActivityStorage) ListActivities(ctx context.Context) ([]*models.Activity, error) {
	var records []activityRecord
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("%w: failed to list activities: %v", interfaces.ErrStorage, err)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	activities := make([]*models.Activity, 0, len(records))
	for i := range records {
		activity, err := fromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, nil
}

// GetActivity returns one record by id
func (s *ActivityStorage) GetActivity(ctx context.Context, id int64) (*models.Activity, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id %d", interfaces.ErrNotFound, id)
	}

	var record activityRecord
	if err := s.db.Store().Get(uint64(id), &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", interfaces.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: failed to get activity: %v", interfaces.ErrStorage, err)
	}
	record.ID = uint64(id)
	return fromRecord(&record)
}

// CountActivities returns the number of stored records
func (s *ActivityStorage) CountActivities(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&activityRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count activities: %v", interfaces.ErrStorage, err)
	}
	return int(count), nil
}

// Close releases the id sequence and closes the database
func (s *ActivityStorage) Close() error {
	s.mu.Lock()
	if s.seq != nil {
		if err := s.seq.Release(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to release id sequence")
		}
		s.seq = nil
	}
	s.mu.Unlock()

	return s.db.Close()
}

func toRecord(activity *models.Activity) (*activityRecord, error) {
	materials, err := models.EncodeList(activity.Materials)
	if err != nil {
		return nil, err
	}
	tags, err := models.EncodeList(activity.Tags)
	if err != nil {
		return nil, err
	}

	createdAt := activity.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	sourceURL := activity.SourceURL
	if activity.IsManual() {
		sourceURL = models.ManualSourceURL
	}

	return &activityRecord{
		Topic:           activity.Topic,
		Description:     activity.Description,
		GamesAndMethods: activity.GamesAndMethods,
		AgeGroup:        activity.AgeGroup,
		Duration:        activity.Duration,
		Materials:       materials,
		Tags:            tags,
		SourceURL:       sourceURL,
		CreatedAt:       createdAt,
	}, nil
}

func fromRecord(record *activityRecord) (*models.Activity, error) {
	materials, err := models.DecodeList(record.Materials)
	if err != nil {
		return nil, fmt.Errorf("%w: activity %d materials: %v", interfaces.ErrStorage, record.ID, err)
	}
	tags, err := models.DecodeList(record.Tags)
	if err != nil {
		return nil, fmt.Errorf("%w: activity %d tags: %v", interfaces.ErrStorage, record.ID, err)
	}

	return &models.Activity{
		ID:              int64(record.ID),
		Topic:           record.Topic,
		Description:     record.Description,
		GamesAndMethods: record.GamesAndMethods,
		AgeGroup:        record.AgeGroup,
		Duration:        record.Duration,
		Materials:       materials,
		Tags:            tags,
		SourceURL:       record.SourceURL,
		CreatedAt:       record.CreatedAt,
	}, nil
}
