package processing

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/interfaces"
	"github.com/ternarybob/peulot/internal/models"
	"github.com/ternarybob/peulot/internal/services/crawler"
	"github.com/ternarybob/peulot/internal/services/enrichment"
	"github.com/ternarybob/peulot/internal/storage/sqlite"
)

const worthyText = "פעולה בנושא אמון\nמטרה: לחזק את הקבוצה\nשלב 1: משחק היכרות 10 דקות\nשלב 2: דיון בקבוצות קטנות\nסיכום עם החניכים והמדריך\nציוד: כדור וחבל"

type fakeSource struct {
	items []models.ScrapedItem
}

func (f *fakeSource) Walk(ctx context.Context, visit func(models.ScrapedItem) error) error {
	for _, item := range f.items {
		if err := visit(item); err != nil {
			return err
		}
	}
	return nil
}

type fakeEnricher struct {
	err   error
	calls int
}

func (f *fakeEnricher) Enrich(_ context.Context, rawText, sourceHint string) (*models.Metadata, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Metadata{
		Topic:     "אמון",
		AgeGroup:  "גילאי 12-13 (כיתות ז-ח)",
		Materials: []string{"כדור"},
		Tags:      []string{"trust", "teamwork"},
	}, nil
}

// slowEnricher records when each call starts and ends
type slowEnricher struct {
	fakeEnricher
	latency time.Duration
	starts  []time.Time
	ends    []time.Time
}

func (s *slowEnricher) Enrich(ctx context.Context, rawText, sourceHint string) (*models.Metadata, error) {
	s.starts = append(s.starts, time.Now())
	time.Sleep(s.latency)
	defer func() { s.ends = append(s.ends, time.Now()) }()
	return s.fakeEnricher.Enrich(ctx, rawText, sourceHint)
}

// failingStorage fails inserts for one source URL
type failingStorage struct {
	interfaces.ActivityStorage
	failURL   string
	schemaErr error
}

func (f *failingStorage) EnsureSchema(ctx context.Context) error {
	if f.schemaErr != nil {
		return f.schemaErr
	}
	return f.ActivityStorage.EnsureSchema(ctx)
}

func (f *failingStorage) InsertActivity(ctx context.Context, activity *models.Activity) (int64, error) {
	if activity.SourceURL == f.failURL {
		return 0, fmt.Errorf("%w: disk full", interfaces.ErrStorage)
	}
	return f.ActivityStorage.InsertActivity(ctx, activity)
}

func newTestStore(t *testing.T) *sqlite.ActivityStorage {
	t.Helper()
	logger := common.NewConsoleLogger()
	db, err := sqlite.NewSQLiteDB(logger, &common.SQLiteConfig{Path: filepath.Join(t.TempDir(), "peulot.db")})
	require.NoError(t, err)
	store := sqlite.NewActivityStorage(db, logger)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestService(source interfaces.TopicSource, enricher interfaces.MetadataEnricher, store interfaces.ActivityStorage, metrics *Metrics) *Service {
	return NewService(source, enricher, store, metrics, &common.ProcessingConfig{EnrichDelay: "0s"}, common.NewConsoleLogger())
}

func mixedItems() []models.ScrapedItem {
	return []models.ScrapedItem{
		{URL: "https://forum.test/topic/1", Text: worthyText, Page: 1},
		{URL: "https://forum.test/topic/2", Text: "שאלה: מישהו מכיר משחק טוב?", Page: 1},
		{URL: "https://forum.test/topic/3", Page: 1, Err: &crawler.FetchError{URL: "https://forum.test/topic/3", Kind: crawler.FailureHTTPStatus, StatusCode: 404}},
		{URL: "https://forum.test/topic/4", Page: 2, Err: crawler.ErrPlaceholderContent},
		{URL: "https://forum.test/topic/5", Text: worthyText + "\nשלב 3: סיכום", Page: 2},
	}
}

func TestRunCountsOutcomes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	metrics := NewMetrics(&common.MetricsConfig{})
	enricher := &fakeEnricher{}

	service := newTestService(&fakeSource{items: mixedItems()}, enricher, store, metrics)

	summary, err := service.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 3, summary.Scraped)
	assert.Equal(t, 2, summary.Worthy)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 2, summary.Outcomes[models.OutcomeInserted])
	assert.Equal(t, 1, summary.Outcomes[models.OutcomeFilterRejected])
	assert.Equal(t, 1, summary.Outcomes[models.OutcomeFetchFailed])
	assert.Equal(t, 1, summary.Outcomes[models.OutcomeParseFailed])
	assert.Zero(t, summary.EnrichmentFailures)
	assert.Equal(t, 2, enricher.calls, "only worthy items are enriched")

	activities, err := store.ListActivities(ctx)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, "https://forum.test/topic/1", activities[0].SourceURL)
	assert.Equal(t, "https://forum.test/topic/5", activities[1].SourceURL)
	assert.Equal(t, "אמון", activities[0].Topic)
	assert.Equal(t, models.UnknownDescription, activities[0].Description)
	assert.Equal(t, worthyText, activities[0].GamesAndMethods)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.items.WithLabelValues(string(models.OutcomeInserted))))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.items.WithLabelValues(string(models.OutcomeFilterRejected))))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.items.WithLabelValues(string(models.OutcomeDuplicate))))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.lastScraped))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.runs))

	last, lastErr := service.LastSummary()
	assert.NoError(t, lastErr)
	assert.Equal(t, summary.RunID, last.RunID)
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := newTestService(&fakeSource{items: mixedItems()}, &fakeEnricher{}, store, nil)

	_, err := service.Run(ctx)
	require.NoError(t, err)

	second, err := service.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Inserted)
	assert.Equal(t, 2, second.Outcomes[models.OutcomeDuplicate])

	count, err := store.CountActivities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunWithoutCredentialStoresSentinels(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	enricher := &fakeEnricher{err: &enrichment.Error{Kind: enrichment.FailureNoAPIKey, Err: interfaces.ErrNoAPIKey}}

	items := []models.ScrapedItem{{URL: "https://forum.test/topic/9", Text: worthyText, Page: 1}}
	service := newTestService(&fakeSource{items: items}, enricher, store, nil)

	summary, err := service.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Outcomes[models.OutcomeInsertedFallback])
	assert.Equal(t, 1, summary.EnrichmentFailures)
	assert.Equal(t, 1, summary.EnrichmentErrors[string(enrichment.FailureNoAPIKey)])

	activities, err := store.ListActivities(ctx)
	require.NoError(t, err)
	require.Len(t, activities, 1)

	stored := activities[0]
	assert.Equal(t, models.UnknownTopic, stored.Topic)
	assert.Equal(t, models.UnknownDescription, stored.Description)
	assert.Equal(t, models.UnknownValue, stored.AgeGroup)
	assert.Equal(t, models.UnknownValue, stored.Duration)
	assert.Equal(t, []string{}, stored.Materials)
	assert.Equal(t, []string{models.UntaggedTag}, stored.Tags)
	assert.Equal(t, worthyText, stored.GamesAndMethods)
}

func TestRunContinuesAfterStorageFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStorage{ActivityStorage: newTestStore(t), failURL: "https://forum.test/topic/1"}
	service := newTestService(&fakeSource{items: mixedItems()}, &fakeEnricher{}, store, nil)

	summary, err := service.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Outcomes[models.OutcomeStorageFailed])
	assert.Equal(t, 1, summary.Inserted)

	count, err := store.CountActivities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunAbortsOnSchemaFailure(t *testing.T) {
	store := &failingStorage{ActivityStorage: newTestStore(t), schemaErr: errors.New("read-only database")}
	enricher := &fakeEnricher{}
	service := newTestService(&fakeSource{items: mixedItems()}, enricher, store, nil)

	summary, err := service.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Zero(t, enricher.calls)
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	service := newTestService(&fakeSource{}, &fakeEnricher{}, newTestStore(t), nil)

	service.running.Lock()
	_, err := service.Run(context.Background())
	service.running.Unlock()

	assert.True(t, errors.Is(err, ErrRunInProgress))

	_, err = service.Run(context.Background())
	assert.NoError(t, err)
}

// cancellingSource cancels the run context after the first item
type cancellingSource struct {
	fakeSource
	cancel context.CancelFunc
}

func (c *cancellingSource) Walk(ctx context.Context, visit func(models.ScrapedItem) error) error {
	for i, item := range c.items {
		if err := visit(item); err != nil {
			return err
		}
		if i == 0 {
			c.cancel()
		}
	}
	return nil
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newTestStore(t)
	source := &cancellingSource{fakeSource: fakeSource{items: mixedItems()}, cancel: cancel}
	service := newTestService(source, &fakeEnricher{}, store, nil)

	summary, err := service.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Outcomes[models.OutcomeFilterRejected])

	count, err := store.CountActivities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngestText(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	service := newTestService(&fakeSource{}, &fakeEnricher{}, store, nil)

	id, outcome, err := service.IngestText(ctx, "  "+worthyText+"\n", "")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeInserted, outcome)

	stored, err := store.GetActivity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ManualSourceURL, stored.SourceURL)
	assert.Equal(t, worthyText, stored.GamesAndMethods)

	_, _, err = service.IngestText(ctx, "עוד פעולה", "")
	require.NoError(t, err, "manual records do not collide")

	_, outcome, err = service.IngestText(ctx, "   ", "")
	require.Error(t, err)
	assert.Equal(t, models.OutcomeParseFailed, outcome)
}

func worthyItems(n int) []models.ScrapedItem {
	items := make([]models.ScrapedItem, n)
	for i := range items {
		url := fmt.Sprintf("https://forum.test/topic/%d", i+1)
		items[i] = models.ScrapedItem{URL: url, Text: worthyText + "\n" + url, Page: 1}
	}
	return items
}

func TestRunPausesAfterEachEnrichment(t *testing.T) {
	store := newTestStore(t)
	enricher := &slowEnricher{latency: 60 * time.Millisecond}
	delay := 50 * time.Millisecond

	service := NewService(&fakeSource{items: worthyItems(3)}, enricher, store, nil,
		&common.ProcessingConfig{EnrichDelay: delay.String()}, common.NewConsoleLogger())

	summary, err := service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Inserted)

	require.Len(t, enricher.starts, 3)
	// A slow call must still be followed by the full pause
	for i := 1; i < len(enricher.starts); i++ {
		assert.GreaterOrEqual(t, enricher.starts[i].Sub(enricher.ends[i-1]), delay, "gap before call %d", i+1)
	}
}

func TestRunCancelledWhilePacingCountsInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newTestStore(t)
	enricher := &fakeEnricher{}
	source := &cancellingSource{fakeSource: fakeSource{items: worthyItems(2)}, cancel: cancel}
	service := NewService(source, enricher, store, nil,
		&common.ProcessingConfig{EnrichDelay: "1h"}, common.NewConsoleLogger())

	start := time.Now()
	summary, err := service.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Minute)

	assert.Equal(t, 2, summary.Worthy)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Outcomes[models.OutcomeInterrupted])
	assert.Equal(t, 1, enricher.calls)

	// Every worthy item ends with exactly one outcome
	total := 0
	for _, n := range summary.Outcomes {
		total += n
	}
	assert.Equal(t, summary.Worthy, total)
}
