package processing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/interfaces"
	"github.com/ternarybob/peulot/internal/models"
	"github.com/ternarybob/peulot/internal/services/crawler"
	"github.com/ternarybob/peulot/internal/services/enrichment"
	"github.com/ternarybob/peulot/internal/services/filter"
)

// ErrRunInProgress is returned by Run while another run holds the store
var ErrRunInProgress = errors.New("processing run already in progress")

const enrichmentKey = "enrichment"

// Service drives the batch pipeline: scrape, filter, enrich, insert.
// Items are handled one at a time in discovery order; a failing item only
// changes its own outcome.
type Service struct {
	source   interfaces.TopicSource
	enricher interfaces.MetadataEnricher
	storage  interfaces.ActivityStorage
	metrics  *Metrics
	pacer    *crawler.Pacer
	logger   arbor.ILogger

	running sync.Mutex

	statusMu    sync.Mutex
	lastSummary *models.RunSummary
	lastRunErr  error
}

// NewService creates a new processing service. metrics may be nil.
func NewService(
	source interfaces.TopicSource,
	enricher interfaces.MetadataEnricher,
	storage interfaces.ActivityStorage,
	metrics *Metrics,
	config *common.ProcessingConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		source:   source,
		enricher: enricher,
		storage:  storage,
		metrics:  metrics,
		pacer:    crawler.NewPacer(common.ParseDuration(config.EnrichDelay, time.Second), 0),
		logger:   logger,
	}
}

// Run executes one batch. Only a schema failure or a concurrent run aborts it;
// the returned summary is complete even when the context was cancelled.
func (s *Service) Run(ctx context.Context) (*models.RunSummary, error) {
	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	summary := models.NewRunSummary(uuid.NewString())

	s.logger.Info().Str("run_id", summary.RunID).Msg("Starting processing run")

	if err := s.storage.EnsureSchema(ctx); err != nil {
		s.setStatus(nil, err)
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	walkErr := s.source.Walk(ctx, func(item models.ScrapedItem) error {
		s.processItem(ctx, summary, item)
		return ctx.Err()
	})

	summary.FinishedAt = time.Now().UTC()
	s.report(ctx, summary)

	if walkErr != nil && ctx.Err() != nil {
		walkErr = fmt.Errorf("processing run interrupted: %w", walkErr)
	}
	s.setStatus(summary, walkErr)
	return summary, walkErr
}

// IngestText enriches and stores a single write-up without the worthiness
// filter. An empty sourceURL stores a manual record.
func (s *Service) IngestText(ctx context.Context, rawText, sourceURL string) (int64, models.Outcome, error) {
	if err := s.storage.EnsureSchema(ctx); err != nil {
		return 0, models.OutcomeStorageFailed, fmt.Errorf("failed to ensure schema: %w", err)
	}

	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return 0, models.OutcomeParseFailed, fmt.Errorf("activity text is empty")
	}

	meta, enrichErr := s.enrich(ctx, rawText, sourceURL)
	return s.store(ctx, models.NewActivity(rawText, sourceURL, meta), enrichErr)
}

// LastSummary returns the summary and error of the most recent run
func (s *Service) LastSummary() (*models.RunSummary, error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.lastSummary, s.lastRunErr
}

func (s *Service) processItem(ctx context.Context, summary *models.RunSummary, item models.ScrapedItem) {
	if !item.OK() {
		outcome := models.OutcomeFetchFailed
		if item.Err == nil || errors.Is(item.Err, crawler.ErrNoContent) {
			outcome = models.OutcomeParseFailed
		}
		summary.Outcomes[outcome]++
		s.logger.Warn().
			Err(item.Err).
			Str("url", item.URL).
			Str("outcome", string(outcome)).
			Msg("Skipping topic")
		return
	}

	summary.Scraped++

	verdict := filter.Evaluate(item.Text)
	if !verdict.Worthy {
		summary.Outcomes[models.OutcomeFilterRejected]++
		s.logger.Debug().
			Str("url", item.URL).
			Str("reason", string(verdict.Reason)).
			Int("length", verdict.Length).
			Int("lines", verdict.Lines).
			Int("keyword_hits", verdict.PositiveHits).
			Msg("Topic rejected by filter")
		return
	}

	summary.Worthy++

	if err := s.pacer.Wait(ctx, enrichmentKey); err != nil {
		// Left for the next run; not stored, so it is not a duplicate then
		summary.Outcomes[models.OutcomeInterrupted]++
		s.logger.Warn().Err(err).Str("url", item.URL).Msg("Run cancelled before enrichment")
		return
	}

	meta, enrichErr := s.enrich(ctx, item.Text, item.URL)
	s.pacer.Done(enrichmentKey)
	if enrichErr != nil {
		summary.EnrichmentFailures++
		kind := enrichment.KindOf(enrichErr)
		if kind == "" {
			kind = "unknown"
		}
		summary.EnrichmentErrors[string(kind)]++
	}

	id, outcome, err := s.store(ctx, models.NewActivity(item.Text, item.URL, meta), enrichErr)
	summary.Outcomes[outcome]++

	switch outcome {
	case models.OutcomeInserted, models.OutcomeInsertedFallback:
		summary.Inserted++
		s.logger.Info().
			Int64("id", id).
			Str("url", item.URL).
			Str("outcome", string(outcome)).
			Msg("Activity stored")
	case models.OutcomeDuplicate:
		s.logger.Debug().Str("url", item.URL).Msg("Activity already stored")
	default:
		s.logger.Error().Err(err).Str("url", item.URL).Msg("Failed to store activity")
	}
}

func (s *Service) enrich(ctx context.Context, rawText, sourceHint string) (*models.Metadata, error) {
	if s.enricher == nil {
		return nil, &enrichment.Error{Kind: enrichment.FailureNoAPIKey, Err: interfaces.ErrNoAPIKey}
	}

	meta, err := s.enricher.Enrich(ctx, rawText, sourceHint)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("source", sourceHint).
			Str("kind", string(enrichment.KindOf(err))).
			Msg("Enrichment failed, storing with unknown metadata")
		return nil, err
	}
	return meta, nil
}

func (s *Service) store(ctx context.Context, activity *models.Activity, enrichErr error) (int64, models.Outcome, error) {
	id, err := s.storage.InsertActivity(ctx, activity)
	switch {
	case errors.Is(err, interfaces.ErrDuplicateSourceURL):
		return 0, models.OutcomeDuplicate, err
	case err != nil:
		return 0, models.OutcomeStorageFailed, err
	case enrichErr != nil:
		return id, models.OutcomeInsertedFallback, nil
	default:
		return id, models.OutcomeInserted, nil
	}
}

func (s *Service) report(ctx context.Context, summary *models.RunSummary) {
	event := s.logger.Info().
		Str("run_id", summary.RunID).
		Int("scraped", summary.Scraped).
		Int("worthy", summary.Worthy).
		Int("inserted", summary.Inserted).
		Int("enrichment_failures", summary.EnrichmentFailures).
		Dur("duration", summary.Duration())
	for _, outcome := range models.AllOutcomes {
		event = event.Int(string(outcome), summary.Outcomes[outcome])
	}
	event.Msg("Processing run completed")

	if s.metrics == nil {
		return
	}

	s.metrics.Observe(summary)
	if err := s.metrics.Push(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to push run metrics")
	}
}

func (s *Service) setStatus(summary *models.RunSummary, err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.lastSummary = summary
	s.lastRunErr = err
}
