package processing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/peulot/internal/common"
	"github.com/ternarybob/peulot/internal/models"
)

// Runner is the part of Service the scheduler drives
type Runner interface {
	Run(ctx context.Context) (*models.RunSummary, error)
}

// Scheduler handles periodic processing runs
type Scheduler struct {
	runner     Runner
	cron       *cron.Cron
	runTimeout time.Duration
	logger     arbor.ILogger

	// runs started by RunNow, which cron does not track
	immediate sync.WaitGroup

	// cancelled by Stop so active runs end with a partial summary
	runCtx     context.Context
	cancelRuns context.CancelFunc
}

// NewScheduler creates a new processing scheduler
func NewScheduler(runner Runner, logger arbor.ILogger) *Scheduler {
	runCtx, cancelRuns := context.WithCancel(context.Background())
	return &Scheduler{
		runner:     runner,
		cron:       cron.New(cron.WithParser(common.NewScheduleParser())),
		runTimeout: 2 * time.Hour,
		logger:     logger,
		runCtx:     runCtx,
		cancelRuns: cancelRuns,
	}
}

// Start begins the scheduled processing
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		// Default: daily at 03:00
		schedule = "0 0 3 * * *"
	}

	if _, err := s.cron.AddFunc(schedule, s.runScheduled); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Msg("Processing scheduler started")

	return nil
}

// Stop stops the scheduler and returns a context that is done when any
// running batch has finished
func (s *Scheduler) Stop() context.Context {
	cronDone := s.cron.Stop()
	s.cancelRuns()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.immediate.Wait()
		cancel()
	}()

	s.logger.Info().Msg("Processing scheduler stopped")
	return ctx
}

// RunNow triggers an immediate processing run
func (s *Scheduler) RunNow() {
	s.logger.Info().Msg("Triggering immediate processing run")
	s.immediate.Add(1)
	common.SafeGo(s.logger, "processing-run", func() {
		defer s.immediate.Done()
		s.runScheduled()
	})
}

// NextRun returns the next activation time, zero when nothing is scheduled
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(s.runCtx, s.runTimeout)
	defer cancel()

	summary, err := s.runner.Run(ctx)
	if errors.Is(err, ErrRunInProgress) {
		s.logger.Warn().Msg("Previous processing run still active, skipping")
		return
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("Scheduled processing failed")
		if summary == nil {
			return
		}
	}

	s.logger.Info().
		Str("run_id", summary.RunID).
		Int("inserted", summary.Inserted).
		Str("next_run", s.NextRun().Format(time.RFC3339)).
		Msg("Scheduled processing completed")
}
