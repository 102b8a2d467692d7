package scheduler

import (
	"context"
	"fmt"
	"time"

	"bolao/api/internal/metrics"
	"bolao/api/internal/models"
	"bolao/api/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ResultSyncer applies finished results and rescores
type ResultSyncer interface {
	SyncFinished(ctx context.Context) (*models.RescoreSummary, error)
}

// FixtureRefresher resolves the current round, pulling fixtures when stale
type FixtureRefresher interface {
	Current(ctx context.Context) (*service.RoundView, error)
}

// Options holds the cron schedules. An empty schedule disables its job.
type Options struct {
	SyncFinishedCron   string
	FixtureRefreshCron string
	JobTimeout         time.Duration
}

// Scheduler runs the periodic result sync and fixture refresh. A job that
// is still running when its next tick fires is skipped.
type Scheduler struct {
	opts     Options
	results  ResultSyncer
	fixtures FixtureRefresher
	cron     *cron.Cron
}

// NewScheduler creates a new scheduler instance
func NewScheduler(opts Options, results ResultSyncer, fixtures FixtureRefresher) *Scheduler {
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 5 * time.Minute
	}

	logger := cronLogger{}
	return &Scheduler{
		opts:     opts,
		results:  results,
		fixtures: fixtures,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start registers the jobs and starts the cron runner
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if s.opts.SyncFinishedCron != "" {
		if _, err := s.cron.AddFunc(s.opts.SyncFinishedCron, func() {
			s.runJob(ctx, "sync_finished", s.syncFinished)
		}); err != nil {
			return fmt.Errorf("failed to schedule finished match sync: %w", err)
		}
		log.Info().Str("schedule", s.opts.SyncFinishedCron).Msg("Finished match sync scheduled")
	}

	if s.opts.FixtureRefreshCron != "" {
		if _, err := s.cron.AddFunc(s.opts.FixtureRefreshCron, func() {
			s.runJob(ctx, "fixture_refresh", s.refreshFixtures)
		}); err != nil {
			return fmt.Errorf("failed to schedule fixture refresh: %w", err)
		}
		log.Info().Str("schedule", s.opts.FixtureRefreshCron).Msg("Fixture refresh scheduled")
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	log.Info().Msg("Scheduler stopped")
}

// runJob runs one job under the job timeout. Failures are logged and
// counted; the next tick retries.
func (s *Scheduler) runJob(ctx context.Context, name string, job func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.JobTimeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		metrics.RecordError("scheduler", name)
		log.Error().Err(err).Str("job", name).Dur("duration", time.Since(start)).Msg("Scheduled job failed")
		return
	}

	log.Debug().Str("job", name).Dur("duration", time.Since(start)).Msg("Scheduled job complete")
}

func (s *Scheduler) syncFinished(ctx context.Context) error {
	summary, err := s.results.SyncFinished(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Int("matches_updated", summary.MatchesUpdated).
		Int("rounds", summary.RoundsRecalculated).
		Msg("Scheduled result sync complete")
	return nil
}

func (s *Scheduler) refreshFixtures(ctx context.Context) error {
	view, err := s.fixtures.Current(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Int64("round_id", view.Round.ID).
		Int("matches", len(view.Matches)).
		Msg("Scheduled fixture refresh complete")
	return nil
}

// cronLogger routes robfig/cron's logging through zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
