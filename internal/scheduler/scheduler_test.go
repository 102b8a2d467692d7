package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"bolao/api/internal/models"
	"bolao/api/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSyncer struct {
	calls int
	err   error
}

func (c *countingSyncer) SyncFinished(ctx context.Context) (*models.RescoreSummary, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &models.RescoreSummary{MatchesUpdated: 2, RoundsRecalculated: 1}, nil
}

type countingRefresher struct {
	calls int
}

func (c *countingRefresher) Current(ctx context.Context) (*service.RoundView, error) {
	c.calls++
	return &service.RoundView{Round: &models.Round{ID: 3}}, nil
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(Options{SyncFinishedCron: "not a cron"}, &countingSyncer{}, &countingRefresher{})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to schedule finished match sync")
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(Options{
		SyncFinishedCron:   "*/30 * * * *",
		FixtureRefreshCron: "0 9 * * *",
	}, &countingSyncer{}, &countingRefresher{})

	require.NoError(t, s.Start(context.Background()))
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()
}

func TestRunJobs(t *testing.T) {
	syncer := &countingSyncer{}
	refresher := &countingRefresher{}
	s := NewScheduler(Options{JobTimeout: time.Second}, syncer, refresher)
	ctx := context.Background()

	s.runJob(ctx, "sync_finished", s.syncFinished)
	s.runJob(ctx, "fixture_refresh", s.refreshFixtures)
	assert.Equal(t, 1, syncer.calls)
	assert.Equal(t, 1, refresher.calls)

	syncer.err = errors.New("provider down")
	s.runJob(ctx, "sync_finished", s.syncFinished)
	assert.Equal(t, 2, syncer.calls)
}

func TestRunJobSkipsAfterShutdown(t *testing.T) {
	syncer := &countingSyncer{}
	s := NewScheduler(Options{}, syncer, &countingRefresher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.runJob(ctx, "sync_finished", s.syncFinished)
	assert.Zero(t, syncer.calls)
}
