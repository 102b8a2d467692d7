package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"bolao/api/internal/clock"
	"bolao/api/internal/metrics"
	"bolao/api/internal/models"
	"bolao/api/internal/repository"

	"github.com/rs/zerolog/log"
)

// FreshnessWindow is how long a synced round is served from the store
// without asking the provider again
const FreshnessWindow = 6 * 24 * time.Hour

// RoundView is a round with its matches ordered by kickoff
type RoundView struct {
	Round   *models.Round
	Matches []*models.Match
}

// RoundOptions configures a RoundService
type RoundOptions struct {
	ExternalLink   string
	CompetitionKey string
	CompetitionTTL time.Duration
}

// RoundService resolves the current round and answers round queries
type RoundService struct {
	rounds      RoundStore
	matches     MatchStore
	predictions PredictionStore
	provider    FixtureProvider
	cache       Cache
	opts        RoundOptions
	now         func() time.Time
}

// NewRoundService creates a round service. cache may be nil.
func NewRoundService(stores Stores, provider FixtureProvider, cache Cache, opts RoundOptions) *RoundService {
	if opts.CompetitionKey == "" {
		opts.CompetitionKey = "competition"
	}

	return &RoundService{
		rounds:      stores.Rounds,
		matches:     stores.Matches,
		predictions: stores.Predictions,
		provider:    provider,
		cache:       cache,
		opts:        opts,
		now:         time.Now,
	}
}

// Current returns the round open for predictions. A round synced within
// FreshnessWindow that has matches is served from the store; otherwise
// fixtures are pulled, the round and its matches upserted and the cutoff
// recomputed.
func (s *RoundService) Current(ctx context.Context) (*RoundView, error) {
	start := time.Now()
	now := s.now().UTC()

	comp, err := s.competition(ctx)
	if err != nil {
		return nil, upstream(err)
	}
	matchday := comp.CurrentMatchday()

	if matchday > 0 {
		season := models.ResolveSeasonYear(comp.SeasonStart(), nil, now)
		view, err := s.storedRound(ctx, season, matchday, now)
		if err != nil {
			return nil, err
		}
		if view != nil {
			return view, nil
		}
	}

	var resp *models.FootballMatchesResponse
	if matchday > 0 {
		resp, err = s.provider.FetchMatchesByMatchday(ctx, matchday)
	} else {
		resp, err = s.provider.FetchMatches(ctx)
	}
	if err != nil {
		metrics.RecordSync("fixtures", "error", time.Since(start).Seconds())
		return nil, upstream(err)
	}

	if len(resp.Matches) == 0 {
		return nil, NewError(KindNotFound, "No upcoming matches found")
	}

	fixtures := resp.Matches
	if matchday == 0 {
		fixtures, matchday = nextMatchday(resp.Matches, now)
		if matchday == 0 {
			return nil, NewError(KindNotFound, "No upcoming matches found")
		}
	}

	round := &models.Round{
		Season:      models.ResolveSeasonYear(comp.SeasonStart(), fixtures, now),
		RoundNumber: matchday,
		CutoffAt:    clock.NextCutoff(now),
		LastSyncAt:  sql.NullTime{Time: now, Valid: true},
	}
	if err := s.rounds.Upsert(ctx, round); err != nil {
		return nil, wrapError(KindInternal, "Failed to fetch next round", err)
	}

	for i := range fixtures {
		match := fixtures[i].ToMatch(round.ID, s.opts.ExternalLink)
		if err := s.matches.Upsert(ctx, match); err != nil {
			return nil, wrapError(KindInternal, "Failed to fetch next round", err)
		}
	}

	matches, err := s.matches.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to fetch next round", err)
	}

	metrics.RecordSync("fixtures", "success", time.Since(start).Seconds())
	log.Info().
		Int64("round_id", round.ID).
		Int("season", round.Season).
		Int("round_number", round.RoundNumber).
		Int("matches", len(matches)).
		Time("cutoff_at", round.CutoffAt).
		Msg("Round fixtures synced")

	return &RoundView{Round: round, Matches: matches}, nil
}

// storedRound returns the stored round when it is fresh and has matches,
// or nil when a provider pull is needed
func (s *RoundService) storedRound(ctx context.Context, season, matchday int, now time.Time) (*RoundView, error) {
	round, err := s.rounds.GetBySeasonNumber(ctx, season, matchday)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to fetch next round", err)
	}

	if !round.IsFresh(now, FreshnessWindow) {
		return nil, nil
	}

	matches, err := s.matches.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to fetch next round", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	log.Debug().
		Int64("round_id", round.ID).
		Time("last_sync_at", round.LastSyncAt.Time).
		Msg("Serving stored round")

	return &RoundView{Round: round, Matches: matches}, nil
}

// competition returns provider competition metadata, cached when possible
func (s *RoundService) competition(ctx context.Context) (*models.FootballCompetitionResponse, error) {
	if s.cache != nil {
		var cached models.FootballCompetitionResponse
		hit, err := s.cache.Get(ctx, s.opts.CompetitionKey, &cached)
		if err != nil {
			log.Warn().Err(err).Msg("Competition cache read failed")
		}
		if hit {
			return &cached, nil
		}
	}

	comp, err := s.provider.FetchCompetition(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.opts.CompetitionTTL > 0 {
		if err := s.cache.Set(ctx, s.opts.CompetitionKey, comp, s.opts.CompetitionTTL); err != nil {
			log.Warn().Err(err).Msg("Competition cache write failed")
		}
	}

	return comp, nil
}

// nextMatchday picks the smallest matchday among matches kicking off at or
// after now and returns that matchday's future matches
func nextMatchday(all []models.FootballMatchInput, now time.Time) ([]models.FootballMatchInput, int) {
	best := math.MaxInt
	var future []models.FootballMatchInput
	for _, m := range all {
		kickoff := m.KickoffAt()
		if kickoff.IsZero() || kickoff.Before(now) {
			continue
		}
		future = append(future, m)
		if md := m.MatchdayOrZero(); md > 0 && md < best {
			best = md
		}
	}

	if best == math.MaxInt {
		return nil, 0
	}

	var picked []models.FootballMatchInput
	for _, m := range future {
		if m.MatchdayOrZero() == best {
			picked = append(picked, m)
		}
	}

	return picked, best
}

// Get returns a stored round with its matches
func (s *RoundService) Get(ctx context.Context, roundID int64) (*RoundView, error) {
	round, err := s.rounds.GetByID(ctx, roundID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(KindNotFound, "Round not found")
	}
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to load round", err)
	}

	matches, err := s.matches.ListByRound(ctx, roundID)
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to load matches", err)
	}

	return &RoundView{Round: round, Matches: matches}, nil
}

// History lists rounds newest first
func (s *RoundService) History(ctx context.Context, includeActive bool) ([]*models.RoundSummary, error) {
	rounds, err := s.rounds.History(ctx, includeActive)
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to load round history", err)
	}
	return rounds, nil
}

// Predictions lists every prediction of a round with its match
func (s *RoundService) Predictions(ctx context.Context, roundID int64) ([]*models.RoundPrediction, error) {
	preds, err := s.predictions.ListByRound(ctx, roundID)
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to load predictions", err)
	}
	return preds, nil
}

func upstream(err error) *Error {
	metrics.RecordError("rounds", "upstream")
	return wrapError(KindUpstream, "Failed to fetch next round: "+err.Error(), err)
}
