// Package service holds the prediction pool's business operations: round
// resolution, submission tokens, prediction intake, scoring and rankings.
// Services depend on the narrow store and provider interfaces below; the
// pgx repositories and the football-data.org client satisfy them.
package service

import (
	"context"
	"time"

	"bolao/api/internal/models"
	"bolao/api/internal/repository"
)

// RoundStore reads and writes rounds
type RoundStore interface {
	Upsert(ctx context.Context, round *models.Round) error
	GetByID(ctx context.Context, id int64) (*models.Round, error)
	GetBySeasonNumber(ctx context.Context, season, roundNumber int) (*models.Round, error)
	History(ctx context.Context, includeActive bool) ([]*models.RoundSummary, error)
}

// MatchStore reads and writes matches
type MatchStore interface {
	Upsert(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int64) (*models.Match, error)
	GetByExternalID(ctx context.Context, externalID int64) (*models.Match, error)
	ListByRound(ctx context.Context, roundID int64) ([]*models.Match, error)
	ListByIDsInRound(ctx context.Context, roundID int64, ids []int64) ([]*models.Match, error)
}

// PredictionStore answers read-only prediction queries
type PredictionStore interface {
	ExistsForParticipant(ctx context.Context, roundID int64, participantName string) (bool, error)
	ListByRound(ctx context.Context, roundID int64) ([]*models.RoundPrediction, error)
	RankingForRound(ctx context.Context, roundID int64) ([]*models.RankingEntry, error)
	GlobalRanking(ctx context.Context) ([]*models.RankingEntry, error)
}

// TokenStore persists submission token hashes
type TokenStore interface {
	Upsert(ctx context.Context, token *models.SubmissionToken) error
	GetByRound(ctx context.Context, roundID int64) (*models.SubmissionToken, error)
}

// Transactor runs fn as one atomic unit
type Transactor interface {
	InTx(ctx context.Context, fn func(tx repository.Tx) error) error
}

// Stores bundles the persistence dependencies of the services
type Stores struct {
	Rounds      RoundStore
	Matches     MatchStore
	Predictions PredictionStore
	Tokens      TokenStore
	Tx          Transactor
}

// FixtureProvider is the upstream source of fixtures and results
type FixtureProvider interface {
	FetchCompetition(ctx context.Context) (*models.FootballCompetitionResponse, error)
	FetchMatches(ctx context.Context) (*models.FootballMatchesResponse, error)
	FetchMatchesByMatchday(ctx context.Context, matchday int) (*models.FootballMatchesResponse, error)
	FetchFinishedMatches(ctx context.Context) (*models.FootballMatchesResponse, error)
}

// Cache is a best-effort JSON cache
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}
