package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"bolao/api/internal/metrics"
	"bolao/api/internal/models"
	"bolao/api/internal/repository"
	"bolao/api/internal/scoring"

	"github.com/rs/zerolog/log"
)

// ResultProvider returns the provider's finished matches
type ResultProvider interface {
	FetchFinishedMatches(ctx context.Context) (*models.FootballMatchesResponse, error)
}

// Engine recomputes prediction points and the per-round Score projection.
// Points are always a function of the stored scores, so every pass is
// idempotent.
type Engine struct {
	rounds   RoundStore
	matches  MatchStore
	tx       Transactor
	provider ResultProvider
}

// NewEngine creates a scoring engine
func NewEngine(stores Stores, provider ResultProvider) *Engine {
	return &Engine{
		rounds:   stores.Rounds,
		matches:  stores.Matches,
		tx:       stores.Tx,
		provider: provider,
	}
}

// SyncFinished pulls finished matches from the provider and, for each one
// already stored, updates its result, rescores its predictions and rebuilds
// its round's Score rows in one transaction. A provider failure leaves the
// store untouched.
func (e *Engine) SyncFinished(ctx context.Context) (*models.RescoreSummary, error) {
	start := time.Now()

	resp, err := e.provider.FetchFinishedMatches(ctx)
	if err != nil {
		metrics.RecordSync("finished_matches", "error", time.Since(start).Seconds())
		metrics.RecordError("engine", "upstream")
		return nil, wrapError(KindUpstream, "Failed to sync finished matches: "+err.Error(), err)
	}

	summary := &models.RescoreSummary{}
	touched := make(map[int64]bool)

	for _, fm := range resp.Matches {
		stored, err := e.matches.GetByExternalID(ctx, fm.ID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			metrics.RecordSync("finished_matches", "error", time.Since(start).Seconds())
			return summary, wrapError(KindInternal, "Failed to load match", err)
		}

		res := models.MatchResult{
			MatchID:   stored.ID,
			RoundID:   stored.RoundID,
			Status:    models.NormalizeStatus(fm.Status),
			HomeScore: fm.Score.FullTime.Home,
			AwayScore: fm.Score.FullTime.Away,
		}

		var scored int
		err = e.tx.InTx(ctx, func(tx repository.Tx) error {
			n, err := applyResult(ctx, tx, res)
			if err != nil {
				return err
			}
			scored = n
			_, err = tx.ReplaceRoundScores(ctx, res.RoundID)
			return err
		})
		if err != nil {
			metrics.RecordSync("finished_matches", "error", time.Since(start).Seconds())
			log.Error().Err(err).Int64("match_id", stored.ID).Msg("Failed to apply match result")
			return summary, wrapError(KindInternal, "Failed to apply match result", err)
		}

		summary.MatchesUpdated++
		summary.PredictionsScored += scored
		touched[res.RoundID] = true
	}
	summary.RoundsRecalculated = len(touched)

	metrics.RecordSync("finished_matches", "success", time.Since(start).Seconds())
	metrics.RecordPointsRecomputed(summary.PredictionsScored)
	log.Info().
		Int("provider_matches", len(resp.Matches)).
		Int("matches_updated", summary.MatchesUpdated).
		Int("predictions_scored", summary.PredictionsScored).
		Int("rounds", summary.RoundsRecalculated).
		Dur("duration", time.Since(start)).
		Msg("Finished matches synced")

	return summary, nil
}

// RecalculateRound rescores every match of the round that has both scores,
// marks those matches finished and rebuilds the round's Score rows, all in
// one transaction
func (e *Engine) RecalculateRound(ctx context.Context, roundID int64) (*models.RescoreSummary, error) {
	if _, err := e.rounds.GetByID(ctx, roundID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewError(KindNotFound, "Round not found")
		}
		return nil, wrapError(KindInternal, "Failed to load round", err)
	}

	summary := &models.RescoreSummary{}
	err := e.tx.InTx(ctx, func(tx repository.Tx) error {
		matches, err := tx.MatchesForRound(ctx, roundID)
		if err != nil {
			return err
		}

		updated, scored := 0, 0
		for _, m := range matches {
			if !m.HasResult() {
				continue
			}

			home, away := m.Result()
			n, err := applyResult(ctx, tx, models.MatchResult{
				MatchID:   m.ID,
				RoundID:   m.RoundID,
				Status:    models.StatusFinished,
				HomeScore: home,
				AwayScore: away,
			})
			if err != nil {
				return err
			}
			updated++
			scored += n
		}

		if updated == 0 {
			return NewError(KindValidation, "No finished matches to recalculate")
		}

		if _, err := tx.ReplaceRoundScores(ctx, roundID); err != nil {
			return err
		}

		summary.MatchesUpdated = updated
		summary.PredictionsScored = scored
		summary.RoundsRecalculated = 1
		return nil
	})

	var svcErr *Error
	if errors.As(err, &svcErr) {
		return nil, svcErr
	}
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to recalculate round", err)
	}

	metrics.RecordPointsRecomputed(summary.PredictionsScored)
	log.Info().
		Int64("round_id", roundID).
		Int("matches", summary.MatchesUpdated).
		Int("predictions_scored", summary.PredictionsScored).
		Msg("Round scores recalculated")

	return summary, nil
}

// RemoveParticipant deletes a participant's predictions, Score row and
// submission marker for a round
func (e *Engine) RemoveParticipant(ctx context.Context, roundID int64, participantName string) (*models.DeleteResult, error) {
	name := strings.TrimSpace(participantName)
	if len([]rune(name)) < minParticipantName {
		return nil, NewError(KindValidation, "Invalid participant name")
	}

	var result *models.DeleteResult
	err := e.tx.InTx(ctx, func(tx repository.Tx) error {
		var err error
		result, err = tx.DeleteParticipant(ctx, roundID, name)
		return err
	})
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to delete predictions", err)
	}

	log.Info().
		Int64("round_id", roundID).
		Str("participant", name).
		Int64("deleted_predictions", result.DeletedPredictions).
		Int64("deleted_score_rows", result.DeletedScoreRows).
		Msg("Participant predictions deleted")

	return result, nil
}

// applyResult stores res and rescores the match's predictions. While either
// score is unknown every tied prediction reads 0.
func applyResult(ctx context.Context, tx repository.Tx, res models.MatchResult) (int, error) {
	if err := tx.UpdateMatchResult(ctx, res); err != nil {
		return 0, err
	}

	preds, err := tx.PredictionsForMatch(ctx, res.MatchID)
	if err != nil {
		return 0, err
	}

	scored := 0
	for _, p := range preds {
		points := 0
		if res.Known() {
			points = scoring.Points(p.PredHomeScore, p.PredAwayScore, *res.HomeScore, *res.AwayScore)
			scored++
		}
		if p.Points == points {
			continue
		}
		if err := tx.SetPredictionPoints(ctx, p.ID, points); err != nil {
			return 0, err
		}
	}

	return scored, nil
}
