package repository

import (
	"context"
	"fmt"

	"bolao/api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// PredictionRepository handles prediction-related database operations
type PredictionRepository struct {
	q querier
}

// ExistsForParticipant reports whether the name already has predictions in the round
func (r *PredictionRepository) ExistsForParticipant(ctx context.Context, roundID int64, participantName string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM predictions WHERE round_id = $1 AND participant_name = $2)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, roundID, participantName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check participant predictions: %w", err)
	}

	return exists, nil
}

// InsertBatch inserts every prediction in one round trip with points at 0.
// Run it inside a transaction to make the batch all-or-nothing.
func (r *PredictionRepository) InsertBatch(ctx context.Context, preds []*models.Prediction) error {
	if len(preds) == 0 {
		return fmt.Errorf("prediction batch cannot be empty")
	}

	query := `
		INSERT INTO predictions (round_id, match_id, participant_name, pred_home_score, pred_away_score, points)
		VALUES ($1, $2, $3, $4, $5, 0)
		RETURNING id, points, created_at, updated_at
	`

	batch := &pgx.Batch{}
	for _, p := range preds {
		batch.Queue(query, p.RoundID, p.MatchID, p.ParticipantName, p.PredHomeScore, p.PredAwayScore)
	}

	results := r.q.SendBatch(ctx, batch)
	defer results.Close()

	for _, p := range preds {
		err := results.QueryRow().Scan(&p.ID, &p.Points, &p.CreatedAt, &p.UpdatedAt)
		if isUniqueViolation(err) {
			return fmt.Errorf("prediction for match %d by %q: %w", p.MatchID, p.ParticipantName, ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to insert prediction: %w", err)
		}
	}

	log.Debug().
		Int64("round_id", preds[0].RoundID).
		Str("participant", preds[0].ParticipantName).
		Int("count", len(preds)).
		Msg("Predictions inserted")

	return nil
}

// ListByMatch returns every prediction tied to a match
func (r *PredictionRepository) ListByMatch(ctx context.Context, matchID int64) ([]*models.Prediction, error) {
	query := `
		SELECT id, round_id, match_id, participant_name, pred_home_score, pred_away_score,
		       points, created_at, updated_at
		FROM predictions
		WHERE match_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions for match: %w", err)
	}
	defer rows.Close()

	var preds []*models.Prediction
	for rows.Next() {
		var p models.Prediction
		err := rows.Scan(
			&p.ID, &p.RoundID, &p.MatchID, &p.ParticipantName, &p.PredHomeScore, &p.PredAwayScore,
			&p.Points, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		preds = append(preds, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}

	return preds, nil
}

// SetPoints overwrites the points of one prediction
func (r *PredictionRepository) SetPoints(ctx context.Context, predictionID int64, points int) error {
	query := `UPDATE predictions SET points = $2, updated_at = NOW() WHERE id = $1`

	if _, err := r.q.Exec(ctx, query, predictionID, points); err != nil {
		return fmt.Errorf("failed to set prediction points: %w", err)
	}

	return nil
}

// ListByRound returns a round's predictions joined with their matches,
// ordered by participant then kickoff
func (r *PredictionRepository) ListByRound(ctx context.Context, roundID int64) ([]*models.RoundPrediction, error) {
	query := `
		SELECT p.participant_name, p.pred_home_score, p.pred_away_score, p.points,
		       m.id, m.home_team, m.away_team, m.home_score, m.away_score, m.utc_date
		FROM predictions p
		JOIN matches m ON m.id = p.match_id
		WHERE p.round_id = $1
		ORDER BY p.participant_name ASC, m.utc_date ASC
	`

	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list round predictions: %w", err)
	}
	defer rows.Close()

	preds := []*models.RoundPrediction{}
	for rows.Next() {
		var p models.RoundPrediction
		err := rows.Scan(
			&p.ParticipantName, &p.PredHomeScore, &p.PredAwayScore, &p.Points,
			&p.MatchID, &p.HomeTeam, &p.AwayTeam, &p.HomeScore, &p.AwayScore, &p.KickoffAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round prediction: %w", err)
		}
		preds = append(preds, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating round predictions: %w", err)
	}

	return preds, nil
}

// DeleteByParticipant removes a participant's predictions for a round
func (r *PredictionRepository) DeleteByParticipant(ctx context.Context, roundID int64, participantName string) (int64, error) {
	query := `DELETE FROM predictions WHERE round_id = $1 AND participant_name = $2`

	tag, err := r.q.Exec(ctx, query, roundID, participantName)
	if err != nil {
		return 0, fmt.Errorf("failed to delete predictions: %w", err)
	}

	return tag.RowsAffected(), nil
}

// RankingForRound sums points live from predictions
func (r *PredictionRepository) RankingForRound(ctx context.Context, roundID int64) ([]*models.RankingEntry, error) {
	query := `
		SELECT participant_name, COALESCE(SUM(points), 0)::int AS points
		FROM predictions
		WHERE round_id = $1
		GROUP BY participant_name
		ORDER BY points DESC, participant_name ASC
	`

	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round ranking: %w", err)
	}

	return collectRanking(rows)
}

// GlobalRanking sums points across every round
func (r *PredictionRepository) GlobalRanking(ctx context.Context) ([]*models.RankingEntry, error) {
	query := `
		SELECT participant_name, COALESCE(SUM(points), 0)::int AS points
		FROM predictions
		GROUP BY participant_name
		ORDER BY points DESC, participant_name ASC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get global ranking: %w", err)
	}

	return collectRanking(rows)
}

func collectRanking(rows pgx.Rows) ([]*models.RankingEntry, error) {
	defer rows.Close()

	ranking := []*models.RankingEntry{}
	for rows.Next() {
		var e models.RankingEntry
		if err := rows.Scan(&e.Name, &e.Points); err != nil {
			return nil, fmt.Errorf("failed to scan ranking entry: %w", err)
		}
		ranking = append(ranking, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ranking: %w", err)
	}

	return ranking, nil
}
