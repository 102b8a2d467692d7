package repository

import (
	"context"
	"fmt"

	"bolao/api/internal/models"
)

// ScoreRepository maintains the per-round Score projection
type ScoreRepository struct {
	q querier
}

// ReplaceForRound rebuilds a round's Score rows from prediction points.
// Must run inside a transaction so readers never see the emptied table.
func (r *ScoreRepository) ReplaceForRound(ctx context.Context, roundID int64) (int64, error) {
	if _, err := r.q.Exec(ctx, `DELETE FROM scores WHERE round_id = $1`, roundID); err != nil {
		return 0, fmt.Errorf("failed to clear round scores: %w", err)
	}

	query := `
		INSERT INTO scores (round_id, participant_name, points_total)
		SELECT round_id, participant_name, SUM(points)
		FROM predictions
		WHERE round_id = $1
		GROUP BY round_id, participant_name
	`

	tag, err := r.q.Exec(ctx, query, roundID)
	if err != nil {
		return 0, fmt.Errorf("failed to rebuild round scores: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ListByRound returns the materialized Score rows of a round
func (r *ScoreRepository) ListByRound(ctx context.Context, roundID int64) ([]*models.Score, error) {
	query := `
		SELECT round_id, participant_name, points_total
		FROM scores
		WHERE round_id = $1
		ORDER BY points_total DESC, participant_name ASC
	`

	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list round scores: %w", err)
	}
	defer rows.Close()

	var scores []*models.Score
	for rows.Next() {
		var s models.Score
		if err := rows.Scan(&s.RoundID, &s.ParticipantName, &s.PointsTotal); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}

	return scores, nil
}

// DeleteByParticipant removes one participant's Score row for a round
func (r *ScoreRepository) DeleteByParticipant(ctx context.Context, roundID int64, participantName string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM scores WHERE round_id = $1 AND participant_name = $2`, roundID, participantName)
	if err != nil {
		return 0, fmt.Errorf("failed to delete scores: %w", err)
	}

	return tag.RowsAffected(), nil
}
