package repository

import (
	"context"
	"fmt"
)

// SubmissionRepository records one submission per (round, participant).
// Its unique key rejects the second of two concurrent submissions.
type SubmissionRepository struct {
	q querier
}

// Create records a submission, returning ErrConflict if the name was already used
func (r *SubmissionRepository) Create(ctx context.Context, roundID int64, participantName string) error {
	query := `INSERT INTO submissions (round_id, participant_name) VALUES ($1, $2)`

	_, err := r.q.Exec(ctx, query, roundID, participantName)
	if isUniqueViolation(err) {
		return fmt.Errorf("submission round_id=%d name=%q: %w", roundID, participantName, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// Delete removes a submission marker so the name can be reused
func (r *SubmissionRepository) Delete(ctx context.Context, roundID int64, participantName string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM submissions WHERE round_id = $1 AND participant_name = $2`, roundID, participantName)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
