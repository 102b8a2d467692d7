package repository

import (
	"context"
	"fmt"

	"bolao/api/internal/models"

	"github.com/jackc/pgx/v5"
)

// Tx is the set of writes that have to commit together: a submission with
// its prediction rows, a rescoring pass with its Score rebuild, and a
// participant removal.
type Tx interface {
	CreateSubmission(ctx context.Context, roundID int64, participantName string) error
	InsertPredictions(ctx context.Context, preds []*models.Prediction) error

	MatchesForRound(ctx context.Context, roundID int64) ([]*models.Match, error)
	UpdateMatchResult(ctx context.Context, res models.MatchResult) error
	PredictionsForMatch(ctx context.Context, matchID int64) ([]*models.Prediction, error)
	SetPredictionPoints(ctx context.Context, predictionID int64, points int) error
	ReplaceRoundScores(ctx context.Context, roundID int64) (int64, error)

	DeleteParticipant(ctx context.Context, roundID int64, participantName string) (*models.DeleteResult, error)
}

// unitOfWork binds every repository to one pgx transaction
type unitOfWork struct {
	matches     *MatchRepository
	predictions *PredictionRepository
	scores      *ScoreRepository
	submissions *SubmissionRepository
}

func newUnitOfWork(tx pgx.Tx) *unitOfWork {
	return &unitOfWork{
		matches:     &MatchRepository{q: tx},
		predictions: &PredictionRepository{q: tx},
		scores:      &ScoreRepository{q: tx},
		submissions: &SubmissionRepository{q: tx},
	}
}

func (u *unitOfWork) CreateSubmission(ctx context.Context, roundID int64, participantName string) error {
	return u.submissions.Create(ctx, roundID, participantName)
}

func (u *unitOfWork) InsertPredictions(ctx context.Context, preds []*models.Prediction) error {
	return u.predictions.InsertBatch(ctx, preds)
}

func (u *unitOfWork) MatchesForRound(ctx context.Context, roundID int64) ([]*models.Match, error) {
	return u.matches.ListByRound(ctx, roundID)
}

func (u *unitOfWork) UpdateMatchResult(ctx context.Context, res models.MatchResult) error {
	return u.matches.UpdateResult(ctx, res)
}

func (u *unitOfWork) PredictionsForMatch(ctx context.Context, matchID int64) ([]*models.Prediction, error) {
	return u.predictions.ListByMatch(ctx, matchID)
}

func (u *unitOfWork) SetPredictionPoints(ctx context.Context, predictionID int64, points int) error {
	return u.predictions.SetPoints(ctx, predictionID, points)
}

func (u *unitOfWork) ReplaceRoundScores(ctx context.Context, roundID int64) (int64, error) {
	return u.scores.ReplaceForRound(ctx, roundID)
}

// DeleteParticipant removes a participant's predictions, Score row and
// submission marker for one round
func (u *unitOfWork) DeleteParticipant(ctx context.Context, roundID int64, participantName string) (*models.DeleteResult, error) {
	deletedPredictions, err := u.predictions.DeleteByParticipant(ctx, roundID, participantName)
	if err != nil {
		return nil, err
	}

	deletedScores, err := u.scores.DeleteByParticipant(ctx, roundID, participantName)
	if err != nil {
		return nil, err
	}

	if _, err := u.submissions.Delete(ctx, roundID, participantName); err != nil {
		return nil, fmt.Errorf("failed to delete submission: %w", err)
	}

	return &models.DeleteResult{
		DeletedPredictions: deletedPredictions,
		DeletedScoreRows:   deletedScores,
	}, nil
}
