package service

import (
	"context"

	"bolao/api/internal/models"
)

// RankingService aggregates points live from prediction rows
type RankingService struct {
	predictions PredictionStore
}

// NewRankingService creates a ranking service
func NewRankingService(predictions PredictionStore) *RankingService {
	return &RankingService{predictions: predictions}
}

// ForRound ranks participants of one round, points descending then name
func (s *RankingService) ForRound(ctx context.Context, roundID int64) ([]*models.RankingEntry, error) {
	ranking, err := s.predictions.RankingForRound(ctx, roundID)
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to load ranking", err)
	}
	return ranking, nil
}

// Global ranks participants across every round
func (s *RankingService) Global(ctx context.Context) ([]*models.RankingEntry, error) {
	ranking, err := s.predictions.GlobalRanking(ctx)
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to load ranking", err)
	}
	return ranking, nil
}
