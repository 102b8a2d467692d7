package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"bolao/api/internal/metrics"
	"bolao/api/internal/models"
	"bolao/api/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	minParticipantName = 2
	minTokenLength     = 10
)

// PickInput is one submitted guess
type PickInput struct {
	MatchID int64 `json:"matchId"`
	Home    *int  `json:"home"`
	Away    *int  `json:"away"`
}

// SubmissionRequest is a participant's full set of picks for a round.
// RoundID may be omitted; it is then taken from the first pick's match.
type SubmissionRequest struct {
	RoundID         *int64      `json:"roundId"`
	ParticipantName string      `json:"participantName"`
	SubmissionToken string      `json:"submissionToken"`
	Predictions     []PickInput `json:"predictions"`
}

// SubmissionResult describes an accepted submission
type SubmissionResult struct {
	RoundID         int64
	ParticipantName string
	Count           int
}

// TokenValidator authorizes a submission for a round
type TokenValidator interface {
	Validate(ctx context.Context, roundID int64, supplied string) error
}

// IntakeService validates and persists prediction batches
type IntakeService struct {
	stores Stores
	tokens TokenValidator
	bypass bool
	now    func() time.Time
}

// NewIntakeService creates an intake service. With bypassTokens set, no
// submission token is required; every bypassed submission is logged.
func NewIntakeService(stores Stores, tokens TokenValidator, bypassTokens bool) *IntakeService {
	if bypassTokens {
		log.Warn().Msg("Submission token validation is BYPASSED")
	}

	return &IntakeService{
		stores: stores,
		tokens: tokens,
		bypass: bypassTokens,
		now:    time.Now,
	}
}

// Submit runs every precondition in order and then writes the submission
// marker and all prediction rows in one transaction
func (s *IntakeService) Submit(ctx context.Context, req SubmissionRequest) (*SubmissionResult, error) {
	name, err := validateSubmission(req)
	if err != nil {
		return nil, reject(err)
	}

	roundID, err := s.resolveRoundID(ctx, req)
	if err != nil {
		return nil, reject(err)
	}

	if _, err := s.stores.Rounds.GetByID(ctx, roundID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, reject(NewError(KindNotFound, "Round not found"))
		}
		return nil, wrapError(KindInternal, "Failed to load round", err)
	}

	if err := s.authorize(ctx, roundID, name, req.SubmissionToken); err != nil {
		return nil, reject(err)
	}

	used, err := s.stores.Predictions.ExistsForParticipant(ctx, roundID, name)
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to check participant", err)
	}
	if used {
		return nil, reject(NewError(KindConflict, "Name already used in this round"))
	}

	ids := make([]int64, len(req.Predictions))
	for i, p := range req.Predictions {
		ids[i] = p.MatchID
	}

	matches, err := s.stores.Matches.ListByIDsInRound(ctx, roundID, ids)
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to load matches", err)
	}
	if len(matches) != len(ids) {
		return nil, reject(NewError(KindValidation, "One or more matches are invalid for this round"))
	}

	now := s.now()
	for _, m := range matches {
		if m.IsLocked(now) {
			return nil, reject(NewError(KindLocked, "One or more matches already started"))
		}
	}

	preds := make([]*models.Prediction, len(req.Predictions))
	for i, p := range req.Predictions {
		preds[i] = &models.Prediction{
			RoundID:         roundID,
			MatchID:         p.MatchID,
			ParticipantName: name,
			PredHomeScore:   *p.Home,
			PredAwayScore:   *p.Away,
		}
	}

	err = s.stores.Tx.InTx(ctx, func(tx repository.Tx) error {
		if err := tx.CreateSubmission(ctx, roundID, name); err != nil {
			return err
		}
		return tx.InsertPredictions(ctx, preds)
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil, reject(NewError(KindConflict, "Name already used in this round"))
	}
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to save predictions", err)
	}

	metrics.RecordSubmission(len(preds))
	log.Info().
		Int64("round_id", roundID).
		Str("participant", name).
		Int("predictions", len(preds)).
		Msg("Predictions saved")

	return &SubmissionResult{RoundID: roundID, ParticipantName: name, Count: len(preds)}, nil
}

func (s *IntakeService) resolveRoundID(ctx context.Context, req SubmissionRequest) (int64, error) {
	if req.RoundID != nil && *req.RoundID != 0 {
		return *req.RoundID, nil
	}

	match, err := s.stores.Matches.GetByID(ctx, req.Predictions[0].MatchID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, NewError(KindNotFound, "Match not found")
	}
	if err != nil {
		return 0, wrapError(KindInternal, "Failed to load match", err)
	}

	return match.RoundID, nil
}

func (s *IntakeService) authorize(ctx context.Context, roundID int64, name, supplied string) error {
	if s.bypass {
		log.Warn().
			Int64("round_id", roundID).
			Str("participant", name).
			Msg("Submission token check bypassed")
		return nil
	}

	supplied = strings.TrimSpace(supplied)
	if len(supplied) < minTokenLength {
		return NewError(KindUnauthorized, "Submission token required")
	}

	return s.tokens.Validate(ctx, roundID, supplied)
}

// validateSubmission checks the payload shape and returns the trimmed name
func validateSubmission(req SubmissionRequest) (string, error) {
	invalid := NewError(KindValidation, "Invalid payload")

	name := strings.TrimSpace(req.ParticipantName)
	if len([]rune(name)) < minParticipantName {
		return "", invalid
	}

	if len(req.Predictions) == 0 {
		return "", invalid
	}

	if req.RoundID != nil && *req.RoundID < 0 {
		return "", invalid
	}

	seen := make(map[int64]bool, len(req.Predictions))
	for _, p := range req.Predictions {
		if p.MatchID <= 0 || seen[p.MatchID] {
			return "", invalid
		}
		seen[p.MatchID] = true

		if p.Home == nil || p.Away == nil || *p.Home < 0 || *p.Away < 0 {
			return "", invalid
		}
	}

	return name, nil
}

// reject counts a refused submission by error kind
func reject(err error) error {
	metrics.RecordSubmissionRejected(string(KindOf(err)))
	return err
}
