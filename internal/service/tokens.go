package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"bolao/api/internal/models"
	"bolao/api/internal/repository"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const tokenBytes = 32

// Rejection reasons returned (wrapped) by TokenService.Validate
var (
	ErrTokenNotConfigured = errors.New("no-token-configured")
	ErrTokenExpired       = errors.New("expired")
	ErrTokenMismatch      = errors.New("mismatch")
)

// IssuedToken is the one-time view of a freshly issued submission token
type IssuedToken struct {
	RoundID   int64     `json:"roundId"`
	Token     string    `json:"submissionToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenService issues and validates the per-round submission secret
type TokenService struct {
	rounds RoundStore
	tokens TokenStore
	cost   int
	now    func() time.Time
}

// NewTokenService creates a token service hashing with bcrypt.DefaultCost
func NewTokenService(rounds RoundStore, tokens TokenStore) *TokenService {
	return &TokenService{
		rounds: rounds,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

// Issue generates a new secret for the round, replacing any previous one.
// The plaintext is returned here and never stored.
func (s *TokenService) Issue(ctx context.Context, roundID int64) (*IssuedToken, error) {
	round, err := s.rounds.GetByID(ctx, roundID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(KindNotFound, "Round not found")
	}
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to load round", err)
	}

	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, wrapError(KindInternal, "Failed to generate submission token", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(token), s.cost)
	if err != nil {
		return nil, wrapError(KindInternal, "Failed to hash submission token", err)
	}

	record := &models.SubmissionToken{
		RoundID:   round.ID,
		TokenHash: string(hash),
		ExpiresAt: round.CutoffAt,
	}
	if err := s.tokens.Upsert(ctx, record); err != nil {
		return nil, wrapError(KindInternal, "Failed to store submission token", err)
	}

	log.Info().
		Int64("round_id", round.ID).
		Time("expires_at", record.ExpiresAt).
		Msg("Submission token issued")

	return &IssuedToken{RoundID: round.ID, Token: token, ExpiresAt: record.ExpiresAt}, nil
}

// Validate checks supplied against the round's stored token. Expiry is
// checked before the hash.
func (s *TokenService) Validate(ctx context.Context, roundID int64, supplied string) error {
	record, err := s.tokens.GetByRound(ctx, roundID)
	if errors.Is(err, repository.ErrNotFound) {
		return wrapError(KindForbidden, "Submission token not configured for this round", ErrTokenNotConfigured)
	}
	if err != nil {
		return wrapError(KindInternal, "Failed to load submission token", err)
	}

	if s.now().After(record.ExpiresAt) {
		return wrapError(KindUnauthorized, "Submission token expired", ErrTokenExpired)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.TokenHash), []byte(supplied)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			log.Warn().Err(err).Int64("round_id", roundID).Msg("Stored submission token hash is unusable")
		}
		return wrapError(KindForbidden, "Invalid submission token", ErrTokenMismatch)
	}

	return nil
}
