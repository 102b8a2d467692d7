package repository

import (
	"context"
	"errors"
	"fmt"

	"bolao/api/internal/models"

	"github.com/jackc/pgx/v5"
)

// TokenRepository stores the hashed submission token of each round
type TokenRepository struct {
	q querier
}

// Upsert stores a token hash, replacing any previous token of the round
func (r *TokenRepository) Upsert(ctx context.Context, token *models.SubmissionToken) error {
	query := `
		INSERT INTO submission_tokens (round_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (round_id) DO UPDATE SET
			token_hash = EXCLUDED.token_hash,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query, token.RoundID, token.TokenHash, token.ExpiresAt).
		Scan(&token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert submission token: %w", err)
	}

	return nil
}

// GetByRound returns the active token of a round
func (r *TokenRepository) GetByRound(ctx context.Context, roundID int64) (*models.SubmissionToken, error) {
	query := `
		SELECT round_id, token_hash, expires_at, created_at, updated_at
		FROM submission_tokens
		WHERE round_id = $1
	`

	var t models.SubmissionToken
	err := r.q.QueryRow(ctx, query, roundID).Scan(&t.RoundID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("submission token round_id=%d: %w", roundID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission token: %w", err)
	}

	return &t, nil
}
