package repository

import (
	"context"
	"errors"
	"fmt"

	"bolao/api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// RoundRepository handles round database operations
type RoundRepository struct {
	q querier
}

const roundColumns = `id, season, round_number, cutoff_at, last_sync_at, created_at, updated_at`

func scanRound(row pgx.Row) (*models.Round, error) {
	var r models.Round
	err := row.Scan(&r.ID, &r.Season, &r.RoundNumber, &r.CutoffAt, &r.LastSyncAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Upsert inserts or updates a round keyed on (season, round_number).
// The update path only refreshes cutoff_at and last_sync_at.
func (r *RoundRepository) Upsert(ctx context.Context, round *models.Round) error {
	query := `
		INSERT INTO rounds (season, round_number, cutoff_at, last_sync_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (season, round_number) DO UPDATE SET
			cutoff_at = EXCLUDED.cutoff_at,
			last_sync_at = EXCLUDED.last_sync_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		round.Season, round.RoundNumber, round.CutoffAt, round.LastSyncAt,
	).Scan(&round.ID, &round.CreatedAt, &round.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert round: %w", err)
	}

	log.Debug().
		Int64("round_id", round.ID).
		Int("season", round.Season).
		Int("round_number", round.RoundNumber).
		Time("cutoff_at", round.CutoffAt).
		Msg("Round upserted")

	return nil
}

// GetByID retrieves a round by its database ID
func (r *RoundRepository) GetByID(ctx context.Context, id int64) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1`

	round, err := scanRound(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("round id=%d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}

	return round, nil
}

// GetBySeasonNumber retrieves a round by its natural key
func (r *RoundRepository) GetBySeasonNumber(ctx context.Context, season, roundNumber int) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE season = $1 AND round_number = $2`

	round, err := scanRound(r.q.QueryRow(ctx, query, season, roundNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("round season=%d number=%d: %w", season, roundNumber, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}

	return round, nil
}

// History lists rounds newest first. Without includeActive, only rounds
// whose every stored match is FINISHED are returned; rounds without
// matches never qualify.
func (r *RoundRepository) History(ctx context.Context, includeActive bool) ([]*models.RoundSummary, error) {
	query := `
		SELECT r.id, r.season, r.round_number, r.cutoff_at
		FROM rounds r
		ORDER BY r.season DESC, r.round_number DESC
	`
	if !includeActive {
		query = `
			SELECT r.id, r.season, r.round_number, r.cutoff_at
			FROM rounds r
			WHERE r.id IN (
				SELECT round_id FROM matches
				GROUP BY round_id
				HAVING SUM(CASE WHEN status <> 'FINISHED' THEN 1 ELSE 0 END) = 0
			)
			ORDER BY r.season DESC, r.round_number DESC
		`
	}

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list round history: %w", err)
	}
	defer rows.Close()

	rounds := []*models.RoundSummary{}
	for rows.Next() {
		var s models.RoundSummary
		if err := rows.Scan(&s.ID, &s.Season, &s.RoundNumber, &s.CutoffAt); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}

	return rounds, nil
}
