package repository

import (
	"context"
	"errors"
	"fmt"

	"bolao/api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// MatchRepository handles match database operations
type MatchRepository struct {
	q querier
}

const matchColumns = `id, round_id, api_match_id, utc_date, status, home_team, away_team,
	home_score, away_score, external_link, created_at, updated_at`

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.RoundID, &m.ExternalID, &m.KickoffAt, &m.Status, &m.HomeTeam, &m.AwayTeam,
		&m.HomeScore, &m.AwayScore, &m.ExternalLink, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMatches(rows pgx.Rows) ([]*models.Match, error) {
	defer rows.Close()

	matches := []*models.Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return matches, nil
}

// Upsert inserts or updates a match keyed on its provider id.
// The row id is never rewritten; round_id follows the provider.
func (r *MatchRepository) Upsert(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (
			round_id, api_match_id, utc_date, status, home_team, away_team,
			home_score, away_score, external_link
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (api_match_id) DO UPDATE SET
			round_id = EXCLUDED.round_id,
			utc_date = EXCLUDED.utc_date,
			status = EXCLUDED.status,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			external_link = EXCLUDED.external_link,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		match.RoundID, match.ExternalID, match.KickoffAt, match.Status, match.HomeTeam, match.AwayTeam,
		match.HomeScore, match.AwayScore, match.ExternalLink,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert match: %w", err)
	}

	log.Debug().
		Int64("match_id", match.ID).
		Int64("api_match_id", match.ExternalID).
		Str("home", match.HomeTeam).
		Str("away", match.AwayTeam).
		Str("status", match.Status).
		Msg("Match upserted")

	return nil
}

// GetByID retrieves a match by its database ID
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("match id=%d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return match, nil
}

// GetByExternalID retrieves a match by its football-data.org id
func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID int64) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE api_match_id = $1`

	match, err := scanMatch(r.q.QueryRow(ctx, query, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("match api_match_id=%d: %w", externalID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return match, nil
}

// ListByRound returns a round's matches ordered by kickoff
func (r *MatchRepository) ListByRound(ctx context.Context, roundID int64) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE round_id = $1 ORDER BY utc_date ASC, id ASC`

	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for round: %w", err)
	}

	return collectMatches(rows)
}

// ListByIDsInRound returns the subset of ids that belong to the round
func (r *MatchRepository) ListByIDsInRound(ctx context.Context, roundID int64, ids []int64) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE round_id = $1 AND id = ANY($2) ORDER BY utc_date ASC, id ASC`

	rows, err := r.q.Query(ctx, query, roundID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches by id: %w", err)
	}

	return collectMatches(rows)
}

// UpdateResult writes a provider status and score pair onto a stored match
func (r *MatchRepository) UpdateResult(ctx context.Context, res models.MatchResult) error {
	query := `
		UPDATE matches
		SET status = $2, home_score = $3, away_score = $4, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		res.MatchID, res.Status, models.NullScore(res.HomeScore), models.NullScore(res.AwayScore),
	)
	if err != nil {
		return fmt.Errorf("failed to update match result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("match id=%d: %w", res.MatchID, ErrNotFound)
	}

	return nil
}
