package models

import (
	"database/sql"
	"time"
)

// Round represents one competitive period (a matchday of a season)
type Round struct {
	ID          int64        `db:"id"`
	Season      int          `db:"season"`
	RoundNumber int          `db:"round_number"`
	CutoffAt    time.Time    `db:"cutoff_at"`
	LastSyncAt  sql.NullTime `db:"last_sync_at"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

// IsFresh returns true if the round was synced less than window ago
func (r *Round) IsFresh(now time.Time, window time.Duration) bool {
	if !r.LastSyncAt.Valid {
		return false
	}
	return now.Sub(r.LastSyncAt.Time) < window
}

// RoundSummary is a row of the round history listing
type RoundSummary struct {
	ID          int64     `db:"id" json:"id"`
	Season      int       `db:"season" json:"season"`
	RoundNumber int       `db:"round_number" json:"roundNumber"`
	CutoffAt    time.Time `db:"cutoff_at" json:"cutoffAt"`
}
