package models

import (
	"database/sql"
	"strings"
	"time"

	"bolao/api/internal/clock"
)

// Match statuses as normalized from the provider
const (
	StatusScheduled = "SCHEDULED"
	StatusTimed     = "TIMED"
	StatusInPlay    = "IN_PLAY"
	StatusPaused    = "PAUSED"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
	StatusSuspended = "SUSPENDED"
	StatusCancelled = "CANCELLED"
	StatusAwarded   = "AWARDED"
)

// Match represents a single fixture belonging to one round
type Match struct {
	ID           int64          `db:"id"`
	RoundID      int64          `db:"round_id"`
	ExternalID   int64          `db:"api_match_id"`
	KickoffAt    time.Time      `db:"utc_date"`
	Status       string         `db:"status"`
	HomeTeam     string         `db:"home_team"`
	AwayTeam     string         `db:"away_team"`
	HomeScore    sql.NullInt32  `db:"home_score"`
	AwayScore    sql.NullInt32  `db:"away_score"`
	ExternalLink sql.NullString `db:"external_link"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NormalizeStatus upper-cases and trims a provider status
func NormalizeStatus(status string) string {
	return strings.ToUpper(strings.TrimSpace(status))
}

// HasResult returns true once both final scores are known
func (m *Match) HasResult() bool {
	return m.HomeScore.Valid && m.AwayScore.Valid
}

// IsFinished returns true if the match has reached the finished state
func (m *Match) IsFinished() bool {
	return NormalizeStatus(m.Status) == StatusFinished
}

// IsLocked returns true if the match no longer accepts predictions at ref
func (m *Match) IsLocked(ref time.Time) bool {
	return clock.IsLocked(m.Status, m.KickoffAt, ref)
}

// Result returns the final scores, or nil pointers while unknown
func (m *Match) Result() (home, away *int) {
	if m.HomeScore.Valid {
		h := int(m.HomeScore.Int32)
		home = &h
	}
	if m.AwayScore.Valid {
		a := int(m.AwayScore.Int32)
		away = &a
	}
	return home, away
}

// MatchResult is a result update applied to a stored match by the scoring engine
type MatchResult struct {
	MatchID   int64
	RoundID   int64
	Status    string
	HomeScore *int
	AwayScore *int
}

// Known returns true if both scores are present
func (r MatchResult) Known() bool {
	return r.HomeScore != nil && r.AwayScore != nil
}

// NullScore converts an optional score into its column form
func NullScore(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}
