package models

import (
	"database/sql"
	"time"
)

// Prediction is one participant's guess for one match
type Prediction struct {
	ID              int64  `db:"id"`
	RoundID         int64  `db:"round_id"`
	MatchID         int64  `db:"match_id"`
	ParticipantName string `db:"participant_name"`
	PredHomeScore   int    `db:"pred_home_score"`
	PredAwayScore   int    `db:"pred_away_score"`

	// Points stays 0 until the match has both scores
	Points int `db:"points"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Score is the per-participant total of a round. It is a projection of
// prediction points and is rebuilt wholesale on every recalculation.
type Score struct {
	RoundID         int64  `db:"round_id"`
	ParticipantName string `db:"participant_name"`
	PointsTotal     int    `db:"points_total"`
}

// SubmissionToken is the active submission secret of a round. Only the hash is stored.
type SubmissionToken struct {
	RoundID   int64     `db:"round_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// RoundPrediction is a prediction joined with its match, as listed per round
type RoundPrediction struct {
	ParticipantName string        `db:"participant_name"`
	PredHomeScore   int           `db:"pred_home_score"`
	PredAwayScore   int           `db:"pred_away_score"`
	Points          int           `db:"points"`
	MatchID         int64         `db:"match_id"`
	HomeTeam        string        `db:"home_team"`
	AwayTeam        string        `db:"away_team"`
	HomeScore       sql.NullInt32 `db:"home_score"`
	AwayScore       sql.NullInt32 `db:"away_score"`
	KickoffAt       time.Time     `db:"utc_date"`
}

// RankingEntry is one participant's aggregated points
type RankingEntry struct {
	Name   string `db:"participant_name" json:"name"`
	Points int    `db:"points" json:"points"`
}

// DeleteResult reports what an administrative participant removal deleted
type DeleteResult struct {
	DeletedPredictions int64 `json:"deletedPredictions"`
	DeletedScoreRows   int64 `json:"deletedScoreRows"`
}

// RescoreSummary reports what one scoring pass touched
type RescoreSummary struct {
	MatchesUpdated     int
	PredictionsScored  int
	RoundsRecalculated int
}
