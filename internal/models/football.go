package models

import (
	"database/sql"
	"strings"
	"time"

	"bolao/api/internal/clock"
)

// FootballTeamInput is a team reference inside a provider match
type FootballTeamInput struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FootballScoreLine is a (home, away) pair as sent by the provider
type FootballScoreLine struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// FootballMatchInput is a match as returned by football-data.org v4
type FootballMatchInput struct {
	ID       int64             `json:"id"`
	UTCDate  string            `json:"utcDate"` // ISO 8601 format
	Status   string            `json:"status"`
	Matchday *int              `json:"matchday"`
	HomeTeam FootballTeamInput `json:"homeTeam"`
	AwayTeam FootballTeamInput `json:"awayTeam"`
	Score    FootballScore     `json:"score"`
}

// FootballScore carries the full-time line of a match
type FootballScore struct {
	FullTime FootballScoreLine `json:"fullTime"`
}

// FootballSeasonInput describes a season window
type FootballSeasonInput struct {
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	CurrentMatchday *int   `json:"currentMatchday,omitempty"`
}

// FootballMatchesResponse is the envelope of the matches endpoints
type FootballMatchesResponse struct {
	Competition struct {
		Code string `json:"code"`
	} `json:"competition"`
	Season  FootballSeasonInput  `json:"season"`
	Matches []FootballMatchInput `json:"matches"`
}

// FootballCompetitionResponse is the competition endpoint payload
type FootballCompetitionResponse struct {
	ID            int64                `json:"id"`
	Code          string               `json:"code"`
	CurrentSeason *FootballSeasonInput `json:"currentSeason,omitempty"`
}

// CurrentMatchday returns the matchday the provider reports as current, or 0
func (c *FootballCompetitionResponse) CurrentMatchday() int {
	if c == nil || c.CurrentSeason == nil || c.CurrentSeason.CurrentMatchday == nil {
		return 0
	}
	return *c.CurrentSeason.CurrentMatchday
}

// SeasonStart returns the start date of the current season, if any
func (c *FootballCompetitionResponse) SeasonStart() string {
	if c == nil || c.CurrentSeason == nil {
		return ""
	}
	return c.CurrentSeason.StartDate
}

// KickoffAt parses UTCDate. Unparsable dates come back as the zero time.
func (fm *FootballMatchInput) KickoffAt() time.Time {
	t, _ := clock.ParseKickoff(fm.UTCDate)
	return t
}

// MatchdayOrZero returns the matchday, or 0 when the provider sent null
func (fm *FootballMatchInput) MatchdayOrZero() int {
	if fm.Matchday == nil {
		return 0
	}
	return *fm.Matchday
}

// ToMatch converts a provider match to the Match model
// Note: roundID must be resolved from the store
func (fm *FootballMatchInput) ToMatch(roundID int64, externalLink string) *Match {
	match := &Match{
		RoundID:    roundID,
		ExternalID: fm.ID,
		KickoffAt:  fm.KickoffAt(),
		Status:     NormalizeStatus(fm.Status),
		HomeTeam:   strings.TrimSpace(fm.HomeTeam.Name),
		AwayTeam:   strings.TrimSpace(fm.AwayTeam.Name),
		HomeScore:  NullScore(fm.Score.FullTime.Home),
		AwayScore:  NullScore(fm.Score.FullTime.Away),
	}

	if externalLink != "" {
		match.ExternalLink = sql.NullString{String: externalLink, Valid: true}
	}

	return match
}

// ResolveSeasonYear picks the season year from the season start, then the
// first match's date, then the current year.
func ResolveSeasonYear(seasonStart string, matches []FootballMatchInput, now time.Time) int {
	if seasonStart != "" {
		if t, err := time.Parse("2006-01-02", seasonStart); err == nil {
			return t.Year()
		}
		if t, err := time.Parse(time.RFC3339, seasonStart); err == nil {
			return t.Year()
		}
	}

	if len(matches) > 0 {
		if t, ok := clock.ParseKickoff(matches[0].UTCDate); ok {
			return t.Year()
		}
	}

	return now.UTC().Year()
}
