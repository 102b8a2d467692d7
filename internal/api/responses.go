package api

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"bolao/api/internal/models"
	"bolao/api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type roundDTO struct {
	ID          int64     `json:"id"`
	Season      int       `json:"season"`
	RoundNumber int       `json:"roundNumber"`
	CutoffAt    time.Time `json:"cutoffAt"`
}

type scoreDTO struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type matchDTO struct {
	ID           int64     `json:"id"`
	UTCDate      time.Time `json:"utcDate"`
	Status       string    `json:"status"`
	HomeTeam     string    `json:"homeTeam"`
	AwayTeam     string    `json:"awayTeam"`
	ExternalLink *string   `json:"externalLink"`
	Score        *scoreDTO `json:"score,omitempty"`
}

type roundViewDTO struct {
	Round   roundDTO   `json:"round"`
	Matches []matchDTO `json:"matches"`
}

type predictionDTO struct {
	ParticipantName string    `json:"participantName"`
	PredHome        int       `json:"predHome"`
	PredAway        int       `json:"predAway"`
	Points          int       `json:"points"`
	MatchID         int64     `json:"matchId"`
	HomeTeam        string    `json:"homeTeam"`
	AwayTeam        string    `json:"awayTeam"`
	HomeScore       *int      `json:"homeScore"`
	AwayScore       *int      `json:"awayScore"`
	UTCDate         time.Time `json:"utcDate"`
}

type deleteDTO struct {
	RoundID         int64  `json:"roundId"`
	ParticipantName string `json:"participantName"`
	models.DeleteResult
}

func toRoundView(view *service.RoundView, withScores bool) roundViewDTO {
	out := roundViewDTO{
		Round: roundDTO{
			ID:          view.Round.ID,
			Season:      view.Round.Season,
			RoundNumber: view.Round.RoundNumber,
			CutoffAt:    view.Round.CutoffAt,
		},
		Matches: make([]matchDTO, 0, len(view.Matches)),
	}

	for _, m := range view.Matches {
		dto := matchDTO{
			ID:           m.ID,
			UTCDate:      m.KickoffAt,
			Status:       m.Status,
			HomeTeam:     m.HomeTeam,
			AwayTeam:     m.AwayTeam,
			ExternalLink: nullString(m.ExternalLink),
		}
		if withScores {
			home, away := m.Result()
			dto.Score = &scoreDTO{Home: home, Away: away}
		}
		out.Matches = append(out.Matches, dto)
	}

	return out
}

func toPredictions(rows []*models.RoundPrediction) []predictionDTO {
	out := make([]predictionDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, predictionDTO{
			ParticipantName: p.ParticipantName,
			PredHome:        p.PredHomeScore,
			PredAway:        p.PredAwayScore,
			Points:          p.Points,
			MatchID:         p.MatchID,
			HomeTeam:        p.HomeTeam,
			AwayTeam:        p.AwayTeam,
			HomeScore:       nullInt(p.HomeScore),
			AwayScore:       nullInt(p.AwayScore),
			UTCDate:         p.KickoffAt,
		})
	}
	return out
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int32)
	return &n
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindConflict:
		return http.StatusConflict
	case service.KindLocked:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes {"error": message}. Unclassified errors are logged
// and reported generically.
func abortWithError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status := statusFor(kind)

	message := "Internal server error"
	var svcErr *service.Error
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		message = svcErr.Message
	}

	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("kind", string(kind)).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
