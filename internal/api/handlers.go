package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"bolao/api/internal/models"
	"bolao/api/internal/service"

	"github.com/gin-gonic/gin"
)

// RoundReader serves round queries
type RoundReader interface {
	Current(ctx context.Context) (*service.RoundView, error)
	Get(ctx context.Context, roundID int64) (*service.RoundView, error)
	History(ctx context.Context, includeActive bool) ([]*models.RoundSummary, error)
	Predictions(ctx context.Context, roundID int64) ([]*models.RoundPrediction, error)
}

// Submitter accepts prediction batches
type Submitter interface {
	Submit(ctx context.Context, req service.SubmissionRequest) (*service.SubmissionResult, error)
}

// TokenIssuer issues per-round submission tokens
type TokenIssuer interface {
	Issue(ctx context.Context, roundID int64) (*service.IssuedToken, error)
}

// Scorer runs result sync, recalculation and participant removal
type Scorer interface {
	SyncFinished(ctx context.Context) (*models.RescoreSummary, error)
	RecalculateRound(ctx context.Context, roundID int64) (*models.RescoreSummary, error)
	RemoveParticipant(ctx context.Context, roundID int64, participantName string) (*models.DeleteResult, error)
}

// Ranker serves rankings
type Ranker interface {
	ForRound(ctx context.Context, roundID int64) ([]*models.RankingEntry, error)
	Global(ctx context.Context) ([]*models.RankingEntry, error)
}

// HealthChecker reports store health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler holds the HTTP handlers of the API
type Handler struct {
	rounds   RoundReader
	intake   Submitter
	tokens   TokenIssuer
	scorer   Scorer
	rankings Ranker
	health   HealthChecker
}

var endpoints = []string{
	"/rounds/next",
	"/rounds/history",
	"/rounds/:id",
	"/predictions",
	"/rankings/round/:id",
	"/rankings/global",
}

func (h *Handler) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":      "bolao-brasileirao-api",
		"status":    "ok",
		"endpoints": endpoints,
	})
}

func (h *Handler) healthCheck(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) nextRound(c *gin.Context) {
	view, err := h.rounds.Current(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoundView(view, false))
}

func (h *Handler) roundHistory(c *gin.Context) {
	rounds, err := h.rounds.History(c.Request.Context(), c.Query("includeActive") == "true")
	if err != nil {
		abortWithError(c, err)
		return
	}
	if rounds == nil {
		rounds = []*models.RoundSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"rounds": rounds})
}

func (h *Handler) getRound(c *gin.Context) {
	roundID, ok := roundParam(c)
	if !ok {
		return
	}

	view, err := h.rounds.Get(c.Request.Context(), roundID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoundView(view, true))
}

func (h *Handler) roundPredictions(c *gin.Context) {
	roundID, ok := roundParam(c)
	if !ok {
		return
	}

	preds, err := h.rounds.Predictions(c.Request.Context(), roundID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roundId": roundID, "predictions": toPredictions(preds)})
}

func (h *Handler) recalculate(c *gin.Context) {
	roundID, ok := roundParam(c)
	if !ok {
		return
	}

	if _, err := h.scorer.RecalculateRound(c.Request.Context(), roundID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roundId": roundID, "message": "Scores recalculated"})
}

func (h *Handler) submitPredictions(c *gin.Context) {
	var req service.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid payload")
		return
	}
	if strings.TrimSpace(req.SubmissionToken) == "" {
		req.SubmissionToken = c.GetHeader(headerSubmissionToken)
	}

	res, err := h.intake.Submit(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":         "Predictions saved",
		"roundId":         res.RoundID,
		"participantName": res.ParticipantName,
	})
}

func (h *Handler) issueToken(c *gin.Context) {
	roundID, ok := roundParam(c)
	if !ok {
		return
	}

	issued, err := h.tokens.Issue(c.Request.Context(), roundID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, issued)
}

func (h *Handler) deleteParticipant(c *gin.Context) {
	roundID, ok := roundParam(c)
	if !ok {
		return
	}

	name := strings.TrimSpace(c.Param("name"))
	res, err := h.scorer.RemoveParticipant(c.Request.Context(), roundID, name)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, deleteDTO{RoundID: roundID, ParticipantName: name, DeleteResult: *res})
}

func (h *Handler) syncFinished(c *gin.Context) {
	if _, err := h.scorer.SyncFinished(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Finished matches synced"})
}

func (h *Handler) roundRanking(c *gin.Context) {
	roundID, ok := roundParam(c)
	if !ok {
		return
	}

	ranking, err := h.rankings.ForRound(c.Request.Context(), roundID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roundId": roundID, "ranking": nonNil(ranking)})
}

func (h *Handler) globalRanking(c *gin.Context) {
	ranking, err := h.rankings.Global(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranking": nonNil(ranking)})
}

// roundParam parses :id, writing a 400 when it is not an integer
func roundParam(c *gin.Context) (int64, bool) {
	roundID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid round id")
		return 0, false
	}
	return roundID, true
}

func nonNil(ranking []*models.RankingEntry) []*models.RankingEntry {
	if ranking == nil {
		return []*models.RankingEntry{}
	}
	return ranking
}
