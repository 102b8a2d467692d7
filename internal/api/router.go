// Package api exposes the prediction pool over HTTP with gin.
package api

import (
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// Services are the operations the router dispatches to
type Services struct {
	Rounds   RoundReader
	Intake   Submitter
	Tokens   TokenIssuer
	Scorer   Scorer
	Rankings Ranker
	Health   HealthChecker
}

// Options configures access control
type Options struct {
	AllowedOrigins []string
	AdminToken     string

	// EnableProfiling mounts net/http/pprof under /debug/pprof
	EnableProfiling bool
}

// NewRouter builds the gin engine with every route and middleware
func NewRouter(svc Services, opts Options) *gin.Engine {
	h := &Handler{
		rounds:   svc.Rounds,
		intake:   svc.Intake,
		tokens:   svc.Tokens,
		scorer:   svc.Scorer,
		rankings: svc.Rankings,
		health:   svc.Health,
	}
	origins := newOriginPolicy(opts.AllowedOrigins)
	admin := requireAdmin(opts.AdminToken)

	r := gin.New()
	r.Use(requestLogger(), gin.Recovery(), originGuard(origins), setupCORS(origins))

	r.GET("/", h.index)
	r.GET("/health", h.healthCheck)

	rounds := r.Group("/rounds")
	{
		rounds.GET("/next", h.nextRound)
		rounds.GET("/history", h.roundHistory)
		rounds.GET("/:id", h.getRound)
		rounds.GET("/:id/predictions", h.roundPredictions)
		rounds.POST("/:id/recalculate", admin, h.recalculate)
	}

	r.POST("/predictions", h.submitPredictions)

	adminGroup := r.Group("/admin", admin)
	{
		adminGroup.POST("/rounds/:id/submission-token", h.issueToken)
		adminGroup.DELETE("/rounds/:id/predictions/:name", h.deleteParticipant)
		adminGroup.POST("/sync-finished", h.syncFinished)
	}

	rankings := r.Group("/rankings")
	{
		rankings.GET("/round/:id", h.roundRanking)
		rankings.GET("/global", h.globalRanking)
	}

	if opts.EnableProfiling {
		pprof.Register(r)
	}

	r.NoRoute(func(c *gin.Context) {
		abortWithMessage(c, http.StatusNotFound, "Not Found")
	})

	return r
}
