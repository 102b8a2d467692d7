package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bolao/api/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	headerRequestID       = "X-Request-ID"
	headerAdminToken      = "X-Admin-Token"
	headerSubmissionToken = "X-Submission-Token"
)

// originPolicy answers allow-list questions for browser origins
type originPolicy struct {
	allowAll bool
	origins  map[string]bool
}

func newOriginPolicy(allowed []string) originPolicy {
	p := originPolicy{origins: make(map[string]bool)}
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			p.allowAll = true
		}
		if o != "" {
			p.origins[o] = true
		}
	}
	if len(p.origins) == 0 {
		p.allowAll = true
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	return origin == "" || p.allowAll || p.origins[origin]
}

func (p originPolicy) list() []string {
	out := make([]string, 0, len(p.origins))
	for o := range p.origins {
		out = append(out, o)
	}
	return out
}

// setupCORS mirrors the allow-list into CORS response headers
func setupCORS(p originPolicy) gin.HandlerFunc {
	methods := []string{"GET", "POST", "DELETE", "OPTIONS"}
	headers := []string{"Origin", "Content-Type", "Authorization", headerAdminToken, headerSubmissionToken, headerRequestID}

	if p.allowAll {
		return cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    methods,
			AllowHeaders:    headers,
			ExposeHeaders:   []string{"Content-Length", headerRequestID},
			MaxAge:          12 * time.Hour,
		})
	}

	return cors.New(cors.Config{
		AllowOrigins:  p.list(),
		AllowMethods:  methods,
		AllowHeaders:  headers,
		ExposeHeaders: []string{"Content-Length", headerRequestID},
		MaxAge:        12 * time.Hour,
	})
}

// originGuard runs ahead of CORS. Preflights and state-changing calls from
// an origin outside the allow-list get a JSON 403; requests without an Origin
// header (server to server, CLI) pass.
func originGuard(p originPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p.allows(c.GetHeader("Origin")) {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodOptions:
			abortWithMessage(c, http.StatusForbidden, "CORS origin not allowed")
		case http.MethodGet, http.MethodHead:
			c.Next()
		default:
			abortWithMessage(c, http.StatusForbidden, "Origin not allowed for this operation")
		}
	}
}

// requireAdmin checks X-Admin-Token against the configured secret. An
// empty secret rejects every call.
func requireAdmin(secret string) gin.HandlerFunc {
	expected := []byte(strings.TrimSpace(secret))

	return func(c *gin.Context) {
		if len(expected) == 0 {
			log.Error().Str("path", c.FullPath()).Msg("Admin token is not configured")
			abortWithMessage(c, http.StatusUnauthorized, "Invalid request")
			return
		}

		provided := []byte(strings.TrimSpace(c.GetHeader(headerAdminToken)))
		if subtle.ConstantTimeCompare(provided, expected) != 1 {
			log.Warn().Str("path", c.FullPath()).Str("ip", c.ClientIP()).Msg("Admin token rejected")
			abortWithMessage(c, http.StatusUnauthorized, "Invalid request")
			return
		}

		c.Next()
	}
}

// requestLogger tags each request with an id and logs it once it completes
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(headerRequestID, requestID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)

		metrics.RecordHTTPRequest(route, strconv.Itoa(status), latency.Seconds())

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}
		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Msg("HTTP request")
	}
}
