package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"venueflow/pkg/domain"
)

const (
	principalKey    = "venueflow.principal"
	requestIDHeader = "X-Request-ID"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (domain.Principal, error)
}

// requestLogger logs every request once it completes, at a level derived
// from the status code, and echoes or assigns a request id.
func requestLogger(logger zerolog.Logger, requests *requestMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requests.observe(c.Request.Method, route, status)

		event := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case status >= http.StatusBadRequest:
			event = logger.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		if p, ok := principalFrom(c); ok {
			event = event.Str("staff_no", p.StaffNo).Str("role", string(p.Role))
		}
		event.
			Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request processed")
	}
}

// authRequired rejects requests without a valid bearer token and stores the
// principal on the context.
func authRequired(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			respondWithError(c, NewAPIError(http.StatusUnauthorized, ErrCodeUnauthorized, "bearer token required", nil))
			return
		}
		p, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			respondWithError(c, NewAPIError(http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or expired token", nil))
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func principalFrom(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

// principal returns the authenticated caller. Routes using it are mounted
// behind authRequired.
func principal(c *gin.Context) domain.Principal {
	p, _ := principalFrom(c)
	return p
}
