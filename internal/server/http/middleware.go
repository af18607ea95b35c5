package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/cookmate/internal/common"
	"github.com/dmitrijs2005/cookmate/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	userIDKey       = "userID"
	requestIDHeader = "X-Request-ID"
)

// authRequired resolves the bearer token to a caller id. Requests without a
// valid token stop here with 401.
func (s *HTTPServer) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
			return
		}

		userID, err := auth.GetUserIDFromToken(strings.TrimSpace(token), s.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// callerID returns the id set by authRequired, or "" on public routes.
func callerID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// requestLogger writes one line per request.
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)

		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"request_id", reqID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"user_id", callerID(c),
		)
	}
}
