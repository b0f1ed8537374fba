package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/democracy365/internal/common"
	"github.com/dmitrijs2005/democracy365/internal/logging"
	"github.com/dmitrijs2005/democracy365/internal/server/auth"
)

const (
	userIDKey       = "userID"
	requestIDHeader = "X-Request-ID"
)

// RequestID reuses the caller's X-Request-ID or generates one, echoes it in
// the response and stores it in the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// RequestLogger logs one record per request once it has been served.
func RequestLogger(l logging.Logger) gin.HandlerFunc {
	l = l.With("module", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if userID, ok := c.Get(userIDKey); ok {
			args = append(args, "user_id", userID)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			l.Error(c.Request.Context(), "request served", args...)
			return
		}
		l.Info(c.Request.Context(), "request served", args...)
	}
}

// AuthMiddleware verifies the bearer token and stores the user id. Every
// rejection gets the same response.
func AuthMiddleware(tokens TokenAuthority) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.FromHeader(c.GetHeader(common.AuthorizationHeaderName))
		if token == "" {
			abortUnauthorized(c)
			return
		}

		verdict := tokens.Verify(c.Request.Context(), token)
		if !verdict.Authorized {
			abortUnauthorized(c)
			return
		}

		c.Set(userIDKey, verdict.UserID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": common.KindUnauthorized.String()})
}

// userID returns the id stored by AuthMiddleware.
func userID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}
