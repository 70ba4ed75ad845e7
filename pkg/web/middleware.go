package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ninlil/pkg/logger"
)

const (
	// SessionCookie carries the browser's session ID between the archive
	// request and the OAuth callback
	SessionCookie = "ninlil_session"

	sessionKey   = "session_id"
	requestIDKey = "request_id"
)

// LoggerMiddleware logs one line per request with method, path, status and duration
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      path,
			"status":    c.Writer.Status(),
			"duration":  time.Since(start),
			"client_ip": c.ClientIP(),
		}
		if id, ok := c.Get(requestIDKey); ok {
			fields["request_id"] = id
		}
		if !strings.HasPrefix(path, "/healthz") {
			fields["user_agent"] = c.Request.UserAgent()
		}

		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.Errors()
			log.ErrorWithFields("HTTP request with errors", fields)
			return
		}
		log.InfoWithFields("HTTP request", fields)
	}
}

// RecoveryMiddleware turns a panicking handler into a logged 500
func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.ErrorWithFields("Panic recovered", map[string]interface{}{
					"error":  err,
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()

		c.Next()
	}
}

// RequestIDMiddleware tags every request with an ID, reusing a sane inbound X-Request-ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// SessionMiddleware makes sure the browser holds a session cookie. The
// session ID scopes pending handshakes and jobs to the browser that started them.
func SessionMiddleware(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if _, parseErr := uuid.Parse(id); err != nil || parseErr != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, id, 0, "/", "", secure, true)
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
