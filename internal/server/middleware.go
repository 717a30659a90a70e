package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"timetracker/internal/metrics"
	"timetracker/internal/models"
)

const (
	userKey       = "user"
	sessionCookie = "timetracker_session"
)

// observe records one metrics sample and one log line per request.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case route == "/healthz" || route == "/readyz" || route == "/metrics":
			level = slog.LevelDebug
		}
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", elapsed),
		}
		if u, ok := currentUser(c); ok {
			attrs = append(attrs, slog.Int64("user_id", u.ID))
		}
		s.logger.LogAttrs(c.Request.Context(), level, "request", attrs...)
	}
}

// currentUser returns the user an auth middleware attached to c.
func currentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}

// userID is for handlers behind an auth middleware.
func userID(c *gin.Context) int64 {
	u, _ := currentUser(c)
	return u.ID
}

// resolveToken turns a signed token into a live user.
func (s *Server) resolveToken(c *gin.Context, token string) (models.User, bool) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, false
	}
	u, err := s.store.GetUser(c.Request.Context(), id)
	if err != nil {
		return models.User{}, false
	}
	return u, true
}

// requireToken authenticates API requests with an "Authorization: Bearer" header.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.Header("WWW-Authenticate", `Bearer realm="api"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication credentials were not provided"})
			return
		}

		u, ok := s.resolveToken(c, strings.TrimSpace(token))
		if !ok {
			c.Header("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// requireSession authenticates web requests with the session cookie and
// sends anonymous visitors to the login page.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
			if u, ok := s.resolveToken(c, token); ok {
				c.Set(userKey, u)
				c.Next()
				return
			}
			s.clearSession(c)
		}

		target := "/login?next=" + url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

func (s *Server) setSession(c *gin.Context, token string, expires time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(time.Until(expires).Seconds()), "/", "", s.opts.SecureCookies, true)
}

func (s *Server) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.opts.SecureCookies, true)
}

// rateLimit is a fixed-window limiter keyed by client IP and backed by
// Redis INCR/EXPIRE. Without Redis, or when Redis errors, requests pass.
func (s *Server) rateLimit() gin.HandlerFunc {
	limit, window, client := s.opts.RateLimit, s.opts.RateWindow, s.opts.Redis
	prefix := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":"

	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := prefix + c.ClientIP()
		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			s.logger.Warn("rate limiter unavailable", slog.String("error", err.Error()))
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if count == 1 {
			client.Expire(ctx, key, window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		if count > int64(limit) {
			metrics.RateLimited.WithLabelValues(c.FullPath()).Inc()
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(limit)-count, 10))
		c.Next()
	}
}
