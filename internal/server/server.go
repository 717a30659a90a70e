package server

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"timetracker/internal/auth"
	"timetracker/internal/models"
	"timetracker/internal/storage/sqlite"
	"timetracker/internal/tracker"
)

// Options tune the HTTP layer. Zero values fall back to defaults.
type Options struct {
	PageSize      int
	SecureCookies bool
	RateLimit     int
	RateWindow    time.Duration
	// Redis backs the API rate limiter; nil disables limiting.
	Redis *redis.Client
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Server provides the JSON API and the server-rendered web UI.
type Server struct {
	engine    *gin.Engine
	store     *sqlite.Store
	tracker   *tracker.Service
	tokens    *auth.Tokens
	logger    *slog.Logger
	opts      Options
	templates map[string]*template.Template
	started   time.Time
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, svc *tracker.Service, tokens *auth.Tokens, logger *slog.Logger, opts Options) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.PageSize > maxPageSize {
		opts.PageSize = maxPageSize
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}

	templates, err := parseTemplates(svc.Location())
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())

	srv := &Server{
		engine:    router,
		store:     store,
		tracker:   svc,
		tokens:    tokens,
		logger:    logger,
		opts:      opts,
		templates: templates,
		started:   time.Now(),
	}
	router.Use(srv.observe())

	srv.registerRoutes()
	return srv, nil
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API, web and static handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/readyz", s.handleReady)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api", s.rateLimit())
	api.POST("/auth/token/", s.handleIssueToken)

	secured := api.Group("", s.requireToken())
	{
		tasks := secured.Group("/tasks")
		{
			tasks.GET("/", s.handleListTasks)
			tasks.POST("/", s.handleCreateTask)
			tasks.GET("/active/", s.handleListTasksByStatus(true))
			tasks.GET("/inactive/", s.handleListTasksByStatus(false))
			tasks.GET("/:id/", s.handleGetTask)
			tasks.PUT("/:id/", s.handleUpdateTask(false))
			tasks.PATCH("/:id/", s.handleUpdateTask(true))
			tasks.DELETE("/:id/", s.handleDeleteTask)
			tasks.POST("/:id/toggle_status/", s.handleToggleTask)
		}

		records := secured.Group("/records")
		{
			records.GET("/", s.handleListRecords)
			records.POST("/", s.handleCreateRecord)
			records.GET("/today/", s.handleListRecordsInPeriod("today"))
			records.GET("/this_week/", s.handleListRecordsInPeriod("this_week"))
			records.GET("/this_month/", s.handleListRecordsInPeriod("this_month"))
			records.GET("/summary/", s.handleRecordSummary)
			records.GET("/:id/", s.handleGetRecord)
			records.PUT("/:id/", s.handleUpdateRecord(false))
			records.PATCH("/:id/", s.handleUpdateRecord(true))
			records.DELETE("/:id/", s.handleDeleteRecord)
		}

		secured.GET("/dashboard/", s.handleDashboard)
	}

	s.registerWebRoutes()
	s.mountStatic()
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// respondError logs server-side failures and returns a JSON payload.
// Validation and not-found errors are mapped to their client statuses.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	var verr *tracker.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
		return
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess writes payload, or only the status when there is none.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
