package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guiyumin/sharetext/internal/core/config"
	"github.com/guiyumin/sharetext/internal/core/extractor"
	"github.com/guiyumin/sharetext/internal/core/i18n"
	"github.com/guiyumin/sharetext/internal/core/sharetext"
	"github.com/guiyumin/sharetext/internal/core/version"
)

// Response is the standard API response structure
type Response struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

// ParseRequest is the request body for POST /api/parse and /api/douyin/download
type ParseRequest struct {
	Text string `json:"text" binding:"required"`
}

// ParseIDRequest is the request body for POST /api/parse/id
type ParseIDRequest struct {
	Source string `json:"source" binding:"required"`
	ID     string `json:"id" binding:"required"`
}

// TextRequest is the request body for POST /api/text and /api/jobs
type TextRequest struct {
	Text       string `json:"text" binding:"required"`
	APIKey     string `json:"api_key,omitempty"`
	APIBaseURL string `json:"api_base_url,omitempty"`
	Model      string `json:"model,omitempty"`
	Summarize  bool   `json:"summarize,omitempty"`
}

func (r TextRequest) toService() sharetext.TextRequest {
	return sharetext.TextRequest{
		ShareText:  r.Text,
		APIKey:     r.APIKey,
		APIBaseURL: r.APIBaseURL,
		Model:      r.Model,
		Summarize:  r.Summarize,
	}
}

// Server is the HTTP server for sharetext
type Server struct {
	port     int
	apiKey   string
	lang     string
	svc      *sharetext.Service
	jobQueue *JobQueue
	server   *http.Server
	engine   *gin.Engine
}

// NewServer creates a server from the service's configuration
func NewServer(svc *sharetext.Service) *Server {
	cfg := svc.Config()

	s := &Server{
		port:   cfg.Server.Port,
		apiKey: cfg.Server.APIKey,
		lang:   cfg.Language,
		svc:    svc,
	}
	s.jobQueue = NewJobQueue(cfg.Server.MaxConcurrent, svc.ExtractText)
	return s
}

// Handler builds the gin engine with every route registered
func (s *Server) Handler() http.Handler {
	if s.engine == nil {
		s.setupRoutes()
	}
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine = gin.New()

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.loggingMiddleware())
	if s.apiKey != "" {
		s.engine.Use(s.authMiddleware())
	}

	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/platforms", s.handlePlatforms)
	api.GET("/guide", s.handleGuide)
	api.POST("/parse", s.handleParse)
	api.POST("/parse/id", s.handleParseID)
	api.POST("/douyin/download", s.handleDouyinDownload)
	api.POST("/text", s.handleText)
	api.POST("/jobs", s.handleAddJob)
	api.GET("/jobs", s.handleGetJobs)
	api.DELETE("/jobs", s.handleClearJobs)
	api.GET("/jobs/:id", s.handleGetJob)
	api.DELETE("/jobs/:id", s.handleDeleteJob)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{
			Code:    404,
			Data:    nil,
			Message: "not found",
		})
	})
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	if !config.Exists() {
		log.Printf("[server] no config file found, using defaults")
		log.Printf("[server] run 'sharetext init' to create %s", config.SavePath())
	}

	s.jobQueue.Start()

	gin.SetMode(gin.ReleaseMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.engine,
		ReadHeaderTimeout: 30 * time.Second,
		WriteTimeout:      0, // /api/text runs a full transcription
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("[server] starting sharetext server v%s on port %d", version.Version, s.port)
	if s.apiKey != "" {
		log.Printf("[server] API key authentication enabled")
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server. HTTP is drained first so no
// request can reach the job queue after it stops.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.jobQueue.Stop()
	return err
}

// Middleware

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		// Health endpoint doesn't require auth
		if path == "/api/health" || !strings.HasPrefix(path, "/api/") {
			c.Next()
			return
		}

		if c.GetHeader("X-API-Key") != s.apiKey {
			c.JSON(http.StatusUnauthorized, Response{
				Code:    401,
				Data:    nil,
				Message: "invalid or missing API key",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[server] %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// statusFor maps an error kind to an HTTP status
func statusFor(kind extractor.Kind) int {
	switch kind {
	case extractor.KindNoURLFound, extractor.KindInvalidInput, extractor.KindMissingCredential:
		return http.StatusBadRequest
	case extractor.KindUnsupportedPlatform, extractor.KindUnsupportedOperation:
		return http.StatusNotFound
	case extractor.KindExpiredLink:
		return http.StatusGone
	case extractor.KindContentStructureChanged, extractor.KindDecodeFailure:
		return http.StatusUnprocessableEntity
	case extractor.KindHTTPFailure, extractor.KindEmptyPageContent,
		extractor.KindDownloadFailure, extractor.KindTranscriptionAPIFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	kind := extractor.KindOf(err)
	if errors.Is(err, context.Canceled) {
		// client went away
		c.Status(499)
		return
	}
	status := statusFor(kind)
	c.JSON(status, Response{
		Code: status,
		Data: gin.H{
			"kind": kind,
			"hint": i18n.T(s.lang).ErrorMessage(kind),
		},
		Message: err.Error(),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    400,
		Data:    nil,
		Message: msg,
	})
}

// Handlers

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"status":  "ok",
			"version": version.Version,
		},
		Message: "everything is good",
	})
}

func (s *Server) handlePlatforms(c *gin.Context) {
	platforms := s.svc.Platforms()
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    gin.H{"platforms": platforms},
		Message: fmt.Sprintf("%d platforms", len(platforms)),
	})
}

func (s *Server) handleGuide(c *gin.Context) {
	lang := c.DefaultQuery("lang", s.lang)
	usage, text := s.svc.Guide(lang)
	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"usage":           usage,
			"text_extraction": text,
		},
		Message: "guide retrieved",
	})
}

func (s *Server) handleParse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: text is required")
		return
	}

	info, err := s.svc.ParseShareURL(c.Request.Context(), req.Text)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    info,
		Message: info.Status,
	})
}

func (s *Server) handleParseID(c *gin.Context) {
	var req ParseIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: source and id are required")
		return
	}

	info, err := s.svc.ParseVideoID(c.Request.Context(), req.Source, req.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    info,
		Message: info.Status,
	})
}

func (s *Server) handleDouyinDownload(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: text is required")
		return
	}

	record := s.svc.DouyinDownload(c.Request.Context(), req.Text)
	msg := record.Status
	if record.Error != "" {
		msg = record.Error
	}
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    record,
		Message: msg,
	})
}

func (s *Server) handleText(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: text is required")
		return
	}

	result, err := s.svc.ExtractText(c.Request.Context(), req.toService())
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    result,
		Message: result.Message,
	})
}

func (s *Server) handleAddJob(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: text is required")
		return
	}

	job, err := s.jobQueue.AddJob(req.toService())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, Response{
			Code:    503,
			Data:    nil,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, Response{
		Code: 202,
		Data: gin.H{
			"id":     job.ID,
			"status": job.Status,
		},
		Message: "job queued",
	})
}

func (s *Server) handleGetJob(c *gin.Context) {
	job := s.jobQueue.GetJob(c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, Response{
			Code:    404,
			Data:    nil,
			Message: "job not found",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    job,
		Message: string(job.Status),
	})
}

func (s *Server) handleGetJobs(c *gin.Context) {
	jobs := s.jobQueue.GetAllJobs()
	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"jobs": jobs,
		},
		Message: fmt.Sprintf("%d jobs found", len(jobs)),
	})
}

func (s *Server) handleClearJobs(c *gin.Context) {
	count := s.jobQueue.ClearHistory()
	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"cleared": count,
		},
		Message: fmt.Sprintf("%d jobs cleared", count),
	})
}

func (s *Server) handleDeleteJob(c *gin.Context) {
	id := c.Param("id")

	// Cancel an active job first, otherwise remove a finished one
	if s.jobQueue.CancelJob(id) {
		c.JSON(http.StatusOK, Response{
			Code:    200,
			Data:    gin.H{"id": id},
			Message: "job cancelled",
		})
	} else if s.jobQueue.RemoveJob(id) {
		c.JSON(http.StatusOK, Response{
			Code:    200,
			Data:    gin.H{"id": id},
			Message: "job removed",
		})
	} else {
		c.JSON(http.StatusNotFound, Response{
			Code:    404,
			Data:    nil,
			Message: "job not found or cannot be cancelled/removed",
		})
	}
}
