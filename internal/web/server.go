// Package web exposes the HTTP API: document translation, past-paper
// listing, resolution and download accounting, and supporting endpoints.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/afrilearn/afriserver/internal/pipeline"
	"github.com/afrilearn/afriserver/internal/resolver"
	"github.com/afrilearn/afriserver/internal/store"
	"github.com/afrilearn/afriserver/internal/translator"
)

// Config carries the server's filesystem and limit settings.
type Config struct {
	UploadsDir     string
	MaxUploadBytes int64
}

// FilePipeline runs one document translation request.
type FilePipeline interface {
	Run(ctx context.Context, up pipeline.Upload, targetLang string) (*pipeline.Output, error)
}

// ArtifactResolver locates a past-paper binary.
type ArtifactResolver interface {
	Resolve(ref resolver.FileRef) (*resolver.Resolution, error)
}

type Server struct {
	cfg    Config
	pipe   FilePipeline
	text   translator.Service
	papers ArtifactResolver
	db     *store.Store
	log    *logrus.Logger
	engine *gin.Engine
}

func New(cfg Config, pipe FilePipeline, text translator.Service, papers ArtifactResolver, db *store.Store, log *logrus.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20 // 10MB, same cap the platform has always had
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{
		cfg:    cfg,
		pipe:   pipe,
		text:   text,
		papers: papers,
		db:     db,
		log:    log,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	s.engine = engine
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleRoot)

	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/languages", s.handleLanguages)
	api.POST("/translate", s.handleTranslateText)
	api.POST("/translate-file", s.handleTranslateFile)

	papers := api.Group("/past-papers")
	papers.GET("", s.handleListPapers)
	papers.GET("/file", s.handlePaperFile)
	papers.POST("/upload", s.handleUploadPaper)
	papers.POST("/:id/download", s.handleRecordDownload)

	s.engine.NoRoute(func(c *gin.Context) {
		errorJSON(c, http.StatusNotFound, "Not Found",
			fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path))
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}).Info("request")
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "AfriLearn API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}

	counts, err := s.db.Counts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
		"counts":   counts,
	})
}

func (s *Server) handleLanguages(c *gin.Context) {
	langs, err := s.db.Languages(c.Request.Context())
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "Failed to fetch languages", "")
		return
	}
	c.JSON(http.StatusOK, langs)
}

func errorJSON(c *gin.Context, status int, errMsg, message string) {
	body := gin.H{"error": errMsg}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}
