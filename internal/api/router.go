// Package api exposes the read-side HTTP surface: readiness, league and
// unified data, vision pool status, an ingest trigger, and a websocket feed
// of run events.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/blaze-intelligence/platform/internal/services"
	"github.com/blaze-intelligence/platform/internal/store"
	"github.com/blaze-intelligence/platform/internal/vision"
	"github.com/blaze-intelligence/platform/pkg/config"
)

// Server bundles the API's dependencies. Dispatcher and Scheduler are
// optional; endpoints report unavailable when absent.
type Server struct {
	Config     *config.Config
	Store      *store.Store
	Scheduler  *services.Scheduler
	Cache      *services.CacheService
	Dispatcher *vision.Dispatcher
	Hub        *Hub
	Logger     *logrus.Logger
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	if s.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(RequestLogger(s.Logger), Recovery(s.Logger))

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/readiness", s.readiness)
		api.GET("/leagues/:league", s.league)
		api.GET("/unified", s.unified)
		api.GET("/vision/status", s.visionStatus)
		api.POST("/ingest", s.triggerIngest)
	}

	r.GET("/ws", func(c *gin.Context) {
		s.Hub.ServeWS(c.Writer, c.Request)
	})
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) readiness(c *gin.Context) {
	raw, err := s.Store.ReadReadiness()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no readiness data; run an ingestion first"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func (s *Server) league(c *gin.Context) {
	file, err := s.Store.ReadLeague(c.Param("league"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "league not found"})
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) unified(c *gin.Context) {
	file, err := s.Store.ReadUnified()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no unified data; run an ingestion first"})
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) visionStatus(c *gin.Context) {
	if s.Dispatcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vision pool not running"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	status, err := s.Dispatcher.Status(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) triggerIngest(c *gin.Context) {
	if s.Scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return
	}
	// Forced runs bypass cached provider payloads.
	if err := s.Cache.Invalidate(c.Request.Context()); err != nil {
		s.Logger.WithError(err).Warn("Payload cache invalidation failed")
	}
	if !s.Scheduler.TriggerNow() {
		c.JSON(http.StatusConflict, gin.H{"error": "ingestion already in flight"})
		return
	}
	s.Hub.Broadcast("ingest_triggered", gin.H{"source": "api"})
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// BroadcastReadiness pushes the latest readiness payload to websocket
// clients after a scheduled run completes.
func (s *Server) BroadcastReadiness() {
	raw, err := s.Store.ReadReadiness()
	if err != nil {
		return
	}
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	s.Hub.Broadcast("readiness_updated", payload)
}
