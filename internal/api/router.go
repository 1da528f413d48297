// Package api serves the operator HTTP surface: scan submission, key
// management and system stats behind a JWT, plus health and metrics.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/api/handlers"
	"github.com/lunhatthanh83-boop/bottele/internal/api/middleware"
	"github.com/lunhatthanh83-boop/bottele/internal/config"
	"github.com/lunhatthanh83-boop/bottele/internal/license"
	"github.com/lunhatthanh83-boop/bottele/internal/probe"
	"github.com/lunhatthanh83-boop/bottele/internal/quota"
	"github.com/lunhatthanh83-boop/bottele/internal/scanner"
	"github.com/lunhatthanh83-boop/bottele/internal/store"
)

type Server struct {
	Config *config.Config
	Router *gin.Engine
}

type Deps struct {
	Scanner  *scanner.Scanner
	Registry *probe.Registry
	Licenses *license.Manager
	Tracker  *quota.Tracker
	Accounts *store.AccountStore
	Stats    *store.StatsStore
	Logger   *zap.Logger
}

func NewServer(cfg *config.Config, d Deps) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	router.Use(middleware.Logger(d.Logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	server := &Server{Config: cfg, Router: router}
	server.setupRoutes(d)
	return server
}

func (s *Server) setupRoutes(d Deps) {
	h := handlers.NewHandler(s.Config, d.Scanner, d.Registry, d.Licenses, d.Tracker, d.Accounts, d.Stats, d.Logger)

	s.Router.GET("/health", h.Health)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := s.Router.Group("/api/v1/auth")
	{
		auth.POST("/token", h.IssueToken)
	}

	api := s.Router.Group("/api/v1")
	api.Use(middleware.AuthRequired(s.Config.Server.JWTSecret))
	{
		api.GET("/targets", h.ListTargets)
		api.POST("/scans", h.CreateScan)
		api.POST("/keys", h.CreateKey)
		api.GET("/keys/:key", h.GetKey)
		api.DELETE("/keys/:key", h.DeleteKey)
		api.GET("/stats", h.GetStats)
	}
}
