// Package api exposes the visit-logging and dashboard HTTP surface.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CodeMonkeyCybersecurity/leadlight/internal/config"
	"github.com/CodeMonkeyCybersecurity/leadlight/internal/database"
	"github.com/CodeMonkeyCybersecurity/leadlight/internal/logger"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/classify"
	"github.com/CodeMonkeyCybersecurity/leadlight/pkg/enrichment"
)

// Server holds the handler dependencies. The alias table and visit
// store are the only state shared across requests.
type Server struct {
	cfg      *config.Config
	store    database.VisitStore
	enricher *enrichment.Enricher
	aliases  *classify.AliasTable
	log      *logger.Logger
	started  time.Time
}

func NewServer(cfg *config.Config, store database.VisitStore, enricher *enrichment.Enricher, aliases *classify.AliasTable, log *logger.Logger) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		enricher: enricher,
		aliases:  aliases,
		log:      log.WithComponent("api"),
		started:  time.Now(),
	}
}

// Router builds the gin engine with middleware and all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggingMiddleware(s.log))
	if s.cfg.Server.EnableCORS {
		router.Use(CORSMiddleware())
	}
	if s.cfg.Server.RateLimit.RequestsPerSecond > 0 {
		router.Use(RateLimitMiddleware(s.cfg.Server.RateLimit))
	}

	router.GET("/", s.handleRoot)
	router.POST("/log-visit", s.handleLogVisit)
	router.GET("/api/dashboard", s.handleDashboard)
	router.GET("/leads", s.handleLeads)
	router.POST("/add-mapping", s.handleAddMapping)
	router.GET("/health", s.handleHealth)
	router.GET("/dashboard", s.handleDashboardPage)
	router.NoRoute(s.handleNotFound)

	return router
}
