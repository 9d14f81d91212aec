package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/carscout/api/handler"
	"github.com/use-agent/carscout/api/middleware"
	"github.com/use-agent/carscout/config"
	"github.com/use-agent/carscout/harvest"
	"github.com/use-agent/carscout/scraper"
)

// Deps are the collaborators the routes are wired to. Renderer and Pool
// may be nil, in which case only inline HTML snapshots are accepted.
type Deps struct {
	Renderer  scraper.Renderer
	Pool      handler.PoolReporter
	Sink      handler.SinkProber
	Harvester *harvest.Harvester
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health sits outside auth so monitoring probes always work.
func NewRouter(deps Deps, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(deps.Pool, deps.Sink, deps.StartTime, cfg.Sink.HealthTimeout))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	base := cfg.Marketplace.BaseURL
	protected.POST("/count", handler.Count(deps.Renderer, deps.Harvester, base))
	protected.POST("/listings", handler.Listings(deps.Renderer, deps.Harvester, base))
	protected.POST("/harvest", handler.Harvest(deps.Renderer, deps.Harvester, base))

	return r
}
