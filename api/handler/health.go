package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/carscout/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// PoolReporter exposes browser page pool utilisation.
type PoolReporter interface {
	Stats() models.PoolStats
}

// SinkProber checks that the ingestion sink is reachable.
type SinkProber interface {
	BaseURL() string
	Health(ctx context.Context) error
}

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when more than 80% of pages are active or when the sink
// does not answer within probeTimeout. Either dependency may be nil.
func Health(pool PoolReporter, probe SinkProber, startTime time.Time, probeTimeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"

		var stats models.PoolStats
		if pool != nil {
			stats = pool.Stats()
		}
		if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
			status = "degraded"
		}

		var sinkStatus models.SinkStatus
		if probe != nil {
			ctx := c.Request.Context()
			if probeTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, probeTimeout)
				defer cancel()
			}
			sinkStatus.URL = probe.BaseURL()
			if err := probe.Health(ctx); err != nil {
				sinkStatus.Error = err.Error()
				status = "degraded"
			} else {
				sinkStatus.Available = true
			}
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			PoolStats: stats,
			Sink:      sinkStatus,
			Version:   Version,
		})
	}
}
