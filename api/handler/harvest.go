package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/carscout/harvest"
	"github.com/use-agent/carscout/models"
	"github.com/use-agent/carscout/scraper"
)

// Harvest returns a handler for POST /api/v1/harvest.
//
// Failing to obtain the page is an HTTP error. Once the page is in hand the
// orchestrator always answers 200 with the tagged result: a harvest that
// found nothing or could not reach the sink is an outcome, not a fault.
func Harvest(r scraper.Renderer, h *harvest.Harvester, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		a, err := acquirePage(c, r, baseURL)
		if err != nil {
			status, detail := errorStatus(err)
			c.JSON(status, models.HarvestResponse{
				HarvestResult: models.Failed(detail.Message),
				Code:          detail.Code,
				Timing:        timing(start, a, time.Time{}),
			})
			return
		}

		harvestStart := time.Now()
		result := h.HarvestAndSubmit(c.Request.Context(), a.page)
		c.JSON(http.StatusOK, models.HarvestResponse{
			HarvestResult: result,
			Code:          resultCode(result),
			Timing:        timing(start, a, harvestStart),
		})
	}
}

func resultCode(r models.HarvestResult) string {
	switch {
	case r.Success:
		return ""
	case r.Error == models.ReasonNoListings:
		return models.ErrCodeNoListings
	default:
		return models.ErrCodeSinkUnavailable
	}
}
