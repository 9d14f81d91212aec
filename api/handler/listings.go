package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/carscout/harvest"
	"github.com/use-agent/carscout/models"
	"github.com/use-agent/carscout/scraper"
)

// Count returns a handler for POST /api/v1/count. Nothing is submitted.
func Count(r scraper.Renderer, h *harvest.Harvester, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		a, err := acquirePage(c, r, baseURL)
		if err != nil {
			status, detail := errorStatus(err)
			c.JSON(status, models.CountResponse{
				Success: false,
				Error:   detail,
				Timing:  timing(start, a, time.Time{}),
			})
			return
		}

		harvestStart := time.Now()
		n := h.Count(a.page)
		c.JSON(http.StatusOK, models.CountResponse{
			Success: true,
			Count:   n,
			Timing:  timing(start, a, harvestStart),
		})
	}
}

// Listings returns a handler for POST /api/v1/listings: the records a
// harvest would submit, without submitting them.
func Listings(r scraper.Renderer, h *harvest.Harvester, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		a, err := acquirePage(c, r, baseURL)
		if err != nil {
			status, detail := errorStatus(err)
			c.JSON(status, models.ListingsResponse{
				Success:  false,
				Listings: []models.ListingRecord{},
				Error:    detail,
				Timing:   timing(start, a, time.Time{}),
			})
			return
		}

		harvestStart := time.Now()
		records := h.Extract(a.page)
		c.JSON(http.StatusOK, models.ListingsResponse{
			Success:  true,
			Count:    len(records),
			Listings: records,
			PageURL:  a.pageURL,
			Timing:   timing(start, a, harvestStart),
		})
	}
}
