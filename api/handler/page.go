package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/carscout/dom"
	"github.com/use-agent/carscout/models"
	"github.com/use-agent/carscout/scraper"
)

// acquired is a page ready for harvesting plus what it took to get it.
type acquired struct {
	page     *dom.Page
	pageURL  string
	renderMs int64
}

// acquirePage binds the request body and turns it into a page snapshot,
// rendering req.URL through r when no inline HTML was sent.
func acquirePage(c *gin.Context, r scraper.Renderer, baseURL string) (*acquired, error) {
	var req models.PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err)
	}
	req.Defaults()
	if err := req.Validate(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err)
	}

	start := time.Now()
	page, _, err := scraper.Snapshot(c.Request.Context(), r, &req, baseURL)
	renderMs := time.Since(start).Milliseconds()
	if err != nil {
		return &acquired{renderMs: renderMs}, err
	}
	return &acquired{
		page:     page,
		pageURL:  page.URL.String(),
		renderMs: renderMs,
	}, nil
}

func timing(start time.Time, a *acquired, harvestStart time.Time) models.TimingInfo {
	t := models.TimingInfo{TotalMs: time.Since(start).Milliseconds()}
	if a != nil {
		t.RenderMs = a.renderMs
	}
	if !harvestStart.IsZero() {
		t.HarvestMs = time.Since(harvestStart).Milliseconds()
	}
	return t
}
