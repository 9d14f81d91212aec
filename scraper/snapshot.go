package scraper

import (
	"context"

	"github.com/use-agent/carscout/dom"
	"github.com/use-agent/carscout/models"
)

// Renderer turns a page request into rendered HTML. *Scraper implements it.
type Renderer interface {
	Render(ctx context.Context, req *models.PageRequest) (*RenderResult, error)
}

// Snapshot returns the element tree a harvest runs over.
//
// Inline HTML is parsed as-is against req.PageURL (or baseURL when unset)
// and the returned RenderResult is nil. Otherwise req.URL is rendered
// through r; a nil r means only inline HTML is accepted.
func Snapshot(ctx context.Context, r Renderer, req *models.PageRequest, baseURL string) (*dom.Page, *RenderResult, error) {
	if req.HTML != "" {
		pageURL := req.PageURL
		if pageURL == "" {
			pageURL = baseURL
		}
		page, err := dom.NewPage(req.HTML, pageURL)
		if err != nil {
			return nil, nil, models.NewScrapeError(models.ErrCodeInvalidInput, "html snapshot could not be parsed", err)
		}
		return page, nil, nil
	}

	if r == nil {
		return nil, nil, models.NewScrapeError(models.ErrCodeInvalidInput, "url rendering is unavailable, send html instead", nil)
	}

	res, err := r.Render(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	pageURL := res.FinalURL
	if pageURL == "" {
		pageURL = req.URL
	}
	page, err := dom.NewPage(res.HTML, pageURL)
	if err != nil {
		return nil, nil, models.NewScrapeError(models.ErrCodeNavigation, "rendered page could not be parsed", err)
	}
	return page, res, nil
}
