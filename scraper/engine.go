package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/use-agent/carscout/dom"
	"github.com/use-agent/carscout/engine"
	"github.com/use-agent/carscout/locator"
)

// ErrNoListingLinks rejects a fetched page that carries no item links,
// typically a login wall or a JavaScript shell.
var ErrNoListingLinks = errors.New("scraper: page has no listing links")

// browserEngine exposes the page pool to the dispatcher.
type browserEngine struct {
	s            *Scraper
	forceStealth bool
}

// BrowserEngine returns an engine.Engine rendering through the pool. With
// forceStealth every request gets the stealth evasions and the engine is
// named "rod-stealth"; otherwise it is "rod".
func (s *Scraper) BrowserEngine(forceStealth bool) engine.Engine {
	return &browserEngine{s: s, forceStealth: forceStealth}
}

func (e *browserEngine) Name() string {
	if e.forceStealth {
		return "rod-stealth"
	}
	return "rod"
}

func (e *browserEngine) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	r := *req
	if e.forceStealth {
		r.Stealth = true
	}
	res, err := e.s.renderPooled(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}
	res.EngineName = e.Name()
	return res, nil
}

// ListingAcceptance is the dispatcher acceptance check for marketplace
// pages: a result wins the race only if it contains at least one listing link.
func ListingAcceptance(res *engine.FetchResult) error {
	page, err := dom.NewPage(res.HTML, res.FinalURL)
	if err != nil {
		return fmt.Errorf("scraper: unparseable page: %w", err)
	}
	if locator.LinkCount(page) == 0 {
		return ErrNoListingLinks
	}
	return nil
}
