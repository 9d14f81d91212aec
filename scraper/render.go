package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/carscout/engine"
	"github.com/use-agent/carscout/locator"
	"github.com/use-agent/carscout/models"
	"github.com/ysmood/gson"
)

// Render fetches req.URL and returns the rendered page.
//
// A CDP URL always renders in the caller's browser. Otherwise fetch_mode
// picks the path: "browser" uses the managed pool directly, "http" runs
// only the HTTP engine, and "auto" races the dispatcher's engines, falling
// back to the pool if the whole race fails.
func (s *Scraper) Render(ctx context.Context, req *models.PageRequest) (*RenderResult, error) {
	started := time.Now()
	timeout := s.clampTimeout(req.Timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	freq := toFetchRequest(req, timeout)

	var (
		res *engine.FetchResult
		err error
	)
	switch {
	case req.CDPURL != "":
		res, err = s.renderWithCDP(ctx, req.CDPURL, freq)
	case s.dispatcher == nil || req.FetchMode == models.FetchBrowser:
		res, err = s.renderPooled(ctx, freq)
	case req.FetchMode == models.FetchHTTP:
		eng, ok := s.dispatcher.Engine("http")
		if !ok {
			return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "http engine is not enabled", nil)
		}
		if res, err = eng.Fetch(ctx, freq); err != nil {
			err = categorizeError(err, "http fetch failed")
		}
	default:
		res, err = s.dispatcher.Dispatch(ctx, freq)
		if err != nil {
			slog.Warn("dispatcher failed, falling back to direct browser render",
				"url", req.URL, "error", err)
			res, err = s.renderPooled(ctx, freq)
		}
	}
	if err != nil {
		return nil, err
	}

	return &RenderResult{
		HTML:       res.HTML,
		Title:      res.Title,
		StatusCode: res.StatusCode,
		FinalURL:   res.FinalURL,
		Engine:     res.EngineName,
		Duration:   time.Since(started),
	}, nil
}

func (s *Scraper) clampTimeout(seconds int) time.Duration {
	timeout := time.Duration(seconds) * time.Second
	if timeout <= 0 {
		timeout = s.scraperCfg.DefaultTimeout
	}
	if timeout > s.scraperCfg.MaxTimeout {
		timeout = s.scraperCfg.MaxTimeout
	}
	return timeout
}

func toFetchRequest(req *models.PageRequest, timeout time.Duration) *engine.FetchRequest {
	cookies := make([]http.Cookie, len(req.Cookies))
	for i, c := range req.Cookies {
		cookies[i] = http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		}
	}
	return &engine.FetchRequest{
		URL:             req.URL,
		Headers:         req.Headers,
		Cookies:         cookies,
		Timeout:         timeout,
		Stealth:         req.Stealth,
		WaitForListings: req.WaitForListings == nil || *req.WaitForListings,
	}
}

// renderPooled renders in a tab borrowed from the page pool.
//
// Stealth and the hijack router must be installed before navigation; they
// only affect navigations that start after them. The deferred about:blank
// uses the page without the request context so cleanup still runs when the
// request has timed out.
func (s *Scraper) renderPooled(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, err := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			err,
		)
	}
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	res, err := s.visit(ctx, page, req)
	if err != nil {
		return nil, err
	}
	res.EngineName = "rod"
	if req.Stealth {
		res.EngineName = "rod-stealth"
	}
	return res, nil
}

// renderWithCDP renders in the caller's own browser, e.g. one already
// signed in to the marketplace. The browser is left running afterwards.
func (s *Scraper) renderWithCDP(ctx context.Context, cdpURL string, req *engine.FetchRequest) (*engine.FetchResult, error) {
	browser := rod.New().ControlURL(cdpURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to CDP URL",
			err,
		)
	}
	// Close only drops the websocket; the remote process keeps running.
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to create page on CDP browser",
			err,
		)
	}
	defer func() { _ = page.Close() }()

	res, err := s.visit(ctx, page, req)
	if err != nil {
		return nil, err
	}
	res.EngineName = "cdp"
	return res, nil
}

// visit prepares page, navigates to req.URL, waits for the card grid and
// serializes the DOM.
func (s *Scraper) visit(ctx context.Context, page *rod.Page, req *engine.FetchRequest) (*engine.FetchResult, error) {
	if req.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	if len(req.Headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(req.Headers)}.Call(page)
	}
	setCookies(page, req)

	router := setupHijack(page, s.scraperCfg.BlockedResourceTypes, s.scraperCfg.BlockAds)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}

	if req.WaitForListings && s.scraperCfg.ListingWait > 0 {
		if _, err := p.Timeout(s.scraperCfg.ListingWait).Element(locator.LinkSelector); err != nil {
			slog.Debug("no listing link rendered before the wait expired",
				"url", req.URL, "wait", s.scraperCfg.ListingWait, "error", err)
		}
	}

	// Cards keep lazy-loading thumbnails after the first links appear.
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}

	if ctx.Err() != nil {
		return nil, categorizeError(ctx.Err(), "page did not settle before the deadline")
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &engine.FetchResult{
		HTML:       rawHTML,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		StatusCode: navigationStatus(p),
		FinalURL:   finalURL,
	}, nil
}

// setCookies installs request cookies, defaulting the domain to the
// target host and the path to "/".
func setCookies(page *rod.Page, req *engine.FetchRequest) {
	if len(req.Cookies) == 0 {
		return
	}
	var host string
	if u, err := url.Parse(req.URL); err == nil {
		host = u.Hostname()
	}
	for _, c := range req.Cookies {
		domain := c.Domain
		if domain == "" {
			domain = host
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		if _, err := (proto.NetworkSetCookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: domain,
			Path:   path,
		}).Call(page); err != nil {
			slog.Warn("failed to set cookie", "name", c.Name, "error", err)
		}
	}
}

// navigationStatus reads the HTTP status of the main navigation from the
// Performance API. Event listeners would conflict with the hijack router.
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
