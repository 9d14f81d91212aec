package models

import "errors"

// Fetch modes for PageRequest.FetchMode.
const (
	FetchAuto    = "auto"
	FetchHTTP    = "http"
	FetchBrowser = "browser"
)

// PageRequest is the payload for POST /api/v1/count, /listings and /harvest.
// Exactly one page source is used: HTML when present, URL otherwise.
type PageRequest struct {
	// URL is the marketplace page to render.
	URL string `json:"url,omitempty" binding:"omitempty,url"`

	// HTML is an already-rendered page snapshot. When set, nothing is fetched.
	HTML string `json:"html,omitempty"`

	// PageURL is the address the HTML snapshot was taken from. It is used to
	// resolve relative links and to infer the search context.
	// Default: the configured marketplace base URL.
	PageURL string `json:"page_url,omitempty" binding:"omitempty,url"`

	// Timeout is the maximum duration in seconds for rendering the page.
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot-detection evasions in the browser.
	Stealth bool `json:"stealth,omitempty"`

	// CDPURL connects to the caller's own Chrome (typically one that is
	// already logged in to the marketplace) instead of the managed browser.
	CDPURL string `json:"cdp_url,omitempty"`

	// Cookies are set on the page before navigation (session cookies).
	Cookies []Cookie `json:"cookies,omitempty"`

	// Headers are extra HTTP headers sent with the navigation.
	Headers map[string]string `json:"headers,omitempty"`

	// FetchMode selects how URL is fetched.
	// "auto" (default): HTTP first, escalate to the browser when the
	// response carries no listing links. "http" or "browser" force one engine.
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto http browser"`

	// MaxAge lets a page rendered within the last MaxAge seconds for an
	// identical request be reused instead of rendered again. 0 disables it.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0,max=3600"`

	// WaitForListings waits for at least one listing link to appear after
	// navigation. Default: true.
	WaitForListings *bool `json:"wait_for_listings,omitempty"`
}

// Cookie is a browser cookie injected before navigation.
type Cookie struct {
	Name   string `json:"name" binding:"required"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *PageRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 30
	}
	if r.FetchMode == "" {
		r.FetchMode = FetchAuto
	}
	if r.WaitForListings == nil {
		t := true
		r.WaitForListings = &t
	}
}

// Validate checks constraints the binding tags cannot express.
func (r *PageRequest) Validate() error {
	if r.URL == "" && r.HTML == "" {
		return errors.New("either url or html is required")
	}
	return nil
}
