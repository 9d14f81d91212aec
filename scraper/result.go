package scraper

import "time"

// RenderResult is what rendering a marketplace URL produced.
type RenderResult struct {
	// HTML is the serialized DOM after rendering.
	HTML string

	// Title is the document title, useful for spotting login walls.
	Title string

	// StatusCode is the navigation's HTTP status, 0 when unknown.
	StatusCode int

	// FinalURL is the address after redirects. Links and the search
	// context are resolved against it.
	FinalURL string

	// Engine names what produced the page: "http", "rod", "rod-stealth" or "cdp".
	Engine string

	// Duration is the wall time spent rendering.
	Duration time.Duration
}
