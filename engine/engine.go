// Package engine fetches marketplace pages through a ladder of engines,
// from a plain TLS-fingerprinted HTTP client up to a stealth browser, and
// keeps whichever one first returns a page worth harvesting.
package engine

import (
	"context"
	"net/http"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod", "rod-stealth").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Cookies []http.Cookie
	Timeout time.Duration
	Stealth bool

	// WaitForListings asks browser engines to hold until a listing link
	// renders. The HTTP engine ignores it.
	WaitForListings bool
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
}

// Acceptance decides whether a fetched page is good enough to stop the
// race. A non-nil error rejects the result and lets heavier engines run.
type Acceptance func(*FetchResult) error
