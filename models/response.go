package models

// CountResponse is the response for POST /api/v1/count.
type CountResponse struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Timing  TimingInfo   `json:"timing"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ListingsResponse is the response for POST /api/v1/listings.
type ListingsResponse struct {
	Success  bool            `json:"success"`
	Count    int             `json:"count"`
	Listings []ListingRecord `json:"listings"`
	PageURL  string          `json:"page_url,omitempty"`
	Timing   TimingInfo      `json:"timing"`
	Error    *ErrorDetail    `json:"error,omitempty"`
}

// HarvestResponse is the response for POST /api/v1/harvest. The embedded
// HarvestResult keeps the {success, count} / {success, error} wire shape.
type HarvestResponse struct {
	HarvestResult
	Code   string     `json:"code,omitempty"`
	Timing TimingInfo `json:"timing"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// RenderMs is the time spent fetching and rendering the page.
	RenderMs int64 `json:"render_ms"`

	// HarvestMs is the time spent extracting and, for /harvest, submitting.
	HarvestMs int64 `json:"harvest_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string     `json:"status"` // "healthy" or "degraded"
	Uptime    string     `json:"uptime"`
	PoolStats PoolStats  `json:"pool_stats"`
	Sink      SinkStatus `json:"sink"`
	Version   string     `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

// SinkStatus reports whether the ingestion sink answered its health probe.
type SinkStatus struct {
	URL       string `json:"url"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// ErrorResponse is the body of requests rejected before reaching a handler.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
