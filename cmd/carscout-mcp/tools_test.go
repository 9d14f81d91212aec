package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/carscout/models"
)

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	var parts []string
	for _, c := range res.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// fakeAPI answers the carscout API routes with canned responses.
func fakeAPI(t *testing.T, key string) *apiClient {
	t.Helper()
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/api/v1/count", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, key, r.Header.Get("X-API-Key"))
		var req models.PageRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.URL == "https://www.facebook.com/marketplace/slow/" {
			w.WriteHeader(http.StatusGatewayTimeout)
			reply(w, models.CountResponse{Error: &models.ErrorDetail{Code: models.ErrCodeTimeout, Message: "page load timed out"}})
			return
		}
		reply(w, models.CountResponse{Success: true, Count: 7})
	})
	mux.HandleFunc("/api/v1/listings", func(w http.ResponseWriter, r *http.Request) {
		reply(w, models.ListingsResponse{Success: true, Count: 1, Listings: []models.ListingRecord{{
			ExternalID: "1",
			SourceURL:  "https://www.facebook.com/marketplace/item/1/",
			Title:      models.StringPtr("2018 Honda Civic"),
			Price:      models.StringPtr("$12,000"),
		}}})
	})
	mux.HandleFunc("/api/v1/harvest", func(w http.ResponseWriter, r *http.Request) {
		reply(w, models.HarvestResponse{HarvestResult: models.Failed(models.ReasonSinkFailure), Code: models.ErrCodeSinkUnavailable})
	})
	mux.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		reply(w, models.HealthResponse{
			Status:    "degraded",
			Uptime:    "1m0s",
			PoolStats: models.PoolStats{MaxPages: 4, ActivePages: 1},
			Sink:      models.SinkStatus{URL: "http://localhost:9876", Error: "connection refused"},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &apiClient{baseURL: srv.URL, apiKey: key, timeout: 5 * time.Second}
}

func TestHandleCount(t *testing.T) {
	api := fakeAPI(t, "k")
	ctx := context.Background()

	res, err := handleCount(api)(ctx, callRequest(map[string]any{"url": "https://www.facebook.com/marketplace/seattle/"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "7 listings on page", resultText(t, res))

	res, err = handleCount(api)(ctx, callRequest(map[string]any{"url": "https://www.facebook.com/marketplace/slow/"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "[SCRAPE_TIMEOUT] page load timed out", resultText(t, res))
}

func TestHandleCountNeedsPageSource(t *testing.T) {
	res, err := handleCount(fakeAPI(t, ""))(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "either url or html is required")
}

func TestHandlePreview(t *testing.T) {
	res, err := handlePreview(fakeAPI(t, ""))(context.Background(), callRequest(map[string]any{"html": "<div></div>"}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "1 listings")
	assert.Contains(t, text, "2018 Honda Civic | $12,000 | -")
	assert.Contains(t, text, "https://www.facebook.com/marketplace/item/1/")
}

func TestHandleHarvestFailure(t *testing.T) {
	res, err := handleHarvest(fakeAPI(t, ""))(context.Background(), callRequest(map[string]any{"html": "<div></div>"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "[SINK_UNAVAILABLE] Failed to send to backend", resultText(t, res))
}

func TestHandleSinkHealth(t *testing.T) {
	res, err := handleSinkHealth(fakeAPI(t, ""))(context.Background(), callRequest(nil))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "Service: degraded (up 1m0s, 1/4 pages active)")
	assert.Contains(t, text, "Sink: unavailable at http://localhost:9876: connection refused")
}

func TestFormatListingsEmpty(t *testing.T) {
	assert.Equal(t, models.ReasonNoListings, formatListings(nil))
}
