package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/carscout/models"
)

// apiClient talks to a running carscout API.
type apiClient struct {
	baseURL string
	apiKey  string
	timeout time.Duration
}

func (a *apiClient) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(a.baseURL, "/")+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.apiKey != "" {
		req.Header.Set("X-API-Key", a.apiKey)
	}

	client := &http.Client{Timeout: a.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response (HTTP %d): %w", resp.StatusCode, err)
	}
	return nil
}

// pageRequest builds the API payload from tool arguments.
func pageRequest(request mcp.CallToolRequest) (*models.PageRequest, error) {
	req := &models.PageRequest{
		URL:       request.GetString("url", ""),
		HTML:      request.GetString("html", ""),
		PageURL:   request.GetString("page_url", ""),
		FetchMode: request.GetString("fetch_mode", ""),
		Stealth:   request.GetBool("stealth", false),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func errorText(detail *models.ErrorDetail, fallback string) string {
	if detail == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", detail.Code, detail.Message)
}

func handleCount(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, err := pageRequest(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.CountResponse
		if err := api.do(ctx, http.MethodPost, "/api/v1/count", req, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText(resp.Error, "count failed")), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%d listings on page", resp.Count)), nil
	}
}

func handlePreview(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, err := pageRequest(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.ListingsResponse
		if err := api.do(ctx, http.MethodPost, "/api/v1/listings", req, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText(resp.Error, "preview failed")), nil
		}
		return mcp.NewToolResultText(formatListings(resp.Listings)), nil
	}
}

func handleHarvest(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, err := pageRequest(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.HarvestResponse
		if err := api.do(ctx, http.MethodPost, "/api/v1/harvest", req, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			msg := resp.Error
			if resp.Code != "" {
				msg = fmt.Sprintf("[%s] %s", resp.Code, resp.Error)
			}
			return mcp.NewToolResultError(msg), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Imported %d listings", resp.Count)), nil
	}
}

func handleSinkHealth(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var resp models.HealthResponse
		if err := api.do(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Service: %s (up %s, %d/%d pages active)\n",
			resp.Status, resp.Uptime, resp.PoolStats.ActivePages, resp.PoolStats.MaxPages)
		if resp.Sink.Available {
			fmt.Fprintf(&sb, "Sink: available at %s", resp.Sink.URL)
		} else {
			fmt.Fprintf(&sb, "Sink: unavailable at %s: %s", resp.Sink.URL, resp.Sink.Error)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func formatListings(listings []models.ListingRecord) string {
	if len(listings) == 0 {
		return models.ReasonNoListings
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d listings\n\n", len(listings))
	for i, l := range listings {
		fmt.Fprintf(&sb, "%d. %s | %s | %s\n   %s\n",
			i+1, orDash(l.Title), orDash(l.Price), orDash(l.Location), l.SourceURL)
	}
	return sb.String()
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
