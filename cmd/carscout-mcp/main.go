package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("CARSCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8090"
	}
	api := &apiClient{
		baseURL: apiURL,
		apiKey:  os.Getenv("CARSCOUT_API_KEY"),
		timeout: 150 * time.Second,
	}

	s := server.NewMCPServer(
		"carscout",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(pageTool("count_listings",
		"Count the vehicle listings on a Facebook Marketplace page without submitting anything."),
		handleCount(api))
	s.AddTool(pageTool("preview_listings",
		"Extract the vehicle listings on a Facebook Marketplace page (title, price, location, thumbnail) without submitting them."),
		handlePreview(api))
	s.AddTool(pageTool("harvest_listings",
		"Extract every vehicle listing on a Facebook Marketplace page and submit the batch to the ingestion backend. Returns how many were imported."),
		handleHarvest(api))
	s.AddTool(mcp.NewTool("sink_health",
		mcp.WithDescription("Report whether the CarScout service and its ingestion backend are up."),
	), handleSinkHealth(api))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// pageTool declares the arguments shared by every tool that reads a page.
func pageTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("url",
			mcp.Description("Marketplace search or category URL to render, e.g. https://www.facebook.com/marketplace/seattle/vehicles?query=civic"),
		),
		mcp.WithString("html",
			mcp.Description("Already-rendered page HTML. When given, url is not fetched."),
		),
		mcp.WithString("page_url",
			mcp.Description("Address the html was captured from; used to resolve links and the search query."),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("How to fetch url: 'auto' (default), 'http' or 'browser'"),
			mcp.Enum("auto", "http", "browser"),
		),
		mcp.WithBoolean("stealth",
			mcp.Description("Enable browser anti-detection evasions"),
		),
	)
}
