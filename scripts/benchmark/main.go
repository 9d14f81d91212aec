// Command benchmark measures render and extraction latency of a running
// carscout API across fetch modes.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/carscout/models"
)

var (
	apiURL = flag.String("api-url", "http://localhost:8090", "carscout API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "number of runs per URL and mode")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
	modes  = flag.String("modes", "http,browser,auto", "comma-separated fetch modes to compare")
)

// defaultURLs are public marketplace pages; pass URLs as arguments to override.
var defaultURLs = []string{
	"https://www.facebook.com/marketplace/category/vehicles",
	"https://www.facebook.com/marketplace/category/cars",
	"https://www.facebook.com/marketplace/nyc/search?query=honda%20civic",
}

type runResult struct {
	Run       int    `json:"run"`
	Success   bool   `json:"success"`
	Count     int    `json:"count"`
	TotalMs   int64  `json:"total_ms"`
	RenderMs  int64  `json:"render_ms"`
	HarvestMs int64  `json:"harvest_ms"`
	Error     string `json:"error,omitempty"`
}

type caseResult struct {
	URL       string      `json:"url"`
	FetchMode string      `json:"fetch_mode"`
	Runs      []runResult `json:"runs"`
	AvgMs     float64     `json:"avg_total_ms,omitempty"`
	AvgCount  float64     `json:"avg_count,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string       `json:"timestamp"`
	APIURL     string       `json:"api_url"`
	RunsPerURL int          `json:"runs_per_url"`
	Results    []caseResult `json:"results"`
}

func main() {
	flag.Parse()
	urls := flag.Args()
	if len(urls) == 0 {
		urls = defaultURLs
	}

	fmt.Println("=== CarScout Benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs:      %d\n", *runs)
	fmt.Printf("Modes:     %s\n\n", *modes)

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	client := &http.Client{Timeout: 150 * time.Second}
	for _, u := range urls {
		for _, mode := range strings.Split(*modes, ",") {
			mode = strings.TrimSpace(mode)
			fmt.Printf("[%s] %s\n", mode, u)
			cr := caseResult{URL: u, FetchMode: mode}
			for i := 1; i <= *runs; i++ {
				rr := countOnce(client, u, mode, i)
				if rr.Success {
					fmt.Printf("  run %d: %d listings in %dms (render %dms)\n", i, rr.Count, rr.TotalMs, rr.RenderMs)
				} else {
					fmt.Printf("  run %d: FAILED %s\n", i, rr.Error)
				}
				cr.Runs = append(cr.Runs, rr)
			}
			cr.AvgMs, cr.AvgCount = averages(cr.Runs)
			report.Results = append(report.Results, cr)
		}
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func countOnce(client *http.Client, pageURL, mode string, run int) runResult {
	rr := runResult{Run: run}

	body, err := json.Marshal(models.PageRequest{URL: pageURL, FetchMode: mode, Timeout: 120})
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/count", bytes.NewReader(body))
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var cr models.CountResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = cr.Success
	rr.Count = cr.Count
	rr.TotalMs = cr.Timing.TotalMs
	rr.RenderMs = cr.Timing.RenderMs
	rr.HarvestMs = cr.Timing.HarvestMs
	if cr.Error != nil {
		rr.Error = cr.Error.Message
	}
	return rr
}

func averages(runs []runResult) (ms, count float64) {
	var n float64
	for _, r := range runs {
		if !r.Success {
			continue
		}
		n++
		ms += float64(r.TotalMs)
		count += float64(r.Count)
	}
	if n == 0 {
		return 0, 0
	}
	return ms / n, count / n
}

func printTable(results []caseResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tMode\tAvg Latency\tAvg Listings\n")
	for _, r := range results {
		if r.AvgMs == 0 {
			fmt.Fprintf(w, "%s\t%s\tFAILED\t-\n", truncateURL(r.URL, 50), r.FetchMode)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%dms\t%.1f\n", truncateURL(r.URL, 50), r.FetchMode, int64(r.AvgMs), r.AvgCount)
	}
	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
