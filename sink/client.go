// Package sink is the HTTP client for the ingestion backend.
//
// Contract:
//
//	POST {base}/import      body: top-level JSON array of ListingRecord
//	                        reply: {"imported": n}, n optional
//	GET  {base}/api/health  any 2xx means available
package sink

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/use-agent/carscout/models"
)

var (
	// ErrStatus is returned (wrapped with the code) for a non-2xx reply.
	ErrStatus = errors.New("sink: non-success status")

	// ErrMalformed is returned when a 2xx reply body is not a JSON object.
	ErrMalformed = errors.New("sink: malformed response")
)

// SignatureHeader carries the HMAC-SHA256 of the request body when a secret
// is configured.
const SignatureHeader = "X-CarScout-Signature"

const userAgent = "CarScout/1.0"

// Config configures a Client.
type Config struct {
	// BaseURL is the sink root, e.g. "http://localhost:9876".
	BaseURL string

	// Secret signs request bodies when non-empty.
	Secret string

	// Timeout bounds each request. Zero means no client-side timeout;
	// the caller's context still applies.
	Timeout time.Duration
}

// Client talks to one ingestion sink. It is safe for concurrent use.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewClient creates a Client.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		secret:  cfg.Secret,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// BaseURL returns the sink root the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type importReply struct {
	Imported *int `json:"imported"`
}

// Import posts the whole batch in one request and returns the count the sink
// acknowledged, or 0 when the reply omits it.
func (c *Client) Import(ctx context.Context, records []models.ListingRecord) (int, error) {
	if records == nil {
		records = []models.ListingRecord{}
	}
	body, err := json.Marshal(records)
	if err != nil {
		return 0, fmt.Errorf("sink: marshal records: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/import", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("sink: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(c.secret, body))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sink: import: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("sink: read response: %w", err)
	}
	var reply *importReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if reply == nil {
		return 0, fmt.Errorf("%w: null body", ErrMalformed)
	}
	if reply.Imported == nil {
		return 0, nil
	}
	return *reply.Imported, nil
}

// Health probes the sink. Any transport failure or non-2xx status means the
// sink is unavailable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("sink: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sink: health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether header (as sent in SignatureHeader) matches body.
func Verify(secret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	want, err := hex.DecodeString(Sign(secret, body))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}
