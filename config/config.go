package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Browser     BrowserConfig
	Scraper     ScraperConfig
	Engine      EngineConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Log         LogConfig
	Sink        SinkConfig
	Marketplace MarketplaceConfig
	Ingest      IngestConfig
	Cache       CacheConfig
}

// CacheConfig controls the rendered-page cache.
type CacheConfig struct {
	// MaxEntries bounds how many rendered pages are kept.
	MaxEntries int // default: 64
}

// EngineConfig controls the multi-engine escalation dispatcher.
type EngineConfig struct {
	// EnableMultiEngine toggles the dispatcher for fetch_mode "auto".
	EnableMultiEngine bool // default: true

	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 2s, 5s]

	// HTTPTimeout is the deadline for the pure HTTP engine.
	HTTPTimeout time.Duration // default: 5s

	// MemoryTTL is how long a domain remembers its winning engine.
	MemoryTTL time.Duration // default: 24h
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "127.0.0.1"
	Port int    // default: 8090
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// UserDataDir reuses a Chrome profile, e.g. one logged in to the marketplace.
	UserDataDir string
}

// ScraperConfig controls page rendering.
type ScraperConfig struct {
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout time.Duration // default: 30s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// ListingWait bounds the wait for the first listing link after navigation.
	ListingWait time.Duration // default: 10s

	// BlockedResourceTypes lists resource types to block. Images stay
	// allowed so lazy loaders populate their src attributes.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds drops requests to known ad and tracking hosts.
	BlockAds bool // default: true
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// SinkConfig points at the ingestion backend.
type SinkConfig struct {
	// URL is the sink root.
	URL string // default: "http://localhost:9876"

	// Secret signs submitted batches when set.
	Secret string

	// Timeout bounds each sink request. Zero leaves it to the caller's context.
	Timeout time.Duration // default: 0

	// HealthTimeout bounds the liveness probe made by /api/v1/health.
	HealthTimeout time.Duration // default: 2s
}

// MarketplaceConfig describes the marketplace being harvested.
type MarketplaceConfig struct {
	// BaseURL is used as the page address of HTML snapshots sent without one.
	BaseURL string // default: "https://www.facebook.com/marketplace/"

	// ImageHosts are host fragments of the marketplace image CDN.
	ImageHosts []string // default: ["fbcdn.net", "facebook.com"]
}

// IngestConfig controls the reference ingestion sink (cmd/carscout-sink).
type IngestConfig struct {
	Host string // default: "127.0.0.1"
	Port int    // default: 9876

	// DatabaseURL selects PostgreSQL storage; empty keeps records in memory.
	DatabaseURL string

	// Secret, when set, requires a valid body signature on /import.
	Secret string
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("ignoring unreadable .env file", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: envOr("CARSCOUT_HOST", "127.0.0.1"),
			Port: envIntOr("CARSCOUT_PORT", 8090),
			Mode: envOr("CARSCOUT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("CARSCOUT_HEADLESS", true),
			MaxPages:     envIntOr("CARSCOUT_MAX_PAGES", 4),
			DefaultProxy: os.Getenv("CARSCOUT_PROXY"),
			NoSandbox:    envBoolOr("CARSCOUT_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("CARSCOUT_BROWSER_BIN"),
			UserDataDir:  os.Getenv("CARSCOUT_USER_DATA_DIR"),
		},
		Scraper: ScraperConfig{
			DefaultTimeout:       envDurationOr("CARSCOUT_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:           envDurationOr("CARSCOUT_MAX_TIMEOUT", 120*time.Second),
			ListingWait:          envDurationOr("CARSCOUT_LISTING_WAIT", 10*time.Second),
			BlockedResourceTypes: envSliceOr("CARSCOUT_BLOCKED_RESOURCES", []string{"Font", "Media"}),
			BlockAds:             envBoolOr("CARSCOUT_BLOCK_ADS", true),
		},
		Engine: EngineConfig{
			EnableMultiEngine: envBoolOr("CARSCOUT_MULTI_ENGINE", true),
			EscalationDelays:  envDurationSliceOr("CARSCOUT_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 5 * time.Second}),
			HTTPTimeout:       envDurationOr("CARSCOUT_HTTP_TIMEOUT", 5*time.Second),
			MemoryTTL:         envDurationOr("CARSCOUT_ENGINE_MEMORY_TTL", 24*time.Hour),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("CARSCOUT_AUTH_ENABLED", false),
			APIKeys: envSliceOr("CARSCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("CARSCOUT_RATE_RPS", 2.0),
			Burst:             envIntOr("CARSCOUT_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  envOr("CARSCOUT_LOG_LEVEL", "info"),
			Format: envOr("CARSCOUT_LOG_FORMAT", "json"),
		},
		Sink: SinkConfig{
			URL:           envOr("CARSCOUT_SINK_URL", "http://localhost:9876"),
			Secret:        os.Getenv("CARSCOUT_SINK_SECRET"),
			Timeout:       envDurationOr("CARSCOUT_SINK_TIMEOUT", 0),
			HealthTimeout: envDurationOr("CARSCOUT_SINK_HEALTH_TIMEOUT", 2*time.Second),
		},
		Marketplace: MarketplaceConfig{
			BaseURL:    envOr("CARSCOUT_MARKETPLACE_URL", "https://www.facebook.com/marketplace/"),
			ImageHosts: envSliceOr("CARSCOUT_IMAGE_HOSTS", []string{"fbcdn.net", "facebook.com"}),
		},
		Ingest: IngestConfig{
			Host:        envOr("CARSCOUT_SINK_HOST", "127.0.0.1"),
			Port:        envIntOr("CARSCOUT_SINK_PORT", 9876),
			DatabaseURL: os.Getenv("CARSCOUT_SINK_DATABASE_URL"),
			Secret:      os.Getenv("CARSCOUT_SINK_SECRET"),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("CARSCOUT_CACHE_MAX_ENTRIES", 64),
		},
	}
}

// NewLogger builds the slog logger described by cfg.
func (cfg LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
