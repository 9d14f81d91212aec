package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := Load()
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 4, cfg.Browser.MaxPages)
	assert.Equal(t, 30*time.Second, cfg.Scraper.DefaultTimeout)
	assert.Equal(t, []string{"Font", "Media"}, cfg.Scraper.BlockedResourceTypes)
	assert.Equal(t, []time.Duration{0, 2 * time.Second, 5 * time.Second}, cfg.Engine.EscalationDelays)
	assert.Equal(t, "http://localhost:9876", cfg.Sink.URL)
	assert.Zero(t, cfg.Sink.Timeout)
	assert.Equal(t, "https://www.facebook.com/marketplace/", cfg.Marketplace.BaseURL)
	assert.Equal(t, []string{"fbcdn.net", "facebook.com"}, cfg.Marketplace.ImageHosts)
	assert.Equal(t, 9876, cfg.Ingest.Port)
	assert.Equal(t, 64, cfg.Cache.MaxEntries)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CARSCOUT_PORT", "9000")
	t.Setenv("CARSCOUT_HEADLESS", "false")
	t.Setenv("CARSCOUT_API_KEYS", "a, b,,c")
	t.Setenv("CARSCOUT_RATE_RPS", "0.5")
	t.Setenv("CARSCOUT_ESCALATION_DELAYS", "0s,1s,bogus")
	t.Setenv("CARSCOUT_SINK_URL", "http://sink.internal:9876")
	t.Setenv("CARSCOUT_SINK_TIMEOUT", "3s")
	t.Setenv("CARSCOUT_MAX_PAGES", "lots")

	cfg := Load()
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Auth.APIKeys)
	assert.Equal(t, 0.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, []time.Duration{0, time.Second}, cfg.Engine.EscalationDelays)
	assert.Equal(t, "http://sink.internal:9876", cfg.Sink.URL)
	assert.Equal(t, 3*time.Second, cfg.Sink.Timeout)
	assert.Equal(t, 4, cfg.Browser.MaxPages, "unparseable values fall back")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf).Info("dropped")
	assert.Empty(t, buf.String())

	LogConfig{Level: "debug", Format: "text"}.NewLogger(&buf).Debug("kept", "k", "v")
	assert.Contains(t, buf.String(), "msg=kept")
	assert.Contains(t, buf.String(), "k=v")

	buf.Reset()
	LogConfig{}.NewLogger(&buf).Info("json by default")
	assert.Contains(t, buf.String(), `"msg":"json by default"`)
}
