package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/carscout/engine"
)

func TestListingAcceptance(t *testing.T) {
	assert.NoError(t, ListingAcceptance(&engine.FetchResult{HTML: listingHTML, FinalURL: baseURL}))

	err := ListingAcceptance(&engine.FetchResult{HTML: `<form>Log in to Facebook</form>`, FinalURL: baseURL})
	assert.ErrorIs(t, err, ErrNoListingLinks)

	err = ListingAcceptance(&engine.FetchResult{HTML: listingHTML, FinalURL: ""})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoListingLinks)
}

func TestBrowserEngineNames(t *testing.T) {
	s := &Scraper{}
	assert.Equal(t, "rod", s.BrowserEngine(false).Name())
	assert.Equal(t, "rod-stealth", s.BrowserEngine(true).Name())
}

func TestIsTrackerHost(t *testing.T) {
	tests := map[string]bool{
		"doubleclick.net":          true,
		"stats.g.doubleclick.net":  true,
		"WWW.GOOGLE-ANALYTICS.COM": true,
		"notdoubleclick.net":       false,
		"www.facebook.com":         false,
		"scontent.fbcdn.net":       false,
		"":                         false,
	}
	for host, want := range tests {
		assert.Equal(t, want, isTrackerHost(host), host)
	}
}
