package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/carscout/dom"
	"github.com/use-agent/carscout/locator"
	"github.com/use-agent/carscout/models"
)

var fixedNow = time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)

const pageHTML = `<div id="grid">
	<div id="c1">
		<a href="/marketplace/item/111/?ref=search&tracking=abc"><img src="https://scontent.fbcdn.net/a.jpg"></a>
		<div><div>Just listed</div><div>$12,000</div><div>2018 Honda Civic</div><div>Seattle, WA</div></div>
	</div>
	<div id="c2">
		<a href="/marketplace/item/333/" aria-label="Tacoma, WA"><img src="data:image/gif;base64,R0lGOD" data-src="https://scontent.fbcdn.net/lazy.jpg"></a>
		<div><span>FREE</span><br><span>Old sedan for parts</span></div>
	</div>
	<div id="c3">
		<a href="/marketplace/item/444/"><img src="https://scontent.fbcdn.net/d.jpg"></a>
		<div><div>Pickup truck, runs great</div><div>Renton, WA</div></div>
	</div>
</div>`

func extractAll(t *testing.T) []*models.ListingRecord {
	t.Helper()
	p, err := dom.NewPage(pageHTML, "https://www.facebook.com/marketplace/seattle/search?query=honda%20civic")
	require.NoError(t, err)

	e := New(nil, func() time.Time { return fixedNow })
	var out []*models.ListingRecord
	for _, c := range locator.FindCards(p) {
		rec, ok := e.Extract(p, c)
		require.True(t, ok)
		out = append(out, rec)
	}
	return out
}

func TestExtractFullCard(t *testing.T) {
	recs := extractAll(t)
	require.Len(t, recs, 3)

	r := recs[0]
	assert.Equal(t, "111", r.ExternalID)
	assert.Equal(t, "https://www.facebook.com/marketplace/item/111/", r.SourceURL)
	require.NotNil(t, r.Title)
	assert.Equal(t, "2018 Honda Civic", *r.Title)
	require.NotNil(t, r.Price)
	assert.Equal(t, "$12,000", *r.Price)
	require.NotNil(t, r.Location)
	assert.Equal(t, "Seattle, WA", *r.Location)
	require.NotNil(t, r.ThumbnailURL)
	assert.Equal(t, "https://scontent.fbcdn.net/a.jpg", *r.ThumbnailURL)
	require.NotNil(t, r.SearchContext)
	assert.Equal(t, "honda civic", *r.SearchContext)
	assert.True(t, r.CapturedAt.Equal(fixedNow))
}

func TestExtractFreeListingWithLabelLocation(t *testing.T) {
	r := extractAll(t)[1]

	assert.Equal(t, "333", r.ExternalID)
	require.NotNil(t, r.Price)
	assert.Equal(t, "Free", *r.Price)
	require.NotNil(t, r.Title)
	assert.Equal(t, "Old sedan for parts", *r.Title)
	require.NotNil(t, r.Location)
	assert.Equal(t, "Tacoma, WA", *r.Location)
	require.NotNil(t, r.ThumbnailURL)
	assert.Equal(t, "https://scontent.fbcdn.net/lazy.jpg", *r.ThumbnailURL, "placeholder src skipped")
}

func TestExtractMissingPrice(t *testing.T) {
	r := extractAll(t)[2]

	assert.Nil(t, r.Price)
	require.NotNil(t, r.Title)
	assert.Equal(t, "Pickup truck, runs great", *r.Title)
	require.NotNil(t, r.Location)
	assert.Equal(t, "Renton, WA", *r.Location)
}

func TestExtractRejectsIncompleteCards(t *testing.T) {
	p, err := dom.NewPage(pageHTML, "https://www.facebook.com/marketplace/")
	require.NoError(t, err)
	e := New(nil, nil)

	cards := locator.FindCards(p)
	require.NotEmpty(t, cards)

	noID := cards[0]
	noID.ExternalID = ""
	_, ok := e.Extract(p, noID)
	assert.False(t, ok)

	noElement := cards[0]
	noElement.Element = nil
	_, ok = e.Extract(p, noElement)
	assert.False(t, ok)

	_, ok = e.Extract(nil, cards[0])
	assert.False(t, ok)
}

func TestTitleOf(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"vehicle line preferred", []string{"Just listed", "2015 Toyota Tacoma"}, "2015 Toyota Tacoma"},
		{"first eligible line", []string{"$100", "Ford", "Clean truck"}, "Clean truck"},
		{"location tail skipped", []string{"Seattle, WA"}, ""},
		{"astral characters count twice", []string{"🚗🚗🚗"}, "🚗🚗🚗"},
		{"short accented line skipped", []string{"ééé"}, ""},
		{"nothing", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titleOf(tt.lines))
		})
	}
}

func TestCanonicalURL(t *testing.T) {
	assert.Equal(t, "https://www.facebook.com/marketplace/item/1/", canonicalURL("https://www.facebook.com/marketplace/item/1/?ref=x"))
	assert.Equal(t, "https://www.facebook.com/marketplace/item/1/", canonicalURL("https://www.facebook.com/marketplace/item/1/"))
}
