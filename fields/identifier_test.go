package fields

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalID(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://www.facebook.com/marketplace/item/1234567890/?ref=search", "1234567890", true},
		{"/marketplace/item/42", "42", true},
		{"https://www.facebook.com/marketplace/item/abc/", "", false},
		{"https://www.facebook.com/marketplace/seattle/", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := ExternalID(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchContext(t *testing.T) {
	tests := []struct {
		name   string
		page   string
		want   string
		wantOK bool
	}{
		{"query parameter wins", "https://www.facebook.com/marketplace/seattle/search?query=honda%20civic", "honda civic", true},
		{"hyphenated segment", "https://www.facebook.com/marketplace/new-york/vehicles", "new york", true},
		{"category page uses first segment", "https://www.facebook.com/marketplace/category/cars", "category", true},
		{"empty query falls back to path", "https://www.facebook.com/marketplace/austin/search?query=", "austin", true},
		{"item page has no context", "https://www.facebook.com/marketplace/item/123/", "", false},
		{"marketplace root", "https://www.facebook.com/marketplace/", "", false},
		{"outside marketplace", "https://www.facebook.com/groups/cars", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.page)
			require.NoError(t, err)
			got, ok := SearchContext(u)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := SearchContext(nil)
	assert.False(t, ok)
}
