package fields

import (
	"net/url"
	"regexp"
	"strings"
)

// ItemPathMarker is the path fragment every listing detail link carries.
const ItemPathMarker = "/marketplace/item/"

var (
	itemIDPattern    = regexp.MustCompile(`/marketplace/item/(\d+)`)
	marketplaceScope = regexp.MustCompile(`/marketplace/([^/]+)`)
)

// reservedSegment is the path segment of a single item view; it never names
// a search context.
const reservedSegment = "item"

// ExternalID returns the numeric listing ID from an item URL such as
// https://www.facebook.com/marketplace/item/1234567890/.
func ExternalID(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	m := itemIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SearchContext infers the search term or category from a page address.
// The "query" parameter wins; otherwise the segment after /marketplace/ is
// used with hyphens rendered as spaces.
func SearchContext(page *url.URL) (string, bool) {
	if page == nil {
		return "", false
	}
	if q := page.Query().Get("query"); q != "" {
		return q, true
	}
	m := marketplaceScope.FindStringSubmatch(page.EscapedPath())
	if m == nil || m[1] == reservedSegment {
		return "", false
	}
	return strings.ReplaceAll(m[1], "-", " "), true
}
