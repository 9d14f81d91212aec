// Package imageres finds an externally usable thumbnail URL for a listing
// card. The host page mixes several lazy-loading mechanisms, so resolution is
// an ordered chain of independent strategies, most specific first.
package imageres

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/carscout/dom"
)

// Context is what every strategy sees: the page, the card boundary and the
// listing anchor that produced it.
type Context struct {
	Page   *dom.Page
	Card   *goquery.Selection
	Anchor *goquery.Selection
}

// Strategy is one named way of finding a thumbnail.
type Strategy struct {
	Name string
	Find func(Context) (string, bool)
}

// Match is an accepted thumbnail and the strategy that found it.
type Match struct {
	URL      string
	Strategy string
}

// Resolver evaluates its strategies in order; the first success wins.
type Resolver struct {
	Strategies []Strategy
}

// DefaultImageHosts are the host fragments of the marketplace's image CDN.
var DefaultImageHosts = []string{"fbcdn.net", "facebook.com"}

// Default returns the standard chain: image inside the anchor, any image
// attribute in the card, a CDN-hosted image near the anchor, and finally a
// CSS background image.
func Default() *Resolver {
	return New(DefaultImageHosts)
}

// New returns the standard chain with the given CDN host fragments.
func New(imageHosts []string) *Resolver {
	return &Resolver{Strategies: []Strategy{
		InsideAnchor(),
		CardImages(),
		NearbyHosted(imageHosts...),
		BackgroundStyle(),
	}}
}

// Resolve runs the chain. A miss is not an error: the card simply has no
// usable thumbnail.
func (r *Resolver) Resolve(c Context) (Match, bool) {
	if c.Page == nil || c.Card == nil || c.Card.Length() == 0 {
		return Match{}, false
	}
	for _, s := range r.Strategies {
		if u, ok := s.Find(c); ok {
			return Match{URL: u, Strategy: s.Name}, true
		}
	}
	return Match{}, false
}

// minInlineImageLen separates real inline images from placeholder pixels.
const minInlineImageLen = 200

// IsValidImageURL accepts http(s) URLs and large inline images. Blob URLs
// only live inside the page and tiny data URLs are lazy-load placeholders.
func IsValidImageURL(u string) bool {
	switch {
	case u == "":
		return false
	case strings.HasPrefix(u, "blob:"):
		return false
	case strings.HasPrefix(u, "data:") && len(u) < minInlineImageLen:
		return false
	case strings.HasPrefix(u, "javascript:"):
		return false
	}
	return strings.HasPrefix(u, "http://") ||
		strings.HasPrefix(u, "https://") ||
		(strings.HasPrefix(u, "data:image") && len(u) > minInlineImageLen)
}

var (
	imgMatcher        = dom.Matcher("img")
	backgroundMatcher = dom.Matcher(`[style*="background"]`)
	cssURL            = regexp.MustCompile(`url\(["']?([^"')]+)["']?\)`)
)

// nearbyDepth bounds the upward search from the anchor.
const nearbyDepth = 8

// InsideAnchor takes the src of the first image nested in the anchor.
func InsideAnchor() Strategy {
	return Strategy{Name: "inside-anchor", Find: func(c Context) (string, bool) {
		if c.Anchor == nil {
			return "", false
		}
		img := c.Anchor.FindMatcher(imgMatcher).First()
		if img.Length() == 0 {
			return "", false
		}
		src := c.Page.Src(img)
		return src, IsValidImageURL(src)
	}}
}

// CardImages tries every image in the card, checking src, data-src,
// data-srcset and srcset in that order.
func CardImages() Strategy {
	return Strategy{Name: "card-images", Find: func(c Context) (string, bool) {
		var found string
		c.Card.FindMatcher(imgMatcher).EachWithBreak(func(_ int, img *goquery.Selection) bool {
			for _, candidate := range imageCandidates(c.Page, img) {
				if IsValidImageURL(candidate) {
					found = candidate
					return false
				}
			}
			return true
		})
		return found, found != ""
	}}
}

func imageCandidates(p *dom.Page, img *goquery.Selection) []string {
	dataSrc, _ := img.Attr("data-src")
	dataSrcset, _ := img.Attr("data-srcset")
	srcset, _ := img.Attr("srcset")
	return []string{
		p.Src(img),
		dataSrc,
		dom.FirstSrcsetCandidate(dataSrcset),
		dom.FirstSrcsetCandidate(srcset),
	}
}

// NearbyHosted walks up from the anchor's parent and searches each
// ancestor's subtree for an image served from one of hosts.
func NearbyHosted(hosts ...string) Strategy {
	if len(hosts) == 0 {
		hosts = DefaultImageHosts
	}
	parts := make([]string, len(hosts))
	for i, h := range hosts {
		parts[i] = `img[src*="` + h + `"]`
	}
	hosted := dom.Matcher(strings.Join(parts, ", "))

	return Strategy{Name: "nearby-hosted", Find: func(c Context) (string, bool) {
		if c.Anchor == nil {
			return "", false
		}
		parent := c.Anchor.Parent()
		for i := 0; i < nearbyDepth && parent.Length() > 0; i++ {
			if img := parent.FindMatcher(hosted).First(); img.Length() > 0 {
				if src := c.Page.Src(img); IsValidImageURL(src) {
					return src, true
				}
			}
			parent = parent.Parent()
		}
		return "", false
	}}
}

// BackgroundStyle parses url(...) out of inline background styles in the card.
func BackgroundStyle() Strategy {
	return Strategy{Name: "background-style", Find: func(c Context) (string, bool) {
		var found string
		c.Card.FindMatcher(backgroundMatcher).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			style, _ := el.Attr("style")
			m := cssURL.FindStringSubmatch(style)
			if m != nil && IsValidImageURL(m[1]) {
				found = m[1]
				return false
			}
			return true
		})
		return found, found != ""
	}}
}
