// Package extractor turns a located card into a normalized ListingRecord.
package extractor

import (
	"strings"
	"time"

	"github.com/use-agent/carscout/dom"
	"github.com/use-agent/carscout/fields"
	"github.com/use-agent/carscout/imageres"
	"github.com/use-agent/carscout/locator"
	"github.com/use-agent/carscout/models"
)

// Extractor builds records from cards. It is stateless apart from its
// collaborators and safe for concurrent use.
type Extractor struct {
	images *imageres.Resolver
	now    func() time.Time
}

// New creates an Extractor. A nil resolver uses imageres.Default and a nil
// clock uses time.Now.
func New(images *imageres.Resolver, now func() time.Time) *Extractor {
	if images == nil {
		images = imageres.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Extractor{images: images, now: now}
}

// Extract builds one record, or reports false when the card has no boundary
// element, no identifier or no resolvable URL. Missing optional fields are
// left nil; they never reject the record.
func (e *Extractor) Extract(page *dom.Page, card locator.Card) (*models.ListingRecord, bool) {
	if page == nil || card.Element == nil || card.Element.Length() == 0 || card.ExternalID == "" {
		return nil, false
	}

	sourceURL := canonicalURL(page.Href(card.Anchor))
	if sourceURL == "" {
		return nil, false
	}

	rec := &models.ListingRecord{
		ExternalID: card.ExternalID,
		SourceURL:  sourceURL,
		CapturedAt: models.NewTimestamp(e.now()),
	}
	if q, ok := fields.SearchContext(page.URL); ok {
		rec.SearchContext = &q
	}

	if m, ok := e.images.Resolve(imageres.Context{Page: page, Card: card.Element, Anchor: card.Anchor}); ok {
		rec.ThumbnailURL = &m.URL
	}

	lines := dom.Lines(card.Element)
	rec.Price = models.StringPtr(priceOf(lines))
	rec.Title = models.StringPtr(titleOf(lines))

	location := locationOf(lines)
	if location == "" {
		location = locationFromLabel(card)
	}
	rec.Location = models.StringPtr(location)

	return rec, true
}

// canonicalURL drops everything from the first "?" so tracking parameters
// never reach the sink.
func canonicalURL(href string) string {
	base, _, _ := strings.Cut(href, "?")
	return base
}

func priceOf(lines []string) string {
	for _, l := range lines {
		if fields.PriceLine.Match(l) {
			return l
		}
	}
	for _, l := range lines {
		if fields.FreeLine.Match(l) {
			return fields.FreeLiteral
		}
	}
	return ""
}

// titleOf prefers the first year+make line because cards often put secondary
// metadata above the title; otherwise the first remaining line is used.
func titleOf(lines []string) string {
	var title string
	for _, l := range lines {
		if fields.PriceLine.Match(l) || fields.FreeLine.Match(l) {
			continue
		}
		if fields.TextLength(l) < fields.MinTitleLength {
			continue
		}
		if fields.LocationTail.Match(l) {
			continue
		}
		if fields.VehicleTitle.Match(l) {
			return l
		}
		if title == "" {
			title = l
		}
	}
	return title
}

func locationOf(lines []string) string {
	for _, l := range lines {
		if fields.LocationLine.Match(l) {
			return l
		}
	}
	return ""
}

// locationFromLabel reads the first non-empty aria-label of the card, then
// the anchor.
func locationFromLabel(card locator.Card) string {
	label, _ := card.Element.Attr("aria-label")
	if label == "" && card.Anchor != nil {
		label, _ = card.Anchor.Attr("aria-label")
	}
	if label == "" {
		return ""
	}
	loc, _ := fields.LocationLabel.Find(label)
	return loc
}
