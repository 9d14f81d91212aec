// Package locator discovers listing cards on a marketplace page.
//
// Marketplace markup is unlabeled and changes often. The one stable signal is
// the item-detail link, so discovery anchors on those links and walks a
// bounded number of ancestors to recover the card around each one.
package locator

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/carscout/dom"
	"github.com/use-agent/carscout/fields"
)

const (
	// MaxDepth bounds the ancestor walk from an anchor.
	MaxDepth = 6

	// minCardChildren and minCardText make up the "looks like a card" test.
	minCardChildren = 2
	minCardText     = 10
)

// LinkSelector matches item-detail links, the anchor of every card.
const LinkSelector = `a[href*="` + fields.ItemPathMarker + `"]`

var (
	listingLinks = dom.Matcher(LinkSelector)
	images       = dom.Matcher("img")
)

// Card is one candidate listing: its boundary element, the link that led to
// it and the identifier resolved from that link.
type Card struct {
	Element    *goquery.Selection
	Anchor     *goquery.Selection
	ExternalID string

	// Confident is false when no ancestor passed the card test and the walk
	// stopped at the depth bound. Such cards may span an oversized container
	// (up to the page body); they are still extracted.
	Confident bool

	// Depth is how many ancestors above the anchor the boundary sits.
	Depth int
}

// FindCards returns one card per distinct listing identifier, in document
// order. A page without listing links yields an empty slice.
func FindCards(page *dom.Page) []Card {
	if page == nil || page.Doc == nil {
		return nil
	}

	var cards []Card
	seen := make(map[string]struct{})

	page.Doc.FindMatcher(listingLinks).Each(func(_ int, link *goquery.Selection) {
		id, ok := fields.ExternalID(page.Href(link))
		if !ok {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		el, depth, confident := cardBoundary(link)
		cards = append(cards, Card{
			Element:    el,
			Anchor:     link,
			ExternalID: id,
			Confident:  confident,
			Depth:      depth,
		})
	})

	return cards
}

// cardBoundary walks up from the anchor until an ancestor looks like a card
// or MaxDepth is reached. When the tree ends first, the topmost element
// reached is used.
func cardBoundary(link *goquery.Selection) (*goquery.Selection, int, bool) {
	card := link
	depth := 0
	for depth < MaxDepth {
		parent := card.Parent()
		if parent.Length() == 0 {
			break
		}
		card = parent
		depth++
		if LooksLikeCard(card) {
			return card, depth, true
		}
	}
	return card, depth, false
}

// LooksLikeCard reports whether el has at least two child elements, at least
// one image and more than a few characters of rendered text.
func LooksLikeCard(el *goquery.Selection) bool {
	if dom.ChildElementCount(el) < minCardChildren {
		return false
	}
	if el.FindMatcher(images).Length() == 0 {
		return false
	}
	return fields.TextLength(dom.InnerText(el)) > minCardText
}

// LinkCount reports how many listing links the page carries, duplicates
// included. Zero means nothing on the page can become a card.
func LinkCount(page *dom.Page) int {
	if page == nil || page.Doc == nil {
		return 0
	}
	return page.Doc.FindMatcher(listingLinks).Length()
}
