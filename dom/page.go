// Package dom wraps a parsed page snapshot and provides the browser-like
// accessors (resolved href/src, innerText) the extraction pipeline reads.
package dom

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Page is an immutable snapshot of a rendered page plus the address it was
// rendered from. Every traversal in the pipeline takes a Page explicitly.
type Page struct {
	Doc *goquery.Document
	URL *url.URL
}

// NewPage parses rawHTML and binds it to pageURL.
func NewPage(rawHTML, pageURL string) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("dom: parse page url: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("dom: page url must be absolute: %q", pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("dom: parse html: %w", err)
	}
	doc.Url = u

	return &Page{Doc: doc, URL: u}, nil
}

// Resolve turns an attribute value into an absolute URL the way the
// browser's href/src properties do. An empty reference stays empty. Stray
// "%" signs are escaped, and a reference that still cannot be parsed is
// resolved as a plain path.
func (p *Page) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	resolved, err := p.URL.Parse(ref)
	if err != nil {
		resolved, err = p.URL.Parse(escapeStrayPercents(ref))
	}
	if err != nil {
		resolved = p.URL.ResolveReference(&url.URL{Path: ref})
	}
	return resolved.String()
}

// escapeStrayPercents rewrites every "%" not followed by two hex digits as "%25".
func escapeStrayPercents(ref string) string {
	var b strings.Builder
	for i := 0; i < len(ref); i++ {
		if ref[i] == '%' && (i+2 >= len(ref) || !isHex(ref[i+1]) || !isHex(ref[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(ref[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// Href returns the resolved href of the first node in s.
func (p *Page) Href(s *goquery.Selection) string {
	href, _ := s.Attr("href")
	return p.Resolve(href)
}

// Src returns the resolved src of the first node in s.
func (p *Page) Src(s *goquery.Selection) string {
	src, _ := s.Attr("src")
	return p.Resolve(src)
}

// Matcher compiles a CSS selector once. It panics on an invalid selector and
// is meant for package-level variables.
func Matcher(selector string) goquery.Matcher {
	return cascadia.MustCompile(selector)
}

// ChildElementCount returns the number of element children of s.
func ChildElementCount(s *goquery.Selection) int {
	return s.Children().Length()
}

// FirstSrcsetCandidate returns the URL of the first candidate in a
// srcset-style attribute value ("a.jpg 1x, b.jpg 2x" -> "a.jpg").
func FirstSrcsetCandidate(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fieldsOf := strings.Fields(first)
	if len(fieldsOf) == 0 {
		return ""
	}
	return fieldsOf[0]
}
