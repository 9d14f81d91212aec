package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements start and end a line in rendered text.
var blockElements = map[atom.Atom]struct{}{
	atom.Address: {}, atom.Article: {}, atom.Aside: {}, atom.Blockquote: {},
	atom.Dd: {}, atom.Details: {}, atom.Dialog: {}, atom.Div: {}, atom.Dl: {},
	atom.Dt: {}, atom.Fieldset: {}, atom.Figcaption: {}, atom.Figure: {},
	atom.Footer: {}, atom.Form: {}, atom.H1: {}, atom.H2: {}, atom.H3: {},
	atom.H4: {}, atom.H5: {}, atom.H6: {}, atom.Header: {}, atom.Hgroup: {},
	atom.Hr: {}, atom.Li: {}, atom.Main: {}, atom.Nav: {}, atom.Ol: {},
	atom.P: {}, atom.Pre: {}, atom.Section: {}, atom.Summary: {},
	atom.Table: {}, atom.Tr: {}, atom.Ul: {}, atom.Caption: {},
}

// hiddenElements never contribute rendered text.
var hiddenElements = map[atom.Atom]struct{}{
	atom.Script: {}, atom.Style: {}, atom.Noscript: {}, atom.Template: {},
	atom.Head: {}, atom.Title: {},
}

// InnerText approximates the browser's innerText for every node in s:
// block elements and <br> break lines, table cells are tab separated and
// whitespace runs collapse to one space.
func InnerText(s *goquery.Selection) string {
	var w textWriter
	for _, n := range s.Nodes {
		w.walk(n)
	}
	return w.String()
}

// Lines returns the non-empty, trimmed lines of InnerText(s) in order.
func Lines(s *goquery.Selection) []string {
	raw := strings.Split(InnerText(s), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

type textWriter struct {
	buf strings.Builder
	// pendingSpace defers a collapsed space until the next visible word, so
	// lines never start or end with one.
	pendingSpace bool
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
		if _, hidden := hiddenElements[n.DataAtom]; hidden {
			return
		}
		if n.DataAtom == atom.Br {
			w.newline()
			return
		}
	case html.DocumentNode:
	default:
		return
	}

	_, block := blockElements[n.DataAtom]
	if block {
		w.newline()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	switch {
	case block:
		w.newline()
	case n.DataAtom == atom.Td || n.DataAtom == atom.Th:
		w.tab()
	}
}

func (w *textWriter) text(s string) {
	words := strings.Fields(s)
	if len(words) == 0 {
		if s != "" {
			w.pendingSpace = true
		}
		return
	}
	if isSpace(s[0]) {
		w.pendingSpace = true
	}
	for i, word := range words {
		if i > 0 || w.pendingSpace {
			w.space()
		}
		w.buf.WriteString(word)
	}
	w.pendingSpace = isSpace(s[len(s)-1])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

func (w *textWriter) last() byte {
	s := w.buf.String()
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

func (w *textWriter) space() {
	if last := w.last(); last != 0 && last != '\n' && last != '\t' {
		w.buf.WriteByte(' ')
	}
}

func (w *textWriter) newline() {
	w.pendingSpace = false
	if last := w.last(); last != 0 && last != '\n' {
		w.buf.WriteByte('\n')
	}
}

func (w *textWriter) tab() {
	w.pendingSpace = false
	if last := w.last(); last != 0 && last != '\n' && last != '\t' {
		w.buf.WriteByte('\t')
	}
}

func (w *textWriter) String() string {
	return strings.TrimRight(w.buf.String(), "\n\t ")
}
