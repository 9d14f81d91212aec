package imageres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/carscout/dom"
)

func newContext(t *testing.T, html string) Context {
	t.Helper()
	p, err := dom.NewPage(html, "https://www.facebook.com/marketplace/seattle/")
	require.NoError(t, err)
	card := p.Doc.Find("#card")
	require.Equal(t, 1, card.Length(), "fixture needs a #card element")
	return Context{Page: p, Card: card, Anchor: p.Doc.Find("#anchor")}
}

func TestResolveStrategies(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		wantURL  string
		strategy string
	}{
		{
			name: "image inside anchor",
			html: `<div id="card">
				<a id="anchor" href="/marketplace/item/1/"><img src="https://scontent.fbcdn.net/in.jpg"></a>
				<div>2018 Honda Civic</div>
			</div>`,
			wantURL:  "https://scontent.fbcdn.net/in.jpg",
			strategy: "inside-anchor",
		},
		{
			name: "protocol relative src resolves",
			html: `<div id="card">
				<a id="anchor" href="/marketplace/item/1/"><img src="//scontent.fbcdn.net/rel.jpg"></a>
			</div>`,
			wantURL:  "https://scontent.fbcdn.net/rel.jpg",
			strategy: "inside-anchor",
		},
		{
			name: "blob in anchor falls back to lazy srcset in card",
			html: `<div id="card">
				<a id="anchor" href="/marketplace/item/1/"><img src="blob:https://www.facebook.com/abc"></a>
				<img data-srcset="https://cdn.example.com/s1.jpg 1x, https://cdn.example.com/s2.jpg 2x">
			</div>`,
			wantURL:  "https://cdn.example.com/s1.jpg",
			strategy: "card-images",
		},
		{
			name: "data-src preferred over srcset",
			html: `<div id="card">
				<a id="anchor" href="/marketplace/item/1/">link</a>
				<img data-src="https://cdn.example.com/lazy.jpg" srcset="https://cdn.example.com/set.jpg 1x">
			</div>`,
			wantURL:  "https://cdn.example.com/lazy.jpg",
			strategy: "card-images",
		},
		{
			name: "hosted image outside the card",
			html: `<div id="outer">
				<img src="https://scontent.fbcdn.net/near.jpg">
				<div id="card"><a id="anchor" href="/marketplace/item/1/">link</a><div>text</div></div>
			</div>`,
			wantURL:  "https://scontent.fbcdn.net/near.jpg",
			strategy: "nearby-hosted",
		},
		{
			name: "background image style",
			html: `<div id="card">
				<a id="anchor" href="/marketplace/item/1/">link</a>
				<div style="background-image: url('https://scontent.fbcdn.net/bg.jpg')"></div>
			</div>`,
			wantURL:  "https://scontent.fbcdn.net/bg.jpg",
			strategy: "background-style",
		},
	}
	r := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := r.Resolve(newContext(t, tt.html))
			require.True(t, ok)
			assert.Equal(t, tt.wantURL, m.URL)
			assert.Equal(t, tt.strategy, m.Strategy)
		})
	}
}

func TestResolveNoUsableImage(t *testing.T) {
	c := newContext(t, `<div id="card">
		<a id="anchor" href="/marketplace/item/1/"><img src="data:image/gif;base64,R0lGODlhAQABAAAAACw="></a>
		<div style="background: url(blob:https://www.facebook.com/x)"></div>
		<div>2018 Honda Civic</div>
	</div>`)

	_, ok := Default().Resolve(c)
	assert.False(t, ok)
}

func TestResolveWithoutCard(t *testing.T) {
	c := newContext(t, `<div id="card"></div>`)
	c.Card = c.Page.Doc.Find("#missing")

	_, ok := Default().Resolve(c)
	assert.False(t, ok)

	_, ok = Default().Resolve(Context{})
	assert.False(t, ok)
}

func TestNearbyHostedCustomHosts(t *testing.T) {
	c := newContext(t, `<div id="outer">
		<img src="https://scontent.fbcdn.net/near.jpg">
		<img src="https://images.example.org/near.jpg">
		<div id="card"><a id="anchor" href="/marketplace/item/1/">link</a></div>
	</div>`)

	m, ok := New([]string{"images.example.org"}).Resolve(c)
	require.True(t, ok)
	assert.Equal(t, "https://images.example.org/near.jpg", m.URL)
}

func TestIsValidImageURL(t *testing.T) {
	longInline := "data:image/jpeg;base64," + strings.Repeat("A", 300)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://scontent.fbcdn.net/a.jpg", true},
		{"http://example.com/a.png", true},
		{longInline, true},
		{"", false},
		{"blob:https://www.facebook.com/abc", false},
		{"data:image/gif;base64,R0lGOD", false},
		{"data:text/plain;base64," + strings.Repeat("A", 300), false},
		{"javascript:void(0)", false},
		{"/relative/a.jpg", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidImageURL(tt.url), tt.url)
	}
}
