// Package cache keeps recently rendered marketplace pages so that a count
// followed by a harvest of the same URL renders the page once.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/use-agent/carscout/models"
	"github.com/use-agent/carscout/scraper"
)

// retention bounds how long an entry is kept regardless of max_age.
const retention = time.Hour

type entry struct {
	result    scraper.RenderResult
	createdAt time.Time
}

// Renderer is a scraper.Renderer that serves requests with a positive
// max_age from cache. It is safe for concurrent use.
type Renderer struct {
	next       scraper.Renderer
	mu         sync.Mutex
	store      map[string]*entry
	maxEntries int
	now        func() time.Time
}

// NewRenderer wraps next with a cache of at most maxEntries pages.
func NewRenderer(next scraper.Renderer, maxEntries int) *Renderer {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Renderer{
		next:       next,
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Key identifies what a request would render. Cookies and headers are part
// of it: a signed-in session may see different listings.
func Key(req *models.PageRequest) string {
	h := sha256.New()
	h.Write([]byte(req.URL))
	h.Write([]byte("|" + req.FetchMode + "|" + strconv.FormatBool(req.Stealth) + "|"))
	// Marshal sorts map keys, so equal header sets hash equally.
	extra, _ := json.Marshal(struct {
		C []models.Cookie
		H map[string]string
	}{req.Cookies, req.Headers})
	h.Write(extra)
	return hex.EncodeToString(h.Sum(nil))
}

// Render returns a cached page younger than req.MaxAge seconds or renders
// through the wrapped renderer. Requests without max_age and requests to a
// caller-provided browser bypass the cache.
func (r *Renderer) Render(ctx context.Context, req *models.PageRequest) (*scraper.RenderResult, error) {
	if req.MaxAge <= 0 || req.CDPURL != "" {
		return r.next.Render(ctx, req)
	}

	key := Key(req)
	if res, ok := r.get(key, time.Duration(req.MaxAge)*time.Second); ok {
		return res, nil
	}

	res, err := r.next.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	r.set(key, res)
	return res, nil
}

// Len reports how many pages are cached.
func (r *Renderer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.store)
}

func (r *Renderer) get(key string, maxAge time.Duration) (*scraper.RenderResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.store[key]
	if !ok || r.now().Sub(e.createdAt) > maxAge {
		return nil, false
	}
	res := e.result
	res.Duration = 0
	return &res, true
}

func (r *Renderer) set(key string, res *scraper.RenderResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for k, e := range r.store {
		if now.Sub(e.createdAt) > retention {
			delete(r.store, k)
		}
	}
	// Evict one arbitrary entry if still at capacity.
	if _, exists := r.store[key]; !exists && len(r.store) >= r.maxEntries {
		for k := range r.store {
			delete(r.store, k)
			break
		}
	}
	r.store[key] = &entry{result: *res, createdAt: now}
}
