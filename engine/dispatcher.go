package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// Dispatcher coordinates multi-engine racing with staged escalation.
// It starts the fastest engine first and progressively escalates to heavier
// engines if earlier ones fail, time out or return a page the acceptance
// check rejects.
type Dispatcher struct {
	engines          []Engine
	escalationDelays []time.Duration
	memory           *DomainMemory
	accept           Acceptance
}

// NewDispatcher creates a Dispatcher with the given engines and escalation delays.
// engines[i] starts after escalationDelays[i] from the race beginning.
// A nil accept admits every successful fetch.
func NewDispatcher(engines []Engine, escalationDelays []time.Duration, memory *DomainMemory, accept Acceptance) *Dispatcher {
	delays := make([]time.Duration, len(engines))
	copy(delays, escalationDelays)
	if accept == nil {
		accept = func(*FetchResult) error { return nil }
	}
	return &Dispatcher{
		engines:          engines,
		escalationDelays: delays,
		memory:           memory,
		accept:           accept,
	}
}

// Engine returns the engine registered under name.
func (d *Dispatcher) Engine(name string) (Engine, bool) {
	for _, eng := range d.engines {
		if eng.Name() == name {
			return eng, true
		}
	}
	return nil, false
}

// Dispatch runs the multi-engine race for the given request.
//
// When every engine either fails or is rejected, the last rejected page is
// returned so the caller can still report on what was fetched (typically a
// page with no listings). Only when no engine produced any page is an
// error returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	domain := extractDomain(req.URL)

	if remembered := d.memory.Get(domain); remembered != "" {
		if eng, ok := d.Engine(remembered); ok {
			slog.Debug("domain memory hit", "domain", domain, "engine", remembered)
			result, err := eng.Fetch(ctx, req)
			if err == nil {
				if err = d.accept(result); err == nil {
					return result, nil
				}
			}
			slog.Info("remembered engine did not deliver, running full race",
				"domain", domain, "engine", remembered, "error", err)
			d.memory.Delete(domain)
		}
	}

	return d.race(ctx, req, domain)
}

// race runs all engines with staged delays and returns the first accepted result.
func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, domain string) (*FetchResult, error) {
	type raceResult struct {
		result *FetchResult
		err    error
	}

	raceCtx, raceCancel := context.WithCancel(ctx)
	defer raceCancel()

	results := make(chan raceResult, len(d.engines))
	var wg sync.WaitGroup

	for i, eng := range d.engines {
		wg.Add(1)
		go func(e Engine, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-raceCtx.Done():
					return
				case <-timer.C:
				}
			}

			if raceCtx.Err() != nil {
				return
			}

			slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
			result, err := e.Fetch(raceCtx, req)
			if err != nil {
				slog.Debug("engine failed", "engine", e.Name(), "url", req.URL, "error", err)
			}
			results <- raceResult{result: result, err: err}
		}(eng, d.escalationDelays[i])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		lastErr  error
		rejected *FetchResult
	)
	for rr := range results {
		if rr.err != nil {
			lastErr = rr.err
			continue
		}
		if err := d.accept(rr.result); err != nil {
			slog.Debug("engine result rejected",
				"engine", rr.result.EngineName, "url", req.URL, "reason", err)
			rejected = rr.result
			continue
		}
		raceCancel()
		slog.Info("engine won race", "engine", rr.result.EngineName, "url", req.URL)
		d.memory.Set(domain, rr.result.EngineName)
		return rr.result, nil
	}

	if rejected != nil {
		slog.Info("no engine produced an accepted page, using last rejected result",
			"engine", rejected.EngineName, "url", req.URL)
		return rejected, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
	}
	return nil, lastErr
}

// extractDomain parses the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
