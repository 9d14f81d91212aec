// Package harvest runs the two externally invoked operations: counting the
// listings on a page, and a full harvest-and-submit cycle against the sink.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/use-agent/carscout/dom"
	"github.com/use-agent/carscout/extractor"
	"github.com/use-agent/carscout/locator"
	"github.com/use-agent/carscout/models"
	"github.com/use-agent/carscout/sink"
)

// Sink receives one harvest batch and returns the count it acknowledged
// (0 when the response did not say).
type Sink interface {
	Import(ctx context.Context, records []models.ListingRecord) (int, error)
}

// State is a step of one harvest invocation. Every invocation starts at
// StateIdle and ends at StateSucceeded or StateFailed.
type State string

const (
	StateIdle       State = "idle"
	StateExtracting State = "extracting"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Harvester is safe for concurrent use. Concurrent invocations are fully
// independent: each re-reads its page and submits its own batch.
type Harvester struct {
	extractor *extractor.Extractor
	sink      Sink
	logger    *slog.Logger
}

// New creates a Harvester. A nil logger uses slog.Default.
func New(ex *extractor.Extractor, s Sink, logger *slog.Logger) *Harvester {
	if ex == nil {
		ex = extractor.New(nil, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{extractor: ex, sink: s, logger: logger}
}

// Extract locates every card on the page and returns the records that could
// be built, in document order.
func (h *Harvester) Extract(page *dom.Page) []models.ListingRecord {
	cards := locator.FindCards(page)
	records := make([]models.ListingRecord, 0, len(cards))
	for _, card := range cards {
		if !card.Confident {
			h.logger.Debug("card boundary reached depth bound",
				"fb_id", card.ExternalID,
				"depth", card.Depth,
			)
		}
		rec, ok := h.extractor.Extract(page, card)
		if !ok {
			continue
		}
		records = append(records, *rec)
	}
	h.logger.Debug("extracted listings", "cards", len(cards), "records", len(records))
	return records
}

// Count returns the number of extractable listings. It has no side effects.
func (h *Harvester) Count(page *dom.Page) int {
	return len(h.Extract(page))
}

// HarvestAndSubmit extracts every listing on the page and submits them to
// the sink in one request. It never panics and never returns an error: the
// outcome is always a tagged result.
func (h *Harvester) HarvestAndSubmit(ctx context.Context, page *dom.Page) (result models.HarvestResult) {
	log := h.logger.With("harvest_id", uuid.NewString())
	state := StateIdle

	defer func() {
		if r := recover(); r != nil {
			log.Error("harvest panicked", "state", state, "panic", r)
			result = models.Failed(fmt.Sprint(r))
		}
	}()

	state = StateExtracting
	records := h.Extract(page)
	if len(records) == 0 {
		state = StateFailed
		log.Info("harvest finished", "state", state, "reason", models.ReasonNoListings)
		return models.Failed(models.ReasonNoListings)
	}

	if h.sink == nil {
		state = StateFailed
		log.Error("harvest has no sink configured", "state", state)
		return models.Failed(models.ReasonSinkFailure)
	}

	state = StateSubmitting
	log.Info("submitting listings", "state", state, "count", len(records))
	imported, err := h.sink.Import(ctx, records)
	if err != nil {
		state = StateFailed
		log.Warn("harvest submission failed", "state", state, "count", len(records), "error", err)
		return models.Failed(failureReason(err))
	}

	count := imported
	if count == 0 {
		count = len(records)
	}
	state = StateSucceeded
	log.Info("harvest finished", "state", state, "submitted", len(records), "acknowledged", count)
	return models.Succeeded(count)
}

// failureReason keeps the user-facing message short: a non-success status
// gets the generic reason, anything else carries the error's own message.
func failureReason(err error) string {
	if errors.Is(err, sink.ErrStatus) {
		return models.ReasonSinkFailure
	}
	return err.Error()
}
