// Package store persists harvested listings for the reference ingestion
// sink. Records are keyed by their marketplace ID; a repeat import of the
// same listing replaces the earlier copy.
package store

import (
	"context"
	"time"

	"github.com/use-agent/carscout/models"
)

// DefaultListLimit and MaxListLimit bound List.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// StoredListing is a record as the sink keeps it.
type StoredListing struct {
	models.ListingRecord

	// PriceCents is derived from Price on write; nil when unparseable.
	PriceCents *int64 `json:"priceCents"`

	// ReceivedAt is when the sink last accepted this listing.
	ReceivedAt time.Time `json:"receivedAt"`
}

// Store is implemented by Memory and Postgres.
type Store interface {
	// Upsert stores every valid record and returns how many were stored.
	// Records without an ID or URL are skipped.
	Upsert(ctx context.Context, records []models.ListingRecord) (int, error)

	// List returns up to limit listings, most recently received first.
	List(ctx context.Context, limit int) ([]StoredListing, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	Close()
}

// newStored derives the stored form of a record.
func newStored(r models.ListingRecord, receivedAt time.Time) StoredListing {
	s := StoredListing{ListingRecord: r, ReceivedAt: receivedAt.UTC()}
	if cents, ok := r.PriceCents(); ok {
		s.PriceCents = &cents
	}
	return s
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
