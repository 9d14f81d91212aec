package models

import (
	"strings"
	"time"

	"github.com/use-agent/carscout/fields"
)

// isoMillis matches JavaScript's Date.prototype.toISOString, which is what
// existing sinks have been parsing.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// ListingRecord is one normalized listing card. The JSON field names are the
// compatibility boundary with the ingestion sink and must not change.
type ListingRecord struct {
	// ExternalID is the marketplace's listing ID, recovered from the item URL.
	ExternalID string `json:"fbId"`

	// SourceURL is the canonical item URL with the query string cut off.
	SourceURL string `json:"fbUrl"`

	Title        *string `json:"title"`
	Price        *string `json:"price"` // raw token, e.g. "$1,234" or "Free"
	Location     *string `json:"location"`
	ThumbnailURL *string `json:"thumbnailUrl"`

	// CapturedAt is set when the card is extracted.
	CapturedAt Timestamp `json:"rippedAt"`

	// SearchContext is the search term or category taken from the page
	// address, not from the card.
	SearchContext *string `json:"searchQuery"`
}

// PriceCents parses the raw price token into cents. The value is derived on
// every call and never stored on the record.
func (r *ListingRecord) PriceCents() (int64, bool) {
	if r.Price == nil {
		return 0, false
	}
	return fields.PriceToCents(*r.Price)
}

// Valid reports whether the record carries the two required fields.
func (r *ListingRecord) Valid() bool {
	return r.ExternalID != "" && r.SourceURL != ""
}

// Timestamp is a time.Time that marshals as UTC with millisecond precision.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, normalized to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ISO formats t the way it appears on the wire, or "" when zero.
func (t Timestamp) ISO() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoMillis)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.ISO() + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	t.Time = parsed.UTC()
	return nil
}

// StringPtr returns nil for an empty string and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
