// Package export writes harvested listings to CSV for offline review.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/use-agent/carscout/models"
)

// Header is the CSV column order. The names match the record's JSON keys,
// with priceCents derived from price.
var Header = []string{
	"fbId", "fbUrl", "title", "price", "priceCents",
	"location", "thumbnailUrl", "rippedAt", "searchQuery",
}

// WriteCSV writes a header row and one row per record. Absent fields are
// empty cells.
func WriteCSV(w io.Writer, records []models.ListingRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for i := range records {
		if err := cw.Write(row(&records[i])); err != nil {
			return fmt.Errorf("export: write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

// WriteFile writes records to path, creating parent directories as needed.
func WriteFile(path string, records []models.ListingRecord) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create file: %w", err)
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func row(r *models.ListingRecord) []string {
	var cents string
	if c, ok := r.PriceCents(); ok {
		cents = strconv.FormatInt(c, 10)
	}
	return []string{
		r.ExternalID,
		r.SourceURL,
		deref(r.Title),
		deref(r.Price),
		cents,
		deref(r.Location),
		deref(r.ThumbnailURL),
		r.CapturedAt.ISO(),
		deref(r.SearchContext),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
