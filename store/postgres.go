package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/use-agent/carscout/models"
)

// Postgres stores listings in a single PostgreSQL table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL and verifies the connection.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// EnsureSchema creates the listings table and its index if missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	const ddl = `
	CREATE TABLE IF NOT EXISTS listings (
		fb_id         TEXT PRIMARY KEY,
		fb_url        TEXT NOT NULL,
		title         TEXT,
		price         TEXT,
		price_cents   BIGINT,
		location      TEXT,
		thumbnail_url TEXT,
		search_query  TEXT,
		ripped_at     TIMESTAMPTZ,
		first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		received_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_listings_received_at ON listings(received_at DESC);
	CREATE INDEX IF NOT EXISTS idx_listings_price_cents ON listings(price_cents);
	`
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

const upsertSQL = `
INSERT INTO listings (fb_id, fb_url, title, price, price_cents, location, thumbnail_url, search_query, ripped_at, received_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
ON CONFLICT (fb_id) DO UPDATE SET
	fb_url        = EXCLUDED.fb_url,
	title         = EXCLUDED.title,
	price         = EXCLUDED.price,
	price_cents   = EXCLUDED.price_cents,
	location      = EXCLUDED.location,
	thumbnail_url = EXCLUDED.thumbnail_url,
	search_query  = EXCLUDED.search_query,
	ripped_at     = EXCLUDED.ripped_at,
	received_at   = NOW();
`

func (p *Postgres) Upsert(ctx context.Context, records []models.ListingRecord) (int, error) {
	batch := &pgx.Batch{}
	for _, r := range records {
		if !r.Valid() {
			continue
		}
		s := newStored(r, time.Now())
		var rippedAt *time.Time
		if !r.CapturedAt.IsZero() {
			t := r.CapturedAt.Time
			rippedAt = &t
		}
		batch.Queue(upsertSQL,
			r.ExternalID,
			r.SourceURL,
			r.Title,
			r.Price,
			s.PriceCents,
			r.Location,
			r.ThumbnailURL,
			r.SearchContext,
			rippedAt,
		)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("store: upsert row %d: %w", i, err)
		}
	}
	return batch.Len(), nil
}

func (p *Postgres) List(ctx context.Context, limit int) ([]StoredListing, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT fb_id, fb_url, title, price, price_cents, location, thumbnail_url, search_query, ripped_at, received_at
		FROM listings
		ORDER BY received_at DESC, fb_id
		LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("store: list listings: %w", err)
	}
	defer rows.Close()

	var out []StoredListing
	for rows.Next() {
		var (
			s        StoredListing
			rippedAt *time.Time
		)
		if err := rows.Scan(
			&s.ExternalID,
			&s.SourceURL,
			&s.Title,
			&s.Price,
			&s.PriceCents,
			&s.Location,
			&s.ThumbnailURL,
			&s.SearchContext,
			&rippedAt,
			&s.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan listing: %w", err)
		}
		if rippedAt != nil {
			s.CapturedAt = models.NewTimestamp(*rippedAt)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list listings: %w", err)
	}
	return out, nil
}
