package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/carscout/models"
)

// TestPostgresRoundTrip runs against a real database and is skipped unless
// CARSCOUT_TEST_DATABASE_URL is set.
func TestPostgresRoundTrip(t *testing.T) {
	url := os.Getenv("CARSCOUT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CARSCOUT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	p, err := NewPostgres(ctx, url)
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.EnsureSchema(ctx))
	_, err = p.pool.Exec(ctx, `DELETE FROM listings WHERE fb_id IN ('pg-1', 'pg-2')`)
	require.NoError(t, err)

	n, err := p.Upsert(ctx, []models.ListingRecord{listing("pg-1", "$1,500"), listing("pg-2", "Free"), {ExternalID: "bad"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = p.Upsert(ctx, []models.ListingRecord{listing("pg-1", "$1,400")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := p.List(ctx, MaxListLimit)
	require.NoError(t, err)

	byID := make(map[string]StoredListing)
	for _, l := range got {
		byID[l.ExternalID] = l
	}
	require.Contains(t, byID, "pg-1")
	require.NotNil(t, byID["pg-1"].PriceCents)
	assert.EqualValues(t, 140000, *byID["pg-1"].PriceCents)
	assert.Equal(t, "2024-01-02T03:04:05.000Z", byID["pg-1"].CapturedAt.ISO())
	assert.NoError(t, p.Ping(ctx))
}
