package sink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/carscout/models"
)

func record(id string) models.ListingRecord {
	return models.ListingRecord{
		ExternalID: id,
		SourceURL:  "https://www.facebook.com/marketplace/item/" + id + "/",
		Price:      models.StringPtr("$1,000"),
		CapturedAt: models.NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
	}
}

func TestImport(t *testing.T) {
	type captured struct {
		body []byte
		sig  string
	}
	reqs := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/import", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		reqs <- captured{body: b, sig: r.Header.Get(SignatureHeader)}
		_, _ = w.Write([]byte(`{"imported": 2}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", Secret: "s3cret"})
	n, err := c.Import(context.Background(), []models.ListingRecord{record("1"), record("2")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := <-reqs
	var sent []map[string]any
	require.NoError(t, json.Unmarshal(got.body, &sent))
	require.Len(t, sent, 2)
	assert.Equal(t, "1", sent[0]["fbId"])
	assert.Equal(t, "2024-01-02T03:04:05.000Z", sent[0]["rippedAt"])
	assert.Nil(t, sent[0]["title"])

	assert.True(t, Verify("s3cret", got.body, got.sig))
}

func TestImportWithoutSecretIsUnsigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `[]`, string(b))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	n, err := NewClient(Config{BaseURL: srv.URL}).Import(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		reply   string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"db down"}`, ErrStatus},
		{"unauthorized", http.StatusUnauthorized, ``, ErrStatus},
		{"malformed reply", http.StatusOK, `not json`, ErrMalformed},
		{"null reply", http.StatusOK, `null`, ErrMalformed},
		{"array reply", http.StatusOK, `[]`, ErrMalformed},
		{"empty reply", http.StatusOK, ``, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.reply))
			}))
			defer srv.Close()

			_, err := NewClient(Config{BaseURL: srv.URL}).Import(context.Background(), []models.ListingRecord{record("1")})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestImportTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: url}).Import(context.Background(), []models.ListingRecord{record("1")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStatus)
}

func TestHealth(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	assert.NoError(t, c.Health(context.Background()))

	status.Store(http.StatusServiceUnavailable)
	assert.ErrorIs(t, c.Health(context.Background()), ErrStatus)

	srv.Close()
	assert.Error(t, c.Health(context.Background()))
}

func TestSignVerify(t *testing.T) {
	body := []byte(`[{"fbId":"1"}]`)
	header := "sha256=" + Sign("k", body)

	assert.True(t, Verify("k", body, header))
	assert.False(t, Verify("other", body, header))
	assert.False(t, Verify("k", []byte(`[]`), header))
	assert.False(t, Verify("k", body, Sign("k", body)), "prefix required")
	assert.False(t, Verify("k", body, "sha256=zz"))
}
