package main

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const savedPage = `<html><body><div id="grid">
	<div><a href="/marketplace/item/111/?ref=search"><img src="https://scontent.fbcdn.net/a.jpg"></a>
		<div><div>$12,000</div><div>2018 Honda Civic</div><div>Seattle, WA</div></div></div>
	<div><a href="/marketplace/item/222/"><img src="https://scontent.fbcdn.net/b.jpg"></a>
		<div><div>$4,500</div><div>2009 Toyota Corolla</div><div>Everett, WA</div></div></div>
</div></body></html>`

func savePage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(savedPage), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCountCommand(t *testing.T) {
	out, err := run(t, "count", "--file", savePage(t))
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestPageSourceRequired(t *testing.T) {
	_, err := run(t, "count")
	assert.ErrorContains(t, err, "exactly one of --url or --file")

	_, err = run(t, "count", "--file", "a.html", "--url", "https://www.facebook.com/marketplace/")
	assert.ErrorContains(t, err, "exactly one of --url or --file")
}

func TestExportCommand(t *testing.T) {
	out, err := run(t, "export", "--file", savePage(t),
		"--page-url", "https://www.facebook.com/marketplace/seattle/search?query=corolla", "-o", "-")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "222", rows[2][0])
	assert.Equal(t, "corolla", rows[2][8])
}

func TestHarvestCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"imported": 2}`))
	}))
	defer srv.Close()
	t.Setenv("CARSCOUT_SINK_URL", srv.URL)

	out, err := run(t, "harvest", "--file", savePage(t))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"count":2}`, out)
}

func TestHarvestCommandFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	t.Setenv("CARSCOUT_SINK_URL", srv.URL)

	out, err := run(t, "harvest", "--file", savePage(t))
	assert.EqualError(t, err, "Failed to send to backend")
	assert.Contains(t, out, `"success":false`)
}
