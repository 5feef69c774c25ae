package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/ncihtan/htan2-data-model/contents/schemas", r.URL.Path)
		assert.Equal(t, "v1.0.0", r.URL.Query().Get("ref"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"name": "HTAN.Demographics-v1.0.0-schema.json", "type": "file", "download_url": "https://example.org/demo"},
			{"name": "HTAN.BulkWESLevel1-v1.0.0-schema.json", "type": "file", "download_url": "https://example.org/wes1"},
			{"name": "README.md", "type": "file", "download_url": "https://example.org/readme"},
			{"name": "archive", "type": "dir", "download_url": ""}
		]`))
	}))
	defer server.Close()

	source := NewSource(server.URL+"/repos/ncihtan/htan2-data-model", "schemas",
		WithHTTPClient(server.Client()))

	cat, err := source.Fetch(context.Background(), "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())

	defs := cat.ByComponent("Demographics")
	require.Len(t, defs, 1)
	assert.Equal(t, "https://example.org/demo", defs[0].Path)
}

func TestSourceFetchUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	source := NewSource(server.URL, "schemas", WithHTTPClient(server.Client()))

	_, err := source.Fetch(context.Background(), "v1.0.0")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestSourceFetchEmptyListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	source := NewSource(server.URL, "schemas", WithHTTPClient(server.Client()))

	_, err := source.Fetch(context.Background(), "v2.0.0")
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"HTAN.Demographics-v1.0.0-schema.json",
		"HTAN.BulkWESLevel2-v1.0.0-schema.json",
		"notes.txt",
	}
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}

	cat, err := LoadDir(dir, "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())

	defs := cat.ByComponent("BulkWESLevel2")
	require.Len(t, defs, 1)
	assert.Equal(t, filepath.Join(dir, "HTAN.BulkWESLevel2-v1.0.0-schema.json"), defs[0].Path)
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"), "v1.0.0")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}
