package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Source lists schema files from the versioned schema source repository.
// The repository is an HTTP-addressable directory of schema files (the
// ncihtan/htan2-data-model layout), listed through the GitHub contents API
// with the schema version as the ref.
type Source struct {
	repoURL string
	dir     string
	client  *http.Client
	logger  *slog.Logger
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithHTTPClient overrides the HTTP client used for listings.
func WithHTTPClient(client *http.Client) SourceOption {
	return func(s *Source) { s.client = client }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) { s.logger = logger }
}

// NewSource creates a schema source backed by a repository contents API.
// repoURL is the API base for the repository (e.g.
// "https://api.github.com/repos/ncihtan/htan2-data-model") and dir the
// directory holding schema files (e.g. "schemas").
func NewSource(repoURL, dir string, opts ...SourceOption) *Source {
	s := &Source{
		repoURL: strings.TrimRight(repoURL, "/"),
		dir:     dir,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// contentEntry is the subset of a contents API listing entry we consume.
type contentEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// Fetch lists the schema directory at the given schema version and builds the
// catalog. It fails with ErrSourceUnavailable when the listing cannot be
// retrieved and ErrEmptyCatalog when the version has no schema files.
func (s *Source) Fetch(ctx context.Context, schemaVersion string) (*Catalog, error) {
	listURL := fmt.Sprintf("%s/contents/%s?ref=%s", s.repoURL, s.dir, url.QueryEscape(schemaVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: listing %s returned %s", ErrSourceUnavailable, listURL, resp.Status)
	}

	var entries []contentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: decode listing: %v", ErrSourceUnavailable, err)
	}

	var defs []Definition
	for _, e := range entries {
		if e.Type != "" && e.Type != "file" {
			continue
		}
		def, err := ParseFileName(e.Name)
		if err != nil {
			s.logger.Debug("Skipping non-schema file", slog.String("name", e.Name))
			continue
		}
		def.Path = e.DownloadURL
		defs = append(defs, def)
	}

	s.logger.Info("Fetched schema catalog",
		slog.String("version", schemaVersion),
		slog.Int("schemas", len(defs)))

	return New(schemaVersion, defs)
}

// LoadDir builds a catalog from a local directory of schema files. Used for
// offline runs against a checked-out schema repository.
func LoadDir(path, schemaVersion string) (*Catalog, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	var defs []Definition
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		def, err := ParseFileName(e.Name())
		if err != nil {
			continue
		}
		def.Path = filepath.Join(path, e.Name())
		defs = append(defs, def)
	}
	return New(schemaVersion, defs)
}
