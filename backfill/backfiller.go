// Package backfill patches fileview identifiers into the binding
// configuration after the fact. Fileviews are created asynchronously by the
// platform's documentation generator, so their identifiers are scraped from
// the generated pages rather than returned by the bind call.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ncihtan/htan2-project-setup/bindconfig"
)

// Per-binding failures. Both are non-fatal: the entry's identifier stays
// absent and the next invocation tries again.
var (
	ErrIdentifierNotFound  = errors.New("fileview identifier not found in artifact")
	ErrArtifactUnavailable = errors.New("documentation artifact unavailable")
)

// ArtifactFetcher fetches the generated documentation artifact for a bound
// folder. The Synapse client's wiki fetch satisfies this.
type ArtifactFetcher interface {
	WikiMarkdown(ctx context.Context, entityID string) (string, error)
}

// Backfiller scans persisted bindings lacking a fileview identifier and
// patches extracted identifiers in place.
type Backfiller struct {
	store   *bindconfig.Store
	fetcher ArtifactFetcher
	logger  *slog.Logger
}

// Option configures a Backfiller.
type Option func(*Backfiller)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backfiller) { b.logger = logger }
}

// New creates a backfiller over the given store and artifact fetcher.
func New(store *bindconfig.Store, fetcher ArtifactFetcher, opts ...Option) *Backfiller {
	b := &Backfiller{
		store:   store,
		fetcher: fetcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Issue records one entry the backfiller could not patch.
type Issue struct {
	BatchKey string
	FolderID string
	Schema   string
	Err      error
}

// Summary is the outcome of one backfill pass.
type Summary struct {
	Scanned int
	Patched int
	Issues  []Issue
}

// Run patches fileview identifiers for every entry lacking one, across the
// given batch keys (all keys when none are given). Per-entry failures are
// collected in the summary and never abort the pass; identifiers are only
// ever added, never replaced or removed.
func (b *Backfiller) Run(ctx context.Context, keys ...string) (*Summary, error) {
	doc, err := b.store.Load()
	if err != nil {
		return nil, err
	}

	all := len(keys) == 0
	if all {
		keys = doc.Keys()
	}

	summary := &Summary{}
	changed := false

	for _, key := range keys {
		entries, err := doc.Entries(key)
		if err != nil {
			// A full scan tolerates non-batch keys (the document carries
			// free-form metadata alongside batch lists).
			if all {
				continue
			}
			return nil, err
		}

		patched := false
		for i, entry := range entries {
			if entry.FileviewID != "" {
				continue
			}
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			summary.Scanned++

			artifact, err := b.fetcher.WikiMarkdown(ctx, entry.FolderID)
			if err != nil {
				summary.Issues = append(summary.Issues, Issue{
					BatchKey: key,
					FolderID: entry.FolderID,
					Schema:   entry.SchemaName,
					Err:      fmt.Errorf("%w: %v", ErrArtifactUnavailable, err),
				})
				continue
			}

			id := ExtractFileviewID(artifact)
			if id == "" {
				summary.Issues = append(summary.Issues, Issue{
					BatchKey: key,
					FolderID: entry.FolderID,
					Schema:   entry.SchemaName,
					Err:      ErrIdentifierNotFound,
				})
				continue
			}

			entries[i].FileviewID = id
			summary.Patched++
			patched = true
			b.logger.Info("Backfilled fileview id",
				slog.String("key", key),
				slog.String("folder", entry.FolderID),
				slog.String("fileview", id))
		}

		if patched {
			if err := doc.SetEntries(key, entries); err != nil {
				return nil, err
			}
			changed = true
		}
	}

	if changed {
		if err := b.store.Save(doc); err != nil {
			return nil, err
		}
	}
	return summary, nil
}
