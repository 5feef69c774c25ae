package bindconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store persists the cumulative binding configuration. The merge is
// read-modify-write over the whole document, so a single Store serializes
// writers; separate processes must take turns by discipline.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a store over the given configuration file path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads and parses the configuration. A missing file yields an empty
// document; an unparseable one fails with ErrMalformedConfig.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read binding config: %w", err)
	}
	return Parse(data)
}

// Merge folds a batch of entries into one batch key and persists the result,
// leaving every other key untouched. Entries for folders the batch does not
// mention are kept, so a filtered or partially-failed pass never drops prior
// bindings; re-running the same pass is idempotent.
func (s *Store) Merge(key string, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load()
	if err != nil {
		return err
	}
	if err := doc.MergeEntries(key, entries); err != nil {
		return err
	}
	if err := s.save(doc); err != nil {
		return err
	}

	s.logger.Info("Merged binding config",
		slog.String("key", key),
		slog.Int("entries", len(entries)),
		slog.String("path", s.path))
	return nil
}

// MergeAll merges multiple batch keys in one load/save cycle.
func (s *Store) MergeAll(batches map[string][]Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load()
	if err != nil {
		return err
	}
	for key, entries := range batches {
		if err := doc.MergeEntries(key, entries); err != nil {
			return err
		}
	}
	return s.save(doc)
}

// Save persists a document the caller has modified directly (the backfiller
// patches fileview ids in place).
func (s *Store) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(doc)
}

// save writes to a temporary file in the same directory and renames it into
// place, so a crash mid-write never corrupts the previous valid document.
func (s *Store) save(doc *Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("marshal binding config: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace binding config: %w", err)
	}
	return nil
}
