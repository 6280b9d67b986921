// Package cache stores computed collections as gzip-compressed JSON so a run
// can be replayed without re-reading the source archive.
package cache

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.ngs.io/oraip-profiles/internal/domain"
)

// ErrNotFound is returned by Load when no entry exists for an identifier.
var ErrNotFound = errors.New("cache entry not found")

const suffix = ".json.gz"

// Store is a directory of cached collections keyed by collection identifier.
type Store struct {
	dir string
}

// New creates a cache store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the file used for id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+suffix)
}

// Load reads the collection cached under id.
func (s *Store) Load(id string) (*domain.Collection, error) {
	path := s.Path(id)
	//nolint:gosec // G304: Path built from the cache directory and a collection id.
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open cache entry: %w", err)
	}
	defer func() { _ = f.Close() }()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %s: %w", path, err)
	}
	defer func() { _ = zr.Close() }()

	var c domain.Collection
	if err := json.NewDecoder(zr).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry %s: %w", path, err)
	}
	if c.ID != id {
		return nil, fmt.Errorf("cache entry %s holds collection %q", path, c.ID)
	}
	return &c, nil
}

// Save writes c under c.ID, replacing any previous entry.
func (s *Store) Save(c *domain.Collection) error {
	if c.ID == "" {
		return fmt.Errorf("collection has no identifier")
	}
	//nolint:gosec // G301: Standard directory permissions.
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, c.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	zw := gzip.NewWriter(tmp)
	zw.Name = c.ID
	enc := json.NewEncoder(zw)
	if err := enc.Encode(c); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode collection: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to compress collection: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	return os.Rename(tmp.Name(), s.Path(c.ID))
}

// Remove deletes the entry for id. Missing entries are not an error.
func (s *Store) Remove(id string) error {
	err := os.Remove(s.Path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
