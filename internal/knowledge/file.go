package knowledge

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// fileContents is the on-disk layout. Facts are indexed by the fingerprint
// of their claim; Entries are already keyed by fingerprint.
type fileContents struct {
	Facts   []Record          `yaml:"facts"`
	Entries map[string]Record `yaml:"entries"`
}

// FileStore serves records from a YAML or JSON file, loaded on first use
type FileStore struct {
	path   string
	logger *slog.Logger

	once    sync.Once
	records MapStore
	err     error
}

// NewFileStore creates a store backed by the file at path
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Load reads the file if it has not been read yet and returns the load error
func (s *FileStore) Load() error {
	s.once.Do(func() {
		s.records, s.err = loadFile(s.path)
		if s.err != nil {
			s.logger.Warn("knowledge base unavailable", "path", s.path, "error", s.err)
			return
		}
		s.logger.Debug("knowledge base loaded", "path", s.path, "records", len(s.records))
	})
	return s.err
}

// Len returns the number of loaded records
func (s *FileStore) Len() int {
	if s.Load() != nil {
		return 0
	}
	return len(s.records)
}

// Lookup implements Store. A file that failed to load behaves as empty.
func (s *FileStore) Lookup(fingerprint string) (Record, bool) {
	if s.Load() != nil {
		return Record{}, false
	}
	return s.records.Lookup(fingerprint)
}

// Records returns the loaded records keyed by fingerprint
func (s *FileStore) Records() (map[string]Record, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s.records, nil
}

func loadFile(path string) (MapStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base: %w", err)
	}

	// JSON documents parse as YAML
	var contents fileContents
	if err := yaml.Unmarshal(data, &contents); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base %s: %w", path, err)
	}

	records := NewMapStore(contents.Facts...)
	for fp, r := range contents.Entries {
		records[fp] = r
	}
	return records, nil
}
