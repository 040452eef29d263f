package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "veracity:kb:v1:"

// Key returns the badger key for a fingerprint
func Key(fingerprint string) []byte {
	return []byte(keyPrefix + fingerprint)
}

// BadgerStore serves records from a BadgerDB database
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadgerStore opens the database at path in read-only mode
func OpenBadgerStore(path string, logger *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithReadOnly(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return NewBadgerStore(db, logger), nil
}

// NewBadgerStore wraps an already opened database
func NewBadgerStore(db *badger.DB, logger *slog.Logger) *BadgerStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{db: db, logger: logger}
}

// Lookup implements Store. Read and decode errors are logged and reported
// as misses.
func (s *BadgerStore) Lookup(fingerprint string) (Record, bool) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(Key(fingerprint))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})

	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Warn("knowledge base lookup failed", "fingerprint", fingerprint, "error", err)
		}
		return Record{}, false
	}
	return rec, true
}

// Close closes the underlying database
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Import writes records into db keyed by the fingerprint of their claim.
// It returns the number of records written.
func Import(db *badger.DB, records map[string]Record) (int, error) {
	wb := db.NewWriteBatch()
	defer wb.Cancel()

	for fp, r := range records {
		val, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("failed to encode record %s: %w", fp, err)
		}
		if err := wb.Set(Key(fp), val); err != nil {
			return 0, fmt.Errorf("failed to write record %s: %w", fp, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush records: %w", err)
	}
	return len(records), nil
}
