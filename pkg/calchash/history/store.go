package history

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/jamesainslie/calchash/pkg/calchash/logging"
)

var logger = logging.Get("history")

var (
	// ErrNotFound is returned when no record matches an ID.
	ErrNotFound = errors.New("history record not found")

	// ErrAmbiguous is returned when an ID prefix matches several records.
	ErrAmbiguous = errors.New("history record ID is ambiguous")
)

// Store wraps Badger for run history.
type Store struct {
	db *badger.DB
}

// Open opens or creates a history store at the given directory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening history store %s: %w", path, err)
	}

	logger.Debug("history store opened", "path", path)
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores a run record.
func (s *Store) Add(r *Record) error {
	if r.ID == "" {
		return errors.New("history record has no ID")
	}
	value, err := r.Encode()
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(MakeKey(r), value)
	})
	if err != nil {
		return fmt.Errorf("saving history record: %w", err)
	}

	logger.Debug("run recorded", "id", r.ID, "root", r.Root)
	return nil
}

// List returns records newest first. A limit of 0 or less returns all.
func (s *Store) List(limit int) ([]Record, error) {
	records := []Record{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, keyPrefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(keyPrefix); it.Next() {
			var r Record
			if err := it.Item().Value(r.Decode); err != nil {
				logger.Warn("skipping unreadable history record", "key", it.Item().KeyCopy(nil), "error", err)
				continue
			}
			records = append(records, r)
			if limit > 0 && len(records) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Get returns the record whose ID equals id or uniquely starts with it.
func (s *Store) Get(id string) (*Record, error) {
	if id == "" {
		return nil, errors.New("history record ID cannot be empty")
	}

	var matches [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			_, recID, ok := ParseKey(it.Item().Key())
			if !ok || !strings.HasPrefix(recID, id) {
				continue
			}
			key := it.Item().KeyCopy(nil)
			if recID == id {
				matches = [][]byte{key}
				return nil
			}
			matches = append(matches, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s matches %d records", ErrAmbiguous, id, len(matches))
	}

	var r Record
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(matches[0])
		if err != nil {
			return err
		}
		return item.Value(r.Decode)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Clear removes every record.
func (s *Store) Clear() error {
	if err := s.db.DropPrefix(keyPrefix); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	logger.Info("history cleared")
	return nil
}
