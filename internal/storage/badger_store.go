package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/deviceops/go-fscrypt/internal/interfaces"
	"github.com/deviceops/go-fscrypt/internal/types"
)

// Key prefixes inside the badger keyspace.
const (
	contextKeyPrefix  = "ctx/"
	childrenKeyPrefix = "dir/"
)

// BadgerStoreConfig configures a BadgerStore.
type BadgerStoreConfig struct {
	// Path is the badger database directory.
	Path string

	// Logger receives store diagnostics; defaults to a fresh logrus logger.
	Logger *logrus.Logger
}

// BadgerStore is a persistent ContextStore backed by badger. Besides context
// records it tracks per-directory child counts so first-time policy
// assignment can check directory emptiness; the host filesystem reports
// child creation and removal through AddChildLink and RemoveChildLink.
type BadgerStore struct {
	db  *badger.DB
	log *logrus.Logger
}

// Ensure interface compliance
var _ interfaces.ContextStore = (*BadgerStore)(nil)

// NewBadgerStore opens (or creates) a badger-backed context store.
func NewBadgerStore(config BadgerStoreConfig) (*BadgerStore, error) {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	opts := badger.DefaultOptions(config.Path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open context store at %s: %w", config.Path, err)
	}

	return &BadgerStore{
		db:  db,
		log: config.Logger,
	}, nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func contextKey(objectID uint64) []byte {
	key := make([]byte, len(contextKeyPrefix)+8)
	copy(key, contextKeyPrefix)
	binary.BigEndian.PutUint64(key[len(contextKeyPrefix):], objectID)
	return key
}

func childrenKey(objectID uint64) []byte {
	key := make([]byte, len(childrenKeyPrefix)+8)
	copy(key, childrenKeyPrefix)
	binary.BigEndian.PutUint64(key[len(childrenKeyPrefix):], objectID)
	return key
}

// GetContext reads the object's stored record into buf and returns the full
// record length, which may exceed len(buf).
func (s *BadgerStore) GetContext(object interfaces.Object, buf []byte) (int, error) {
	var length int

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(contextKey(object.ID()))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			length = len(val)
			copy(buf, val)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, types.ErrNoData
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read context for object %d: %w", object.ID(), err)
	}

	return length, nil
}

// SetContext persists the record on the object. providerData is accepted for
// contract compatibility and not interpreted by the store.
func (s *BadgerStore) SetContext(object interfaces.Object, record []byte, providerData any) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(contextKey(object.ID()), record)
	})
	if err != nil {
		return fmt.Errorf("failed to persist context for object %d: %w", object.ID(), err)
	}

	return nil
}

// IsEmptyDirectory reports whether the directory has no recorded children.
func (s *BadgerStore) IsEmptyDirectory(object interfaces.Object) bool {
	count, err := s.childCount(object.ID())
	if err != nil {
		s.log.WithField("object", object.ID()).WithError(err).Warn("child count lookup failed, treating directory as non-empty")
		return false
	}

	return count == 0
}

// AddChildLink records a new entry under the directory.
func (s *BadgerStore) AddChildLink(directoryID uint64) error {
	return s.adjustChildCount(directoryID, 1)
}

// RemoveChildLink records removal of an entry under the directory.
func (s *BadgerStore) RemoveChildLink(directoryID uint64) error {
	return s.adjustChildCount(directoryID, -1)
}

func (s *BadgerStore) childCount(directoryID uint64) (int64, error) {
	var count int64

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(childrenKey(directoryID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			if len(val) == 8 {
				count = int64(binary.BigEndian.Uint64(val))
			}
			return nil
		})
	})

	return count, err
}

func (s *BadgerStore) adjustChildCount(directoryID uint64, delta int64) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var count int64

		item, err := txn.Get(childrenKey(directoryID))
		if err == nil {
			verr := item.Value(func(val []byte) error {
				if len(val) == 8 {
					count = int64(binary.BigEndian.Uint64(val))
				}
				return nil
			})
			if verr != nil {
				return verr
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		count += delta
		if count < 0 {
			count = 0
		}

		val := make([]byte, 8)
		binary.BigEndian.PutUint64(val, uint64(count))
		return txn.Set(childrenKey(directoryID), val)
	})

	if err != nil {
		return fmt.Errorf("failed to update child count for directory %d: %w", directoryID, err)
	}

	return nil
}
