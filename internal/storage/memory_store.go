// Package storage provides ContextStore implementations: an in-memory store
// for tests and tooling, and a badger-backed store for persistence.
package storage

import (
	"sync"

	"github.com/deviceops/go-fscrypt/internal/interfaces"
	"github.com/deviceops/go-fscrypt/internal/types"
)

// MemoryStore is a map-backed ContextStore. Directories are empty until
// marked otherwise, mirroring a freshly created directory tree.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[uint64][]byte
	nonEmpty map[uint64]bool
}

// Ensure interface compliance
var _ interfaces.ContextStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory context store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[uint64][]byte),
		nonEmpty: make(map[uint64]bool),
	}
}

// GetContext reads the object's stored record into buf and returns the full
// record length, which may exceed len(buf).
func (s *MemoryStore) GetContext(object interfaces.Object, buf []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[object.ID()]
	if !ok {
		return 0, types.ErrNoData
	}

	copy(buf, record)
	return len(record), nil
}

// SetContext stores the record on the object. providerData is accepted for
// contract compatibility; the in-memory store has no creation transaction to
// thread it into.
func (s *MemoryStore) SetContext(object interfaces.Object, record []byte, providerData any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[object.ID()] = append([]byte(nil), record...)
	return nil
}

// IsEmptyDirectory reports whether the directory has no entries.
func (s *MemoryStore) IsEmptyDirectory(object interfaces.Object) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return !s.nonEmpty[object.ID()]
}

// SetNonEmpty marks a directory as holding entries.
func (s *MemoryStore) SetNonEmpty(objectID uint64, nonEmpty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nonEmpty[objectID] = nonEmpty
}

// CorruptContext truncates or extends an object's stored record. Test hook
// for exercising the malformed-record paths.
func (s *MemoryStore) CorruptContext(objectID uint64, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[objectID]
	if !ok {
		return
	}

	corrupted := make([]byte, size)
	copy(corrupted, record)
	s.records[objectID] = corrupted
}
