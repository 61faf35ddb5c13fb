// Package memory provides an in-process record store, used by tests and the
// memory storage driver.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/louisbranch/contractdesk/internal/services/contracts/storage"
)

// Store keeps records in a map guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	records map[storage.Collection]storage.Record
	puts    int
}

// New returns an empty store.
func New() *Store {
	return &Store{records: map[storage.Collection]storage.Record{}}
}

// GetRecord returns a copy of the stored record.
func (s *Store) GetRecord(ctx context.Context, collection storage.Collection) (storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return storage.Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[collection]
	if !ok {
		return storage.Record{}, storage.ErrNotFound
	}
	record.Data = slices.Clone(record.Data)
	return record, nil
}

// PutRecords checks every expected version before applying any write.
func (s *Store) PutRecords(ctx context.Context, writes ...storage.Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, write := range writes {
		current := s.records[write.Record.Collection]
		if current.Version != write.PreviousVersion {
			return fmt.Errorf("%s: %w", write.Record.Collection, storage.ErrVersionConflict)
		}
	}
	for _, write := range writes {
		record := write.Record
		record.Data = slices.Clone(record.Data)
		s.records[record.Collection] = record
	}
	s.puts++
	return nil
}

// Puts counts successful PutRecords calls.
func (s *Store) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

var _ storage.RecordStore = (*Store)(nil)
