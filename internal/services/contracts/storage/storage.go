// Package storage defines the persistence contract for contract desk state.
//
// State is two independent named records, each holding one collection as a
// JSON array. Stores only read or replace a whole record; they never look
// inside the payload.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a collection that has never been written.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict indicates the stored record changed since it was read.
	ErrVersionConflict = errors.New("record version conflict")
)

// Collection names a persisted record.
type Collection string

const (
	CollectionBlueprints Collection = "blueprint-storage"
	CollectionContracts  Collection = "contract-storage"
)

// Collections lists every persisted collection.
func Collections() []Collection {
	return []Collection{CollectionBlueprints, CollectionContracts}
}

// Record is one persisted collection.
type Record struct {
	Collection Collection
	// Data is the collection encoded as a JSON array.
	Data []byte
	// Version identifies Data's canonical content.
	Version   string
	UpdatedAt time.Time
}

// Write replaces a record if the stored version still equals
// PreviousVersion. An empty PreviousVersion expects the record to be absent.
type Write struct {
	Record          Record
	PreviousVersion string
}

// RecordStore reads and replaces whole collection records.
type RecordStore interface {
	// GetRecord returns ErrNotFound for a collection never written.
	GetRecord(ctx context.Context, collection Collection) (Record, error)
	// PutRecords applies all writes atomically, or none of them with
	// ErrVersionConflict when any PreviousVersion is stale.
	PutRecords(ctx context.Context, writes ...Write) error
	Close() error
}
