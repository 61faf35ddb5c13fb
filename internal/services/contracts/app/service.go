// Package app owns the contract desk state and the process lifecycle around
// it.
//
// A Service keeps both collections in memory and writes them through an
// injected storage.RecordStore. Every change goes through Update, which runs
// against copies and only swaps the in-memory state after the changed
// collections were persisted.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	apperrors "github.com/louisbranch/contractdesk/internal/platform/errors"
	platformotel "github.com/louisbranch/contractdesk/internal/platform/otel"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage/codec"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Option configures a Service.
type Option func(*Service)

// WithStore persists state through store. Without one the Service is
// in-memory only.
func WithStore(store storage.RecordStore) Option {
	return func(s *Service) { s.store = store }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides id generation for blueprints, fields, and
// contracts.
func WithIDGenerator(ids func() (string, error)) Option {
	return func(s *Service) { s.ids = ids }
}

// WithLogger logs committed versions.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Snapshot is a consistent view of both collections and their versions.
type Snapshot struct {
	Blueprints        []blueprint.Blueprint
	Contracts         []contract.Contract
	BlueprintsVersion string
	ContractsVersion  string
}

type state struct {
	blueprints []blueprint.Blueprint
	contracts  []contract.Contract
	versions   map[storage.Collection]string
}

// Service serializes changes to the blueprint and contract collections.
type Service struct {
	mu     sync.RWMutex
	state  state
	store  storage.RecordStore
	now    func() time.Time
	ids    func() (string, error)
	logger *log.Logger
}

// New returns an empty Service. Use Open to start from stored records.
func New(opts ...Option) *Service {
	s := &Service{
		now:   func() time.Time { return time.Now().UTC() },
		state: state{versions: map[storage.Collection]string{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Open returns a Service loaded from its store.
func Open(ctx context.Context, opts ...Option) (*Service, error) {
	s := New(opts...)
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces in-memory state with the stored records.
func (s *Service) Reload(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *Service) reloadLocked(ctx context.Context) error {
	next := state{versions: map[storage.Collection]string{}}

	record, err := s.store.GetRecord(ctx, storage.CollectionBlueprints)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load blueprints: %w", err)
	default:
		if next.blueprints, err = codec.DecodeBlueprints(record.Data); err != nil {
			return fmt.Errorf("load blueprints: %w", err)
		}
		next.versions[storage.CollectionBlueprints] = record.Version
	}

	record, err = s.store.GetRecord(ctx, storage.CollectionContracts)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load contracts: %w", err)
	default:
		if next.contracts, err = codec.DecodeContracts(record.Data); err != nil {
			return fmt.Errorf("load contracts: %w", err)
		}
		next.versions[storage.CollectionContracts] = record.Version
	}
	next.contracts = typeContracts(next.blueprints, next.contracts)

	s.state = next
	return nil
}

// Close closes the store.
func (s *Service) Close() error {
	if s == nil || s.store == nil {
		return nil
	}
	return s.store.Close()
}

// Update runs fn against copies of both collections. When fn succeeds the
// changed collections are persisted and then become visible; when fn or the
// write fails nothing changes.
func (s *Service) Update(ctx context.Context, fn func(*Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{
		blueprints: s.state.blueprints,
		contracts:  s.state.contracts,
		now:        s.now,
		ids:        s.ids,
	}
	if err := fn(tx); err != nil {
		return err
	}
	return s.commitLocked(ctx, tx)
}

func (s *Service) commitLocked(ctx context.Context, tx *Tx) (err error) {
	if !tx.blueprintsChanged && !tx.contractsChanged {
		return nil
	}

	ctx, span := platformotel.Tracer("services/contracts/app").Start(ctx, "contracts.commit")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	now := s.now()
	versions := map[storage.Collection]string{
		storage.CollectionBlueprints: s.state.versions[storage.CollectionBlueprints],
		storage.CollectionContracts:  s.state.versions[storage.CollectionContracts],
	}
	var writes []storage.Write

	if tx.blueprintsChanged {
		data, err := codec.EncodeBlueprints(tx.blueprints)
		if err != nil {
			return err
		}
		write, err := s.prepareWrite(storage.CollectionBlueprints, data, now)
		if err != nil {
			return err
		}
		writes = append(writes, write)
		versions[storage.CollectionBlueprints] = write.Record.Version
	}
	if tx.contractsChanged {
		data, err := codec.EncodeContracts(tx.contracts)
		if err != nil {
			return err
		}
		write, err := s.prepareWrite(storage.CollectionContracts, data, now)
		if err != nil {
			return err
		}
		writes = append(writes, write)
		versions[storage.CollectionContracts] = write.Record.Version
	}

	for _, write := range writes {
		span.SetAttributes(attribute.String(string(write.Record.Collection)+".version", write.Record.Version))
	}

	if s.store != nil {
		if err := s.store.PutRecords(ctx, writes...); err != nil {
			if errors.Is(err, storage.ErrVersionConflict) {
				// Pick up the winning writer's state.
				if reloadErr := s.reloadLocked(ctx); reloadErr != nil && s.logger != nil {
					s.logger.Printf("reload after conflict: %v", reloadErr)
				}
				return apperrors.Wrap(apperrors.CodeStorageConflict, "stored records changed by another writer", err)
			}
			return fmt.Errorf("persist collections: %w", err)
		}
	}

	s.state = state{
		blueprints: tx.blueprints,
		contracts:  tx.contracts,
		versions:   versions,
	}
	if s.logger != nil {
		for _, write := range writes {
			s.logger.Printf("committed %s version %s", write.Record.Collection, write.Record.Version)
		}
	}
	return nil
}

func (s *Service) prepareWrite(collection storage.Collection, data []byte, now time.Time) (storage.Write, error) {
	version, err := codec.Version(data)
	if err != nil {
		return storage.Write{}, fmt.Errorf("version %s: %w", collection, err)
	}
	return storage.Write{
		Record: storage.Record{
			Collection: collection,
			Data:       data,
			Version:    version,
			UpdatedAt:  now,
		},
		PreviousVersion: s.state.versions[collection],
	}, nil
}

// Snapshot returns copies of both collections with their versions.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Blueprints:        cloneBlueprints(s.state.blueprints),
		Contracts:         cloneContracts(s.state.contracts),
		BlueprintsVersion: s.state.versions[storage.CollectionBlueprints],
		ContractsVersion:  s.state.versions[storage.CollectionContracts],
	}
}

// Blueprints returns every blueprint in collection order.
func (s *Service) Blueprints() []blueprint.Blueprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBlueprints(s.state.blueprints)
}

// Blueprint finds one blueprint.
func (s *Service) Blueprint(id string) (blueprint.Blueprint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, bp := range s.state.blueprints {
		if bp.ID == id {
			return bp.Clone(), true
		}
	}
	return blueprint.Blueprint{}, false
}

// Contracts returns every contract in collection order.
func (s *Service) Contracts() []contract.Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneContracts(s.state.contracts)
}

// Contract finds one contract.
func (s *Service) Contract(id string) (contract.Contract, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.state.contracts {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return contract.Contract{}, false
}

// Empty reports whether both collections are empty.
func (s *Service) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.blueprints) == 0 && len(s.state.contracts) == 0
}

func run[T any](ctx context.Context, s *Service, fn func(*Tx) (T, error)) (T, error) {
	var out T
	err := s.Update(ctx, func(tx *Tx) error {
		value, err := fn(tx)
		if err != nil {
			return err
		}
		out = value
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// CreateBlueprint creates and persists a blueprint.
func (s *Service) CreateBlueprint(ctx context.Context, input blueprint.CreateInput) (blueprint.Blueprint, error) {
	return run(ctx, s, func(tx *Tx) (blueprint.Blueprint, error) { return tx.CreateBlueprint(input) })
}

// UpdateBlueprint updates and persists a blueprint.
func (s *Service) UpdateBlueprint(ctx context.Context, id string, input blueprint.UpdateInput) (blueprint.Blueprint, error) {
	return run(ctx, s, func(tx *Tx) (blueprint.Blueprint, error) { return tx.UpdateBlueprint(id, input) })
}

// DeleteBlueprint deletes a blueprint.
func (s *Service) DeleteBlueprint(ctx context.Context, id string) error {
	return s.Update(ctx, func(tx *Tx) error { return tx.DeleteBlueprint(id) })
}

// AddField adds a field to a blueprint.
func (s *Service) AddField(ctx context.Context, blueprintID string, input blueprint.FieldInput) (blueprint.Field, error) {
	return run(ctx, s, func(tx *Tx) (blueprint.Field, error) { return tx.AddField(blueprintID, input) })
}

// AddFieldDraft appends a palette field to a blueprint.
func (s *Service) AddFieldDraft(ctx context.Context, blueprintID string, draft FieldDraft) (blueprint.Field, error) {
	return run(ctx, s, func(tx *Tx) (blueprint.Field, error) { return tx.AddFieldDraft(blueprintID, draft) })
}

// UpdateField patches a blueprint field.
func (s *Service) UpdateField(ctx context.Context, blueprintID, fieldID string, patch blueprint.FieldPatch) (blueprint.Blueprint, error) {
	return run(ctx, s, func(tx *Tx) (blueprint.Blueprint, error) { return tx.UpdateField(blueprintID, fieldID, patch) })
}

// RemoveField removes a blueprint field.
func (s *Service) RemoveField(ctx context.Context, blueprintID, fieldID string) (blueprint.Blueprint, error) {
	return run(ctx, s, func(tx *Tx) (blueprint.Blueprint, error) { return tx.RemoveField(blueprintID, fieldID) })
}

// CreateContract creates and persists a contract.
func (s *Service) CreateContract(ctx context.Context, input ContractInput) (contract.Contract, error) {
	return run(ctx, s, func(tx *Tx) (contract.Contract, error) { return tx.CreateContract(input) })
}

// UpdateValues merges field values into a contract.
func (s *Service) UpdateValues(ctx context.Context, id string, values contract.Values) (contract.Contract, error) {
	return run(ctx, s, func(tx *Tx) (contract.Contract, error) { return tx.UpdateValues(id, values) })
}

// Transition moves a contract to a new status.
func (s *Service) Transition(ctx context.Context, id string, req TransitionRequest) (contract.Contract, error) {
	return run(ctx, s, func(tx *Tx) (contract.Contract, error) { return tx.Transition(id, req) })
}

// Advance moves a contract to its next status.
func (s *Service) Advance(ctx context.Context, id string, req StepRequest) (contract.Contract, error) {
	return run(ctx, s, func(tx *Tx) (contract.Contract, error) { return tx.Advance(id, req) })
}

// Revoke revokes a contract.
func (s *Service) Revoke(ctx context.Context, id string, req StepRequest) (contract.Contract, error) {
	return run(ctx, s, func(tx *Tx) (contract.Contract, error) { return tx.Revoke(id, req) })
}

// Seed replaces all state with data when the service is empty or force is
// set. It reports whether anything was written.
func (s *Service) Seed(ctx context.Context, blueprints []blueprint.Blueprint, contracts []contract.Contract, force bool) (bool, error) {
	seeded := false
	err := s.Update(ctx, func(tx *Tx) error {
		if !force && (len(tx.blueprints) > 0 || len(tx.contracts) > 0) {
			return nil
		}
		tx.ReplaceAll(blueprints, contracts)
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}
