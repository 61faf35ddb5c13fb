// Package postgres provides a Postgres-backed record store for deployments
// that share state between several processes.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage/postgres/migrations"
)

const uniqueViolation = "23505"

// Store persists collection records in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and ensures the schema exists.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("postgres url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := applySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func applySchema(ctx context.Context, pool *pgxpool.Pool) error {
	files, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return fmt.Errorf("list schema files: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		content, err := fs.ReadFile(migrations.FS, file)
		if err != nil {
			return fmt.Errorf("read schema %s: %w", file, err)
		}
		if _, err := pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("apply schema %s: %w", file, err)
		}
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// GetRecord returns one collection record.
func (s *Store) GetRecord(ctx context.Context, collection storage.Collection) (storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return storage.Record{}, err
	}
	if s == nil || s.pool == nil {
		return storage.Record{}, fmt.Errorf("storage is not configured")
	}

	record := storage.Record{Collection: collection}
	var data string
	err := s.pool.QueryRow(
		ctx,
		`SELECT data, version, updated_at FROM collections WHERE name = $1`,
		string(collection),
	).Scan(&data, &record.Version, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Record{}, storage.ErrNotFound
		}
		return storage.Record{}, fmt.Errorf("get record %s: %w", collection, err)
	}
	record.Data = []byte(data)
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

// PutRecords locks the affected rows, checks each expected version, and
// replaces the records in one transaction.
func (s *Store) PutRecords(ctx context.Context, writes ...storage.Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.pool == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(writes) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin put records: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, write := range writes {
		if err := putRecord(ctx, tx, write); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit put records: %w", err)
	}
	return nil
}

func putRecord(ctx context.Context, tx pgx.Tx, write storage.Write) error {
	record := write.Record
	name := string(record.Collection)

	var current string
	err := tx.QueryRow(ctx, `SELECT version FROM collections WHERE name = $1 FOR UPDATE`, name).Scan(&current)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		current = ""
	case err != nil:
		return fmt.Errorf("lock record %s: %w", name, err)
	}
	if current != write.PreviousVersion {
		return fmt.Errorf("%s: %w", name, storage.ErrVersionConflict)
	}

	_, err = tx.Exec(
		ctx,
		`INSERT INTO collections (name, data, version, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, version = EXCLUDED.version, updated_at = EXCLUDED.updated_at`,
		name, string(record.Data), record.Version, record.UpdatedAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%s: %w", name, storage.ErrVersionConflict)
		}
		return fmt.Errorf("write record %s: %w", name, err)
	}
	return nil
}

var _ storage.RecordStore = (*Store)(nil)
