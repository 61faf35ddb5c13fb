// Package sqlite provides a SQLite-backed record store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/contractdesk/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists collection records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite record store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetRecord returns one collection record.
func (s *Store) GetRecord(ctx context.Context, collection storage.Collection) (storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return storage.Record{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Record{}, fmt.Errorf("storage is not configured")
	}

	var (
		data      string
		version   string
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT data, version, updated_at FROM collections WHERE name = ?`,
		string(collection),
	).Scan(&data, &version, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Record{}, storage.ErrNotFound
		}
		return storage.Record{}, fmt.Errorf("get record %s: %w", collection, err)
	}
	return storage.Record{
		Collection: collection,
		Data:       []byte(data),
		Version:    version,
		UpdatedAt:  fromMillis(updatedAt),
	}, nil
}

// PutRecords replaces records in one transaction after checking each
// expected version.
func (s *Store) PutRecords(ctx context.Context, writes ...storage.Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(writes) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put records: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, write := range writes {
		if err := putRecord(ctx, tx, write); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			return fmt.Errorf("commit put records: %w", storage.ErrVersionConflict)
		}
		return fmt.Errorf("commit put records: %w", err)
	}
	return nil
}

func putRecord(ctx context.Context, tx *sql.Tx, write storage.Write) error {
	record := write.Record
	name := string(record.Collection)
	if write.PreviousVersion == "" {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO collections (name, data, version, updated_at) VALUES (?, ?, ?, ?)`,
			name, string(record.Data), record.Version, toMillis(record.UpdatedAt),
		)
		if err != nil {
			if isPrimaryKeyViolation(err) {
				return fmt.Errorf("%s: %w", name, storage.ErrVersionConflict)
			}
			return fmt.Errorf("insert record %s: %w", name, err)
		}
		return nil
	}

	result, err := tx.ExecContext(
		ctx,
		`UPDATE collections SET data = ?, version = ?, updated_at = ? WHERE name = ? AND version = ?`,
		string(record.Data), record.Version, toMillis(record.UpdatedAt), name, write.PreviousVersion,
	)
	if err != nil {
		return fmt.Errorf("update record %s: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record %s: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", name, storage.ErrVersionConflict)
	}
	return nil
}

func isPrimaryKeyViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3lib.SQLITE_BUSY
	}
	return false
}

var _ storage.RecordStore = (*Store)(nil)
