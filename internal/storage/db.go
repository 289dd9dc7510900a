// Package storage persists imported timetable entities in SQLite or
// PostgreSQL and reads them back for the API.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// DB wraps a database connection with timetable operations.
type DB struct {
	*sql.DB
	driver string
	sb     sq.StatementBuilderType
	logger *slog.Logger
}

// Open connects with the given driver and applies migrations. For SQLite,
// a plain file path is expanded into a DSN with WAL and a busy timeout.
func Open(driver, dsn string, logger *slog.Logger) (*DB, error) {
	sb := sq.StatementBuilder
	switch driver {
	case DriverSQLite:
		if !strings.HasPrefix(dsn, "file:") {
			dsn = fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", dsn)
		}
	case DriverPostgres:
		sb = sb.PlaceholderFormat(sq.Dollar)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{DB: sqlDB, driver: driver, sb: sb, logger: logger}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.Info("database opened", "driver", driver)
	return db, nil
}

// Driver returns the database/sql driver name in use.
func (db *DB) Driver() string {
	return db.driver
}

// Tx is an import transaction.
type Tx struct {
	*sql.Tx
	sb sq.StatementBuilderType
}

// Begin starts an import transaction.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{Tx: tx, sb: db.sb}, nil
}

// Clear deletes every imported entity, leaving metadata in place.
func (tx *Tx) Clear(ctx context.Context) error {
	for _, table := range entityTables {
		query, args, err := tx.sb.Delete(table).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// SetMetadata stores a key/value pair inside the transaction.
func (tx *Tx) SetMetadata(ctx context.Context, key, value string) error {
	return setMetadata(ctx, tx.Tx, tx.sb, key, value)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setMetadata(ctx context.Context, ex execer, sb sq.StatementBuilderType, key, value string) error {
	query, args, err := sb.Insert("import_metadata").
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// SetMetadata stores a key/value pair.
func (db *DB) SetMetadata(ctx context.Context, key, value string) error {
	return setMetadata(ctx, db.DB, db.sb, key, value)
}

// GetMetadata returns the value stored under key, or "" when there is none.
func (db *DB) GetMetadata(ctx context.Context, key string) (string, error) {
	query, args, err := db.sb.Select("value").From("import_metadata").
		Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return "", err
	}
	var value string
	err = db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// HasData reports whether an import has stored any trips.
func (db *DB) HasData(ctx context.Context) bool {
	query, args, err := db.sb.Select("COUNT(*)").From("trips").ToSql()
	if err != nil {
		return false
	}
	var count int
	err = db.QueryRowContext(ctx, query, args...).Scan(&count)
	return err == nil && count > 0
}
