// Package repository provides the interfaces of storage.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/KretovDmitry/hashlink/internal/config"
	"github.com/KretovDmitry/hashlink/internal/errs"
	"github.com/KretovDmitry/hashlink/internal/logger"
	"github.com/KretovDmitry/hashlink/internal/models"
	"github.com/KretovDmitry/hashlink/internal/repository/memstore"
	"github.com/KretovDmitry/hashlink/internal/repository/postgres"
	"github.com/KretovDmitry/hashlink/internal/repository/sqlite"
	"github.com/KretovDmitry/hashlink/migrations"
	sqldblogger "github.com/simukti/sqldb-logger"
)

//go:generate mockgen -destination=../../mocks/mock_storage.go -package=mocks github.com/KretovDmitry/hashlink/internal/repository URLStorage

// URLStorage is the mapping store. A fingerprint identifies at most one
// mapping; lookups of an absent fingerprint fail with errs.ErrNotFound,
// I/O failures are wrapped in errs.ErrStore.
type URLStorage interface {
	// Insert upserts the mapping by its fingerprint and returns the new row ID.
	// An existing row with the same fingerprint is replaced and gets a new ID.
	Insert(ctx context.Context, m *models.URLMapping) (int64, error)

	// GetByFingerprint retrieves a mapping by its fingerprint.
	GetByFingerprint(ctx context.Context, urlHash int64) (*models.URLMapping, error)

	// GetByID retrieves a mapping by its row ID.
	GetByID(ctx context.Context, id int64) (*models.URLMapping, error)

	// GetAll retrieves all mappings ordered by ascending row ID.
	GetAll(ctx context.Context) ([]*models.URLMapping, error)

	// Delete removes the mapping with the given fingerprint and
	// reports whether there was one.
	Delete(ctx context.Context, urlHash int64) (bool, error)

	// GetInfo retrieves usage counters of the mapping with the given fingerprint.
	GetInfo(ctx context.Context, urlHash int64) (*models.URLMappingInfo, error)

	// RecordRedirect counts a served redirect.
	RecordRedirect(ctx context.Context, urlHash int64) error

	// MarkForDeletion sets the deletion mark and reports whether
	// the mapping exists.
	MarkForDeletion(ctx context.Context, urlHash int64, at time.Time) (bool, error)

	// PurgeMarked removes mappings marked at or before the given time
	// and returns their number.
	PurgeMarked(ctx context.Context, before time.Time) (int64, error)

	// Ping checks the health of the storage.
	Ping(ctx context.Context) error

	// Close releases the storage resources.
	Close() error
}

// Interface implementation guards.
var (
	_ URLStorage = (*sqlite.URLRepository)(nil)
	_ URLStorage = (*postgres.URLRepository)(nil)
	_ URLStorage = (*memstore.URLRepository)(nil)
)

// NewURLStore returns one of the URLStorage implementations based on
// the configuration. Could be SQLite, Postgres or in memory.
//
// For SQL drivers the schema is brought up to date before the store is
// returned, so no caller observes a partially created schema.
// A failed migration is wrapped in errs.ErrSchema.
func NewURLStore(cfg *config.Config, logger logger.Logger) (URLStorage, error) {
	// Check for dependencies that can lead to panic.
	if cfg == nil {
		return nil, fmt.Errorf("%w: config", errs.ErrNilDependency)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger", errs.ErrNilDependency)
	}

	driverName := cfg.Storage.Driver

	switch driverName {
	case config.DriverSQLite:
		dsn, err := sqliteDSN(cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		db, err := openDB("sqlite3", driverName, dsn, logger)
		if err != nil {
			return nil, err
		}
		return sqlite.NewURLRepository(db, logger)

	case config.DriverPostgres:
		db, err := openDB("pgx", driverName, cfg.Storage.DSN, logger)
		if err != nil {
			return nil, err
		}
		return postgres.NewURLRepository(db, logger)

	case config.DriverMemory:
		logger.Info("using in memory storage, mappings are lost on exit")
		return memstore.NewURLRepository(), nil
	}

	return nil, fmt.Errorf("unsupported storage driver: %q", driverName)
}

// sqliteDSN forces immediate transactions, so a transaction that reads
// before it writes holds the write lock from BEGIN and waits for the busy
// timeout instead of failing with SQLITE_BUSY on lock upgrade.
func sqliteDSN(dsn string) (string, error) {
	path, rawQuery, _ := strings.Cut(dsn, "?")

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("%w: invalid sqlite dsn: %w", errs.ErrStore, err)
	}
	query.Set("_txlock", "immediate")

	return path + "?" + query.Encode(), nil
}

// openDB opens a connection pool that logs every query,
// checks connectivity and migrates the schema.
func openDB(sqlDriver, schema, dsn string, logger logger.Logger) (*sql.DB, error) {
	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open the database: %w", errs.ErrStore, err)
	}

	// Log every query to the database.
	db = sqldblogger.OpenDriver(dsn, db.Driver(), logger,
		sqldblogger.WithMinimumLevel(sqldblogger.LevelDebug),
	)

	// Check connectivity and DSN correctness.
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to connect to the database: %w", errs.ErrStore, err)
	}

	if err = migrations.Up(db, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to migrate DB: %w", errs.ErrSchema, err)
	}

	logger.Infof("%s storage is ready", schema)

	return db, nil
}
