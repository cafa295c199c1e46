// Package postgres implements the mapping store on top of PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KretovDmitry/hashlink/internal/errs"
	"github.com/KretovDmitry/hashlink/internal/logger"
	"github.com/KretovDmitry/hashlink/internal/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type URLRepository struct {
	db     *sql.DB
	logger logger.Logger
}

// NewURLRepository creates a mapping store over an already migrated database.
func NewURLRepository(db *sql.DB, logger logger.Logger) (*URLRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: *sql.DB", errs.ErrNilDependency)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger", errs.ErrNilDependency)
	}
	return &URLRepository{db: db, logger: logger}, nil
}

// Insert upserts the mapping by its fingerprint and returns the new row ID.
// A conflicting row takes the next ID of the sequence, its info row
// follows through ON UPDATE CASCADE.
func (ur *URLRepository) Insert(ctx context.Context, m *models.URLMapping) (int64, error) {
	const (
		qUpsert = `
			INSERT INTO url_mappings
				(long_url, url_hash)
			VALUES
				($1, $2)
			ON CONFLICT (url_hash) DO UPDATE
			SET
				id = DEFAULT,
				long_url = EXCLUDED.long_url,
				created_on = now()
			RETURNING id
		`

		qInfo = `
			INSERT INTO url_mappings_info
				(mappings_id, requested_from)
			VALUES
				($1, $2)
			ON CONFLICT (mappings_id) DO UPDATE
			SET
				duplicate_requests = url_mappings_info.duplicate_requests + 1,
				marked_for_deletion = NULL
		`
	)

	tx, err := ur.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin transaction: %w", errs.ErrStore, err)
	}
	defer ur.rollback(tx)

	var id int64
	if err = tx.QueryRowContext(ctx, qUpsert, m.LongURL, m.URLHash).Scan(&id); err != nil {
		return 0, queryError("upsert mapping", qUpsert, err)
	}

	requestedFrom := sql.NullString{String: m.RequestedFrom, Valid: m.RequestedFrom != ""}
	if _, err = tx.ExecContext(ctx, qInfo, id, requestedFrom); err != nil {
		return 0, queryError("upsert mapping info", qInfo, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", errs.ErrStore, err)
	}

	return id, nil
}

// GetByFingerprint retrieves a mapping by its fingerprint.
// If there is none, errs.ErrNotFound is returned.
func (ur *URLRepository) GetByFingerprint(ctx context.Context, urlHash int64) (*models.URLMapping, error) {
	const q = `
		SELECT
			id, long_url, url_hash, created_on
		FROM
			url_mappings
		WHERE
			url_hash = $1
	`
	return ur.getOne(ctx, q, urlHash)
}

// GetByID retrieves a mapping by its row ID.
// If there is none, errs.ErrNotFound is returned.
func (ur *URLRepository) GetByID(ctx context.Context, id int64) (*models.URLMapping, error) {
	const q = `
		SELECT
			id, long_url, url_hash, created_on
		FROM
			url_mappings
		WHERE
			id = $1
	`
	return ur.getOne(ctx, q, id)
}

func (ur *URLRepository) getOne(ctx context.Context, q string, arg any) (*models.URLMapping, error) {
	m := new(models.URLMapping)
	err := ur.db.QueryRowContext(ctx, q, arg).Scan(
		&m.ID,
		&m.LongURL,
		&m.URLHash,
		&m.CreatedOn,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, queryError("retrieve mapping", q, err)
	}

	return m, nil
}

// GetAll retrieves all mappings in ascending ID order.
func (ur *URLRepository) GetAll(ctx context.Context) ([]*models.URLMapping, error) {
	const q = `
		SELECT
			id, long_url, url_hash, created_on
		FROM
			url_mappings
		ORDER BY
			id ASC
	`

	rows, err := ur.db.QueryContext(ctx, q)
	if err != nil {
		return nil, queryError("retrieve mappings", q, err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			ur.logger.Errorf("close rows: %v", err)
		}
	}()

	all := make([]*models.URLMapping, 0)
	for rows.Next() {
		m := new(models.URLMapping)
		if err = rows.Scan(&m.ID, &m.LongURL, &m.URLHash, &m.CreatedOn); err != nil {
			return nil, queryError("retrieve mappings", q, err)
		}
		all = append(all, m)
	}

	if err = rows.Err(); err != nil {
		return nil, queryError("retrieve mappings", q, err)
	}

	return all, nil
}

// Delete removes the mapping and reports whether it existed.
// The info row goes with it through ON DELETE CASCADE.
func (ur *URLRepository) Delete(ctx context.Context, urlHash int64) (bool, error) {
	const q = `DELETE FROM url_mappings WHERE url_hash = $1`

	n, err := ur.exec(ctx, "delete mapping", q, urlHash)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// GetInfo retrieves usage counters of the mapping.
// If there is no such mapping, errs.ErrNotFound is returned.
func (ur *URLRepository) GetInfo(ctx context.Context, urlHash int64) (*models.URLMappingInfo, error) {
	const q = `
		SELECT
			i.id, i.mappings_id, i.created_on, i.requested_from,
			i.duplicate_requests, i.redirects_served, i.marked_for_deletion
		FROM
			url_mappings_info i
			JOIN url_mappings m ON m.id = i.mappings_id
		WHERE
			m.url_hash = $1
	`

	info := new(models.URLMappingInfo)
	err := ur.db.QueryRowContext(ctx, q, urlHash).Scan(
		&info.ID,
		&info.MappingsID,
		&info.CreatedOn,
		&info.RequestedFrom,
		&info.DuplicateRequests,
		&info.RedirectsServed,
		&info.MarkedForDeletion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, queryError("retrieve mapping info", q, err)
	}

	return info, nil
}

// RecordRedirect counts a served redirect.
// If there is no such mapping, errs.ErrNotFound is returned.
func (ur *URLRepository) RecordRedirect(ctx context.Context, urlHash int64) error {
	const q = `
		UPDATE url_mappings_info i
		SET
			redirects_served = i.redirects_served + 1
		FROM
			url_mappings m
		WHERE
			m.id = i.mappings_id AND m.url_hash = $1
	`

	n, err := ur.exec(ctx, "record redirect", q, urlHash)
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}

	return nil
}

// MarkForDeletion sets the deletion mark and reports whether the mapping exists.
func (ur *URLRepository) MarkForDeletion(ctx context.Context, urlHash int64, at time.Time) (bool, error) {
	const q = `
		UPDATE url_mappings_info i
		SET
			marked_for_deletion = $1
		FROM
			url_mappings m
		WHERE
			m.id = i.mappings_id AND m.url_hash = $2
	`

	n, err := ur.exec(ctx, "mark mapping", q, at, urlHash)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// PurgeMarked removes mappings marked at or before the given time.
func (ur *URLRepository) PurgeMarked(ctx context.Context, before time.Time) (int64, error) {
	const q = `
		DELETE FROM url_mappings m
		USING
			url_mappings_info i
		WHERE
			m.id = i.mappings_id
			AND i.marked_for_deletion IS NOT NULL
			AND i.marked_for_deletion <= $1
	`

	return ur.exec(ctx, "purge mappings", q, before)
}

// Ping verifies the connection to the database is alive.
func (ur *URLRepository) Ping(ctx context.Context) error {
	if err := ur.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrStore, err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (ur *URLRepository) Close() error {
	return ur.db.Close()
}

func (ur *URLRepository) exec(ctx context.Context, op, q string, args ...any) (int64, error) {
	res, err := ur.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, queryError(op, q, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, queryError(op, q, err)
	}
	return n, nil
}

func (ur *URLRepository) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		ur.logger.Errorf("rollback: %v", err)
	}
}

// queryError wraps err in errs.ErrStore with the failed operation and query.
// A missing table means the schema was never migrated and is reported
// as errs.ErrSchema instead.
func queryError(op, q string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := errs.ErrStore
		if pgErr.Code == pgerrcode.UndefinedTable {
			kind = errs.ErrSchema
		}
		return fmt.Errorf("%w: %s with query (%s): %w",
			kind, op, formatQuery(q), formatPgError(pgErr),
		)
	}

	return fmt.Errorf("%w: %s with query (%s): %w", errs.ErrStore, op, formatQuery(q), err)
}

// formatQuery removes tabs and replaces newlines with spaces in the given query string.
func formatQuery(q string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(q, "\t", ""), "\n", " "))
}

// formatPgError formats a PgError into a human-friendly error message.
func formatPgError(err *pgconn.PgError) error {
	return fmt.Errorf("SQL Error: %s, Detail: %s, Where: %s, Code: %s, SQLState: %s",
		err.Message,
		err.Detail,
		err.Where,
		err.Code,
		err.SQLState(),
	)
}
