// Package sqlite implements the mapping store on top of SQLite.
package sqlite

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
	_ "github.com/mattn/go-sqlite3"
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
//
// INSERT OR REPLACE deletes the conflicting row and inserts a fresh one,
// so a re-shortened URL gets a new ID and creation time. The info row is
// repointed to the new ID in the same transaction.
func (ur *URLRepository) Insert(ctx context.Context, m *models.URLMapping) (int64, error) {
	const (
		qOld = `SELECT id FROM url_mappings WHERE url_hash = ?`

		qUpsert = `
			INSERT OR REPLACE INTO url_mappings
				(long_url, url_hash)
			VALUES
				(?, ?)
		`

		qFollow = `
			UPDATE url_mappings_info
			SET
				mappings_id = ?,
				duplicate_requests = duplicate_requests + 1,
				marked_for_deletion = NULL
			WHERE
				mappings_id = ?
		`

		qInfo = `
			INSERT INTO url_mappings_info
				(mappings_id, requested_from)
			VALUES
				(?, ?)
		`
	)

	tx, err := ur.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin transaction: %w", errs.ErrStore, err)
	}
	defer ur.rollback(tx)

	var oldID int64
	err = tx.QueryRowContext(ctx, qOld, m.URLHash).Scan(&oldID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, queryError("find mapping", qOld, err)
	}
	existed := err == nil

	res, err := tx.ExecContext(ctx, qUpsert, m.LongURL, m.URLHash)
	if err != nil {
		return 0, queryError("upsert mapping", qUpsert, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, queryError("upsert mapping", qUpsert, err)
	}

	var followed int64
	if existed {
		res, err = tx.ExecContext(ctx, qFollow, id, oldID)
		if err != nil {
			return 0, queryError("update mapping info", qFollow, err)
		}
		if followed, err = res.RowsAffected(); err != nil {
			return 0, queryError("update mapping info", qFollow, err)
		}
	}

	if followed == 0 {
		_, err = tx.ExecContext(ctx, qInfo, id, nullString(m.RequestedFrom))
		if err != nil {
			return 0, queryError("insert mapping info", qInfo, err)
		}
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
			url_hash = ?
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
			id = ?
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
// An empty store yields an empty slice.
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

// Delete removes the mapping with its info row and reports whether
// the mapping existed.
func (ur *URLRepository) Delete(ctx context.Context, urlHash int64) (bool, error) {
	const (
		qInfo = `
			DELETE FROM url_mappings_info
			WHERE
				mappings_id IN (SELECT id FROM url_mappings WHERE url_hash = ?)
		`
		qMapping = `DELETE FROM url_mappings WHERE url_hash = ?`
	)

	tx, err := ur.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: begin transaction: %w", errs.ErrStore, err)
	}
	defer ur.rollback(tx)

	if _, err = tx.ExecContext(ctx, qInfo, urlHash); err != nil {
		return false, queryError("delete mapping info", qInfo, err)
	}

	res, err := tx.ExecContext(ctx, qMapping, urlHash)
	if err != nil {
		return false, queryError("delete mapping", qMapping, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, queryError("delete mapping", qMapping, err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: commit: %w", errs.ErrStore, err)
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
			m.url_hash = ?
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
		UPDATE url_mappings_info
		SET
			redirects_served = redirects_served + 1
		WHERE
			mappings_id IN (SELECT id FROM url_mappings WHERE url_hash = ?)
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
		UPDATE url_mappings_info
		SET
			marked_for_deletion = ?
		WHERE
			mappings_id IN (SELECT id FROM url_mappings WHERE url_hash = ?)
	`

	n, err := ur.exec(ctx, "mark mapping", q, at.UTC(), urlHash)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// PurgeMarked removes mappings marked at or before the given time.
func (ur *URLRepository) PurgeMarked(ctx context.Context, before time.Time) (int64, error) {
	const (
		qMappings = `
			DELETE FROM url_mappings
			WHERE
				id IN (
					SELECT mappings_id FROM url_mappings_info
					WHERE marked_for_deletion IS NOT NULL AND marked_for_deletion <= ?
				)
		`
		qInfo = `
			DELETE FROM url_mappings_info
			WHERE
				marked_for_deletion IS NOT NULL AND marked_for_deletion <= ?
		`
	)

	before = before.UTC()

	tx, err := ur.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin transaction: %w", errs.ErrStore, err)
	}
	defer ur.rollback(tx)

	res, err := tx.ExecContext(ctx, qMappings, before)
	if err != nil {
		return 0, queryError("purge mappings", qMappings, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, queryError("purge mappings", qMappings, err)
	}

	if _, err = tx.ExecContext(ctx, qInfo, before); err != nil {
		return 0, queryError("purge mapping info", qInfo, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", errs.ErrStore, err)
	}

	return n, nil
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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// queryError wraps err in errs.ErrStore with the failed operation and query.
func queryError(op, q string, err error) error {
	return fmt.Errorf("%w: %s with query (%s): %w", errs.ErrStore, op, formatQuery(q), err)
}

// formatQuery removes tabs and replaces newlines with spaces in the given query string.
func formatQuery(q string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(q, "\t", ""), "\n", " "))
}
