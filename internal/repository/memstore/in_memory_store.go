// Package memstore implements the mapping store in memory.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/KretovDmitry/hashlink/internal/errs"
	"github.com/KretovDmitry/hashlink/internal/models"
)

// URLRepository is an in-memory implementation of the URLStorage interface.
// It keeps the same upsert and ordering semantics as the SQL stores.
// It is safe for concurrent use.
type URLRepository struct {
	// store holds mappings with their usage info keyed by fingerprint.
	store map[int64]*record
	// nextID is the last assigned row ID.
	nextID int64
	closed bool
	// mu protects all fields above.
	mu sync.RWMutex
}

type record struct {
	mapping models.URLMapping
	info    models.URLMappingInfo
}

// NewURLRepository creates an empty in-memory store.
func NewURLRepository() *URLRepository {
	return &URLRepository{store: make(map[int64]*record)}
}

// Insert upserts the mapping by its fingerprint and returns the new row ID.
func (r *URLRepository) Insert(_ context.Context, m *models.URLMapping) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, errs.ErrDBNotConnected
	}

	r.nextID++
	now := time.Now().UTC()

	rec, found := r.store[m.URLHash]
	if !found {
		rec = &record{
			info: models.URLMappingInfo{
				ID:        r.nextID,
				CreatedOn: now,
			},
		}
		rec.info.RequestedFrom.String = m.RequestedFrom
		rec.info.RequestedFrom.Valid = m.RequestedFrom != ""
		r.store[m.URLHash] = rec
	} else {
		rec.info.DuplicateRequests++
		rec.info.MarkedForDeletion.Valid = false
	}

	rec.mapping = models.URLMapping{
		ID:        r.nextID,
		LongURL:   m.LongURL,
		URLHash:   m.URLHash,
		CreatedOn: now,
	}
	rec.info.MappingsID = r.nextID

	return r.nextID, nil
}

// GetByFingerprint retrieves a mapping by its fingerprint.
// If there is none, errs.ErrNotFound is returned.
func (r *URLRepository) GetByFingerprint(_ context.Context, urlHash int64) (*models.URLMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, errs.ErrDBNotConnected
	}

	rec, found := r.store[urlHash]
	if !found {
		return nil, errs.ErrNotFound
	}

	m := rec.mapping
	return &m, nil
}

// GetByID retrieves a mapping by its row ID.
// If there is none, errs.ErrNotFound is returned.
func (r *URLRepository) GetByID(_ context.Context, id int64) (*models.URLMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, errs.ErrDBNotConnected
	}

	for _, rec := range r.store {
		if rec.mapping.ID == id {
			m := rec.mapping
			return &m, nil
		}
	}

	return nil, errs.ErrNotFound
}

// GetAll retrieves all mappings in ascending ID order.
func (r *URLRepository) GetAll(_ context.Context) ([]*models.URLMapping, error) {
	r.mu.RLock()

	if r.closed {
		r.mu.RUnlock()
		return nil, errs.ErrDBNotConnected
	}

	all := make([]*models.URLMapping, 0, len(r.store))
	for _, rec := range r.store {
		m := rec.mapping
		all = append(all, &m)
	}

	r.mu.RUnlock()

	slices.SortFunc(all, func(a, b *models.URLMapping) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	return all, nil
}

// Delete removes the mapping and reports whether it existed.
func (r *URLRepository) Delete(_ context.Context, urlHash int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, errs.ErrDBNotConnected
	}

	if _, found := r.store[urlHash]; !found {
		return false, nil
	}
	delete(r.store, urlHash)

	return true, nil
}

// GetInfo retrieves usage counters of the mapping.
// If there is no such mapping, errs.ErrNotFound is returned.
func (r *URLRepository) GetInfo(_ context.Context, urlHash int64) (*models.URLMappingInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, errs.ErrDBNotConnected
	}

	rec, found := r.store[urlHash]
	if !found {
		return nil, errs.ErrNotFound
	}

	info := rec.info
	return &info, nil
}

// RecordRedirect counts a served redirect.
// If there is no such mapping, errs.ErrNotFound is returned.
func (r *URLRepository) RecordRedirect(_ context.Context, urlHash int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errs.ErrDBNotConnected
	}

	rec, found := r.store[urlHash]
	if !found {
		return errs.ErrNotFound
	}
	rec.info.RedirectsServed++

	return nil
}

// MarkForDeletion sets the deletion mark and reports whether the mapping exists.
func (r *URLRepository) MarkForDeletion(_ context.Context, urlHash int64, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, errs.ErrDBNotConnected
	}

	rec, found := r.store[urlHash]
	if !found {
		return false, nil
	}
	rec.info.MarkedForDeletion.Time = at.UTC()
	rec.info.MarkedForDeletion.Valid = true

	return true, nil
}

// PurgeMarked removes mappings marked at or before the given time.
func (r *URLRepository) PurgeMarked(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, errs.ErrDBNotConnected
	}

	var n int64
	for fp, rec := range r.store {
		mark := rec.info.MarkedForDeletion
		if mark.Valid && !mark.Time.After(before) {
			delete(r.store, fp)
			n++
		}
	}

	return n, nil
}

// Ping reports errs.ErrDBNotConnected once the store is closed,
// as every other method does.
func (r *URLRepository) Ping(_ context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return errs.ErrDBNotConnected
	}
	return nil
}

// Close drops all mappings.
func (r *URLRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store = make(map[int64]*record)
	r.closed = true

	return nil
}
