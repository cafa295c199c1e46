// Package service composes the slug codec and the mapping store into the
// operations served to the outer layers.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KretovDmitry/hashlink/internal/config"
	"github.com/KretovDmitry/hashlink/internal/errs"
	"github.com/KretovDmitry/hashlink/internal/logger"
	"github.com/KretovDmitry/hashlink/internal/models"
	"github.com/KretovDmitry/hashlink/internal/repository"
	"github.com/KretovDmitry/hashlink/internal/slug"
)

// purgeTimeout bounds a single purge pass.
const purgeTimeout = 30 * time.Second

// URLService shortens and resolves links.
type URLService struct {
	// store is the mapping storage.
	store repository.URLStorage
	// application configuration.
	config *config.Config
	// logger is the application logger.
	logger logger.Logger
	// wg is a wait group used to manage the purge goroutine.
	wg *sync.WaitGroup
	// done is a channel used to signal the stop of the service.
	done chan struct{}
	stop sync.Once
	// now is the clock, replaced in tests.
	now func() time.Time
}

// NewURLService creates the service, ensuring that the dependencies are valid values.
// When purging is configured, a goroutine removing marked mappings is started;
// call Stop to finish it.
func NewURLService(
	store repository.URLStorage,
	config *config.Config,
	logger logger.Logger,
) (*URLService, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store", errs.ErrNilDependency)
	}
	if config == nil {
		return nil, fmt.Errorf("%w: config", errs.ErrNilDependency)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger", errs.ErrNilDependency)
	}

	s := &URLService{
		store:  store,
		config: config,
		logger: logger,
		wg:     &sync.WaitGroup{},
		done:   make(chan struct{}),
		now:    time.Now,
	}

	if config.Purge.Interval > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.purgeMarked()
		}()
	}

	return s, nil
}

// Shorten stores the long URL and returns its slug.
// Shortening the same URL again yields the same slug.
func (s *URLService) Shorten(ctx context.Context, longURL, requestedFrom string) (string, error) {
	if longURL == "" {
		return "", fmt.Errorf("%w: empty url", errs.ErrInvalidRequest)
	}

	fp, code := slug.FromURL(longURL)

	if _, err := s.store.Insert(ctx, models.NewMapping(longURL, fp, requestedFrom)); err != nil {
		return "", fmt.Errorf("shorten %q: %w", longURL, err)
	}

	return code, nil
}

// Resolve returns the long URL of the slug.
// It fails with errs.ErrDecode for a malformed slug and with
// errs.ErrNotFound for a slug that was never issued or is removed.
func (s *URLService) Resolve(ctx context.Context, code string) (string, error) {
	fp, err := slug.Decode(code)
	if err != nil {
		return "", err
	}

	m, err := s.store.GetByFingerprint(ctx, fp)
	if err != nil {
		return "", err
	}

	if err = s.store.RecordRedirect(ctx, fp); err != nil {
		s.logger.With(ctx, "slug", code).Errorf("record redirect: %v", err)
	}

	return m.LongURL, nil
}

// RemoveBySlug deletes the mapping and reports whether there was one.
func (s *URLService) RemoveBySlug(ctx context.Context, code string) (bool, error) {
	fp, err := slug.Decode(code)
	if err != nil {
		return false, err
	}

	return s.store.Delete(ctx, fp)
}

// ListAll returns all links in insertion order.
func (s *URLService) ListAll(ctx context.Context) ([]models.Link, error) {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	links := make([]models.Link, 0, len(all))
	for _, m := range all {
		links = append(links, models.Link{
			Slug:    slug.Encode(m.URLHash),
			LongURL: m.LongURL,
		})
	}

	return links, nil
}

// Info returns usage counters of the slug's mapping.
func (s *URLService) Info(ctx context.Context, code string) (*models.URLMappingInfo, error) {
	fp, err := slug.Decode(code)
	if err != nil {
		return nil, err
	}

	return s.store.GetInfo(ctx, fp)
}

// MarkForDeletion marks the slug's mapping to be purged after the grace
// period and reports whether the mapping exists. A marked mapping keeps
// resolving until it is purged or shortened again.
func (s *URLService) MarkForDeletion(ctx context.Context, code string) (bool, error) {
	fp, err := slug.Decode(code)
	if err != nil {
		return false, err
	}

	return s.store.MarkForDeletion(ctx, fp, s.now())
}

// Ping checks the health of the storage.
func (s *URLService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Stop stops the service and waits for the purge goroutine to finish.
// It is safe for concurrent use.
func (s *URLService) Stop() {
	s.stop.Do(func() {
		close(s.done)
	})

	ready := make(chan struct{})
	go func() {
		defer close(ready)
		s.wg.Wait()
	}()

	select {
	case <-time.After(s.config.Server.ShutdownTimeout):
		s.logger.Error("service stop: shutdown timeout exceeded")
	case <-ready:
		return
	}
}

// purgeMarked periodically removes mappings marked longer than
// the grace period ago until the service is stopped.
func (s *URLService) purgeMarked() {
	ticker := time.NewTicker(s.config.Purge.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			_, _ = s.purge()
		}
	}
}

// purge removes mappings marked before the grace period.
func (s *URLService) purge() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := s.store.PurgeMarked(ctx, s.now().Add(-s.config.Purge.Grace))
	if err != nil {
		s.logger.Errorf("purge marked links: %v", err)
		return 0, err
	}
	if n > 0 {
		s.logger.Infof("purged %d marked links", n)
	}

	return n, nil
}
