package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"staybook/internal/domain"
	applog "staybook/internal/log"
	"staybook/internal/repos"
	"staybook/internal/search"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidStatus = errors.New("status must be pending, active or inactive")
)

// ListingStore is the catalog system of record.
type ListingStore interface {
	ListActive(ctx context.Context) ([]domain.Listing, error)
	ListAll(ctx context.Context) ([]domain.Listing, error)
	ListByHost(ctx context.Context, hostID string) ([]domain.Listing, error)
	Get(ctx context.Context, id string) (domain.Listing, error)
	Create(ctx context.Context, l domain.Listing) (domain.Listing, error)
	Update(ctx context.Context, id string, p repos.ListingPatch, images, amenities []string) (domain.Listing, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, c search.Criteria) ([]domain.Listing, error)
	HasBookings(ctx context.Context, id string) (bool, error)
}

// CatalogService keeps a snapshot of the active catalog for browsing and
// forwards host and admin changes to the store.
//
// A failed refresh keeps the previous snapshot. The error is returned to the
// caller that triggered the refresh, and later reads serve the old data until
// the next Invalidate.
type CatalogService struct {
	Store ListingStore

	mu       sync.RWMutex
	snap     []domain.Listing
	loaded   bool
	stale    bool
	gen      uint64 // bumped by Invalidate
	loadedAt time.Time
}

func NewCatalogService(store ListingStore) *CatalogService {
	return &CatalogService{Store: store}
}

// Refresh replaces the snapshot with the store's active listings. An
// Invalidate that lands while the fetch is in flight leaves the snapshot
// stale, so the next read fetches again.
func (s *CatalogService) Refresh(ctx context.Context) error {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	ls, err := s.Store.ListActive(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if s.gen == gen {
			s.stale = false
		}
		applog.Error(nil, "catalog.refresh", err, map[string]any{"kept": len(s.snap)})
		return err
	}
	s.snap, s.loaded, s.loadedAt = ls, true, time.Now()
	s.stale = s.gen != gen
	return nil
}

// Invalidate makes the next read refetch from the store.
func (s *CatalogService) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.stale = true
	s.mu.Unlock()
}

// LoadedAt reports when the snapshot was last replaced.
func (s *CatalogService) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Listings returns a copy of the snapshot, loading it if needed. On a failed
// load with an earlier snapshot present, that snapshot comes back with the error.
func (s *CatalogService) Listings(ctx context.Context) ([]domain.Listing, error) {
	s.mu.RLock()
	if s.loaded && !s.stale {
		out := s.copySnap()
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	err := s.Refresh(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, err
	}
	return s.copySnap(), err
}

// copySnap is never nil once loaded, even for an empty catalog. Callers hold mu.
func (s *CatalogService) copySnap() []domain.Listing {
	out := make([]domain.Listing, len(s.snap))
	copy(out, s.snap)
	return out
}

// Search filters the snapshot.
func (s *CatalogService) Search(ctx context.Context, c search.Criteria) ([]domain.Listing, error) {
	ls, err := s.Listings(ctx)
	if ls == nil {
		return nil, err
	}
	return search.Filter(ls, c), err
}

// Query asks the store directly and falls back to the snapshot when the
// store is unavailable.
func (s *CatalogService) Query(ctx context.Context, c search.Criteria) ([]domain.Listing, error) {
	ls, err := s.Store.Search(ctx, c)
	if err == nil {
		return ls, nil
	}
	applog.Error(nil, "catalog.query", err, nil)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, err
	}
	return search.Filter(s.snap, c), err
}

// Featured returns up to n active listings in catalog order.
func (s *CatalogService) Featured(ctx context.Context, n int) ([]domain.Listing, error) {
	ls, err := s.Listings(ctx)
	if len(ls) > n {
		ls = ls[:n]
	}
	return ls, err
}

// Get returns any listing by id.
func (s *CatalogService) Get(ctx context.Context, id string) (domain.Listing, error) {
	return s.Store.Get(ctx, id)
}

// GetVisible hides non-active listings from everyone but their host and admins.
func (s *CatalogService) GetVisible(ctx context.Context, viewer *domain.User, id string) (domain.Listing, error) {
	l, err := s.Store.Get(ctx, id)
	if err != nil {
		return l, err
	}
	if l.Status != domain.StatusActive && !canManage(viewer, l) {
		return domain.Listing{}, repos.ErrNotFound
	}
	return l, nil
}

func (s *CatalogService) HostListings(ctx context.Context, host *domain.User) ([]domain.Listing, error) {
	return s.Store.ListByHost(ctx, host.ID)
}

func (s *CatalogService) AllListings(ctx context.Context) ([]domain.Listing, error) {
	return s.Store.ListAll(ctx)
}

// CreateListing stores l for host. New listings wait for moderation.
func (s *CatalogService) CreateListing(ctx context.Context, host *domain.User, l domain.Listing) (domain.Listing, error) {
	if host.Role != domain.RoleHost && host.Role != domain.RoleAdmin {
		return domain.Listing{}, ErrForbidden
	}
	l.ID = ""
	l.HostID = host.ID
	l.Status = domain.StatusPending
	out, err := s.Store.Create(ctx, l)
	if err != nil {
		return out, err
	}
	s.Invalidate()
	return out, nil
}

func (s *CatalogService) UpdateListing(ctx context.Context, actor *domain.User, id string, p repos.ListingPatch, images, amenities []string) (domain.Listing, error) {
	if err := s.authorize(ctx, actor, id); err != nil {
		return domain.Listing{}, err
	}
	out, err := s.Store.Update(ctx, id, p, images, amenities)
	if err != nil {
		return out, err
	}
	s.Invalidate()
	return out, nil
}

func (s *CatalogService) DeleteListing(ctx context.Context, actor *domain.User, id string) error {
	if err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// SetStatus moderates a listing. Booked listings may still change status.
func (s *CatalogService) SetStatus(ctx context.Context, id, status string) error {
	if !domain.ValidStatus(status) {
		return ErrInvalidStatus
	}
	if err := s.Store.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// Locked reports whether a listing has bookings and so can no longer be edited.
func (s *CatalogService) Locked(ctx context.Context, id string) (bool, error) {
	return s.Store.HasBookings(ctx, id)
}

func (s *CatalogService) authorize(ctx context.Context, actor *domain.User, id string) error {
	l, err := s.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, l) {
		return ErrForbidden
	}
	return nil
}

func canManage(u *domain.User, l domain.Listing) bool {
	if u == nil {
		return false
	}
	return u.Role == domain.RoleAdmin || u.ID == l.HostID
}
