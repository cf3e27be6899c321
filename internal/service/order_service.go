// internal/service/order_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yalgud-dairy/orders-admin/internal/cache"
	"github.com/yalgud-dairy/orders-admin/internal/domain"
	"github.com/yalgud-dairy/orders-admin/internal/export"
	"github.com/yalgud-dairy/orders-admin/internal/grouping"
	"github.com/yalgud-dairy/orders-admin/internal/normalize"
	"github.com/yalgud-dairy/orders-admin/internal/orderapi"
	"github.com/yalgud-dairy/orders-admin/internal/timeutil"
)

// Export precondition violations, surfaced to the operator as warnings
// rather than failures.
var (
	ErrRouteRequired   = errors.New("please select a route")
	ErrNoOrdersForDate = errors.New("no orders found")
	ErrNothingToExport = errors.New("nothing to export")
	ErrUnknownRoute    = errors.New("unknown route")
)

// Fetcher is the upstream order source.
type Fetcher interface {
	FetchByStatus(ctx context.Context, status domain.OrderStatus) ([]map[string]any, error)
}

// snapshot is one immutable view of the upstream order set. Every
// refresh replaces it wholesale; nothing is mutated in place.
type snapshot struct {
	orders    []domain.NormalizedOrder
	routes    []domain.RouteKey
	fetchedAt time.Time
}

// OrderService owns the accepted-orders view: it fetches and normalizes
// the upstream batch, keeps the latest snapshot, and answers grouping
// and export requests from it.
type OrderService struct {
	fetcher Fetcher
	cache   cache.OrderSnapshotCache
	status  domain.OrderStatus
	now     func() time.Time

	mu   sync.RWMutex
	snap *snapshot
}

// Option tweaks OrderService construction.
type Option func(*OrderService)

// WithClock injects the time source for grouping and export-date
// defaults; tests fix it.
func WithClock(now func() time.Time) Option {
	return func(s *OrderService) { s.now = now }
}

// WithCache attaches a snapshot cache.
func WithCache(c cache.OrderSnapshotCache) Option {
	return func(s *OrderService) { s.cache = c }
}

// NewOrderService builds the service for one upstream status.
func NewOrderService(fetcher Fetcher, status domain.OrderStatus, opts ...Option) *OrderService {
	s := &OrderService{
		fetcher: fetcher,
		cache:   cache.NewNoopOrderSnapshotCache(),
		status:  status,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches the upstream batch and replaces the snapshot. On
// failure the displayed data is cleared; a superseded fetch leaves the
// current snapshot untouched and reports orderapi.ErrSuperseded.
func (s *OrderService) Refresh(ctx context.Context) error {
	raws, err := s.fetcher.FetchByStatus(ctx, s.status)
	if err != nil {
		if errors.Is(err, orderapi.ErrSuperseded) {
			return err
		}
		s.setSnapshot(nil)
		_ = s.cache.Invalidate(ctx, s.status)
		return fmt.Errorf("refresh %s orders: %w", s.status, err)
	}

	now := s.now()
	orders := normalize.Orders(raws, now)

	unresolved := 0
	for _, o := range orders {
		if !o.TimestampResolved {
			unresolved++
		}
	}
	if unresolved > 0 {
		log.Warn().Int("count", unresolved).Msg("orders with unresolvable timestamps defaulted to fetch time")
	}

	snap := &snapshot{
		orders:    orders,
		routes:    grouping.Routes(orders),
		fetchedAt: now,
	}
	s.setSnapshotValue(snap)

	if err := s.cache.Set(ctx, s.status, &cache.Snapshot{Orders: orders, FetchedAt: now}); err != nil {
		log.Warn().Err(err).Msg("failed to cache order snapshot")
	}

	log.Info().Int("count", len(orders)).Str("status", string(s.status)).Msg("order snapshot refreshed")
	return nil
}

// ensure loads a snapshot if none is resident: first from cache, then
// from the upstream.
func (s *OrderService) ensure(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.snap != nil
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	if cached, ok, err := s.cache.Get(ctx, s.status); err != nil {
		log.Warn().Err(err).Msg("order snapshot cache lookup failed")
	} else if ok {
		s.setSnapshotValue(&snapshot{
			orders:    cached.Orders,
			routes:    grouping.Routes(cached.Orders),
			fetchedAt: cached.FetchedAt,
		})
		return nil
	}

	return s.Refresh(ctx)
}

// Grouped returns the recency partition of the current snapshot under
// the given filter, plus the route list for the filter dropdown.
func (s *OrderService) Grouped(ctx context.Context, f grouping.Filter) (domain.OrderGroups, []domain.RouteKey, error) {
	if err := s.ensure(ctx); err != nil {
		return domain.OrderGroups{}, nil, err
	}

	snap := s.current()
	return grouping.Group(snap.orders, f, s.now()), snap.routes, nil
}

// Routes returns the deduplicated route list of the current snapshot.
func (s *OrderService) Routes(ctx context.Context) ([]domain.RouteKey, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	return s.current().routes, nil
}

// Export builds the CSV artifact for one route and one civil date.
// routeKey is required; date defaults to today in the fixed offset.
// Returns the payload and its download filename.
func (s *OrderService) Export(ctx context.Context, routeKey, date string) ([]byte, string, error) {
	if routeKey == "" {
		return nil, "", ErrRouteRequired
	}
	if err := s.ensure(ctx); err != nil {
		return nil, "", err
	}

	if date == "" {
		date = timeutil.CivilDate(s.now())
	}

	snap := s.current()
	route, ok := findRoute(snap.routes, routeKey)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownRoute, routeKey)
	}

	matched := grouping.ForDate(snap.orders, routeKey, date)
	if len(matched) == 0 {
		return nil, "", fmt.Errorf("%w for %s", ErrNoOrdersForDate, date)
	}

	payload := export.Build(matched)
	if payload == nil {
		return nil, "", ErrNothingToExport
	}

	return payload, export.Filename(date, route), nil
}

// FetchedAt reports when the current snapshot was taken (zero when none).
func (s *OrderService) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return time.Time{}
	}
	return s.snap.fetchedAt
}

func (s *OrderService) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return &snapshot{}
	}
	return s.snap
}

func (s *OrderService) setSnapshot(orders []domain.NormalizedOrder) {
	if orders == nil {
		s.mu.Lock()
		s.snap = nil
		s.mu.Unlock()
		return
	}
	s.setSnapshotValue(&snapshot{orders: orders, routes: grouping.Routes(orders), fetchedAt: s.now()})
}

func (s *OrderService) setSnapshotValue(snap *snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

func findRoute(routes []domain.RouteKey, key string) (domain.RouteKey, bool) {
	for _, r := range routes {
		if r.Key == key {
			return r, true
		}
	}
	return domain.RouteKey{}, false
}
