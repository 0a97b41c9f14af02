package rooms

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/service/graph"
	"github.com/gighall/calsync/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCacheTTL    = 60 * time.Second
	defaultConcurrency = 8
)

type cacheEntry struct {
	events    []*graph.RoomEvent
	expiresAt time.Time
}

// service implements Service interface
type service struct {
	graph       graph.Service
	ttl         time.Duration
	concurrency int
	now         func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// Option configures the room service
type Option func(*service)

// WithCacheTTL overrides how long a room's events are served from cache
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *service) {
		s.ttl = ttl
	}
}

// WithConcurrency overrides the fan-out limit for batch fetches
func WithConcurrency(n int) Option {
	return func(s *service) {
		s.concurrency = n
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a room availability service on top of the Graph client
func New(graphSvc graph.Service, opts ...Option) (Service, error) {
	if graphSvc == nil {
		return nil, goerr.New("graph service is required")
	}

	s := &service{
		graph:       graphSvc,
		ttl:         defaultCacheTTL,
		concurrency: defaultConcurrency,
		now:         time.Now,
		cache:       make(map[string]cacheEntry),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func cacheKey(email string, window model.RoomWindow) string {
	return strings.ToLower(email) + "|" + window.Start.Format(time.RFC3339) + "|" + window.End.Format(time.RFC3339)
}

func (s *service) cached(key string) ([]*graph.RoomEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[key]
	if !ok || s.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.events, true
}

func (s *service) store(key string, events []*graph.RoomEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cacheEntry{events: events, expiresAt: s.now().Add(s.ttl)}
}

func (s *service) GetEventsForRooms(ctx context.Context, emails []string, window model.RoomWindow) (map[string]*Result, error) {
	if window.Start.IsZero() || window.End.IsZero() {
		window = model.DefaultRoomWindow(s.now())
	}

	results := make(map[string]*Result, len(emails))
	var misses []string

	for _, email := range emails {
		if events, ok := s.cached(cacheKey(email, window)); ok {
			results[email] = &Result{Events: events}
			continue
		}
		misses = append(misses, email)
	}

	if len(misses) == 0 {
		return results, nil
	}

	// One app token per batch
	token, err := s.graph.AppToken(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get app token for room batch")
	}

	var resultMu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)

	for _, email := range misses {
		eg.Go(func() error {
			events, err := s.graph.GetRoomEvents(egCtx, token, email, window.Start, window.End)

			resultMu.Lock()
			defer resultMu.Unlock()

			if err != nil {
				logging.From(ctx).Error("failed to fetch room events",
					"room", email, "error", err)
				results[email] = &Result{Err: err}
				return nil
			}

			results[email] = &Result{Events: events}
			s.store(cacheKey(email, window), events)
			return nil
		})
	}

	// Workers never return errors, the group is used for its limit
	_ = eg.Wait()

	return results, nil
}

func (s *service) GetRoomCalendar(ctx context.Context, email string) (*graph.RoomCalendar, error) {
	token, err := s.graph.AppToken(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get app token", goerr.V("room", email))
	}

	calendar, err := s.graph.GetRoomCalendar(ctx, token, email)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get room calendar", goerr.V("room", email))
	}
	return calendar, nil
}
