package registration

import (
	"context"
	"log/slog"
	"time"

	"github.com/aanand-mishra/registration-api/internal/storage"
)

// CountCache stores the last computed department counts. Get reports
// false on a miss.
type CountCache interface {
	Get(ctx context.Context) (map[string]int, bool, error)
	Set(ctx context.Context, counts map[string]int) error
}

// CountsService computes how many students each department holds, for
// display. The numbers are advisory and may be stale; the capacity
// decision never reads them.
type CountsService struct {
	store       storage.Storage
	departments []string
	cache       CountCache
	recorder    Recorder
	log         *slog.Logger
	timeout     time.Duration
}

// NewCountsService returns a service over store. cache may be nil.
func NewCountsService(store storage.Storage, rules Rules, cache CountCache, opts ...CountsOption) *CountsService {
	s := &CountsService{
		store:       store,
		departments: rules.Departments,
		cache:       cache,
		recorder:    nopRecorder{},
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CountsOption configures a CountsService.
type CountsOption func(*CountsService)

// CountsWithRecorder publishes every refresh to r.
func CountsWithRecorder(r Recorder) CountsOption {
	return func(s *CountsService) { s.recorder = r }
}

// CountsWithLogger sets the logger.
func CountsWithLogger(l *slog.Logger) CountsOption {
	return func(s *CountsService) { s.log = l }
}

// CountsWithTimeout bounds the store query.
func CountsWithTimeout(d time.Duration) CountsOption {
	return func(s *CountsService) { s.timeout = d }
}

// Counts returns cached counts when available and recomputes otherwise.
func (s *CountsService) Counts(ctx context.Context) (map[string]int, error) {
	if s.cache != nil {
		counts, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn("department count cache read failed", slog.String("error", err.Error()))
		} else if ok {
			return s.withConfigured(counts), nil
		}
	}
	return s.Refresh(ctx)
}

// Refresh recomputes the counts from the store and overwrites the cache.
// Every configured department is present in the result.
func (s *CountsService) Refresh(ctx context.Context) (map[string]int, error) {
	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	departments, err := s.store.ListDepartments(qctx)
	if err != nil {
		return nil, &StoreError{Op: OpList, Err: err}
	}

	counts := make(map[string]int, len(s.departments))
	for _, d := range departments {
		counts[d]++
	}
	counts = s.withConfigured(counts)

	for d, n := range counts {
		s.recorder.SetDepartmentCount(d, n)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, counts); err != nil {
			s.log.Warn("department count cache write failed", slog.String("error", err.Error()))
		}
	}

	return counts, nil
}

func (s *CountsService) withConfigured(counts map[string]int) map[string]int {
	if counts == nil {
		counts = make(map[string]int, len(s.departments))
	}
	for _, d := range s.departments {
		if _, ok := counts[d]; !ok {
			counts[d] = 0
		}
	}
	return counts
}
