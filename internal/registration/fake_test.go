package registration

import (
	"context"
	"sync"
	"time"

	"github.com/aanand-mishra/registration-api/internal/storage"
	"github.com/aanand-mishra/registration-api/internal/types"
)

// fakeStore is an in-memory storage.Storage with injectable failures.
type fakeStore struct {
	mu sync.Mutex

	count     int
	countErr  error
	insertErr error
	listErr   error

	departments []string
	inserted    []types.NewStudent

	countCalls  int
	insertCalls int
	listCalls   int

	// entered, when set, receives once CountByDepartment starts; the call
	// then waits for release to be closed.
	entered chan struct{}
	release chan struct{}
}

var _ storage.Storage = (*fakeStore)(nil)

func (f *fakeStore) CountByDepartment(ctx context.Context, department string) (int, error) {
	f.mu.Lock()
	f.countCalls++
	entered, release := f.entered, f.release
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

func (f *fakeStore) CreateStudent(_ context.Context, s types.NewStudent) (types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.insertCalls++
	if f.insertErr != nil {
		return types.Student{}, f.insertErr
	}
	f.inserted = append(f.inserted, s)
	f.departments = append(f.departments, s.Department)
	return types.Student{
		ID:         "id-1",
		Name:       s.Name,
		RegNo:      s.RegNo,
		Email:      s.Email,
		Phone:      s.Phone,
		Department: s.Department,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeStore) ListDepartments(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.departments...), nil
}

func (f *fakeStore) Close() error { return nil }

// guardedStore adds storage.GuardedInserter to fakeStore.
type guardedStore struct {
	*fakeStore
	guardedCalls int
	full         bool
}

func (g *guardedStore) InsertWithinCapacity(ctx context.Context, s types.NewStudent, limit int) (types.Student, error) {
	g.guardedCalls++
	if g.full {
		return types.Student{}, storage.ErrCapacityExceeded
	}
	return g.CreateStudent(ctx, s)
}

// fakeCache is an in-memory CountCache.
type fakeCache struct {
	counts map[string]int
	getErr error
	setErr error
	sets   int
}

func (c *fakeCache) Get(context.Context) (map[string]int, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	if c.counts == nil {
		return nil, false, nil
	}
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out, true, nil
}

func (c *fakeCache) Set(_ context.Context, counts map[string]int) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.counts = counts
	return nil
}

// recorder captures telemetry.
type recorder struct {
	mu       sync.Mutex
	outcomes []string
	counts   map[string]int
}

func (r *recorder) ObserveSubmission(outcome string, _ time.Duration) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, outcome)
	r.mu.Unlock()
}

func (r *recorder) SetDepartmentCount(department string, count int) {
	r.mu.Lock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[department] = count
	r.mu.Unlock()
}

func validDraft() types.Draft {
	return types.Draft{
		Name:       "Jo Lee",
		RegNo:      "R100",
		Email:      "jo@x.com",
		Phone:      "9876543210",
		Department: "TECHNICAL",
	}
}
