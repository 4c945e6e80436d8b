package registration

import (
	"context"
	"time"

	"github.com/aanand-mishra/registration-api/internal/storage"
)

// CapacityChecker reports how many students a department already holds.
type CapacityChecker struct {
	store   storage.Storage
	timeout time.Duration
}

// NewCapacityChecker returns a checker bounded by timeout per query.
// A zero timeout leaves the caller's context as the only limit.
func NewCapacityChecker(store storage.Storage, timeout time.Duration) *CapacityChecker {
	return &CapacityChecker{store: store, timeout: timeout}
}

// Count returns the number of students registered in department. Any store
// failure comes back as *StoreError with Op OpCount.
func (c *CapacityChecker) Count(ctx context.Context, department string) (int, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	count, err := c.store.CountByDepartment(ctx, department)
	if err != nil {
		return 0, &StoreError{Op: OpCount, Err: err}
	}
	return count, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
