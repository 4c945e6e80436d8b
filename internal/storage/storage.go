// Package storage defines the Storage interface, the contract any database
// backend must satisfy to hold student registrations, along with the typed
// errors backends use to report conditions the registration core reacts to.
//
// Handlers and the registration core depend only on this package. Choosing
// SQLite or PostgreSQL is a one-line decision in main.go, and tests pass a
// fake that satisfies the interface.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aanand-mishra/registration-api/internal/types"
)

// Storage is the database contract.
type Storage interface {
	// CountByDepartment returns how many students are registered in the
	// given department. Only the count travels over the wire.
	CountByDepartment(ctx context.Context, department string) (int, error)

	// CreateStudent inserts a new student and returns the stored record
	// with its generated id and creation time. A collision on reg_no or
	// email is reported as *UniqueViolationError.
	CreateStudent(ctx context.Context, student types.NewStudent) (types.Student, error)

	// ListDepartments returns the department of every stored student,
	// oldest registration first.
	ListDepartments(ctx context.Context) ([]string, error)

	// Close releases the underlying connections.
	Close() error
}

// GuardedInserter is implemented by stores able to count and insert as one
// serialised unit. InsertWithinCapacity returns ErrCapacityExceeded when the
// department already holds limit students.
type GuardedInserter interface {
	InsertWithinCapacity(ctx context.Context, student types.NewStudent, limit int) (types.Student, error)
}

// ErrCapacityExceeded is returned by guarded inserts into a full department.
var ErrCapacityExceeded = errors.New("department capacity exceeded")

// UniqueViolationError reports an insert rejected by a unique constraint.
// Field names the colliding column (types.FieldRegNo or types.FieldEmail),
// or is empty when the backend could not tell which one collided.
type UniqueViolationError struct {
	Field string
	Err   error
}

func (e *UniqueViolationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("unique constraint violated: %v", e.Err)
	}
	return fmt.Sprintf("unique constraint violated on %s: %v", e.Field, e.Err)
}

func (e *UniqueViolationError) Unwrap() error { return e.Err }

// AsUniqueViolation unwraps err into a *UniqueViolationError if it holds one.
func AsUniqueViolation(err error) (*UniqueViolationError, bool) {
	var uv *UniqueViolationError
	if errors.As(err, &uv) {
		return uv, true
	}
	return nil, false
}

// UniqueFields lists the columns carrying a unique constraint, in the order
// backends probe a driver message for them.
var UniqueFields = []string{types.FieldRegNo, types.FieldEmail}
