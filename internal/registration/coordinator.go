package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aanand-mishra/registration-api/internal/storage"
	"github.com/aanand-mishra/registration-api/internal/types"
)

// Messages shown to the user outside of field validation.
const (
	AlertCapacityCheck = "An error occurred while checking department capacity."
	AlertInsert        = "An error occurred while submitting the form. Please try again."

	MsgRegNoTaken      = "This registration number is already taken"
	MsgEmailRegistered = "This email address is already registered"
)

// CapacityMessage is the department error shown once a department is full.
func CapacityMessage(capacity int) string {
	return fmt.Sprintf("This department has reached the limit of %d students.", capacity)
}

// OutcomeKind classifies how a submission ended.
type OutcomeKind int

const (
	OutcomeSucceeded OutcomeKind = iota
	OutcomeInvalid
	OutcomeCapacityReached
	OutcomeDuplicate
	OutcomeStoreError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeCapacityReached:
		return "capacity_reached"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeStoreError:
		return "store_error"
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

// Outcome is the result of one submission.
type Outcome struct {
	Kind OutcomeKind

	// Errors is the form's field error map after the submission.
	Errors FieldErrors

	// Alert is set for failures that cannot be shown next to a field.
	Alert string

	// Student is the stored record on success.
	Student *types.Student

	// Err carries the underlying error for logging.
	Err error
}

// Recorder receives submission telemetry. The zero Coordinator uses a no-op.
type Recorder interface {
	ObserveSubmission(outcome string, elapsed time.Duration)
	SetDepartmentCount(department string, count int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSubmission(string, time.Duration) {}
func (nopRecorder) SetDepartmentCount(string, int)          {}

// Coordinator runs submissions: validate, check capacity, insert, and
// interpret the store's answer into form state.
type Coordinator struct {
	store     storage.Storage
	rules     Rules
	validator *Validator
	capacity  *CapacityChecker
	counts    *CountsService
	recorder  Recorder
	log       *slog.Logger
	timeout   time.Duration
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout bounds each store round-trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithRecorder sets the telemetry sink.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithCounts makes successful submissions refresh the department counts.
func WithCounts(s *CountsService) Option {
	return func(c *Coordinator) { c.counts = s }
}

// NewCoordinator wires a coordinator over store with the given rules.
func NewCoordinator(store storage.Storage, rules Rules, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		rules:    rules,
		recorder: nopRecorder{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.validator = NewValidator(rules)
	c.capacity = NewCapacityChecker(store, c.timeout)
	return c
}

// Rules returns the rules the coordinator enforces.
func (c *Coordinator) Rules() Rules { return c.rules }

// Submit runs one submission of f. It returns ErrSubmissionInProgress,
// without touching the form, when f is already being submitted. Every
// other failure is reported through the Outcome, and f is always back in
// StateIdle when Submit returns.
func (c *Coordinator) Submit(ctx context.Context, f *Form) (Outcome, error) {
	draft, ok := f.begin()
	if !ok {
		return Outcome{}, ErrSubmissionInProgress
	}
	defer f.finish()

	start := time.Now()
	out := c.run(ctx, f, draft)
	out.Errors = f.Snapshot().Errors

	c.recorder.ObserveSubmission(out.Kind.String(), time.Since(start))
	return out, nil
}

func (c *Coordinator) run(ctx context.Context, f *Form, draft types.Draft) Outcome {
	// Student identifiers stay out of the logs; the stored id is enough to
	// trace a registration.
	log := c.log.With(slog.String("department", draft.Department))

	f.transition(StateValidating)

	errs := c.validator.Validate(draft)
	f.replaceErrors(errs)
	if !errs.Valid() {
		log.Debug("draft rejected by validation", slog.Int("fields", len(errs)))
		return Outcome{Kind: OutcomeInvalid}
	}

	f.transition(StateCheckingCapacity)

	count, err := c.capacity.Count(ctx, draft.Department)
	if err != nil {
		log.Error("error fetching department count", slog.String("error", err.Error()))
		return Outcome{Kind: OutcomeStoreError, Alert: AlertCapacityCheck, Err: err}
	}

	if count >= c.rules.Capacity {
		log.Info("department full", slog.Int("count", count))
		f.setError(types.FieldDepartment, CapacityMessage(c.rules.Capacity))
		return Outcome{Kind: OutcomeCapacityReached}
	}

	f.transition(StateInserting)

	student, err := c.insert(ctx, draft.Trimmed())
	if err != nil {
		f.transition(StateFailed)
		return c.interpretInsertError(log, f, err)
	}

	f.transition(StateSucceeded)
	f.succeed()
	log.Info("student registered", slog.String("id", student.ID))

	if c.counts != nil {
		if _, err := c.counts.Refresh(ctx); err != nil {
			log.Warn("could not refresh department counts", slog.String("error", err.Error()))
		}
	}

	return Outcome{Kind: OutcomeSucceeded, Student: &student}
}

func (c *Coordinator) insert(ctx context.Context, s types.NewStudent) (types.Student, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	if c.rules.StrictCapacity {
		if g, ok := c.store.(storage.GuardedInserter); ok {
			return g.InsertWithinCapacity(ctx, s, c.rules.Capacity)
		}
	}
	return c.store.CreateStudent(ctx, s)
}

func (c *Coordinator) interpretInsertError(log *slog.Logger, f *Form, err error) Outcome {
	if errors.Is(err, storage.ErrCapacityExceeded) {
		log.Info("department filled up before insert")
		f.setError(types.FieldDepartment, CapacityMessage(c.rules.Capacity))
		return Outcome{Kind: OutcomeCapacityReached, Err: err}
	}

	if uv, ok := storage.AsUniqueViolation(err); ok {
		switch uv.Field {
		case types.FieldRegNo:
			f.setError(types.FieldRegNo, MsgRegNoTaken)
			return Outcome{Kind: OutcomeDuplicate, Err: err}
		case types.FieldEmail:
			f.setError(types.FieldEmail, MsgEmailRegistered)
			return Outcome{Kind: OutcomeDuplicate, Err: err}
		}
		// A collision we cannot pin on a field is reported like any other
		// store failure.
	}

	storeErr := &StoreError{Op: OpInsert, Err: err}
	log.Error("error inserting student", slog.String("error", err.Error()))
	return Outcome{Kind: OutcomeStoreError, Alert: AlertInsert, Err: storeErr}
}
