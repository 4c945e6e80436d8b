package registration

import (
	"fmt"
	"sync"

	"github.com/aanand-mishra/registration-api/internal/types"
)

// State is a step of the submission state machine.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateCheckingCapacity
	StateInserting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateCheckingCapacity:
		return "checking_capacity"
	case StateInserting:
		return "inserting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Snapshot is a point-in-time copy of a Form.
type Snapshot struct {
	Draft      types.Draft
	Errors     FieldErrors
	Submitting bool
	Success    bool
	State      State
}

// Form is the state of one form session: the draft being edited, the
// current field errors, and the submitting and success flags. It is owned
// by a single session and handed to a Coordinator by reference.
type Form struct {
	mu         sync.Mutex
	draft      types.Draft
	errors     FieldErrors
	submitting bool
	success    bool
	state      State

	// OnTransition, when set, is called after every state change.
	// It runs with the form unlocked.
	OnTransition func(from, to State)
}

// NewForm returns an empty form in StateIdle.
func NewForm() *Form {
	return &Form{errors: FieldErrors{}}
}

// NewFormWithDraft returns an idle form pre-filled with d.
func NewFormWithDraft(d types.Draft) *Form {
	f := NewForm()
	f.draft = d
	return f
}

// SetField records an edit and clears the error shown for that field.
func (f *Form) SetField(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.draft.Set(field, value) {
		return fmt.Errorf("unknown field %q", field)
	}
	delete(f.errors, field)
	return nil
}

// DismissSuccess hides the success confirmation.
func (f *Form) DismissSuccess() {
	f.mu.Lock()
	f.success = false
	f.mu.Unlock()
}

// Snapshot returns a copy of the current form state.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	return Snapshot{
		Draft:      f.draft,
		Errors:     f.errors.Clone(),
		Submitting: f.submitting,
		Success:    f.success,
		State:      f.state,
	}
}

// begin claims the form for a submission and returns the draft to submit.
func (f *Form) begin() (types.Draft, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitting {
		return types.Draft{}, false
	}
	f.submitting = true
	return f.draft, true
}

// finish releases the submitting flag and returns the form to idle.
func (f *Form) finish() {
	f.mu.Lock()
	f.submitting = false
	f.mu.Unlock()

	f.transition(StateIdle)
}

func (f *Form) transition(to State) {
	f.mu.Lock()
	from := f.state
	f.state = to
	hook := f.OnTransition
	f.mu.Unlock()

	if hook != nil && from != to {
		hook(from, to)
	}
}

func (f *Form) replaceErrors(errs FieldErrors) {
	f.mu.Lock()
	f.errors = errs.Clone()
	f.mu.Unlock()
}

func (f *Form) setError(field, msg string) {
	f.mu.Lock()
	f.errors[field] = msg
	f.mu.Unlock()
}

func (f *Form) succeed() {
	f.mu.Lock()
	f.draft = types.Draft{}
	f.success = true
	f.mu.Unlock()
}
