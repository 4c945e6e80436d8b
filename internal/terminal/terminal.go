// Package terminal renders the sign-up form on a line-oriented terminal.
//
// The session keeps one registration.Form for its whole life: fields that
// are filled and error-free are not asked again, so after a rejected
// submission the user only re-enters what was wrong.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aanand-mishra/registration-api/internal/registration"
	"github.com/aanand-mishra/registration-api/internal/types"
)

var labels = map[string]string{
	types.FieldName:       "Full Name",
	types.FieldRegNo:      "Registration Number",
	types.FieldEmail:      "Email Address",
	types.FieldPhone:      "Phone Number",
	types.FieldDepartment: "Department",
}

// Session is one interactive form session.
type Session struct {
	coordinator *registration.Coordinator
	counts      *registration.CountsService
	form        *registration.Form

	in  *bufio.Scanner
	out io.Writer
}

// NewSession reads answers from in and writes prompts to out. counts may
// be nil, in which case no department counts are shown.
func NewSession(c *registration.Coordinator, counts *registration.CountsService, in io.Reader, out io.Writer) *Session {
	return &Session{
		coordinator: c,
		counts:      counts,
		form:        registration.NewForm(),
		in:          bufio.NewScanner(in),
		out:         out,
	}
}

// Form exposes the session's form state.
func (s *Session) Form() *registration.Form { return s.form }

// Run drives the form until the user stops or input ends. End of input is
// not an error.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "DEPARTMENT SELECTION FORM")
	fmt.Fprintln(s.out, "Fill out the form below to complete your registration. All fields are required.")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.fill(ctx); err != nil {
			return ignoreEOF(err)
		}

		out, err := s.coordinator.Submit(ctx, s.form)
		if err != nil {
			return err
		}

		switch out.Kind {
		case registration.OutcomeSucceeded:
			fmt.Fprintln(s.out)
			fmt.Fprintln(s.out, "Registration Successful!")
			fmt.Fprintln(s.out, "Thank you for filling out the form! Your registration has been submitted successfully.")
			if _, err := s.ask("Press Enter to continue"); err != nil {
				return ignoreEOF(err)
			}
			s.form.DismissSuccess()

			again, err := s.confirm("Register another student? [y/N]", false)
			if err != nil || !again {
				return ignoreEOF(err)
			}

		case registration.OutcomeStoreError:
			fmt.Fprintf(s.out, "\n%s\n", out.Alert)
			retry, err := s.confirm("Try again? [Y/n]", true)
			if err != nil || !retry {
				return ignoreEOF(err)
			}

		default:
			fmt.Fprintln(s.out, "\nPlease correct the highlighted fields.")
		}
	}
}

// fill prompts every field that is empty or carries an error.
func (s *Session) fill(ctx context.Context) error {
	snap := s.form.Snapshot()

	for _, field := range types.Fields {
		value, _ := snap.Draft.Get(field)
		msg, hasErr := snap.Errors[field]
		if value != "" && !hasErr {
			continue
		}

		if hasErr {
			fmt.Fprintf(s.out, "  ! %s\n", msg)
		}

		var (
			answer string
			err    error
		)
		if field == types.FieldDepartment {
			answer, err = s.askDepartment(ctx)
		} else {
			answer, err = s.ask(labels[field] + " *")
		}
		if err != nil {
			return err
		}

		if err := s.form.SetField(field, answer); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) askDepartment(ctx context.Context) (string, error) {
	rules := s.coordinator.Rules()

	var counts map[string]int
	if s.counts != nil {
		c, err := s.counts.Counts(ctx)
		if err == nil {
			counts = c
		}
	}

	fmt.Fprintln(s.out, "Select Department:")
	for i, d := range rules.Departments {
		if counts != nil {
			fmt.Fprintf(s.out, "  %d) %s (%d/%d)\n", i+1, d, counts[d], rules.Capacity)
		} else {
			fmt.Fprintf(s.out, "  %d) %s\n", i+1, d)
		}
	}

	answer, err := s.ask(labels[types.FieldDepartment] + " *")
	if err != nil {
		return "", err
	}

	if n, convErr := strconv.Atoi(answer); convErr == nil && n >= 1 && n <= len(rules.Departments) {
		return rules.Departments[n-1], nil
	}
	return answer, nil
}

func (s *Session) ask(prompt string) (string, error) {
	fmt.Fprintf(s.out, "%s: ", prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.in.Text(), nil
}

func (s *Session) confirm(prompt string, def bool) (bool, error) {
	answer, err := s.ask(prompt)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return def, nil
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
