// Package registration holds the form logic: field validation, the
// department capacity check, and the coordinator that drives one
// submission from draft to stored student.
package registration

import (
	"slices"

	"github.com/aanand-mishra/registration-api/internal/config"
)

// DefaultCapacity is the number of students a department accepts when no
// configuration says otherwise.
const DefaultCapacity = 20

// DefaultDepartments is the department list used when none is configured.
var DefaultDepartments = []string{
	"EVENT MANAGEMENT",
	"TECHNICAL",
	"DESIGN",
	"SOCIAL MEDIA",
	"CONTENT",
	"OUTREACH",
}

// Rules are the injectable business constants of the form.
type Rules struct {
	Capacity       int
	Departments    []string
	StrictCapacity bool
}

// DefaultRules returns the rules used by the original sign-up form.
func DefaultRules() Rules {
	return Rules{
		Capacity:    DefaultCapacity,
		Departments: slices.Clone(DefaultDepartments),
	}
}

// RulesFromConfig builds Rules from the registration config section.
func RulesFromConfig(cfg config.Registration) Rules {
	return Rules{
		Capacity:       cfg.Capacity,
		Departments:    slices.Clone(cfg.Departments),
		StrictCapacity: cfg.StrictCapacity,
	}
}

// HasDepartment reports whether d is one of the configured departments.
func (r Rules) HasDepartment(d string) bool {
	return slices.Contains(r.Departments, d)
}
