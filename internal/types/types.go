// Package types holds the data structures shared across the application.
// Keeping them in one place prevents import cycles: handlers, storage and
// the registration core can all import types without depending on each
// other.
package types

import (
	"strings"
	"time"
)

// Field names as they appear in JSON payloads and in field error maps.
const (
	FieldName       = "name"
	FieldRegNo      = "reg_no"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldDepartment = "department"
)

// Fields lists every draft field in form order.
var Fields = []string{FieldName, FieldRegNo, FieldEmail, FieldPhone, FieldDepartment}

// Draft is the in-progress, unsaved form input.
//
// The validate:"..." tags are resolved by the registration package, which
// registers the custom tags (notblank, trimmedmin, simpleemail, phonedigits,
// department) on its validator instance.
type Draft struct {
	Name       string `json:"name"       validate:"notblank,trimmedmin=2"`
	RegNo      string `json:"reg_no"     validate:"notblank,trimmedmin=3"`
	Email      string `json:"email"      validate:"notblank,simpleemail"`
	Phone      string `json:"phone"      validate:"notblank,phonedigits"`
	Department string `json:"department" validate:"notblank,department"`
}

// Get returns the value of the named field and whether the name is known.
func (d Draft) Get(field string) (string, bool) {
	switch field {
	case FieldName:
		return d.Name, true
	case FieldRegNo:
		return d.RegNo, true
	case FieldEmail:
		return d.Email, true
	case FieldPhone:
		return d.Phone, true
	case FieldDepartment:
		return d.Department, true
	}
	return "", false
}

// Set assigns value to the named field. It reports false for unknown names.
func (d *Draft) Set(field, value string) bool {
	switch field {
	case FieldName:
		d.Name = value
	case FieldRegNo:
		d.RegNo = value
	case FieldEmail:
		d.Email = value
	case FieldPhone:
		d.Phone = value
	case FieldDepartment:
		d.Department = value
	default:
		return false
	}
	return true
}

// IsEmpty reports whether every field is the empty string.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}

// Trimmed converts the draft into the insert payload. Identity fields (id,
// created_at) are left to the store.
func (d Draft) Trimmed() NewStudent {
	return NewStudent{
		Name:       strings.TrimSpace(d.Name),
		RegNo:      strings.TrimSpace(d.RegNo),
		Email:      strings.TrimSpace(d.Email),
		Phone:      strings.TrimSpace(d.Phone),
		Department: d.Department,
	}
}

// NewStudent is a student record before the store has assigned its id and
// creation time.
type NewStudent struct {
	Name       string `json:"name"`
	RegNo      string `json:"reg_no"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
}

// Student is a persisted registration.
type Student struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	RegNo      string    `json:"reg_no"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
}
