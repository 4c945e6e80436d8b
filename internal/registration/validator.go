package registration

import (
	"errors"
	"maps"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/registration-api/internal/types"
)

var (
	// simpleEmailRe accepts local@domain.tld with a dot after the @. RE2's
	// \s is ASCII only, so ValidEmail rejects other Unicode spaces itself.
	simpleEmailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigitRe    = regexp.MustCompile(`\D`)
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// FieldErrors maps a draft field name to a human-readable message.
// An empty map means the draft is valid.
type FieldErrors map[string]string

// Valid reports whether there are no errors.
func (fe FieldErrors) Valid() bool { return len(fe) == 0 }

// Clone returns an independent copy; a nil map clones to an empty one.
func (fe FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(fe))
	maps.Copy(out, fe)
	return out
}

// messages holds, per field, the text for a blank value and for a value
// that fails the field's rule.
var messages = map[string]struct{ required, invalid string }{
	types.FieldName: {
		required: "Name is required",
		invalid:  "Name must be at least 2 characters long",
	},
	types.FieldRegNo: {
		required: "Registration number is required",
		invalid:  "Registration number must be at least 3 characters long",
	},
	types.FieldEmail: {
		required: "Email is required",
		invalid:  "Please enter a valid email address",
	},
	types.FieldPhone: {
		required: "Phone number is required",
		invalid:  "Please enter a valid phone number (10-15 digits)",
	},
	types.FieldDepartment: {
		required: "Please select a department",
		invalid:  "Please select a valid department",
	},
}

// Validator checks a Draft against the form rules. It is safe for
// concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a Validator accepting the departments in rules.
func NewValidator(rules Rules) *Validator {
	v := validator.New()

	// Report fields by their JSON name so errors line up with the payload.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	mustRegister(v, "trimmedmin", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		// Length is counted in runes, so "é" or an emoji is one character.
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
	})

	mustRegister(v, "simpleemail", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})

	mustRegister(v, "phonedigits", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})

	mustRegister(v, "department", func(fl validator.FieldLevel) bool {
		return rules.HasDepartment(fl.Field().String())
	})

	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("registration: register " + tag + ": " + err.Error())
	}
}

// ValidEmail reports whether email has the local@domain.tld shape and
// contains no whitespace of any kind.
func ValidEmail(email string) bool {
	if strings.IndexFunc(email, unicode.IsSpace) >= 0 {
		return false
	}
	return simpleEmailRe.MatchString(email)
}

// ValidPhone reports whether phone holds 10 to 15 digits once every
// non-digit character is removed.
func ValidPhone(phone string) bool {
	n := len(nonDigitRe.ReplaceAllString(phone, ""))
	return n >= minPhoneDigits && n <= maxPhoneDigits
}

// Validate returns the error for every failing field. All fields are
// checked on every call.
func (v *Validator) Validate(d types.Draft) FieldErrors {
	errs := FieldErrors{}

	err := v.validate.Struct(d)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Only reachable on programmer error (non-struct input).
		panic("registration: validate draft: " + err.Error())
	}

	for _, fe := range verrs {
		field := fe.Field()
		msg, ok := messages[field]
		if !ok {
			continue
		}
		if fe.Tag() == "notblank" {
			errs[field] = msg.required
		} else {
			errs[field] = msg.invalid
		}
	}

	return errs
}
