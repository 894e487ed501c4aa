package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is wrapped by every format-validation failure.
var ErrInvalid = errors.New("invalid input")

const (
	MsgID        = "Invalid Student ID: Must be 4-20 alphanumeric characters"
	MsgName      = "Invalid Full Name: Must be 2-60 characters with no numbers"
	MsgProgramme = "Invalid Programme: Must be one of the configured programmes"
	MsgGPA       = "Invalid GPA: Must be between 0.0 and 4.0"
	MsgEmail     = "Invalid Email: Must contain @ and . in a valid position"
	MsgPhone     = "Invalid Phone: Must be 10-15 digits"
	MsgStatus    = "Invalid Status: Must be 'Active' or 'Inactive'"
	MsgDateTime  = "Invalid Date Added: Must be an ISO-8601 local date-time"
)

// Record is a candidate student in its raw, pre-storage shape. DateAdded is
// kept as text so that a malformed timestamp can be reported alongside the
// other field failures.
type Record struct {
	ID        string  `validate:"student_id"`
	FullName  string  `validate:"full_name"`
	Programme string  `validate:"programme"`
	Level     int     `validate:"level"`
	GPA       float64 `validate:"gpa"`
	Email     string  `validate:"email_addr"`
	Phone     string  `validate:"phone"`
	DateAdded string  `validate:"datetime_local"`
	Status    string  `validate:"status"`
}

// FieldError reports the first rule a record violated.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func (e *FieldError) Unwrap() error { return ErrInvalid }

// Result lists every failure message of a record, in field order. An empty
// Result means the record is valid.
type Result []string

func (r Result) Valid() bool { return len(r) == 0 }

func (r Result) String() string { return strings.Join(r, "; ") }

type Validator struct {
	rules    Rules
	validate *validator.Validate
	messages map[string]string
	chain    []link
}

type link struct {
	field string
	tag   string
	ok    func(Record) bool
}

func New(rules Rules) *Validator {
	v := &Validator{
		rules:    rules,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		messages: map[string]string{
			"student_id":     MsgID,
			"full_name":      MsgName,
			"programme":      MsgProgramme,
			"level":          rules.levelMessage(),
			"gpa":            MsgGPA,
			"email_addr":     MsgEmail,
			"phone":          MsgPhone,
			"datetime_local": MsgDateTime,
			"status":         MsgStatus,
		},
	}

	checks := map[string]validator.Func{
		"student_id": func(fl validator.FieldLevel) bool { return ValidID(fl.Field().String()) },
		"full_name":  func(fl validator.FieldLevel) bool { return ValidName(fl.Field().String()) },
		"programme": func(fl validator.FieldLevel) bool {
			return ValidProgramme(fl.Field().String(), rules.Programmes...)
		},
		"level": func(fl validator.FieldLevel) bool {
			return ValidLevel(int(fl.Field().Int()), rules.levels()...)
		},
		"gpa":            func(fl validator.FieldLevel) bool { return ValidGPA(fl.Field().Float()) },
		"email_addr":     func(fl validator.FieldLevel) bool { return ValidEmail(fl.Field().String()) },
		"phone":          func(fl validator.FieldLevel) bool { return ValidPhone(fl.Field().String()) },
		"datetime_local": func(fl validator.FieldLevel) bool { return ValidDateTime(fl.Field().String()) },
		"status":         func(fl validator.FieldLevel) bool { return ValidStatus(fl.Field().String()) },
	}
	for tag, fn := range checks {
		if err := v.validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("validation: register %q: %v", tag, err))
		}
	}

	// Order matters: add and update report the first broken rule in this order.
	v.chain = []link{
		{"id", "student_id", func(r Record) bool { return ValidID(r.ID) }},
		{"full_name", "full_name", func(r Record) bool { return ValidName(r.FullName) }},
		{"level", "level", func(r Record) bool { return ValidLevel(r.Level, rules.levels()...) }},
		{"gpa", "gpa", func(r Record) bool { return ValidGPA(r.GPA) }},
		{"email", "email_addr", func(r Record) bool { return ValidEmail(r.Email) }},
		{"phone", "phone", func(r Record) bool { return ValidPhone(r.Phone) }},
		{"status", "status", func(r Record) bool { return ValidStatus(r.Status) }},
		{"programme", "programme", func(r Record) bool { return ValidProgramme(r.Programme, rules.Programmes...) }},
	}

	return v
}

func (v *Validator) Rules() Rules { return v.rules }

// Check runs the single-record chain and returns the first failure as a
// *FieldError, or nil. DateAdded is not part of the chain.
func (v *Validator) Check(r Record) error {
	for _, l := range v.chain {
		if !l.ok(r) {
			return &FieldError{Field: l.field, Message: v.messages[l.tag]}
		}
	}
	return nil
}

// ValidateRecord runs every rule against r and returns all failures.
func (v *Validator) ValidateRecord(r Record) Result {
	err := v.validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Result{err.Error()}
	}

	out := make(Result, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := v.messages[fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("Invalid %s", fe.Field())
		}
		out = append(out, msg)
	}
	return out
}
