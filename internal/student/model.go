package student

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"student-roster/internal/validation"

	"github.com/uptrace/bun"
)

const (
	StatusActive   = validation.StatusActive
	StatusInactive = validation.StatusInactive
)

type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID          string        `bun:"student_id,pk" json:"studentId"`
	FullName    string        `bun:"full_name,notnull" json:"fullName"`
	Programme   string        `bun:"programme,notnull" json:"programme"`
	Level       int           `bun:"level,notnull" json:"level"`
	GPA         float64       `bun:"gpa,notnull" json:"gpa"`
	Email       string        `bun:"email,notnull" json:"email"`
	PhoneNumber string        `bun:"phone_number,notnull" json:"phoneNumber"`
	DateAdded   LocalDateTime `bun:"date_added,notnull,type:varchar(40)" json:"dateAdded"`
	Status      string        `bun:"status,notnull" json:"status"`
}

func (s *Student) IsActive() bool {
	return s.Status == StatusActive
}

func (s *Student) record() validation.Record {
	return validation.Record{
		ID:        s.ID,
		FullName:  s.FullName,
		Programme: s.Programme,
		Level:     s.Level,
		GPA:       s.GPA,
		Email:     s.Email,
		Phone:     s.PhoneNumber,
		DateAdded: s.DateAdded.String(),
		Status:    s.Status,
	}
}

// LocalDateTime is a wall-clock timestamp without zone, stored and encoded as
// ISO-8601 text (2006-01-02T15:04:05.999999999).
type LocalDateTime struct {
	time.Time
}

func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime{Time: t.Round(0).In(time.Local)}
}

func Now() LocalDateTime {
	return NewLocalDateTime(time.Now().Truncate(time.Second))
}

func ParseLocalDateTime(s string) (LocalDateTime, error) {
	t, err := validation.ParseDateTime(s)
	if err != nil {
		return LocalDateTime{}, err
	}
	return LocalDateTime{Time: t}, nil
}

func (d LocalDateTime) String() string {
	if d.IsZero() {
		return ""
	}
	return validation.FormatDateTime(d.Time)
}

func (d LocalDateTime) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *LocalDateTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = LocalDateTime{}
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case time.Time:
		*d = NewLocalDateTime(v)
		return nil
	default:
		return fmt.Errorf("unsupported date_added type %T", src)
	}
}

func (d *LocalDateTime) parse(s string) error {
	if s == "" {
		*d = LocalDateTime{}
		return nil
	}
	parsed, err := ParseLocalDateTime(s)
	if err != nil {
		return fmt.Errorf("parse date_added %q: %w", s, err)
	}
	*d = parsed
	return nil
}

func (d LocalDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *LocalDateTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.parse(s)
}
