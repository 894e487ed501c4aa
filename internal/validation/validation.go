// Package validation holds the field-format rules for student records.
//
// The single-field checks are pure functions. Validator binds them to a Rules
// value (allowed programmes and levels) and exposes two entry points: Check,
// which stops at the first violated rule, and ValidateRecord, which collects
// every failure of a record in one pass.
package validation

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

var (
	idPattern    = regexp.MustCompile(`^[A-Za-z0-9]{4,20}$`)
	phonePattern = regexp.MustCompile(`^\d{10,15}$`)
	phoneStrip   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// DateTimeLayouts are the accepted ISO-8601 local date-time shapes, most
// precise first. The first entry is also the output format.
var DateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

func ValidID(s string) bool {
	return idPattern.MatchString(strings.TrimSpace(s))
}

func ValidName(s string) bool {
	trimmed := strings.TrimSpace(s)
	n := len([]rune(trimmed))
	if n < 2 || n > 60 {
		return false
	}
	return !strings.ContainsFunc(trimmed, unicode.IsDigit)
}

// ValidProgramme accepts any non-empty value when allow is empty, otherwise
// requires a case-insensitive match against one of its entries.
func ValidProgramme(s string, allow ...string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}
	if len(allow) == 0 {
		return true
	}
	for _, p := range allow {
		if strings.EqualFold(trimmed, strings.TrimSpace(p)) {
			return true
		}
	}
	return false
}

// ValidLevel checks n against allow, or the default 100..700 set when allow
// is empty.
func ValidLevel(n int, allow ...int) bool {
	if len(allow) == 0 {
		allow = defaultLevels[:]
	}
	for _, l := range allow {
		if n == l {
			return true
		}
	}
	return false
}

func ValidGPA(x float64) bool {
	return !math.IsNaN(x) && x >= 0.0 && x <= 4.0
}

// ValidEmail requires an '@' that is not the first character, followed by a
// '.' with at least one character between them, and the '.' must not be the
// final character.
func ValidEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 {
		return false
	}
	for i := at + 2; i < len(s)-1; i++ {
		if s[i] == '.' {
			return true
		}
	}
	return false
}

func ValidPhone(s string) bool {
	return phonePattern.MatchString(phoneStrip.Replace(s))
}

func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusInactive
}

// ValidStatusFold is the lenient status check used by CSV import.
func ValidStatusFold(s string) bool {
	_, ok := NormalizeStatus(s)
	return ok
}

// NormalizeStatus maps any casing of Active/Inactive to its canonical form.
func NormalizeStatus(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	switch {
	case strings.EqualFold(trimmed, StatusActive):
		return StatusActive, true
	case strings.EqualFold(trimmed, StatusInactive):
		return StatusInactive, true
	}
	return "", false
}

func ValidDateTime(s string) bool {
	_, err := ParseDateTime(s)
	return err == nil
}

// ParseDateTime parses an ISO-8601 local date-time in the local time zone.
func ParseDateTime(s string) (time.Time, error) {
	var err error
	for _, layout := range DateTimeLayouts {
		var t time.Time
		t, err = time.ParseInLocation(layout, strings.TrimSpace(s), time.Local)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// FormatDateTime renders t in the first of DateTimeLayouts.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayouts[0])
}
