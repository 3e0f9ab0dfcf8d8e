// Package attendance keeps monthly attendance summaries and daily attendance records.
package attendance

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

const (
	// shortest accepted month abbreviation
	shortMonthLength = 3
	// MaxMonthDays bounds the days a monthly summary may count.
	MaxMonthDays = 31
)

var (
	errNegativeDays = errors.New("days cannot be negative")
	errNoDays       = errors.New("total days must be greater than zero")
	errPresentAbove = errors.New("present days cannot exceed total days")
	errTooManyDays  = errors.Errorf("total days cannot exceed %d", MaxMonthDays)
	errInvalidMonth = errors.New("month must be a month name or a number between 1 and 12")
)

// Tally is the derived part of a monthly summary.
type Tally struct {
	AbsentDays int     `json:"absent_days"`
	Percentage float64 `json:"percentage"`
}

// Summarize computes absent days and the attendance percentage, rounded to 2 decimals.
func Summarize(totalDays, presentDays int) (Tally, error) {
	switch {
	case totalDays < 0:
		return Tally{}, core.NewValidationError(errNegativeDays, core.FieldError{Field: "total_days", Error: errNegativeDays.Error()})
	case presentDays < 0:
		return Tally{}, core.NewValidationError(errNegativeDays, core.FieldError{Field: "present_days", Error: errNegativeDays.Error()})
	case totalDays == 0:
		return Tally{}, core.NewValidationError(errNoDays, core.FieldError{Field: "total_days", Error: errNoDays.Error()})
	case presentDays > totalDays:
		return Tally{}, core.NewValidationError(errPresentAbove, core.FieldError{Field: "present_days", Error: errPresentAbove.Error()})
	}
	return Tally{
		AbsentDays: totalDays - presentDays,
		Percentage: core.Round(float64(presentDays)/float64(totalDays)*100, 2),
	}, nil
}

// Month is a calendar month. It decodes from a name ("January", "jan") or a number (1, "1")
// and always encodes as the full name, so every spelling maps to the same summary key.
type Month int

func ParseMonth(s string) (Month, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		m := Month(n)
		if !m.IsValid() {
			return 0, errInvalidMonth
		}
		return m, nil
	}
	if len(s) >= shortMonthLength {
		for m := time.January; m <= time.December; m++ {
			if strings.HasPrefix(strings.ToLower(m.String()), s) {
				return Month(m), nil
			}
		}
	}
	return 0, errInvalidMonth
}

func (m Month) IsValid() bool { return m >= 1 && m <= 12 }

func (m Month) String() string {
	if !m.IsValid() {
		return ""
	}
	return time.Month(m).String()
}

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Month) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return errInvalidMonth
	}
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Summary is unique per (StudentID, Month, Year).
type Summary struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	Month       Month     `json:"month"`
	Year        int       `json:"year"`
	TotalDays   int       `json:"total_days"`
	PresentDays int       `json:"present_days"`
	AbsentDays  int       `json:"absent_days"`
	Percentage  float64   `json:"percentage"`
	RecordedBy  string    `json:"recorded_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type NewSummary struct {
	StudentID   string `json:"student_id" validate:"required"`
	Month       Month  `json:"month" validate:"required,month"`
	Year        int    `json:"year" validate:"required,min=1900,max=9999"`
	TotalDays   int    `json:"total_days" validate:"min=0,max=31"`
	PresentDays int    `json:"present_days" validate:"min=0,max=31"`
}
