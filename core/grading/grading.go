// Package grading turns raw marks into letter grades, pass/fail results and GPAs.
package grading

import (
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

// Grade is a letter grade.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// Result is the outcome of the pass/fail policy.
type Result string

const (
	Pass Result = "Pass"
	Fail Result = "Fail"
)

// PassThreshold is the minimum percentage for a Pass. It is independent from the letter grade thresholds.
const PassThreshold = 35

var (
	// inclusive lower bounds, highest first
	thresholds = []struct {
		bound float64
		grade Grade
	}{
		{90, GradeAPlus},
		{80, GradeA},
		{70, GradeB},
		{60, GradeC},
		{50, GradeD},
	}

	gradePoints = map[Grade]int{
		GradeAPlus: 10,
		GradeA:     9,
		GradeB:     8,
		GradeC:     7,
		GradeD:     6,
		GradeF:     0,
	}

	errNonPositiveMax = errors.New("max marks must be greater than 0")
	errNegativeMarks  = errors.New("marks obtained cannot be negative")
)

// Points returns the grade point value used for GPA averaging.
func (g Grade) Points() int {
	return gradePoints[g]
}

func (g Grade) IsValid() bool {
	_, ok := gradePoints[g]
	return ok
}

// Evaluation is the letter grade policy applied to one score.
type Evaluation struct {
	Grade      Grade   `json:"grade"`
	Percentage float64 `json:"percentage"`
}

func checkScore(marksObtained, maxMarks float64) error {
	if maxMarks <= 0 {
		return core.NewValidationError(errNonPositiveMax, core.FieldError{Field: "max_marks", Error: errNonPositiveMax.Error()})
	}
	if marksObtained < 0 {
		return core.NewValidationError(errNegativeMarks, core.FieldError{Field: "marks_obtained", Error: errNegativeMarks.Error()})
	}
	return nil
}

// Evaluate maps marksObtained out of maxMarks to a letter grade.
// Percentage is not rounded.
func Evaluate(marksObtained, maxMarks float64) (Evaluation, error) {
	if err := checkScore(marksObtained, maxMarks); err != nil {
		return Evaluation{}, err
	}

	// compare marks*100 against bound*max so that exact boundaries never go through a division
	grade := GradeF
	for _, t := range thresholds {
		if marksObtained*100 >= t.bound*maxMarks {
			grade = t.grade
			break
		}
	}
	return Evaluation{Grade: grade, Percentage: marksObtained * 100 / maxMarks}, nil
}

// GradeFor maps an already computed percentage to a letter grade.
func GradeFor(percentage float64) Grade {
	for _, t := range thresholds {
		if percentage >= t.bound {
			return t.grade
		}
	}
	return GradeF
}

// PassFail applies the pass/fail policy: Pass iff the percentage is at least PassThreshold.
func PassFail(marksObtained, maxMarks float64) (Result, error) {
	if err := checkScore(marksObtained, maxMarks); err != nil {
		return "", err
	}
	if marksObtained*100 >= PassThreshold*maxMarks {
		return Pass, nil
	}
	return Fail, nil
}
