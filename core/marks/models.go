// Package marks records exam marks and computes semester results.
package marks

import (
	"time"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/grading"
)

// ExamType tags an assessment instance. It is part of the marks uniqueness key.
type ExamType string

const (
	ExamMid1     ExamType = "Mid-1"
	ExamMid2     ExamType = "Mid-2"
	ExamInternal ExamType = "Internal"
	ExamExternal ExamType = "External"
)

const (
	DefaultMaxMarks = 100
	// MaxMarksLimit is the highest accepted max marks.
	MaxMarksLimit = 10000
)

var ExamTypes = []ExamType{ExamMid1, ExamMid2, ExamInternal, ExamExternal}

func (et ExamType) IsValid() bool {
	for _, t := range ExamTypes {
		if et == t {
			return true
		}
	}
	return false
}

// Record is unique per (StudentID, SubjectID, SemesterID, ExamType).
// Grade, Percentage and Result are derived and recomputed on every write.
// Percentage is never rounded.
type Record struct {
	ID            string         `json:"id"`
	StudentID     string         `json:"student_id"`
	SubjectID     string         `json:"subject_id"`
	SemesterID    string         `json:"semester_id"`
	ExamType      ExamType       `json:"exam_type"`
	MarksObtained float64        `json:"marks_obtained"`
	MaxMarks      float64        `json:"max_marks"`
	Grade         grading.Grade  `json:"grade"`
	Percentage    float64        `json:"percentage"`
	Result        grading.Result `json:"result"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// evaluate checks the score and recomputes the derived fields.
func (r *Record) evaluate() error {
	if r.MaxMarks > MaxMarksLimit {
		return core.NewValidationError(errMaxMarksLimit, core.FieldError{Field: "max_marks", Error: errMaxMarksLimit.Error()})
	}
	if r.MarksObtained > r.MaxMarks && r.MaxMarks > 0 {
		return core.NewValidationError(errMarksAboveMax, core.FieldError{Field: "marks_obtained", Error: errMarksAboveMax.Error()})
	}
	ev, err := grading.Evaluate(r.MarksObtained, r.MaxMarks)
	if err != nil {
		return err
	}
	res, err := grading.PassFail(r.MarksObtained, r.MaxMarks)
	if err != nil {
		return err
	}
	r.Grade = ev.Grade
	r.Percentage = ev.Percentage
	r.Result = res
	return nil
}

// Entry is one student's line in a marks submission. A zero MaxMarks means DefaultMaxMarks.
type Entry struct {
	StudentID     string  `json:"student_id"`
	MarksObtained float64 `json:"marks_obtained"`
	MaxMarks      float64 `json:"max_marks"`
}

type Submission struct {
	SubjectID  string   `json:"subject_id" validate:"required"`
	SemesterID string   `json:"semester_id" validate:"required"`
	ExamType   ExamType `json:"exam_type" validate:"required,examtype"`
	Entries    []Entry  `json:"marks" validate:"required,min=1"`
}

type FailedEntry struct {
	Index     int    `json:"index"`
	StudentID string `json:"student_id"`
	Error     string `json:"error"`
}

// BatchResult reports every entry of a submission: a failed entry never rolls back the others.
type BatchResult struct {
	Saved  []Record      `json:"saved"`
	Failed []FailedEntry `json:"failed"`
}

// UpdateMarks defines what may be modified on an existing Record. Nil fields are left untouched.
type UpdateMarks struct {
	MarksObtained *float64  `json:"marks_obtained" validate:"omitempty,min=0"`
	MaxMarks      *float64  `json:"max_marks" validate:"omitempty,gt=0,lte=10000"`
	ExamType      *ExamType `json:"exam_type" validate:"omitempty,examtype"`
}

type Filter struct {
	StudentID  string
	SubjectID  string
	SemesterID string
}

type SubjectResult struct {
	SubjectID     string         `json:"subject_id"`
	SubjectName   string         `json:"subject_name"`
	SubjectCode   string         `json:"subject_code"`
	ExamType      ExamType       `json:"exam_type"`
	MarksObtained float64        `json:"marks_obtained"`
	MaxMarks      float64        `json:"max_marks"`
	Grade         grading.Grade  `json:"grade"`
	Result        grading.Result `json:"result"`
}

type SemesterResults struct {
	SemesterID string          `json:"semester_id"`
	Results    []SubjectResult `json:"results"`
	GPA        float64         `json:"gpa"`
}
