// Package academic administers branches, semesters, subjects and courses.
package academic

import (
	"time"

	"github.com/trezcool/campus/core"
)

type Branch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Semester is unique per (Year, SemNumber, BranchID).
type Semester struct {
	ID         string    `json:"id"`
	Year       int       `json:"year"`
	SemNumber  int       `json:"sem_number"`
	BranchID   string    `json:"branch_id"`
	SubjectIDs []string  `json:"subject_ids"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Subject is taught by its faculty, the only teacher allowed to write its marks.
type Subject struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	BranchID   string    `json:"branch_id"`
	SemesterID string    `json:"semester_id"`
	FacultyID  string    `json:"faculty_id,omitempty"`
	StudentIDs []string  `json:"student_ids"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Course struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	TeacherID  string    `json:"teacher_id,omitempty"`
	StudentIDs []string  `json:"student_ids"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type NewBranch struct {
	Name string `json:"name" validate:"required,notblank"`
	Code string `json:"code" validate:"required,notblank"`
}

func (nb *NewBranch) Clean() {
	nb.Name = core.CleanString(nb.Name)
	nb.Code = core.CleanString(nb.Code)
}

type NewSemester struct {
	Year      int    `json:"year" validate:"required,min=1,max=6"`
	SemNumber int    `json:"sem_number" validate:"required,min=1,max=2"`
	BranchID  string `json:"branch_id" validate:"required"`
}

type NewSubject struct {
	Name       string `json:"name" validate:"required,notblank"`
	Code       string `json:"code" validate:"required,notblank"`
	SemesterID string `json:"semester_id" validate:"required"`
	FacultyID  string `json:"faculty_id"`
}

func (ns *NewSubject) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)
	ns.FacultyID = core.CleanString(ns.FacultyID)
}

type NewCourse struct {
	Name       string   `json:"name" validate:"required,notblank"`
	Code       string   `json:"code" validate:"required,notblank"`
	TeacherID  string   `json:"teacher_id"`
	StudentIDs []string `json:"student_ids"`
}

func (nc *NewCourse) Clean() {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code)
	nc.TeacherID = core.CleanString(nc.TeacherID)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Nil fields are left untouched.
type UpdateCourse struct {
	Name       *string  `json:"name" validate:"omitempty,notblank"`
	Code       *string  `json:"code" validate:"omitempty,notblank"`
	TeacherID  *string  `json:"teacher_id"`
	StudentIDs []string `json:"student_ids"`
}

type SubjectFilter struct {
	SemesterID string
	FacultyID  string
	StudentID  string
}

type CourseFilter struct {
	TeacherID string
	StudentID string
}
