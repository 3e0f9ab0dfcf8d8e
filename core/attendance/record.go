package attendance

import "time"

type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

func (s Status) IsValid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Record is one daily attendance mark. Records are append-only and never deduplicated.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CourseID  string    `json:"course_id,omitempty"`
	TeacherID string    `json:"teacher_id,omitempty"`
	Date      time.Time `json:"date"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecord is a daily mark. A zero Date means today.
type NewRecord struct {
	StudentID string    `json:"student_id" validate:"required"`
	CourseID  string    `json:"course_id"`
	Date      time.Time `json:"date"`
	Status    Status    `json:"status" validate:"required,oneof=Present Absent"`
}

type RecordFilter struct {
	StudentID string
	CourseID  string
}
