package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/user"
)

var errInvalidStatus = errors.New("invalid status, use Present or Absent")

type (
	Repository interface {
		// UpsertSummary inserts the Summary or, if one exists for (student, month, year),
		// overwrites its counts in a single atomic write. ID and CreatedAt of an existing Summary are kept.
		UpsertSummary(ctx context.Context, s Summary) (Summary, error)
		// QuerySummaries returns the newest months first.
		QuerySummaries(ctx context.Context, studentID string) ([]Summary, error)
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		// QueryRecords returns the most recent dates first.
		QueryRecords(ctx context.Context, filter RecordFilter) ([]Record, error)
	}

	Service interface {
		SubmitSummary(ctx context.Context, teacherID string, ns NewSummary) (Summary, error)
		QuerySummaries(ctx context.Context, studentID string) ([]Summary, error)
		MarkDaily(ctx context.Context, teacherID string, nr NewRecord) (Record, error)
		QueryRecords(ctx context.Context, filter RecordFilter) ([]Record, error)
	}

	service struct {
		repo        Repository
		usrSvc      user.Service
		academicSvc academic.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, academicSvc academic.Service) Service {
	return &service{repo: repo, usrSvc: usrSvc, academicSvc: academicSvc}
}

// SubmitSummary records a student's attendance for one month. Resubmitting the same month overwrites it.
func (svc *service) SubmitSummary(ctx context.Context, teacherID string, ns NewSummary) (Summary, error) {
	if !ns.Month.IsValid() {
		return Summary{}, core.NewValidationError(errInvalidMonth, core.FieldError{Field: "month", Error: errInvalidMonth.Error()})
	}
	if ns.TotalDays > MaxMonthDays {
		return Summary{}, core.NewValidationError(errTooManyDays, core.FieldError{Field: "total_days", Error: errTooManyDays.Error()})
	}
	tally, err := Summarize(ns.TotalDays, ns.PresentDays)
	if err != nil {
		return Summary{}, err
	}
	studentID := core.CleanString(ns.StudentID)
	if _, err = svc.usrSvc.GetActive(ctx, studentID, user.RoleStudent); err != nil {
		return Summary{}, err
	}

	now := time.Now().UTC()
	s, err := svc.repo.UpsertSummary(ctx, Summary{
		StudentID:   studentID,
		Month:       ns.Month,
		Year:        ns.Year,
		TotalDays:   ns.TotalDays,
		PresentDays: ns.PresentDays,
		AbsentDays:  tally.AbsentDays,
		Percentage:  tally.Percentage,
		RecordedBy:  teacherID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return s, errors.Wrap(err, "saving attendance summary")
}

func (svc *service) QuerySummaries(ctx context.Context, studentID string) ([]Summary, error) {
	return svc.repo.QuerySummaries(ctx, studentID)
}

func (svc *service) MarkDaily(ctx context.Context, teacherID string, nr NewRecord) (Record, error) {
	if !nr.Status.IsValid() {
		return Record{}, core.NewValidationError(errInvalidStatus, core.FieldError{Field: "status", Error: errInvalidStatus.Error()})
	}
	studentID := core.CleanString(nr.StudentID)
	if _, err := svc.usrSvc.GetActive(ctx, studentID, user.RoleStudent); err != nil {
		return Record{}, err
	}
	courseID := core.CleanString(nr.CourseID)
	if courseID != "" {
		if _, err := svc.academicSvc.GetCourse(ctx, courseID); err != nil {
			return Record{}, err
		}
	}

	now := time.Now().UTC()
	date := nr.Date.UTC()
	if nr.Date.IsZero() {
		date = now
	}
	rec, err := svc.repo.CreateRecord(ctx, Record{
		StudentID: studentID,
		CourseID:  courseID,
		TeacherID: teacherID,
		Date:      date.Truncate(24 * time.Hour),
		Status:    nr.Status,
		CreatedAt: now,
	})
	return rec, errors.Wrap(err, "marking attendance")
}

func (svc *service) QueryRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, filter)
}
