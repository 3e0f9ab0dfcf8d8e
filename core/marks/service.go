package marks

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/grading"
	"github.com/trezcool/campus/core/user"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("marks record not found")
	ErrMarksExists   = core.NewConflictError("marks for this student, subject, semester and exam type already exist")
	errMarksAboveMax = errors.New("marks obtained cannot exceed max marks")
	errMaxMarksLimit = errors.Errorf("max marks cannot exceed %d", MaxMarksLimit)
	errNoStudent     = errors.New("student_id is required")
	errWrongSemester = errors.New("subject does not belong to this semester")
)

type (
	Repository interface {
		// UpsertMarks inserts the Record or, if one exists with the same
		// (student, subject, semester, exam type), overwrites its marks in a single atomic write.
		UpsertMarks(ctx context.Context, rec Record) (Record, error)
		GetMarks(ctx context.Context, id string) (Record, error)
		// UpdateMarks fails with ErrMarksExists if the new key is taken by another Record.
		UpdateMarks(ctx context.Context, rec Record) (Record, error)
		DeleteMarks(ctx context.Context, id string) error
		// QueryMarks returns the newest records first.
		QueryMarks(ctx context.Context, filter Filter) ([]Record, error)
	}

	Service interface {
		SubmitMarks(ctx context.Context, teacherID string, sub Submission) (BatchResult, error)
		UpdateMark(ctx context.Context, teacherID, markID string, um UpdateMarks) (Record, error)
		DeleteMark(ctx context.Context, teacherID, markID string) error
		ResultsForSemester(ctx context.Context, studentID, semesterID string) (SemesterResults, error)
		QueryBySubject(ctx context.Context, subjectID string) ([]Record, error)
		QueryByStudent(ctx context.Context, studentID string) ([]Record, error)
	}

	service struct {
		repo     Repository
		guard    Guard
		academic academic.Service
		usrSvc   user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, academicSvc academic.Service, usrSvc user.Service) Service {
	return &service{
		repo:     repo,
		guard:    NewGuard(academicSvc),
		academic: academicSvc,
		usrSvc:   usrSvc,
	}
}

// SubmitMarks upserts every entry independently. Ownership is checked once for the whole batch.
func (svc *service) SubmitMarks(ctx context.Context, teacherID string, sub Submission) (BatchResult, error) {
	if !sub.ExamType.IsValid() {
		return BatchResult{}, core.NewValidationError(nil, core.FieldError{Field: "exam_type", Error: examTypeText})
	}
	if err := svc.guard.AuthorizeSubject(ctx, teacherID, sub.SubjectID); err != nil {
		return BatchResult{}, err
	}
	subject, err := svc.academic.GetSubject(ctx, sub.SubjectID)
	if err != nil {
		return BatchResult{}, err
	}
	if subject.SemesterID != sub.SemesterID {
		return BatchResult{}, core.NewValidationError(errWrongSemester, core.FieldError{Field: "semester_id", Error: errWrongSemester.Error()})
	}

	result := BatchResult{Saved: make([]Record, 0, len(sub.Entries)), Failed: make([]FailedEntry, 0)}
	for i, entry := range sub.Entries {
		rec, err := svc.submitEntry(ctx, sub, entry)
		if err != nil {
			if !(core.IsValidationError(err) || core.IsNotFound(err) || core.IsConflict(err)) {
				return result, errors.Wrapf(err, "saving marks entry %d", i)
			}
			result.Failed = append(result.Failed, FailedEntry{Index: i, StudentID: entry.StudentID, Error: err.Error()})
			continue
		}
		result.Saved = append(result.Saved, rec)
	}
	return result, nil
}

func (svc *service) submitEntry(ctx context.Context, sub Submission, entry Entry) (Record, error) {
	studentID := core.CleanString(entry.StudentID)
	if studentID == "" {
		return Record{}, core.NewValidationError(errNoStudent, core.FieldError{Field: "student_id", Error: errNoStudent.Error()})
	}
	if _, err := svc.usrSvc.GetActive(ctx, studentID, user.RoleStudent); err != nil {
		return Record{}, err
	}

	maxMarks := entry.MaxMarks
	if maxMarks == 0 {
		maxMarks = DefaultMaxMarks
	}
	now := time.Now().UTC()
	rec := Record{
		StudentID:     studentID,
		SubjectID:     sub.SubjectID,
		SemesterID:    sub.SemesterID,
		ExamType:      sub.ExamType,
		MarksObtained: entry.MarksObtained,
		MaxMarks:      maxMarks,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := rec.evaluate(); err != nil {
		return Record{}, err
	}
	return svc.repo.UpsertMarks(ctx, rec)
}

func (svc *service) UpdateMark(ctx context.Context, teacherID, markID string, um UpdateMarks) (Record, error) {
	rec, err := svc.repo.GetMarks(ctx, markID)
	if err != nil {
		return Record{}, err
	}
	if err = svc.guard.Authorize(ctx, teacherID, rec); err != nil {
		return Record{}, err
	}

	if um.MarksObtained != nil {
		rec.MarksObtained = *um.MarksObtained
	}
	if um.MaxMarks != nil {
		rec.MaxMarks = *um.MaxMarks
	}
	if um.ExamType != nil {
		if !um.ExamType.IsValid() {
			return Record{}, core.NewValidationError(nil, core.FieldError{Field: "exam_type", Error: examTypeText})
		}
		rec.ExamType = *um.ExamType
	}
	if err = rec.evaluate(); err != nil {
		return Record{}, err
	}
	rec.UpdatedAt = time.Now().UTC()

	rec, err = svc.repo.UpdateMarks(ctx, rec)
	if err != nil {
		if core.IsConflict(err) || core.IsNotFound(err) {
			return Record{}, err
		}
		return Record{}, errors.Wrap(err, "updating marks")
	}
	return rec, nil
}

func (svc *service) DeleteMark(ctx context.Context, teacherID, markID string) error {
	rec, err := svc.repo.GetMarks(ctx, markID)
	if err != nil {
		return err
	}
	if err = svc.guard.Authorize(ctx, teacherID, rec); err != nil {
		return err
	}
	return svc.repo.DeleteMarks(ctx, markID)
}

// ResultsForSemester lists a student's marks for one semester along with the GPA over all of them.
func (svc *service) ResultsForSemester(ctx context.Context, studentID, semesterID string) (SemesterResults, error) {
	recs, err := svc.repo.QueryMarks(ctx, Filter{StudentID: studentID, SemesterID: semesterID})
	if err != nil {
		return SemesterResults{}, errors.Wrap(err, "querying marks")
	}

	subjects := make(map[string]academic.Subject)
	results := make([]SubjectResult, 0, len(recs))
	scores := make([]grading.Score, 0, len(recs))
	for _, rec := range recs {
		subject, ok := subjects[rec.SubjectID]
		if !ok {
			if subject, err = svc.academic.GetSubject(ctx, rec.SubjectID); err != nil && !core.IsNotFound(err) {
				return SemesterResults{}, errors.Wrap(err, "finding subject")
			}
			subjects[rec.SubjectID] = subject
		}
		results = append(results, SubjectResult{
			SubjectID:     rec.SubjectID,
			SubjectName:   subject.Name,
			SubjectCode:   subject.Code,
			ExamType:      rec.ExamType,
			MarksObtained: rec.MarksObtained,
			MaxMarks:      rec.MaxMarks,
			Grade:         rec.Grade,
			Result:        rec.Result,
		})
		scores = append(scores, grading.Score{MarksObtained: rec.MarksObtained, MaxMarks: rec.MaxMarks})
	}

	gpa, err := grading.Aggregate(scores)
	if err != nil {
		return SemesterResults{}, errors.Wrap(err, "computing GPA")
	}
	return SemesterResults{SemesterID: semesterID, Results: results, GPA: gpa}, nil
}

// QueryBySubject lists a subject's marks sheet. Listing is open to any teacher.
func (svc *service) QueryBySubject(ctx context.Context, subjectID string) ([]Record, error) {
	return svc.repo.QueryMarks(ctx, Filter{SubjectID: subjectID})
}

func (svc *service) QueryByStudent(ctx context.Context, studentID string) ([]Record, error) {
	return svc.repo.QueryMarks(ctx, Filter{StudentID: studentID})
}
