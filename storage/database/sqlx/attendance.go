package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/campus/core/attendance"
)

var (
	summaryColumns = []string{
		"id", "student_id", "month", "year", "total_days", "present_days", "absent_days", "percentage",
		"recorded_by", "created_at", "updated_at",
	}
	attendanceRecordColumns = []string{"id", "student_id", "course_id", "teacher_id", "date", "status", "created_at"}
)

type (
	summaryRow struct {
		ID          string      `db:"id"`
		StudentID   string      `db:"student_id"`
		Month       int         `db:"month"`
		Year        int         `db:"year"`
		TotalDays   int         `db:"total_days"`
		PresentDays int         `db:"present_days"`
		AbsentDays  int         `db:"absent_days"`
		Percentage  float64     `db:"percentage"`
		RecordedBy  null.String `db:"recorded_by"`
		CreatedAt   time.Time   `db:"created_at"`
		UpdatedAt   time.Time   `db:"updated_at"`
	}

	attendanceRecordRow struct {
		ID        string      `db:"id"`
		StudentID string      `db:"student_id"`
		CourseID  null.String `db:"course_id"`
		TeacherID null.String `db:"teacher_id"`
		Date      time.Time   `db:"date"`
		Status    string      `db:"status"`
		CreatedAt time.Time   `db:"created_at"`
	}
)

func (r summaryRow) toSummary() attendance.Summary {
	return attendance.Summary{
		ID:          r.ID,
		StudentID:   r.StudentID,
		Month:       attendance.Month(r.Month),
		Year:        r.Year,
		TotalDays:   r.TotalDays,
		PresentDays: r.PresentDays,
		AbsentDays:  r.AbsentDays,
		Percentage:  r.Percentage,
		RecordedBy:  r.RecordedBy.String,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (r attendanceRecordRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		StudentID: r.StudentID,
		CourseID:  r.CourseID.String,
		TeacherID: r.TeacherID.String,
		Date:      r.Date.UTC(),
		Status:    attendance.Status(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertSummary(ctx context.Context, s attendance.Summary) (attendance.Summary, error) {
	q, args, err := psql.Insert("attendance_summaries").
		Columns(summaryColumns...).
		Values(
			newID(), s.StudentID, int(s.Month), s.Year, s.TotalDays, s.PresentDays, s.AbsentDays, s.Percentage,
			nullString(s.RecordedBy), s.CreatedAt, s.UpdatedAt,
		).
		Suffix(
			"ON CONFLICT (student_id, month, year) DO UPDATE SET " +
				"total_days = EXCLUDED.total_days, present_days = EXCLUDED.present_days, " +
				"absent_days = EXCLUDED.absent_days, percentage = EXCLUDED.percentage, " +
				"recorded_by = EXCLUDED.recorded_by, updated_at = EXCLUDED.updated_at " +
				"RETURNING " + joinColumns(summaryColumns),
		).
		ToSql()
	if err != nil {
		return attendance.Summary{}, errors.Wrap(err, "building query")
	}

	var row summaryRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return attendance.Summary{}, errors.Wrap(err, "upserting attendance summary")
	}
	return row.toSummary(), nil
}

func (repo *attendanceRepository) QuerySummaries(ctx context.Context, studentID string) ([]attendance.Summary, error) {
	q, args, err := psql.Select(summaryColumns...).
		From("attendance_summaries").
		Where(sq.Eq{"student_id": studentID}).
		OrderBy("year DESC", "month DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []summaryRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		if isMissing(err) {
			return []attendance.Summary{}, nil
		}
		return nil, errors.Wrap(err, "selecting attendance summaries")
	}
	sums := make([]attendance.Summary, 0, len(rows))
	for _, row := range rows {
		sums = append(sums, row.toSummary())
	}
	return sums, nil
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	rec.ID = newID()
	q, args, err := psql.Insert("attendance_records").
		Columns(attendanceRecordColumns...).
		Values(rec.ID, rec.StudentID, nullString(rec.CourseID), nullString(rec.TeacherID), rec.Date, rec.Status, rec.CreatedAt).
		ToSql()
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	qs := psql.Select(attendanceRecordColumns...).From("attendance_records").OrderBy("date DESC", "created_at DESC")
	if filter.StudentID != "" {
		qs = qs.Where(sq.Eq{"student_id": filter.StudentID})
	}
	if filter.CourseID != "" {
		qs = qs.Where(sq.Eq{"course_id": filter.CourseID})
	}
	q, args, err := qs.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []attendanceRecordRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		if isMissing(err) {
			return []attendance.Record{}, nil
		}
		return nil, errors.Wrap(err, "selecting attendance records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toRecord())
	}
	return recs, nil
}
