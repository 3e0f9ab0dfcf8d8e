package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/grading"
	"github.com/trezcool/campus/core/marks"
)

var marksColumns = []string{
	"id", "student_id", "subject_id", "semester_id", "exam_type", "marks_obtained", "max_marks",
	"grade", "percentage", "result", "created_at", "updated_at",
}

type marksRow struct {
	ID            string    `db:"id"`
	StudentID     string    `db:"student_id"`
	SubjectID     string    `db:"subject_id"`
	SemesterID    string    `db:"semester_id"`
	ExamType      string    `db:"exam_type"`
	MarksObtained float64   `db:"marks_obtained"`
	MaxMarks      float64   `db:"max_marks"`
	Grade         string    `db:"grade"`
	Percentage    float64   `db:"percentage"`
	Result        string    `db:"result"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r marksRow) toRecord() marks.Record {
	return marks.Record{
		ID:            r.ID,
		StudentID:     r.StudentID,
		SubjectID:     r.SubjectID,
		SemesterID:    r.SemesterID,
		ExamType:      marks.ExamType(r.ExamType),
		MarksObtained: r.MarksObtained,
		MaxMarks:      r.MaxMarks,
		Grade:         grading.Grade(r.Grade),
		Percentage:    r.Percentage,
		Result:        grading.Result(r.Result),
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type marksRepository struct {
	db *sqlx.DB
}

var _ marks.Repository = (*marksRepository)(nil)

func NewMarksRepository(db *sqlx.DB) marks.Repository {
	return &marksRepository{db: db}
}

func (repo *marksRepository) UpsertMarks(ctx context.Context, rec marks.Record) (marks.Record, error) {
	q, args, err := psql.Insert("marks").
		Columns(marksColumns...).
		Values(
			newID(), rec.StudentID, rec.SubjectID, rec.SemesterID, rec.ExamType, rec.MarksObtained, rec.MaxMarks,
			rec.Grade, rec.Percentage, rec.Result, rec.CreatedAt, rec.UpdatedAt,
		).
		Suffix(
			"ON CONFLICT (student_id, subject_id, semester_id, exam_type) DO UPDATE SET " +
				"marks_obtained = EXCLUDED.marks_obtained, max_marks = EXCLUDED.max_marks, grade = EXCLUDED.grade, " +
				"percentage = EXCLUDED.percentage, result = EXCLUDED.result, updated_at = EXCLUDED.updated_at " +
				"RETURNING " + joinColumns(marksColumns),
		).
		ToSql()
	if err != nil {
		return marks.Record{}, errors.Wrap(err, "building query")
	}

	var row marksRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return marks.Record{}, errors.Wrap(err, "upserting marks")
	}
	return row.toRecord(), nil
}

func (repo *marksRepository) GetMarks(ctx context.Context, id string) (marks.Record, error) {
	q, args, err := psql.Select(marksColumns...).From("marks").Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return marks.Record{}, errors.Wrap(err, "building query")
	}
	var row marksRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isMissing(err) {
			return marks.Record{}, marks.ErrNotFound
		}
		return marks.Record{}, errors.Wrap(err, "selecting marks")
	}
	return row.toRecord(), nil
}

func (repo *marksRepository) UpdateMarks(ctx context.Context, rec marks.Record) (marks.Record, error) {
	q, args, err := psql.Update("marks").
		SetMap(map[string]interface{}{
			"exam_type":      rec.ExamType,
			"marks_obtained": rec.MarksObtained,
			"max_marks":      rec.MaxMarks,
			"grade":          rec.Grade,
			"percentage":     rec.Percentage,
			"result":         rec.Result,
			"updated_at":     rec.UpdatedAt,
		}).
		Where(sq.Eq{"id": rec.ID}).
		Suffix("RETURNING " + joinColumns(marksColumns)).
		ToSql()
	if err != nil {
		return marks.Record{}, errors.Wrap(err, "building query")
	}

	var row marksRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		switch {
		case isUniqueViolation(err):
			return marks.Record{}, marks.ErrMarksExists
		case isMissing(err):
			return marks.Record{}, marks.ErrNotFound
		}
		return marks.Record{}, errors.Wrap(err, "updating marks")
	}
	return row.toRecord(), nil
}

func (repo *marksRepository) DeleteMarks(ctx context.Context, id string) error {
	q, args, err := psql.Delete("marks").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isMissing(err) {
			return marks.ErrNotFound
		}
		return errors.Wrap(err, "deleting marks")
	}
	return checkAffected(res, marks.ErrNotFound)
}

func (repo *marksRepository) QueryMarks(ctx context.Context, filter marks.Filter) ([]marks.Record, error) {
	qs := psql.Select(marksColumns...).From("marks").OrderBy("created_at DESC", "id ASC")
	if filter.StudentID != "" {
		qs = qs.Where(sq.Eq{"student_id": filter.StudentID})
	}
	if filter.SubjectID != "" {
		qs = qs.Where(sq.Eq{"subject_id": filter.SubjectID})
	}
	if filter.SemesterID != "" {
		qs = qs.Where(sq.Eq{"semester_id": filter.SemesterID})
	}
	q, args, err := qs.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []marksRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		if isMissing(err) {
			return []marks.Record{}, nil
		}
		return nil, errors.Wrap(err, "selecting marks")
	}
	recs := make([]marks.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toRecord())
	}
	return recs, nil
}
