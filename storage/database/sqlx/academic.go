package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/campus/core/academic"
)

var (
	branchColumns   = []string{"id", "name", "code", "created_at", "updated_at"}
	semesterColumns = []string{
		"id", "year", "sem_number", "branch_id", "created_at", "updated_at",
		"ARRAY(SELECT s.id::text FROM subjects s WHERE s.semester_id = semesters.id ORDER BY s.id) AS subject_ids",
	}
	subjectColumns = []string{
		"id", "name", "code", "branch_id", "semester_id", "faculty_id", "student_ids", "created_at", "updated_at",
	}
	courseColumns = []string{"id", "name", "code", "teacher_id", "student_ids", "created_at", "updated_at"}
)

type (
	branchRow struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		Code      string    `db:"code"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	semesterRow struct {
		ID         string         `db:"id"`
		Year       int            `db:"year"`
		SemNumber  int            `db:"sem_number"`
		BranchID   string         `db:"branch_id"`
		SubjectIDs pq.StringArray `db:"subject_ids"`
		CreatedAt  time.Time      `db:"created_at"`
		UpdatedAt  time.Time      `db:"updated_at"`
	}

	subjectRow struct {
		ID         string         `db:"id"`
		Name       string         `db:"name"`
		Code       string         `db:"code"`
		BranchID   string         `db:"branch_id"`
		SemesterID string         `db:"semester_id"`
		FacultyID  null.String    `db:"faculty_id"`
		StudentIDs pq.StringArray `db:"student_ids"`
		CreatedAt  time.Time      `db:"created_at"`
		UpdatedAt  time.Time      `db:"updated_at"`
	}

	courseRow struct {
		ID         string         `db:"id"`
		Name       string         `db:"name"`
		Code       string         `db:"code"`
		TeacherID  null.String    `db:"teacher_id"`
		StudentIDs pq.StringArray `db:"student_ids"`
		CreatedAt  time.Time      `db:"created_at"`
		UpdatedAt  time.Time      `db:"updated_at"`
	}
)

func (r branchRow) toBranch() academic.Branch {
	return academic.Branch{ID: r.ID, Name: r.Name, Code: r.Code, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC()}
}

func (r semesterRow) toSemester() academic.Semester {
	return academic.Semester{
		ID:         r.ID,
		Year:       r.Year,
		SemNumber:  r.SemNumber,
		BranchID:   r.BranchID,
		SubjectIDs: append([]string{}, r.SubjectIDs...),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

func (r subjectRow) toSubject() academic.Subject {
	return academic.Subject{
		ID:         r.ID,
		Name:       r.Name,
		Code:       r.Code,
		BranchID:   r.BranchID,
		SemesterID: r.SemesterID,
		FacultyID:  r.FacultyID.String,
		StudentIDs: append([]string{}, r.StudentIDs...),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

func (r courseRow) toCourse() academic.Course {
	return academic.Course{
		ID:         r.ID,
		Name:       r.Name,
		Code:       r.Code,
		TeacherID:  r.TeacherID.String,
		StudentIDs: append([]string{}, r.StudentIDs...),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

type academicRepository struct {
	db *sqlx.DB
}

var _ academic.Repository = (*academicRepository)(nil)

func NewAcademicRepository(db *sqlx.DB) academic.Repository {
	return &academicRepository{db: db}
}

// get runs a single row query, mapping a missing row to notFound.
func (repo *academicRepository) get(ctx context.Context, dest interface{}, qs sq.SelectBuilder, notFound error) error {
	q, args, err := qs.Limit(1).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if err = repo.db.GetContext(ctx, dest, q, args...); err != nil {
		if isMissing(err) {
			return notFound
		}
		return err
	}
	return nil
}

func (repo *academicRepository) exec(ctx context.Context, qs sq.Sqlizer) (int64, error) {
	q, args, err := qs.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Branches

func (repo *academicRepository) CreateBranch(ctx context.Context, b academic.Branch) (academic.Branch, error) {
	b.ID = newID()
	_, err := repo.exec(ctx, psql.Insert("branches").
		Columns(branchColumns...).
		Values(b.ID, b.Name, b.Code, b.CreatedAt, b.UpdatedAt))
	if err != nil {
		return academic.Branch{}, errors.Wrap(err, "inserting branch")
	}
	return b, nil
}

func (repo *academicRepository) GetBranch(ctx context.Context, id string) (academic.Branch, error) {
	var row branchRow
	qs := psql.Select(branchColumns...).From("branches").Where(sq.Eq{"id": id})
	if err := repo.get(ctx, &row, qs, academic.ErrBranchNotFound); err != nil {
		if err == academic.ErrBranchNotFound {
			return academic.Branch{}, err
		}
		return academic.Branch{}, errors.Wrap(err, "selecting branch")
	}
	return row.toBranch(), nil
}

func (repo *academicRepository) QueryBranches(ctx context.Context) ([]academic.Branch, error) {
	q, args, err := psql.Select(branchColumns...).From("branches").OrderBy("LOWER(name) ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []branchRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting branches")
	}
	branches := make([]academic.Branch, 0, len(rows))
	for _, row := range rows {
		branches = append(branches, row.toBranch())
	}
	return branches, nil
}

// Semesters

func (repo *academicRepository) CreateSemester(ctx context.Context, sem academic.Semester) (academic.Semester, error) {
	sem.ID = newID()
	_, err := repo.exec(ctx, psql.Insert("semesters").
		Columns("id", "year", "sem_number", "branch_id", "created_at", "updated_at").
		Values(sem.ID, sem.Year, sem.SemNumber, sem.BranchID, sem.CreatedAt, sem.UpdatedAt))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return academic.Semester{}, academic.ErrSemesterExists
		case isForeignKeyViolation(err):
			return academic.Semester{}, academic.ErrBranchNotFound
		}
		return academic.Semester{}, errors.Wrap(err, "inserting semester")
	}
	sem.SubjectIDs = []string{}
	return sem, nil
}

func (repo *academicRepository) GetSemester(ctx context.Context, id string) (academic.Semester, error) {
	var row semesterRow
	qs := psql.Select(semesterColumns...).From("semesters").Where(sq.Eq{"id": id})
	if err := repo.get(ctx, &row, qs, academic.ErrSemesterNotFound); err != nil {
		if err == academic.ErrSemesterNotFound {
			return academic.Semester{}, err
		}
		return academic.Semester{}, errors.Wrap(err, "selecting semester")
	}
	return row.toSemester(), nil
}

func (repo *academicRepository) QuerySemesters(ctx context.Context, branchID string) ([]academic.Semester, error) {
	qs := psql.Select(semesterColumns...).From("semesters").OrderBy("year ASC", "sem_number ASC")
	if branchID != "" {
		qs = qs.Where(sq.Eq{"branch_id": branchID})
	}
	q, args, err := qs.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []semesterRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		if isMissing(err) {
			return []academic.Semester{}, nil
		}
		return nil, errors.Wrap(err, "selecting semesters")
	}
	sems := make([]academic.Semester, 0, len(rows))
	for _, row := range rows {
		sems = append(sems, row.toSemester())
	}
	return sems, nil
}

// Subjects

func (repo *academicRepository) CreateSubject(ctx context.Context, sub academic.Subject) (academic.Subject, error) {
	sub.ID = newID()
	_, err := repo.exec(ctx, psql.Insert("subjects").
		Columns(subjectColumns...).
		Values(
			sub.ID, sub.Name, sub.Code, sub.BranchID, sub.SemesterID, nullString(sub.FacultyID),
			stringArray(sub.StudentIDs), sub.CreatedAt, sub.UpdatedAt,
		))
	if err != nil {
		if isForeignKeyViolation(err) {
			return academic.Subject{}, academic.ErrSemesterNotFound
		}
		return academic.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo *academicRepository) GetSubject(ctx context.Context, id string) (academic.Subject, error) {
	var row subjectRow
	qs := psql.Select(subjectColumns...).From("subjects").Where(sq.Eq{"id": id})
	if err := repo.get(ctx, &row, qs, academic.ErrSubjectNotFound); err != nil {
		if err == academic.ErrSubjectNotFound {
			return academic.Subject{}, err
		}
		return academic.Subject{}, errors.Wrap(err, "selecting subject")
	}
	return row.toSubject(), nil
}

func (repo *academicRepository) UpdateSubject(ctx context.Context, sub academic.Subject) (academic.Subject, error) {
	n, err := repo.exec(ctx, psql.Update("subjects").
		SetMap(map[string]interface{}{
			"name":        sub.Name,
			"code":        sub.Code,
			"faculty_id":  nullString(sub.FacultyID),
			"student_ids": stringArray(sub.StudentIDs),
			"updated_at":  sub.UpdatedAt,
		}).
		Where(sq.Eq{"id": sub.ID}))
	if err != nil {
		if isMissing(err) {
			return academic.Subject{}, academic.ErrSubjectNotFound
		}
		return academic.Subject{}, errors.Wrap(err, "updating subject")
	}
	if n == 0 {
		return academic.Subject{}, academic.ErrSubjectNotFound
	}
	return sub, nil
}

func (repo *academicRepository) QuerySubjects(ctx context.Context, filter academic.SubjectFilter) ([]academic.Subject, error) {
	qs := psql.Select(subjectColumns...).From("subjects").OrderBy("code ASC")
	if filter.SemesterID != "" {
		qs = qs.Where(sq.Eq{"semester_id": filter.SemesterID})
	}
	if filter.FacultyID != "" {
		qs = qs.Where(sq.Eq{"faculty_id": filter.FacultyID})
	}
	if filter.StudentID != "" {
		qs = qs.Where("? = ANY(student_ids)", filter.StudentID)
	}
	q, args, err := qs.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []subjectRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		if isMissing(err) {
			return []academic.Subject{}, nil
		}
		return nil, errors.Wrap(err, "selecting subjects")
	}
	subs := make([]academic.Subject, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.toSubject())
	}
	return subs, nil
}

// Courses

func (repo *academicRepository) CreateCourse(ctx context.Context, c academic.Course) (academic.Course, error) {
	c.ID = newID()
	_, err := repo.exec(ctx, psql.Insert("courses").
		Columns(courseColumns...).
		Values(c.ID, c.Name, c.Code, nullString(c.TeacherID), stringArray(c.StudentIDs), c.CreatedAt, c.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return academic.Course{}, academic.ErrCourseCodeExists
		}
		return academic.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *academicRepository) GetCourse(ctx context.Context, id string) (academic.Course, error) {
	var row courseRow
	qs := psql.Select(courseColumns...).From("courses").Where(sq.Eq{"id": id})
	if err := repo.get(ctx, &row, qs, academic.ErrCourseNotFound); err != nil {
		if err == academic.ErrCourseNotFound {
			return academic.Course{}, err
		}
		return academic.Course{}, errors.Wrap(err, "selecting course")
	}
	return row.toCourse(), nil
}

func (repo *academicRepository) QueryCourses(ctx context.Context, filter academic.CourseFilter) ([]academic.Course, error) {
	qs := psql.Select(courseColumns...).From("courses").OrderBy("code ASC")
	if filter.TeacherID != "" {
		qs = qs.Where(sq.Eq{"teacher_id": filter.TeacherID})
	}
	if filter.StudentID != "" {
		qs = qs.Where("? = ANY(student_ids)", filter.StudentID)
	}
	q, args, err := qs.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []courseRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		if isMissing(err) {
			return []academic.Course{}, nil
		}
		return nil, errors.Wrap(err, "selecting courses")
	}
	courses := make([]academic.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCourse())
	}
	return courses, nil
}

func (repo *academicRepository) UpdateCourse(ctx context.Context, c academic.Course) (academic.Course, error) {
	n, err := repo.exec(ctx, psql.Update("courses").
		SetMap(map[string]interface{}{
			"name":        c.Name,
			"code":        c.Code,
			"teacher_id":  nullString(c.TeacherID),
			"student_ids": stringArray(c.StudentIDs),
			"updated_at":  c.UpdatedAt,
		}).
		Where(sq.Eq{"id": c.ID}))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return academic.Course{}, academic.ErrCourseCodeExists
		case isMissing(err):
			return academic.Course{}, academic.ErrCourseNotFound
		}
		return academic.Course{}, errors.Wrap(err, "updating course")
	}
	if n == 0 {
		return academic.Course{}, academic.ErrCourseNotFound
	}
	return c, nil
}

func (repo *academicRepository) DeleteCourse(ctx context.Context, id string) error {
	n, err := repo.exec(ctx, psql.Delete("courses").Where(sq.Eq{"id": id}))
	if err != nil {
		if isMissing(err) {
			return academic.ErrCourseNotFound
		}
		return errors.Wrap(err, "deleting course")
	}
	if n == 0 {
		return academic.ErrCourseNotFound
	}
	return nil
}
