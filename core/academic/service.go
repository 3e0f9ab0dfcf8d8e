package academic

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

var (
	// errors
	ErrBranchNotFound   = core.NewNotFoundError("branch not found")
	ErrSemesterNotFound = core.NewNotFoundError("semester not found")
	ErrSubjectNotFound  = core.NewNotFoundError("subject not found")
	ErrCourseNotFound   = core.NewNotFoundError("course not found")
	ErrSemesterExists   = core.NewConflictError("a semester with this year and number already exists for this branch")
	ErrCourseCodeExists = core.NewConflictError("a course with this code already exists")
)

type (
	Repository interface {
		CreateBranch(ctx context.Context, b Branch) (Branch, error)
		GetBranch(ctx context.Context, id string) (Branch, error)
		QueryBranches(ctx context.Context) ([]Branch, error)

		// CreateSemester fails with ErrSemesterExists if (year, sem_number, branch) is taken.
		CreateSemester(ctx context.Context, sem Semester) (Semester, error)
		GetSemester(ctx context.Context, id string) (Semester, error)
		// QuerySemesters returns all semesters when branchID is empty.
		QuerySemesters(ctx context.Context, branchID string) ([]Semester, error)

		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		QuerySubjects(ctx context.Context, filter SubjectFilter) ([]Subject, error)

		// CreateCourse and UpdateCourse fail with ErrCourseCodeExists if the code is taken.
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		QueryCourses(ctx context.Context, filter CourseFilter) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
	}

	Service interface {
		CreateBranch(ctx context.Context, nb NewBranch) (Branch, error)
		QueryBranches(ctx context.Context) ([]Branch, error)

		CreateSemester(ctx context.Context, ns NewSemester) (Semester, error)
		GetSemester(ctx context.Context, id string) (Semester, error)
		QuerySemesters(ctx context.Context, branchID string) ([]Semester, error)

		CreateSubject(ctx context.Context, ns NewSubject) (Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		AssignFaculty(ctx context.Context, subjectID, facultyID string) (Subject, error)
		AssignStudents(ctx context.Context, subjectID string, studentIDs []string) (Subject, error)
		QuerySubjects(ctx context.Context, filter SubjectFilter) ([]Subject, error)
		StudentsForSubject(ctx context.Context, subjectID string) (Subject, []user.User, error)

		CreateCourse(ctx context.Context, nc NewCourse) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		QueryCourses(ctx context.Context, filter CourseFilter) ([]Course, error)
		UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
	}

	service struct {
		repo   Repository
		usrSvc user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service) Service {
	return &service{repo: repo, usrSvc: usrSvc}
}

// Branches

func (svc *service) CreateBranch(ctx context.Context, nb NewBranch) (Branch, error) {
	nb.Clean()
	now := time.Now().UTC()
	b, err := svc.repo.CreateBranch(ctx, Branch{Name: nb.Name, Code: nb.Code, CreatedAt: now, UpdatedAt: now})
	return b, errors.Wrap(err, "creating branch")
}

func (svc *service) QueryBranches(ctx context.Context) ([]Branch, error) {
	return svc.repo.QueryBranches(ctx)
}

// Semesters

func (svc *service) CreateSemester(ctx context.Context, ns NewSemester) (Semester, error) {
	if _, err := svc.repo.GetBranch(ctx, ns.BranchID); err != nil {
		return Semester{}, err
	}
	now := time.Now().UTC()
	sem, err := svc.repo.CreateSemester(ctx, Semester{
		Year:       ns.Year,
		SemNumber:  ns.SemNumber,
		BranchID:   ns.BranchID,
		SubjectIDs: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		if errors.Cause(err) == ErrSemesterExists {
			return Semester{}, err
		}
		return Semester{}, errors.Wrap(err, "creating semester")
	}
	return sem, nil
}

func (svc *service) GetSemester(ctx context.Context, id string) (Semester, error) {
	return svc.repo.GetSemester(ctx, id)
}

func (svc *service) QuerySemesters(ctx context.Context, branchID string) ([]Semester, error) {
	return svc.repo.QuerySemesters(ctx, branchID)
}

// Subjects

func (svc *service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	ns.Clean()
	sem, err := svc.repo.GetSemester(ctx, ns.SemesterID)
	if err != nil {
		return Subject{}, err
	}
	if ns.FacultyID != "" {
		if _, err = svc.usrSvc.GetActive(ctx, ns.FacultyID, user.RoleTeacher); err != nil {
			return Subject{}, err
		}
	}
	now := time.Now().UTC()
	sub, err := svc.repo.CreateSubject(ctx, Subject{
		Name:       ns.Name,
		Code:       ns.Code,
		BranchID:   sem.BranchID,
		SemesterID: sem.ID,
		FacultyID:  ns.FacultyID,
		StudentIDs: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	return sub, errors.Wrap(err, "creating subject")
}

func (svc *service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *service) AssignFaculty(ctx context.Context, subjectID, facultyID string) (Subject, error) {
	sub, err := svc.repo.GetSubject(ctx, subjectID)
	if err != nil {
		return Subject{}, err
	}
	if _, err = svc.usrSvc.GetActive(ctx, facultyID, user.RoleTeacher); err != nil {
		return Subject{}, err
	}
	sub.FacultyID = facultyID
	sub.UpdatedAt = time.Now().UTC()
	sub, err = svc.repo.UpdateSubject(ctx, sub)
	return sub, errors.Wrap(err, "assigning faculty")
}

func (svc *service) AssignStudents(ctx context.Context, subjectID string, studentIDs []string) (Subject, error) {
	sub, err := svc.repo.GetSubject(ctx, subjectID)
	if err != nil {
		return Subject{}, err
	}
	ids, err := svc.activeIDs(ctx, studentIDs, user.RoleStudent)
	if err != nil {
		return Subject{}, err
	}
	sub.StudentIDs = ids
	sub.UpdatedAt = time.Now().UTC()
	sub, err = svc.repo.UpdateSubject(ctx, sub)
	return sub, errors.Wrap(err, "assigning students")
}

func (svc *service) QuerySubjects(ctx context.Context, filter SubjectFilter) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx, filter)
}

// StudentsForSubject lists the active students of the subject's branch and year of study.
func (svc *service) StudentsForSubject(ctx context.Context, subjectID string) (Subject, []user.User, error) {
	sub, err := svc.repo.GetSubject(ctx, subjectID)
	if err != nil {
		return Subject{}, nil, err
	}
	sem, err := svc.repo.GetSemester(ctx, sub.SemesterID)
	if err != nil {
		return Subject{}, nil, err
	}
	students, err := svc.usrSvc.Query(
		ctx,
		user.QueryFilter{Role: user.RoleStudent, Status: user.StatusActive, Branch: sem.BranchID, Year: sem.Year},
		[]core.DBOrdering{{Field: "name", Ascending: true}},
	)
	if err != nil {
		return Subject{}, nil, errors.Wrap(err, "querying students")
	}
	return sub, students, nil
}

// Courses

func (svc *service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	nc.Clean()
	if nc.TeacherID != "" {
		if _, err := svc.usrSvc.GetActive(ctx, nc.TeacherID, user.RoleTeacher); err != nil {
			return Course{}, err
		}
	}
	studentIDs, err := svc.activeIDs(ctx, nc.StudentIDs, user.RoleStudent)
	if err != nil {
		return Course{}, err
	}
	now := time.Now().UTC()
	c, err := svc.repo.CreateCourse(ctx, Course{
		Name:       nc.Name,
		Code:       nc.Code,
		TeacherID:  nc.TeacherID,
		StudentIDs: studentIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		if errors.Cause(err) == ErrCourseCodeExists {
			return Course{}, err
		}
		return Course{}, errors.Wrap(err, "creating course")
	}
	return c, nil
}

func (svc *service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) QueryCourses(ctx context.Context, filter CourseFilter) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *service) UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if uc.Name != nil {
		c.Name = core.CleanString(*uc.Name)
	}
	if uc.Code != nil {
		c.Code = core.CleanString(*uc.Code)
	}
	if uc.TeacherID != nil {
		teacherID := core.CleanString(*uc.TeacherID)
		if teacherID != "" {
			if _, err = svc.usrSvc.GetActive(ctx, teacherID, user.RoleTeacher); err != nil {
				return Course{}, err
			}
		}
		c.TeacherID = teacherID
	}
	if uc.StudentIDs != nil {
		if c.StudentIDs, err = svc.activeIDs(ctx, uc.StudentIDs, user.RoleStudent); err != nil {
			return Course{}, err
		}
	}
	c.UpdatedAt = time.Now().UTC()

	c, err = svc.repo.UpdateCourse(ctx, c)
	if err != nil {
		if errors.Cause(err) == ErrCourseCodeExists {
			return Course{}, err
		}
		return Course{}, errors.Wrap(err, "updating course")
	}
	return c, nil
}

func (svc *service) DeleteCourse(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}

// activeIDs checks that every ID belongs to an active User with the given role, dropping duplicates.
func (svc *service) activeIDs(ctx context.Context, ids []string, role user.Role) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		id = core.CleanString(id)
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		if _, err := svc.usrSvc.GetActive(ctx, id, role); err != nil {
			return nil, err
		}
		seen[id] = struct{}{}
		clean = append(clean, id)
	}
	return clean, nil
}
