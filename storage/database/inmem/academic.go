package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/campus/core/academic"
)

type academicRepository struct {
	db *academicTables
}

var _ academic.Repository = (*academicRepository)(nil)

func NewAcademicRepository(db *DB) academic.Repository {
	return &academicRepository{db: db.academic}
}

// Branches

func (repo *academicRepository) CreateBranch(_ context.Context, b academic.Branch) (academic.Branch, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	b.ID = newID()
	repo.db.branches[b.ID] = &b
	return b, nil
}

func (repo *academicRepository) GetBranch(_ context.Context, id string) (academic.Branch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if b, ok := repo.db.branches[id]; ok {
		return *b, nil
	}
	return academic.Branch{}, academic.ErrBranchNotFound
}

func (repo *academicRepository) QueryBranches(_ context.Context) ([]academic.Branch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	branches := make([]academic.Branch, 0, len(repo.db.branches))
	for _, b := range repo.db.branches {
		branches = append(branches, *b)
	}
	sort.Slice(branches, func(i, j int) bool {
		return strings.ToLower(branches[i].Name) < strings.ToLower(branches[j].Name)
	})
	return branches, nil
}

// Semesters

func (repo *academicRepository) CreateSemester(_ context.Context, sem academic.Semester) (academic.Semester, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, s := range repo.db.semesters {
		if s.Year == sem.Year && s.SemNumber == sem.SemNumber && s.BranchID == sem.BranchID {
			return academic.Semester{}, academic.ErrSemesterExists
		}
	}
	sem.ID = newID()
	sem.SubjectIDs = []string{}
	repo.db.semesters[sem.ID] = &sem
	return sem, nil
}

// semester returns a copy of the Semester with its subject IDs. The caller must hold the lock.
func (repo *academicRepository) semester(s *academic.Semester) academic.Semester {
	sem := *s
	sem.SubjectIDs = make([]string, 0)
	for _, sub := range repo.db.subjects {
		if sub.SemesterID == sem.ID {
			sem.SubjectIDs = append(sem.SubjectIDs, sub.ID)
		}
	}
	sort.Strings(sem.SubjectIDs)
	return sem
}

func (repo *academicRepository) GetSemester(_ context.Context, id string) (academic.Semester, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.semesters[id]; ok {
		return repo.semester(s), nil
	}
	return academic.Semester{}, academic.ErrSemesterNotFound
}

func (repo *academicRepository) QuerySemesters(_ context.Context, branchID string) ([]academic.Semester, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sems := make([]academic.Semester, 0)
	for _, s := range repo.db.semesters {
		if branchID == "" || s.BranchID == branchID {
			sems = append(sems, repo.semester(s))
		}
	}
	sort.Slice(sems, func(i, j int) bool {
		if sems[i].Year != sems[j].Year {
			return sems[i].Year < sems[j].Year
		}
		return sems[i].SemNumber < sems[j].SemNumber
	})
	return sems, nil
}

// Subjects

func (repo *academicRepository) CreateSubject(_ context.Context, sub academic.Subject) (academic.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.semesters[sub.SemesterID]; !ok {
		return academic.Subject{}, academic.ErrSemesterNotFound
	}
	sub.ID = newID()
	sub.StudentIDs = copyStrings(sub.StudentIDs)
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *academicRepository) GetSubject(_ context.Context, id string) (academic.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok {
		s := *sub
		s.StudentIDs = copyStrings(sub.StudentIDs)
		return s, nil
	}
	return academic.Subject{}, academic.ErrSubjectNotFound
}

func (repo *academicRepository) UpdateSubject(_ context.Context, sub academic.Subject) (academic.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.subjects[sub.ID]
	if !ok {
		return academic.Subject{}, academic.ErrSubjectNotFound
	}
	sub.CreatedAt = orig.CreatedAt
	sub.StudentIDs = copyStrings(sub.StudentIDs)
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *academicRepository) QuerySubjects(_ context.Context, filter academic.SubjectFilter) ([]academic.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]academic.Subject, 0)
	for _, sub := range repo.db.subjects {
		if filter.SemesterID != "" && sub.SemesterID != filter.SemesterID {
			continue
		}
		if filter.FacultyID != "" && sub.FacultyID != filter.FacultyID {
			continue
		}
		if filter.StudentID != "" && !containsString(sub.StudentIDs, filter.StudentID) {
			continue
		}
		s := *sub
		s.StudentIDs = copyStrings(sub.StudentIDs)
		subs = append(subs, s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Code < subs[j].Code })
	return subs, nil
}

// Courses

// codeTaken reports whether another Course uses the code. The caller must hold the lock.
func (repo *academicRepository) codeTaken(code, exclID string) bool {
	for _, c := range repo.db.courses {
		if c.ID != exclID && strings.EqualFold(c.Code, code) {
			return true
		}
	}
	return false
}

func (repo *academicRepository) CreateCourse(_ context.Context, c academic.Course) (academic.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.codeTaken(c.Code, "") {
		return academic.Course{}, academic.ErrCourseCodeExists
	}
	c.ID = newID()
	c.StudentIDs = copyStrings(c.StudentIDs)
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *academicRepository) GetCourse(_ context.Context, id string) (academic.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		course := *c
		course.StudentIDs = copyStrings(c.StudentIDs)
		return course, nil
	}
	return academic.Course{}, academic.ErrCourseNotFound
}

func (repo *academicRepository) QueryCourses(_ context.Context, filter academic.CourseFilter) ([]academic.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]academic.Course, 0)
	for _, c := range repo.db.courses {
		if filter.TeacherID != "" && c.TeacherID != filter.TeacherID {
			continue
		}
		if filter.StudentID != "" && !containsString(c.StudentIDs, filter.StudentID) {
			continue
		}
		course := *c
		course.StudentIDs = copyStrings(c.StudentIDs)
		courses = append(courses, course)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, nil
}

func (repo *academicRepository) UpdateCourse(_ context.Context, c academic.Course) (academic.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.courses[c.ID]
	if !ok {
		return academic.Course{}, academic.ErrCourseNotFound
	}
	if repo.codeTaken(c.Code, c.ID) {
		return academic.Course{}, academic.ErrCourseCodeExists
	}
	c.CreatedAt = orig.CreatedAt
	c.StudentIDs = copyStrings(c.StudentIDs)
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *academicRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return academic.ErrCourseNotFound
	}
	delete(repo.db.courses, id)
	return nil
}
