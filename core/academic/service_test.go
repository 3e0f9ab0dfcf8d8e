package academic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/tests"
)

func Test_service_semesters(t *testing.T) {
	app := testutil.NewApp()
	ctx := context.Background()
	svc := app.AcademicSvc

	branch, err := svc.CreateBranch(ctx, academic.NewBranch{Name: " Computer Science ", Code: "CSE"})
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", branch.Name)

	sem, err := svc.CreateSemester(ctx, academic.NewSemester{Year: 1, SemNumber: 1, BranchID: branch.ID})
	require.NoError(t, err)
	assert.Empty(t, sem.SubjectIDs)

	_, err = svc.CreateSemester(ctx, academic.NewSemester{Year: 1, SemNumber: 1, BranchID: branch.ID})
	assert.Equal(t, academic.ErrSemesterExists, err)

	_, err = svc.CreateSemester(ctx, academic.NewSemester{Year: 1, SemNumber: 1, BranchID: "nope"})
	assert.True(t, core.IsNotFound(err))

	_, err = svc.CreateSemester(ctx, academic.NewSemester{Year: 1, SemNumber: 2, BranchID: branch.ID})
	require.NoError(t, err)

	sems, err := svc.QuerySemesters(ctx, branch.ID)
	require.NoError(t, err)
	assert.Len(t, sems, 2)

	branches, err := svc.QueryBranches(ctx)
	require.NoError(t, err)
	assert.Len(t, branches, 1)
}

func Test_service_subjects(t *testing.T) {
	app := testutil.NewApp()
	ctx := context.Background()
	svc := app.AcademicSvc

	teacher := testutil.CreateUser(t, app.UsrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, user.StatusActive)
	pendingTeacher := testutil.CreateUser(t, app.UsrRepo, "Pending", "pending@test.cd", "", user.RoleTeacher, user.StatusPending)

	branch, err := svc.CreateBranch(ctx, academic.NewBranch{Name: "Computer Science", Code: "CSE"})
	require.NoError(t, err)
	sem, err := svc.CreateSemester(ctx, academic.NewSemester{Year: 2, SemNumber: 1, BranchID: branch.ID})
	require.NoError(t, err)

	alice := testutil.CreateStudent(t, app.UsrRepo, "Alice", "alice@test.cd", branch.ID, 2)
	bob := testutil.CreateStudent(t, app.UsrRepo, "Bob", "bob@test.cd", branch.ID, 2)
	testutil.CreateStudent(t, app.UsrRepo, "Carl", "carl@test.cd", branch.ID, 3)

	_, err = svc.CreateSubject(ctx, academic.NewSubject{Name: "Algorithms", Code: "CS201", SemesterID: "nope"})
	assert.True(t, core.IsNotFound(err))
	_, err = svc.CreateSubject(ctx, academic.NewSubject{Name: "Algorithms", Code: "CS201", SemesterID: sem.ID, FacultyID: pendingTeacher.ID})
	assert.True(t, core.IsNotFound(err))

	sub, err := svc.CreateSubject(ctx, academic.NewSubject{Name: "Algorithms", Code: "CS201", SemesterID: sem.ID})
	require.NoError(t, err)
	assert.Equal(t, branch.ID, sub.BranchID)
	assert.Empty(t, sub.FacultyID)

	t.Run("assign faculty", func(t *testing.T) {
		_, err := svc.AssignFaculty(ctx, sub.ID, alice.ID)
		assert.True(t, core.IsNotFound(err))

		updated, err := svc.AssignFaculty(ctx, sub.ID, teacher.ID)
		require.NoError(t, err)
		assert.Equal(t, teacher.ID, updated.FacultyID)

		subs, err := svc.QuerySubjects(ctx, academic.SubjectFilter{FacultyID: teacher.ID})
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, sub.ID, subs[0].ID)
	})

	t.Run("assign students", func(t *testing.T) {
		_, err := svc.AssignStudents(ctx, sub.ID, []string{alice.ID, teacher.ID})
		assert.True(t, core.IsNotFound(err))

		updated, err := svc.AssignStudents(ctx, sub.ID, []string{alice.ID, alice.ID, bob.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{alice.ID, bob.ID}, updated.StudentIDs)

		subs, err := svc.QuerySubjects(ctx, academic.SubjectFilter{StudentID: bob.ID})
		require.NoError(t, err)
		assert.Len(t, subs, 1)
	})

	t.Run("students of the subject's branch and year", func(t *testing.T) {
		got, students, err := svc.StudentsForSubject(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, sub.ID, got.ID)
		require.Len(t, students, 2)
		assert.Equal(t, "Alice", students[0].Name)
		assert.Equal(t, "Bob", students[1].Name)

		_, _, err = svc.StudentsForSubject(ctx, "nope")
		assert.True(t, core.IsNotFound(err))
	})
}

func Test_service_courses(t *testing.T) {
	app := testutil.NewApp()
	ctx := context.Background()
	svc := app.AcademicSvc

	teacher := testutil.CreateUser(t, app.UsrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, user.StatusActive)
	alice := testutil.CreateStudent(t, app.UsrRepo, "Alice", "alice@test.cd", "cse", 2)

	course, err := svc.CreateCourse(ctx, academic.NewCourse{Name: "Networks", Code: "NET", TeacherID: teacher.ID, StudentIDs: []string{alice.ID}})
	require.NoError(t, err)

	_, err = svc.CreateCourse(ctx, academic.NewCourse{Name: "Networks II", Code: "NET"})
	assert.True(t, core.IsConflict(err))

	other, err := svc.CreateCourse(ctx, academic.NewCourse{Name: "Compilers", Code: "CMP"})
	require.NoError(t, err)

	t.Run("filters", func(t *testing.T) {
		byTeacher, err := svc.QueryCourses(ctx, academic.CourseFilter{TeacherID: teacher.ID})
		require.NoError(t, err)
		require.Len(t, byTeacher, 1)
		assert.Equal(t, course.ID, byTeacher[0].ID)

		byStudent, err := svc.QueryCourses(ctx, academic.CourseFilter{StudentID: alice.ID})
		require.NoError(t, err)
		assert.Len(t, byStudent, 1)
	})

	t.Run("update", func(t *testing.T) {
		code := "NET"
		_, err := svc.UpdateCourse(ctx, other.ID, academic.UpdateCourse{Code: &code})
		assert.True(t, core.IsConflict(err))

		name, noTeacher := "Advanced Compilers", ""
		updated, err := svc.UpdateCourse(ctx, other.ID, academic.UpdateCourse{Name: &name, TeacherID: &noTeacher, StudentIDs: []string{alice.ID}})
		require.NoError(t, err)
		assert.Equal(t, "Advanced Compilers", updated.Name)
		assert.Equal(t, "CMP", updated.Code)
		assert.Equal(t, []string{alice.ID}, updated.StudentIDs)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.DeleteCourse(ctx, other.ID))
		_, err := svc.GetCourse(ctx, other.ID)
		assert.True(t, core.IsNotFound(err))
		assert.True(t, core.IsNotFound(svc.DeleteCourse(ctx, other.ID)))
	})
}
