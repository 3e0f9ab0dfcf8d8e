package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/campus/apps/api/echo"
	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/grading"
	"github.com/trezcool/campus/core/marks"
	"github.com/trezcool/campus/core/material"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/tests"
)

type portalFixture struct {
	teacher, otherTeacher, student, classmate user.User
	branch                                    academic.Branch
	semester                                  academic.Semester
	subject                                   academic.Subject
	course                                    academic.Course
}

func newPortalFixture(t *testing.T, app *testutil.App) portalFixture {
	ctx := context.Background()
	var fx portalFixture
	var err error

	fx.teacher = testutil.CreateUser(t, app.UsrRepo, "Faculty", "faculty@test.cd", "", user.RoleTeacher, user.StatusActive)
	fx.otherTeacher = testutil.CreateUser(t, app.UsrRepo, "Intruder", "intruder@test.cd", "", user.RoleTeacher, user.StatusActive)

	fx.branch, err = app.AcademicSvc.CreateBranch(ctx, academic.NewBranch{Name: "Computer Science", Code: "CSE"})
	require.NoError(t, err)
	fx.semester, err = app.AcademicSvc.CreateSemester(ctx, academic.NewSemester{Year: 2, SemNumber: 1, BranchID: fx.branch.ID})
	require.NoError(t, err)
	fx.subject, err = app.AcademicSvc.CreateSubject(ctx, academic.NewSubject{
		Name: "Algorithms", Code: "CS201", SemesterID: fx.semester.ID, FacultyID: fx.teacher.ID,
	})
	require.NoError(t, err)

	fx.student = testutil.CreateStudent(t, app.UsrRepo, "Alice", "alice@test.cd", fx.branch.ID, 2)
	fx.classmate = testutil.CreateStudent(t, app.UsrRepo, "Bob", "bob@test.cd", fx.branch.ID, 2)
	testutil.CreateStudent(t, app.UsrRepo, "Carl", "carl@test.cd", fx.branch.ID, 3)

	fx.course, err = app.AcademicSvc.CreateCourse(ctx, academic.NewCourse{
		Name: "Databases", Code: "DB101", TeacherID: fx.teacher.ID, StudentIDs: []string{fx.student.ID},
	})
	require.NoError(t, err)
	return fx
}

func Test_teacherApi_subjects(t *testing.T) {
	srv, app := setup(t)
	fx := newPortalFixture(t, app)
	token := getToken(t, app, fx.teacher)

	rec := do(srv, http.MethodGet, "/api/teacher/subjects", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var subs []academic.Subject
	unmarchall(t, rec, &subs)
	require.Len(t, subs, 1)
	assert.Equal(t, fx.subject.ID, subs[0].ID)

	rec = do(srv, http.MethodGet, "/api/teacher/subjects", getToken(t, app, fx.otherTeacher))
	require.Equal(t, http.StatusOK, rec.Code)
	unmarchall(t, rec, &subs)
	assert.Empty(t, subs)

	rec = do(srv, http.MethodGet, "/api/teacher/students/"+fx.subject.ID, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SubjectStudentsResponse
	unmarchall(t, rec, &resp)
	require.Len(t, resp.Students, 2)
	assert.Equal(t, fx.student.ID, resp.Students[0].ID)
	assert.Equal(t, fx.classmate.ID, resp.Students[1].ID)
}

func Test_teacherApi_marks(t *testing.T) {
	srv, app := setup(t)
	fx := newPortalFixture(t, app)
	token := getToken(t, app, fx.teacher)
	intruderToken := getToken(t, app, fx.otherTeacher)

	submission := marks.Submission{
		SubjectID:  fx.subject.ID,
		SemesterID: fx.semester.ID,
		ExamType:   marks.ExamMid1,
		Entries: []marks.Entry{
			{StudentID: fx.student.ID, MarksObtained: 45, MaxMarks: 100},
			{StudentID: "unknown", MarksObtained: 10},
			{StudentID: fx.classmate.ID, MarksObtained: 120, MaxMarks: 100},
		},
	}

	t.Run("only the faculty may upload", func(t *testing.T) {
		rec := do(srv, http.MethodPost, "/api/teacher/marks/upload", intruderToken, marchallObj(t, submission))
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)

		recs, err := app.MarksSvc.QueryBySubject(context.Background(), fx.subject.ID)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("invalid exam type", func(t *testing.T) {
		bad := submission
		bad.ExamType = "Final"
		rec := do(srv, http.MethodPost, "/api/teacher/marks/upload", token, marchallObj(t, bad))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	var saved marks.Record
	t.Run("best-effort batch", func(t *testing.T) {
		rec := do(srv, http.MethodPost, "/api/teacher/marks/upload", token, marchallObj(t, submission))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res marks.BatchResult
		unmarchall(t, rec, &res)
		require.Len(t, res.Saved, 1)
		require.Len(t, res.Failed, 2)
		assert.Equal(t, 1, res.Failed[0].Index)
		assert.Equal(t, 2, res.Failed[1].Index)

		saved = res.Saved[0]
		assert.Equal(t, fx.student.ID, saved.StudentID)
		assert.Equal(t, 45.0, saved.Percentage)
		assert.Equal(t, grading.GradeF, saved.Grade)
		assert.Equal(t, grading.Pass, saved.Result)
	})

	t.Run("resubmission overwrites", func(t *testing.T) {
		again := submission
		again.Entries = []marks.Entry{{StudentID: fx.student.ID, MarksObtained: 30}}
		rec := do(srv, http.MethodPost, "/api/teacher/marks/upload", token, marchallObj(t, again))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res marks.BatchResult
		unmarchall(t, rec, &res)
		require.Len(t, res.Saved, 1)
		assert.Equal(t, saved.ID, res.Saved[0].ID)
		assert.Equal(t, grading.GradeF, res.Saved[0].Grade)
		assert.Equal(t, grading.Fail, res.Saved[0].Result)
	})

	obtained := 85.0
	update := marshalUpdate(t, marks.UpdateMarks{MarksObtained: &obtained})

	t.Run("intruder cannot update", func(t *testing.T) {
		rec := do(srv, http.MethodPut, "/api/teacher/marks/"+saved.ID, intruderToken, update)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		recs, err := app.MarksSvc.QueryBySubject(context.Background(), fx.subject.ID)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, 30.0, recs[0].MarksObtained)
	})

	t.Run("faculty updates", func(t *testing.T) {
		rec := do(srv, http.MethodPut, "/api/teacher/marks/"+saved.ID, token, update)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated marks.Record
		unmarchall(t, rec, &updated)
		assert.Equal(t, grading.GradeA, updated.Grade)
		assert.Equal(t, grading.Pass, updated.Result)
	})

	t.Run("marks sheet", func(t *testing.T) {
		rec := do(srv, http.MethodGet, "/api/teacher/marks/"+fx.subject.ID, intruderToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var recs []marks.Record
		unmarchall(t, rec, &recs)
		assert.Len(t, recs, 1)
	})

	t.Run("student results", func(t *testing.T) {
		rec := do(srv, http.MethodGet, "/api/student/results/"+fx.semester.ID, getToken(t, app, fx.student))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res marks.SemesterResults
		unmarchall(t, rec, &res)
		require.Len(t, res.Results, 1)
		assert.Equal(t, "CS201", res.Results[0].SubjectCode)
		assert.Equal(t, 9.0, res.GPA)
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(srv, http.MethodDelete, "/api/teacher/marks/"+saved.ID, intruderToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = do(srv, http.MethodDelete, "/api/teacher/marks/"+saved.ID, token)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = do(srv, http.MethodDelete, "/api/teacher/marks/"+saved.ID, token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func marshalUpdate(t *testing.T, um marks.UpdateMarks) []byte {
	return marchallObj(t, um)
}

func Test_teacherApi_attendance(t *testing.T) {
	srv, app := setup(t)
	fx := newPortalFixture(t, app)
	token := getToken(t, app, fx.teacher)
	studentToken := getToken(t, app, fx.student)

	summary := func(month string, total, present int) []byte {
		return marchallObj(t, map[string]interface{}{
			"student_id":   fx.student.ID,
			"month":        month,
			"year":         2024,
			"total_days":   total,
			"present_days": present,
		})
	}

	t.Run("invalid summaries", func(t *testing.T) {
		for _, body := range [][]byte{summary("January", 0, 0), summary("January", 10, 11), summary("Smarch", 10, 5), summary("January", 40, 20)} {
			rec := do(srv, http.MethodPost, "/api/teacher/attendance-summary", token, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		}
	})

	var first attendance.Summary
	t.Run("submit", func(t *testing.T) {
		rec := do(srv, http.MethodPost, "/api/teacher/attendance-summary", token, summary("January", 20, 18))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarchall(t, rec, &first)
		assert.Equal(t, 2, first.AbsentDays)
		assert.Equal(t, 90.0, first.Percentage)
		assert.Equal(t, fx.teacher.ID, first.RecordedBy)
	})

	t.Run("resubmit upserts", func(t *testing.T) {
		rec := do(srv, http.MethodPost, "/api/teacher/attendance-summary", token, summary("jan", 20, 19))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var second attendance.Summary
		unmarchall(t, rec, &second)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 95.0, second.Percentage)

		rec = do(srv, http.MethodGet, "/api/student/attendance-summary", studentToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var sums []attendance.Summary
		unmarchall(t, rec, &sums)
		require.Len(t, sums, 1)
		assert.Equal(t, attendance.Month(1), sums[0].Month)
	})

	t.Run("daily records", func(t *testing.T) {
		body := marchallObj(t, attendance.NewRecord{StudentID: fx.student.ID, CourseID: fx.course.ID, Status: attendance.StatusPresent})
		rec := do(srv, http.MethodPost, "/api/teacher/attendance", token, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		body = marchallObj(t, attendance.NewRecord{StudentID: fx.student.ID, CourseID: fx.course.ID, Status: "Late"})
		rec = do(srv, http.MethodPost, "/api/teacher/attendance", token, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(srv, http.MethodGet, "/api/teacher/attendance/"+fx.course.ID, token)
		require.Equal(t, http.StatusOK, rec.Code)
		var recs []attendance.Record
		unmarchall(t, rec, &recs)
		assert.Len(t, recs, 1)

		rec = do(srv, http.MethodGet, "/api/student/attendance", studentToken)
		require.Equal(t, http.StatusOK, rec.Code)
		unmarchall(t, rec, &recs)
		require.Len(t, recs, 1)
		assert.Equal(t, attendance.StatusPresent, recs[0].Status)
	})
}

func Test_teacherApi_materials(t *testing.T) {
	srv, app := setup(t)
	fx := newPortalFixture(t, app)
	token := getToken(t, app, fx.teacher)

	body := marchallObj(t, material.NewMaterial{
		Title: "Sorting", FileURL: "https://files.test.cd/sorting.pdf", Branch: fx.branch.ID, Year: 2,
	})
	rec := do(srv, http.MethodPost, "/api/teacher/materials", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var m material.Material
	unmarchall(t, rec, &m)

	rec = do(srv, http.MethodPost, "/api/teacher/materials", token, marchallObj(t, material.NewMaterial{Title: "No file"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var items []material.Material
	rec = do(srv, http.MethodGet, "/api/teacher/materials", token)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarchall(t, rec, &items)
	assert.Len(t, items, 1)

	rec = do(srv, http.MethodGet, "/api/student/materials", getToken(t, app, fx.student))
	require.Equal(t, http.StatusOK, rec.Code)
	unmarchall(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, m.ID, items[0].ID)

	rec = do(srv, http.MethodDelete, "/api/teacher/materials/"+m.ID, getToken(t, app, fx.otherTeacher))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(srv, http.MethodDelete, "/api/teacher/materials/"+m.ID, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func Test_studentApi(t *testing.T) {
	srv, app := setup(t)
	fx := newPortalFixture(t, app)
	token := getToken(t, app, fx.student)

	tests := []httpTest{
		{name: "teacher refused", path: "/api/student/profile", token: getToken(t, app, fx.teacher), wantCode: http.StatusForbidden},
		{name: "profile", path: "/api/student/profile", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, fx.student)},
		{name: "marks (none yet)", path: "/api/student/marks", token: token, wantCode: http.StatusOK, wantData: []byte(`[]`)},
	}
	runHTTPTests(t, srv, tests)

	rec := do(srv, http.MethodGet, "/api/student/courses", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var courses []academic.Course
	unmarchall(t, rec, &courses)
	require.Len(t, courses, 1)
	assert.Equal(t, fx.course.ID, courses[0].ID)

	rec = do(srv, http.MethodGet, "/api/student/courses", getToken(t, app, fx.classmate))
	require.Equal(t, http.StatusOK, rec.Code)
	unmarchall(t, rec, &courses)
	assert.Empty(t, courses)
}
