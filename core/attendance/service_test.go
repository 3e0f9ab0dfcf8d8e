package attendance_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/tests"
)

func Test_service_SubmitSummary(t *testing.T) {
	app := testutil.NewApp()
	ctx := context.Background()
	svc := app.AttendanceSvc

	teacher := testutil.CreateUser(t, app.UsrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, user.StatusActive)
	student := testutil.CreateStudent(t, app.UsrRepo, "Alice", "alice@test.cd", "cse", 2)
	pending := testutil.CreateUser(t, app.UsrRepo, "Pending", "pending@test.cd", "", user.RoleStudent, user.StatusPending)

	jan := attendance.Month(time.January)

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			ns   attendance.NewSummary
		}{
			{"no days", attendance.NewSummary{StudentID: student.ID, Month: jan, Year: 2024}},
			{"present above total", attendance.NewSummary{StudentID: student.ID, Month: jan, Year: 2024, TotalDays: 20, PresentDays: 21}},
			{"no month", attendance.NewSummary{StudentID: student.ID, Year: 2024, TotalDays: 20, PresentDays: 18}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.SubmitSummary(ctx, teacher.ID, tt.ns)
				assert.True(t, core.IsValidationError(err), err)
			})
		}
	})

	t.Run("inactive student", func(t *testing.T) {
		_, err := svc.SubmitSummary(ctx, teacher.ID, attendance.NewSummary{StudentID: pending.ID, Month: jan, Year: 2024, TotalDays: 20, PresentDays: 18})
		assert.True(t, core.IsNotFound(err))
	})

	first, err := svc.SubmitSummary(ctx, teacher.ID, attendance.NewSummary{StudentID: student.ID, Month: jan, Year: 2024, TotalDays: 20, PresentDays: 18})
	require.NoError(t, err)
	assert.Equal(t, 2, first.AbsentDays)
	assert.Equal(t, 90.0, first.Percentage)
	assert.Equal(t, teacher.ID, first.RecordedBy)

	t.Run("same month overwrites", func(t *testing.T) {
		month, err := attendance.ParseMonth("jan")
		require.NoError(t, err)
		s, err := svc.SubmitSummary(ctx, teacher.ID, attendance.NewSummary{StudentID: student.ID, Month: month, Year: 2024, TotalDays: 20, PresentDays: 19})
		require.NoError(t, err)
		assert.Equal(t, first.ID, s.ID)
		assert.Equal(t, 1, s.AbsentDays)
		assert.Equal(t, 95.0, s.Percentage)
	})

	t.Run("concurrent submissions keep one summary", func(t *testing.T) {
		var wg sync.WaitGroup
		for present := 10; present < 20; present++ {
			wg.Add(1)
			go func(present int) {
				defer wg.Done()
				_, err := svc.SubmitSummary(ctx, teacher.ID, attendance.NewSummary{
					StudentID: student.ID, Month: attendance.Month(time.February), Year: 2024, TotalDays: 20, PresentDays: present,
				})
				assert.NoError(t, err)
			}(present)
		}
		wg.Wait()

		sums, err := svc.QuerySummaries(ctx, student.ID)
		require.NoError(t, err)
		require.Len(t, sums, 2)
		assert.Equal(t, attendance.Month(time.February), sums[0].Month)
		assert.Equal(t, jan, sums[1].Month)
		assert.Equal(t, sums[0].TotalDays-sums[0].PresentDays, sums[0].AbsentDays)
	})
}

func Test_service_MarkDaily(t *testing.T) {
	app := testutil.NewApp()
	ctx := context.Background()
	svc := app.AttendanceSvc

	teacher := testutil.CreateUser(t, app.UsrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, user.StatusActive)
	student := testutil.CreateStudent(t, app.UsrRepo, "Alice", "alice@test.cd", "cse", 2)
	course, err := app.AcademicSvc.CreateCourse(ctx, academic.NewCourse{Name: "Networks", Code: "NET", TeacherID: teacher.ID, StudentIDs: []string{student.ID}})
	require.NoError(t, err)

	t.Run("invalid status", func(t *testing.T) {
		_, err := svc.MarkDaily(ctx, teacher.ID, attendance.NewRecord{StudentID: student.ID, Status: "Late"})
		assert.True(t, core.IsValidationError(err))
	})

	t.Run("unknown course", func(t *testing.T) {
		_, err := svc.MarkDaily(ctx, teacher.ID, attendance.NewRecord{StudentID: student.ID, CourseID: "nope", Status: attendance.StatusPresent})
		assert.True(t, core.IsNotFound(err))
	})

	date := time.Date(2024, time.March, 4, 15, 30, 0, 0, time.UTC)
	rec, err := svc.MarkDaily(ctx, teacher.ID, attendance.NewRecord{StudentID: student.ID, CourseID: course.ID, Date: date, Status: attendance.StatusAbsent})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, teacher.ID, rec.TeacherID)

	today, err := svc.MarkDaily(ctx, teacher.ID, attendance.NewRecord{StudentID: student.ID, Status: attendance.StatusPresent})
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Truncate(24*time.Hour), today.Date)

	// records are never deduplicated
	_, err = svc.MarkDaily(ctx, teacher.ID, attendance.NewRecord{StudentID: student.ID, CourseID: course.ID, Date: date, Status: attendance.StatusPresent})
	require.NoError(t, err)

	recs, err := svc.QueryRecords(ctx, attendance.RecordFilter{CourseID: course.ID})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = svc.QueryRecords(ctx, attendance.RecordFilter{StudentID: student.ID})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, today.ID, recs[0].ID)
}
