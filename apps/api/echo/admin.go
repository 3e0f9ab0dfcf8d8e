package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/marks"
	"github.com/trezcool/campus/core/news"
	"github.com/trezcool/campus/core/user"
)

type adminApi struct {
	usrSvc        user.Service
	academicSvc   academic.Service
	marksSvc      marks.Service
	attendanceSvc attendance.Service
	newsSvc       news.Service
	validate      *validator.Validate
}

func registerAdminAPI(g *echo.Group, opts *Options) {
	api := adminApi{
		usrSvc:        opts.UserSvc,
		academicSvc:   opts.AcademicSvc,
		marksSvc:      opts.MarksSvc,
		attendanceSvc: opts.AttendanceSvc,
		newsSvc:       opts.NewsSvc,
		validate:      opts.Validate,
	}

	// users
	g.GET("/pending-users", api.queryPendingUsers)
	g.GET("/users", api.queryUsers)
	g.GET("/students/count", api.countUsers(user.RoleStudent))
	g.GET("/teachers/count", api.countUsers(user.RoleTeacher))
	g.GET("/filters/data", api.filterData)
	g.PUT("/approve/:id", api.approveUser)
	g.PUT("/reject/:id", api.rejectUser)

	// news
	g.POST("/news", api.createNews)
	g.PUT("/news/:id", api.updateNews)
	g.DELETE("/news/:id", api.deleteNews)

	// academics
	g.POST("/branch", api.createBranch)
	g.GET("/branches", api.queryBranches)
	g.POST("/semester", api.createSemester)
	g.GET("/semesters/:branchId", api.querySemesters)
	g.POST("/subject", api.createSubject)
	g.PUT("/subject/:id/assign", api.assignFaculty)
	g.PUT("/subject/:id/students", api.assignStudents)
	g.GET("/subjects/:semesterId", api.querySubjects)
	g.POST("/courses", api.createCourse)
	g.GET("/courses", api.queryCourses)
	g.PUT("/courses/:id", api.updateCourse)
	g.DELETE("/courses/:id", api.deleteCourse)

	// records
	g.GET("/results/:studentId/:semesterId", api.studentResults)
	g.GET("/attendance-summary/:studentId", api.studentAttendanceSummary)
}

// Users

func (api *adminApi) queryPendingUsers(ctx echo.Context) error {
	users, err := api.usrSvc.QueryPending(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying pending users")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *adminApi) queryUsers(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.usrSvc.Query(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *adminApi) countUsers(role user.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		n, err := api.usrSvc.Count(ctx.Request().Context(), role)
		if err != nil {
			return errors.Wrapf(err, "counting %s users", role)
		}
		return ctx.JSON(http.StatusOK, CountResponse{Count: n})
	}
}

func (api *adminApi) filterData(ctx echo.Context) error {
	data, err := api.usrSvc.FilterData(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "collecting filter data")
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *adminApi) approveUser(ctx echo.Context) error {
	usr, err := api.usrSvc.Approve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *adminApi) rejectUser(ctx echo.Context) error {
	usr, err := api.usrSvc.Reject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "rejecting user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

// News

func (api *adminApi) createNews(ctx echo.Context) error {
	var data news.NewNews
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	admin, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	n, err := api.newsSvc.Create(ctx.Request().Context(), admin.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating news")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *adminApi) updateNews(ctx echo.Context) error {
	var data news.UpdateNews
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	n, err := api.newsSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating news")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *adminApi) deleteNews(ctx echo.Context) error {
	if err := api.newsSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting news")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Academics

func (api *adminApi) createBranch(ctx echo.Context) error {
	var data academic.NewBranch
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	b, err := api.academicSvc.CreateBranch(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating branch")
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *adminApi) queryBranches(ctx echo.Context) error {
	branches, err := api.academicSvc.QueryBranches(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying branches")
	}
	return ctx.JSON(http.StatusOK, branches)
}

func (api *adminApi) createSemester(ctx echo.Context) error {
	var data academic.NewSemester
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	sem, err := api.academicSvc.CreateSemester(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating semester")
	}
	return ctx.JSON(http.StatusCreated, sem)
}

func (api *adminApi) querySemesters(ctx echo.Context) error {
	sems, err := api.academicSvc.QuerySemesters(ctx.Request().Context(), ctx.Param("branchId"))
	if err != nil {
		return errors.Wrap(err, "querying semesters")
	}
	return ctx.JSON(http.StatusOK, sems)
}

func (api *adminApi) createSubject(ctx echo.Context) error {
	var data academic.NewSubject
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	sub, err := api.academicSvc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *adminApi) assignFaculty(ctx echo.Context) error {
	var data AssignFacultyRequest
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	sub, err := api.academicSvc.AssignFaculty(ctx.Request().Context(), ctx.Param("id"), data.FacultyID)
	if err != nil {
		return errors.Wrap(err, "assigning faculty")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *adminApi) assignStudents(ctx echo.Context) error {
	var data AssignStudentsRequest
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	sub, err := api.academicSvc.AssignStudents(ctx.Request().Context(), ctx.Param("id"), data.StudentIDs)
	if err != nil {
		return errors.Wrap(err, "assigning students")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *adminApi) querySubjects(ctx echo.Context) error {
	subs, err := api.academicSvc.QuerySubjects(
		ctx.Request().Context(),
		academic.SubjectFilter{SemesterID: ctx.Param("semesterId")},
	)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *adminApi) createCourse(ctx echo.Context) error {
	var data academic.NewCourse
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	c, err := api.academicSvc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *adminApi) queryCourses(ctx echo.Context) error {
	courses, err := api.academicSvc.QueryCourses(ctx.Request().Context(), academic.CourseFilter{
		TeacherID: ctx.QueryParam("teacher_id"),
		StudentID: ctx.QueryParam("student_id"),
	})
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *adminApi) updateCourse(ctx echo.Context) error {
	var data academic.UpdateCourse
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}

	c, err := api.academicSvc.UpdateCourse(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *adminApi) deleteCourse(ctx echo.Context) error {
	if err := api.academicSvc.DeleteCourse(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Records

func (api *adminApi) studentResults(ctx echo.Context) error {
	res, err := api.marksSvc.ResultsForSemester(ctx.Request().Context(), ctx.Param("studentId"), ctx.Param("semesterId"))
	if err != nil {
		return errors.Wrap(err, "computing semester results")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *adminApi) studentAttendanceSummary(ctx echo.Context) error {
	sums, err := api.attendanceSvc.QuerySummaries(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "querying attendance summaries")
	}
	return ctx.JSON(http.StatusOK, sums)
}

type (
	AssignFacultyRequest struct {
		FacultyID string `json:"faculty_id" validate:"required"`
	}

	AssignStudentsRequest struct {
		StudentIDs []string `json:"student_ids" validate:"required"`
	}
)
