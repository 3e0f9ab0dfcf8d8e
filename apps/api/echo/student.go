package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/marks"
	"github.com/trezcool/campus/core/material"
	"github.com/trezcool/campus/core/user"
)

type studentApi struct {
	usrSvc        user.Service
	academicSvc   academic.Service
	marksSvc      marks.Service
	attendanceSvc attendance.Service
	materialSvc   material.Service
}

func registerStudentAPI(g *echo.Group, opts *Options) {
	api := studentApi{
		usrSvc:        opts.UserSvc,
		academicSvc:   opts.AcademicSvc,
		marksSvc:      opts.MarksSvc,
		attendanceSvc: opts.AttendanceSvc,
		materialSvc:   opts.MaterialSvc,
	}

	g.GET("/profile", api.profile)
	g.GET("/courses", api.courses)
	g.GET("/attendance", api.attendance)
	g.GET("/attendance-summary", api.attendanceSummary)
	g.GET("/results/:semesterId", api.results)
	g.GET("/marks", api.marks)
	g.GET("/materials", api.materials)
}

func (api *studentApi) profile(ctx echo.Context) error {
	student, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *studentApi) courses(ctx echo.Context) error {
	student, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	courses, err := api.academicSvc.QueryCourses(ctx.Request().Context(), academic.CourseFilter{StudentID: student.ID})
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *studentApi) attendance(ctx echo.Context) error {
	student, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	recs, err := api.attendanceSvc.QueryRecords(ctx.Request().Context(), attendance.RecordFilter{StudentID: student.ID})
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *studentApi) attendanceSummary(ctx echo.Context) error {
	student, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sums, err := api.attendanceSvc.QuerySummaries(ctx.Request().Context(), student.ID)
	if err != nil {
		return errors.Wrap(err, "querying attendance summaries")
	}
	return ctx.JSON(http.StatusOK, sums)
}

func (api *studentApi) results(ctx echo.Context) error {
	student, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.marksSvc.ResultsForSemester(ctx.Request().Context(), student.ID, ctx.Param("semesterId"))
	if err != nil {
		return errors.Wrap(err, "computing semester results")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) marks(ctx echo.Context) error {
	student, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	recs, err := api.marksSvc.QueryByStudent(ctx.Request().Context(), student.ID)
	if err != nil {
		return errors.Wrap(err, "querying marks")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *studentApi) materials(ctx echo.Context) error {
	student, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	items, err := api.materialSvc.QueryForStudent(ctx.Request().Context(), student)
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	return ctx.JSON(http.StatusOK, items)
}
