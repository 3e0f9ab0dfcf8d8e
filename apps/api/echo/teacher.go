package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/marks"
	"github.com/trezcool/campus/core/material"
	"github.com/trezcool/campus/core/user"
)

type teacherApi struct {
	usrSvc        user.Service
	academicSvc   academic.Service
	marksSvc      marks.Service
	attendanceSvc attendance.Service
	materialSvc   material.Service
	validate      *validator.Validate
}

func registerTeacherAPI(g *echo.Group, opts *Options) {
	api := teacherApi{
		usrSvc:        opts.UserSvc,
		academicSvc:   opts.AcademicSvc,
		marksSvc:      opts.MarksSvc,
		attendanceSvc: opts.AttendanceSvc,
		materialSvc:   opts.MaterialSvc,
		validate:      opts.Validate,
	}

	g.GET("/subjects", api.querySubjects)
	g.GET("/students/:subjectId", api.subjectStudents)

	// marks
	g.GET("/marks/:subjectId", api.marksSheet)
	g.POST("/marks/upload", api.uploadMarks)
	g.PUT("/marks/:markId", api.updateMark)
	g.DELETE("/marks/:markId", api.deleteMark)

	// attendance
	g.POST("/attendance", api.markAttendance)
	g.GET("/attendance/:courseId", api.courseAttendance)
	g.POST("/attendance-summary", api.submitAttendanceSummary)

	// materials
	g.POST("/materials", api.uploadMaterial)
	g.GET("/materials", api.queryMaterials)
	g.DELETE("/materials/:id", api.deleteMaterial)
}

func (api *teacherApi) querySubjects(ctx echo.Context) error {
	teacher, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	subs, err := api.academicSvc.QuerySubjects(ctx.Request().Context(), academic.SubjectFilter{FacultyID: teacher.ID})
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *teacherApi) subjectStudents(ctx echo.Context) error {
	sub, students, err := api.academicSvc.StudentsForSubject(ctx.Request().Context(), ctx.Param("subjectId"))
	if err != nil {
		return errors.Wrap(err, "finding subject students")
	}
	return ctx.JSON(http.StatusOK, SubjectStudentsResponse{Subject: sub, Students: students})
}

// Marks

func (api *teacherApi) marksSheet(ctx echo.Context) error {
	recs, err := api.marksSvc.QueryBySubject(ctx.Request().Context(), ctx.Param("subjectId"))
	if err != nil {
		return errors.Wrap(err, "querying marks")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *teacherApi) uploadMarks(ctx echo.Context) error {
	var data marks.Submission
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	teacher, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.marksSvc.SubmitMarks(ctx.Request().Context(), teacher.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting marks")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *teacherApi) updateMark(ctx echo.Context) error {
	var data marks.UpdateMarks
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	teacher, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, err := api.marksSvc.UpdateMark(ctx.Request().Context(), teacher.ID, ctx.Param("markId"), data)
	if err != nil {
		return errors.Wrap(err, "updating marks")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *teacherApi) deleteMark(ctx echo.Context) error {
	teacher, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err = api.marksSvc.DeleteMark(ctx.Request().Context(), teacher.ID, ctx.Param("markId")); err != nil {
		return errors.Wrap(err, "deleting marks")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Attendance

func (api *teacherApi) markAttendance(ctx echo.Context) error {
	var data attendance.NewRecord
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	teacher, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, err := api.attendanceSvc.MarkDaily(ctx.Request().Context(), teacher.ID, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *teacherApi) courseAttendance(ctx echo.Context) error {
	recs, err := api.attendanceSvc.QueryRecords(
		ctx.Request().Context(),
		attendance.RecordFilter{CourseID: ctx.Param("courseId")},
	)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *teacherApi) submitAttendanceSummary(ctx echo.Context) error {
	var data attendance.NewSummary
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	teacher, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sum, err := api.attendanceSvc.SubmitSummary(ctx.Request().Context(), teacher.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting attendance summary")
	}
	return ctx.JSON(http.StatusOK, sum)
}

// Materials

func (api *teacherApi) uploadMaterial(ctx echo.Context) error {
	var data material.NewMaterial
	if err := bindAndValidate(ctx, api.validate, &data); err != nil {
		return err
	}
	teacher, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.materialSvc.Create(ctx.Request().Context(), teacher.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating material")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *teacherApi) queryMaterials(ctx echo.Context) error {
	teacher, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	items, err := api.materialSvc.QueryByUploader(ctx.Request().Context(), teacher.ID)
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *teacherApi) deleteMaterial(ctx echo.Context) error {
	teacher, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err = api.materialSvc.Delete(ctx.Request().Context(), teacher.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting material")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type SubjectStudentsResponse struct {
	Subject  academic.Subject `json:"subject"`
	Students []user.User      `json:"students"`
}
