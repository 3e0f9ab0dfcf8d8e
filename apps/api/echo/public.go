package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/news"
)

type publicApi struct {
	academicSvc academic.Service
	newsSvc     news.Service
}

func registerPublicAPI(g *echo.Group, opts *Options) {
	api := publicApi{
		academicSvc: opts.AcademicSvc,
		newsSvc:     opts.NewsSvc,
	}

	g.GET("/branches", api.queryBranches)
	g.GET("/semesters/:branchId", api.querySemesters)
	g.GET("/news", api.queryNews)
}

func (api *publicApi) queryBranches(ctx echo.Context) error {
	branches, err := api.academicSvc.QueryBranches(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying branches")
	}
	return ctx.JSON(http.StatusOK, branches)
}

func (api *publicApi) querySemesters(ctx echo.Context) error {
	sems, err := api.academicSvc.QuerySemesters(ctx.Request().Context(), ctx.Param("branchId"))
	if err != nil {
		return errors.Wrap(err, "querying semesters")
	}
	return ctx.JSON(http.StatusOK, sems)
}

func (api *publicApi) queryNews(ctx echo.Context) error {
	items, err := api.newsSvc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying news")
	}
	return ctx.JSON(http.StatusOK, items)
}
