package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kelasi/backend/core/result"
	"github.com/kelasi/backend/core/user"
)

type resultApi struct {
	svc      *result.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerResultAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *result.Service,
	usrSvc *user.Service,
	validate *validator.Validate,
) {
	api := resultApi{svc: svc, usrSvc: usrSvc, validate: validate}

	rg := g.Group("/results", jwt)
	rg.POST("/scores", api.enterScore, teacherMiddleware())
	rg.GET("", api.query, teacherMiddleware())
	rg.GET("/students/:studentId/report", api.studentReport)
}

// Handlers

func (api *resultApi) enterScore(ctx echo.Context) error {
	var data result.NewScore
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewScore")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.svc.EnterScore(ctx.Request().Context(), data, ctxUsr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *resultApi) query(ctx echo.Context) error {
	filter := new(result.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []result.Result{})
	}

	results, err := api.svc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	if results == nil {
		results = []result.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *resultApi) studentReport(ctx echo.Context) error {
	// parents and students may only see their own report
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	studentID := ctx.Param("studentId")
	if !(ctxUsr.IsAdmin() || ctxUsr.IsTeacher()) && ctxUsr.StudentID != studentID {
		return errHttpNotFound
	}

	var query SessionTermRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to SessionTermRequest")
	}
	if err := query.Validate(api.validate); err != nil {
		return err
	}

	report, err := api.svc.StudentReport(ctx.Request().Context(), studentID, query.Session, query.Term)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}
