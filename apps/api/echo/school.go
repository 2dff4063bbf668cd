package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kelasi/backend/core/school"
	"github.com/kelasi/backend/core/user"
)

type schoolApi struct {
	svc      *school.Service
	validate *validator.Validate
}

func registerSchoolAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *school.Service,
	usrSvc *user.Service,
	validate *validator.Validate,
) {
	api := schoolApi{svc: svc, validate: validate}

	sg := g.Group("/school", jwt)
	sg.GET("", api.retrieve)
	sg.PUT("", api.update, adminMiddleware(user.RoleAdminOwner, user.RoleAdminPrincipal))
}

// Handlers

func (api *schoolApi) retrieve(ctx echo.Context) error {
	info, err := api.svc.Get(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *schoolApi) update(ctx echo.Context) error {
	var data school.UpdateInfo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInfo")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	info, err := api.svc.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating school info")
	}
	return ctx.JSON(http.StatusOK, info)
}
