package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/profile"
)

type profileAPI struct {
	svc *profile.Service
}

func registerProfileAPI(g *echo.Group, svc *profile.Service) {
	api := profileAPI{svc: svc}

	pg := g.Group("/profiles")
	pg.POST("", api.register)
	pg.GET("/:uid", api.retrieve)
	pg.PUT("/:uid", api.update)
}

func (api *profileAPI) register(ctx echo.Context) error {
	data := new(profile.NewProfile)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	prf, err := api.svc.Register(ctx.Request().Context(), getContextPrincipal(ctx), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, prf)
}

func (api *profileAPI) retrieve(ctx echo.Context) error {
	prf, err := api.svc.Get(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("uid"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prf)
}

func (api *profileAPI) update(ctx echo.Context) error {
	data := new(profile.UpdateProfile)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	prf, err := api.svc.Update(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("uid"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prf)
}
