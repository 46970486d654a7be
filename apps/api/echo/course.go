package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/course"
)

type courseAPI struct {
	svc *course.Service
}

func registerCourseAPI(g *echo.Group, svc *course.Service) {
	api := courseAPI{svc: svc}

	cg := g.Group("/courses")
	cg.POST("", api.create)
	cg.GET("", api.list)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)

	// roster
	cg.POST("/:id/members", api.addMember)
	cg.GET("/:id/members", api.listMembers)
	cg.GET("/:id/members/:memberId", api.retrieveMember)
	cg.PUT("/:id/members/:memberId", api.updateMember)
	cg.DELETE("/:id/members/:memberId", api.removeMember)

	// topics
	cg.POST("/:id/topics", api.createTopic)
	cg.GET("/:id/topics", api.listTopics)

	tg := g.Group("/topics")
	tg.GET("/:id", api.retrieveTopic)
	tg.PUT("/:id", api.updateTopic)
	tg.DELETE("/:id", api.destroyTopic)
}

func (api *courseAPI) create(ctx echo.Context) error {
	data := new(course.NewCourse)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	crs, err := api.svc.Create(ctx.Request().Context(), getContextPrincipal(ctx), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseAPI) list(ctx echo.Context) error {
	crss, err := api.svc.List(ctx.Request().Context(), getContextPrincipal(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crss)
}

func (api *courseAPI) retrieve(ctx echo.Context) error {
	crs, err := api.svc.Get(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseAPI) update(ctx echo.Context) error {
	data := new(course.UpdateCourse)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	crs, err := api.svc.Update(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseAPI) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Roster

func (api *courseAPI) addMember(ctx echo.Context) error {
	data := new(course.NewMember)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	mbr, err := api.svc.AddMember(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, mbr)
}

func (api *courseAPI) listMembers(ctx echo.Context) error {
	roster, err := api.svc.ListMembers(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, roster)
}

func (api *courseAPI) retrieveMember(ctx echo.Context) error {
	mbr, err := api.svc.GetMember(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), ctx.Param("memberId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *courseAPI) updateMember(ctx echo.Context) error {
	data := new(course.UpdateMember)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	mbr, err := api.svc.UpdateMember(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), ctx.Param("memberId"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *courseAPI) removeMember(ctx echo.Context) error {
	if err := api.svc.RemoveMember(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), ctx.Param("memberId")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Topics

func (api *courseAPI) createTopic(ctx echo.Context) error {
	data := new(course.NewTopic)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	tpc, err := api.svc.CreateTopic(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tpc)
}

func (api *courseAPI) listTopics(ctx echo.Context) error {
	topics, err := api.svc.ListTopics(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *courseAPI) retrieveTopic(ctx echo.Context) error {
	tpc, err := api.svc.GetTopic(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tpc)
}

func (api *courseAPI) updateTopic(ctx echo.Context) error {
	data := new(course.UpdateTopic)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	tpc, err := api.svc.UpdateTopic(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tpc)
}

func (api *courseAPI) destroyTopic(ctx echo.Context) error {
	if err := api.svc.DeleteTopic(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
