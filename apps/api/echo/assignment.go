package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/assignment"
)

type assignmentAPI struct {
	svc *assignment.Service
}

func registerAssignmentAPI(g *echo.Group, svc *assignment.Service) {
	api := assignmentAPI{svc: svc}

	ag := g.Group("/assignments")
	ag.POST("", api.create)
	ag.GET("", api.list) // ?courseId=
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)

	// submissions
	ag.POST("/:id/submissions", api.startSubmission)
	ag.GET("/:id/submissions", api.listSubmissions)
	ag.GET("/:id/submissions/:userId", api.retrieveSubmission)
	ag.PUT("/:id/submissions/:userId", api.updateSubmission)
	ag.DELETE("/:id/submissions/:userId", api.destroySubmission)
}

func (api *assignmentAPI) create(ctx echo.Context) error {
	data := new(assignment.NewAssignment)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	asg, err := api.svc.Create(ctx.Request().Context(), getContextPrincipal(ctx), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentAPI) list(ctx echo.Context) error {
	asgs, err := api.svc.List(ctx.Request().Context(), getContextPrincipal(ctx), ctx.QueryParam("courseId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentAPI) retrieve(ctx echo.Context) error {
	asg, err := api.svc.Get(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentAPI) update(ctx echo.Context) error {
	data := new(assignment.UpdateAssignment)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	asg, err := api.svc.Update(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentAPI) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Submissions

func (api *assignmentAPI) startSubmission(ctx echo.Context) error {
	sub, err := api.svc.StartSubmission(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assignmentAPI) listSubmissions(ctx echo.Context) error {
	subs, err := api.svc.ListSubmissions(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *assignmentAPI) retrieveSubmission(ctx echo.Context) error {
	sub, err := api.svc.GetSubmission(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), ctx.Param("userId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentAPI) updateSubmission(ctx echo.Context) error {
	data := new(assignment.UpdateSubmission)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	sub, err := api.svc.UpdateSubmission(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), ctx.Param("userId"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentAPI) destroySubmission(ctx echo.Context) error {
	if err := api.svc.DeleteSubmission(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), ctx.Param("userId")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
