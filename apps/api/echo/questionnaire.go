package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/questionnaire"
)

type questionnaireAPI struct {
	svc *questionnaire.Service
}

func registerQuestionnaireAPI(g *echo.Group, svc *questionnaire.Service) {
	api := questionnaireAPI{svc: svc}

	qg := g.Group("/questionnaires")
	qg.POST("", api.create)
	qg.GET("", api.list) // ?courseId=
	qg.GET("/:id", api.retrieve)
	qg.PUT("/:id", api.update)
	qg.DELETE("/:id", api.destroy)

	// responses
	qg.GET("/:id/responses", api.listResponses)

	rg := g.Group("/responses")
	rg.POST("", api.submitResponse)
	rg.GET("/:id", api.retrieveResponse)
	rg.PUT("/:id", api.updateResponse)
	rg.DELETE("/:id", api.destroyResponse)
}

func (api *questionnaireAPI) create(ctx echo.Context) error {
	data := new(questionnaire.NewQuestionnaire)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	qn, err := api.svc.Create(ctx.Request().Context(), getContextPrincipal(ctx), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, qn)
}

func (api *questionnaireAPI) list(ctx echo.Context) error {
	qns, err := api.svc.List(ctx.Request().Context(), getContextPrincipal(ctx), ctx.QueryParam("courseId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qns)
}

func (api *questionnaireAPI) retrieve(ctx echo.Context) error {
	qn, err := api.svc.Get(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qn)
}

func (api *questionnaireAPI) update(ctx echo.Context) error {
	data := new(questionnaire.UpdateQuestionnaire)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	qn, err := api.svc.Update(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qn)
}

func (api *questionnaireAPI) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Responses

func (api *questionnaireAPI) submitResponse(ctx echo.Context) error {
	data := new(questionnaire.NewResponse)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	rsp, err := api.svc.SubmitResponse(ctx.Request().Context(), getContextPrincipal(ctx), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rsp)
}

func (api *questionnaireAPI) listResponses(ctx echo.Context) error {
	rsps, err := api.svc.ListResponses(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rsps)
}

func (api *questionnaireAPI) retrieveResponse(ctx echo.Context) error {
	rsp, err := api.svc.GetResponse(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rsp)
}

type updateResponseRequest struct {
	Responses []questionnaire.ResponseItem `json:"responses"`
}

func (api *questionnaireAPI) updateResponse(ctx echo.Context) error {
	data := new(updateResponseRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	rsp, err := api.svc.UpdateResponse(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), data.Responses)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rsp)
}

func (api *questionnaireAPI) destroyResponse(ctx echo.Context) error {
	if err := api.svc.DeleteResponse(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
