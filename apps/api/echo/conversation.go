package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/conversation"
)

type conversationAPI struct {
	svc *conversation.Service
}

func registerConversationAPI(g *echo.Group, svc *conversation.Service) {
	api := conversationAPI{svc: svc}

	cg := g.Group("/conversations")
	cg.POST("", api.create)
	cg.GET("", api.list) // ?assignmentId=
	cg.GET("/:id", api.retrieve)
	cg.POST("/:id/turns", api.addTurn)
	cg.POST("/:id/close", api.close)
}

type newConversationRequest struct {
	AssignmentID string `json:"assignmentId"`
}

func (api *conversationAPI) create(ctx echo.Context) error {
	data := new(newConversationRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	cnv, err := api.svc.Create(ctx.Request().Context(), getContextPrincipal(ctx), data.AssignmentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cnv)
}

func (api *conversationAPI) list(ctx echo.Context) error {
	cnvs, err := api.svc.List(ctx.Request().Context(), getContextPrincipal(ctx), ctx.QueryParam("assignmentId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cnvs)
}

func (api *conversationAPI) retrieve(ctx echo.Context) error {
	cnv, err := api.svc.Get(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cnv)
}

func (api *conversationAPI) addTurn(ctx echo.Context) error {
	data := new(conversation.NewTurn)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	cnv, err := api.svc.AddTurn(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cnv)
}

func (api *conversationAPI) close(ctx echo.Context) error {
	cnv, err := api.svc.Close(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cnv)
}
