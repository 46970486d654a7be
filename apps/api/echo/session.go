package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/principal"
)

// registerSessionAPI exposes local token minting for dev and test runs.
// Production identity issuance belongs to the external provider.
func registerSessionAPI(g *echo.Group) {
	g.POST("/auth/token", mintToken)
}

type tokenRequest struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

func mintToken(ctx echo.Context) error {
	if !(core.Conf.Debug || core.Conf.TestMode) {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	data := new(tokenRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if data.UID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "uid", Error: "uid is required"})
	}

	token, err := principal.GenerateToken(principal.NewClaims(data.UID, data.DisplayName, data.Email))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": token})
}
