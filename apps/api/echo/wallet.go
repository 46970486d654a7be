package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/wallet"
)

type walletAPI struct {
	svc *wallet.Service
}

// registerWalletAPI exposes the read-only client surface; every wallet write
// lives behind the internal routes.
func registerWalletAPI(g *echo.Group, svc *wallet.Service) {
	api := walletAPI{svc: svc}

	wg := g.Group("/wallets")
	wg.GET("/me", api.mine)
	wg.GET("/:id", api.retrieve)
	wg.GET("/:id/entries", api.listEntries)
}

func (api *walletAPI) mine(ctx echo.Context) error {
	wlt, err := api.svc.MyWallet(ctx.Request().Context(), getContextPrincipal(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wlt)
}

func (api *walletAPI) retrieve(ctx echo.Context) error {
	wlt, err := api.svc.Get(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wlt)
}

func (api *walletAPI) listEntries(ctx echo.Context) error {
	entries, err := api.svc.Entries(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entries)
}
