package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/conversation"
	"github.com/trezcool/darasa/core/wallet"
)

type internalAPI struct {
	convSvc   *conversation.Service
	walletSvc *wallet.Service
}

// registerInternalAPI mounts the trusted backend surface: the worker path that
// resolves pending conversation turns, and the only writer of the ledger.
func registerInternalAPI(g *echo.Group, convSvc *conversation.Service, walletSvc *wallet.Service) {
	api := internalAPI{convSvc: convSvc, walletSvc: walletSvc}

	g.POST("/conversations/:id/resolve-pending", api.resolvePending)
	g.POST("/wallets/:id/entries", api.applyEntry)
	g.POST("/wallets", api.ensureWallet)
}

type resolvePendingRequest struct {
	Analysis string `json:"analysis"`
}

func (api *internalAPI) resolvePending(ctx echo.Context) error {
	data := new(resolvePendingRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	cnv, err := api.convSvc.ResolvePending(ctx.Request().Context(), ctx.Param("id"), data.Analysis)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cnv)
}

func (api *internalAPI) applyEntry(ctx echo.Context) error {
	data := new(wallet.NewEntry)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	wlt, entry, err := api.walletSvc.Apply(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"wallet": wlt, "entry": entry})
}

type ensureWalletRequest struct {
	OwnerType string `json:"ownerType"`
	OwnerID   string `json:"ownerId"`
}

func (api *internalAPI) ensureWallet(ctx echo.Context) error {
	data := new(ensureWalletRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	wlt, err := api.walletSvc.EnsureWallet(ctx.Request().Context(), data.OwnerType, data.OwnerID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wlt)
}
