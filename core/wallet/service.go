package wallet

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/principal"
	"github.com/trezcool/darasa/storage/document"
)

// Authorizer decides whether a principal may act on a resource.
type Authorizer interface {
	Authorize(prn principal.Principal, op core.Op, res core.Resource, before, after interface{}) core.Decision
}

// Service is the client-facing read surface over the ledger engine. Client
// writes never exist here: ApplyEntry is reachable only through the trusted
// internal path, with no principal involved.
type Service struct {
	engine *Engine
	store  document.Store
	auth   Authorizer
}

func NewService(engine *Engine, store document.Store, auth Authorizer) *Service {
	return &Service{engine: engine, store: store, auth: auth}
}

// MyWallet returns the caller's own user wallet, creating it on first use.
func (svc *Service) MyWallet(ctx context.Context, prn principal.Principal) (Wallet, error) {
	if !prn.Authenticated {
		return Wallet{}, core.ErrUnauthenticated
	}
	return svc.engine.EnsureWallet(ctx, OwnerUser, prn.ID)
}

func (svc *Service) Get(ctx context.Context, prn principal.Principal, walletID string) (Wallet, error) {
	var wlt Wallet
	if err := svc.store.Get(ctx, Collection, walletID, &wlt); err != nil {
		if errors.Cause(err) == document.ErrNotFound {
			return Wallet{}, core.ErrNotFound
		}
		return Wallet{}, errors.Wrap(err, "getting wallet")
	}
	if err := svc.auth.Authorize(prn, core.OpRead, core.ResourceWallet, wlt, nil).ReadErr(); err != nil {
		return Wallet{}, err
	}
	return wlt, nil
}

func (svc *Service) Entries(ctx context.Context, prn principal.Principal, walletID string) ([]Entry, error) {
	if err := svc.auth.Authorize(prn, core.OpList, core.ResourceLedgerEntry, walletID, nil).ReadErr(); err != nil {
		return nil, err
	}
	return svc.engine.Entries(ctx, walletID)
}

// Apply forwards a trusted ledger mutation to the engine. Callers must sit
// behind the internal route guard; there is deliberately no principal here.
func (svc *Service) Apply(ctx context.Context, walletID string, ne NewEntry) (Wallet, Entry, error) {
	return svc.engine.ApplyEntry(ctx, walletID, ne)
}

// EnsureWallet provisions a wallet for the given owner through the trusted path.
func (svc *Service) EnsureWallet(ctx context.Context, ownerType, ownerID string) (Wallet, error) {
	return svc.engine.EnsureWallet(ctx, ownerType, ownerID)
}
