package policy

import (
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/principal"
	"github.com/trezcool/darasa/core/wallet"
)

// Wallets and ledger entries are written exclusively by the trusted backend
// path (the ledger engine); every client write is denied regardless of role.
// Reads: a user sees their own wallet, course staff see the host wallet of
// their course.
func (e *Evaluator) authorizeWallet(prn principal.Principal, op core.Op, res core.Resource, before, after interface{}) core.Decision {
	switch op {
	case core.OpRead:
		switch res {
		case core.ResourceWallet:
			w, ok := before.(wallet.Wallet)
			if !ok {
				return core.Deny(core.ReasonUnknownResource)
			}
			return e.readableWallet(prn, w)
		case core.ResourceLedgerEntry:
			en, ok := before.(wallet.Entry)
			if !ok {
				return core.Deny(core.ReasonUnknownResource)
			}
			w, found := e.dir.Wallet(en.WalletID)
			if !found {
				return core.Deny(core.ReasonNotOwner)
			}
			return e.readableWallet(prn, w)
		}
	case core.OpList:
		// listing entries is scoped by wallet id
		walletID, ok := before.(string)
		if !ok {
			return core.Deny(core.ReasonUnknownResource)
		}
		w, found := e.dir.Wallet(walletID)
		if !found {
			return core.Deny(core.ReasonNotOwner)
		}
		return e.readableWallet(prn, w)
	}
	return core.Deny(core.ReasonImmutable)
}

func (e *Evaluator) readableWallet(prn principal.Principal, w wallet.Wallet) core.Decision {
	if !prn.Authenticated {
		return core.Deny(core.ReasonNotAuthenticated)
	}
	switch w.OwnerType {
	case wallet.OwnerUser:
		if w.OwnerID == prn.ID {
			return core.Allow()
		}
		return core.Deny(core.ReasonNotOwner)
	case wallet.OwnerHost:
		// host wallet ownerId is the backing course
		if e.res.HasActiveRole(prn, w.OwnerID, course.StaffRoles...) {
			return core.Allow()
		}
		return e.roleDenial(prn, w.OwnerID)
	}
	return core.Deny(core.ReasonUnknownResource)
}
