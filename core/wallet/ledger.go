package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/storage/document"
)

// NewEntry contains information needed to append a ledger entry.
type NewEntry struct {
	Type           string            `json:"type"`
	AmountCredits  int64             `json:"amountCredits"`
	IdempotencyKey *string           `json:"idempotencyKey"`
	Scope          Scope             `json:"scope"`
	Provider       Provider          `json:"provider"`
	Metadata       map[string]string `json:"metadata"`
	CreatedBy      *string           `json:"createdBy"`
}

// Engine enforces append-only, idempotent, scoped accounting against wallets.
// It is exposed only to the trusted backend path; the policy evaluator denies
// every direct client write unconditionally.
type Engine struct {
	store  document.Store
	logger core.Logger
}

func NewEngine(store document.Store, logger core.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// EnsureWallet returns the wallet for (ownerType, ownerID), creating an empty
// one on first use.
func (e *Engine) EnsureWallet(ctx context.Context, ownerType, ownerID string) (Wallet, error) {
	var wlt Wallet
	err := e.store.RunTransaction(ctx, func(tx document.Tx) error {
		var existing []Wallet
		err := tx.Query(Collection, []document.Filter{
			{Field: "ownerType", Value: ownerType},
			{Field: "ownerId", Value: ownerID},
		}, nil, &existing)
		if err != nil {
			return errors.Wrap(err, "querying wallets")
		}
		if len(existing) > 0 {
			wlt = existing[0]
			return nil
		}

		now := time.Now().UTC()
		wlt = Wallet{
			ID:        uuid.New().String(),
			OwnerType: ownerType,
			OwnerID:   ownerID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := wlt.Validate(); err != nil {
			return err
		}
		return tx.Create(Collection, wlt.ID, wlt)
	})
	return wlt, err
}

// ApplyEntry appends a ledger entry and updates the wallet balance in a single
// transaction. When the entry carries an idempotency key already applied to
// the wallet, the stored result is returned without re-applying; a key reuse
// with a differing payload is a fatal IdempotencyConflictError. A charge that
// would drive a user wallet negative is rejected with no partial effect.
func (e *Engine) ApplyEntry(ctx context.Context, walletID string, ne NewEntry) (Wallet, Entry, error) {
	var (
		wlt   Wallet
		entry Entry
	)

	err := e.store.RunTransaction(ctx, func(tx document.Tx) error {
		if err := tx.Get(Collection, walletID, &wlt); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting wallet")
		}

		// idempotent replay
		if ne.IdempotencyKey != nil {
			var existing []Entry
			err := tx.Query(EntryCollection, []document.Filter{
				{Field: "walletId", Value: walletID},
				{Field: "idempotencyKey", Value: *ne.IdempotencyKey},
			}, nil, &existing)
			if err != nil {
				return errors.Wrap(err, "querying ledger entries")
			}
			if len(existing) > 0 {
				entry = existing[0]
				if !entry.samePayload(Entry{Type: ne.Type, AmountCredits: ne.AmountCredits}) {
					return core.IdempotencyConflictError{WalletID: walletID, Key: *ne.IdempotencyKey}
				}
				return nil // no-op replay; wlt keeps the post-state balance
			}
		}

		if wlt.OwnerType == OwnerUser && wlt.BalanceCredits+ne.AmountCredits < 0 {
			return core.InsufficientBalanceError{
				WalletID: walletID,
				Balance:  wlt.BalanceCredits,
				Amount:   ne.AmountCredits,
			}
		}

		now := time.Now().UTC()
		entry = Entry{
			ID:             uuid.New().String(),
			WalletID:       walletID,
			Type:           ne.Type,
			AmountCredits:  ne.AmountCredits,
			IdempotencyKey: ne.IdempotencyKey,
			Scope:          ne.Scope,
			Provider:       ne.Provider,
			Metadata:       ne.Metadata,
			CreatedBy:      ne.CreatedBy,
			CreatedAt:      now,
		}
		if err := entry.Validate(); err != nil {
			return err
		}
		if err := tx.Create(EntryCollection, entry.ID, entry); err != nil {
			return errors.Wrap(err, "appending ledger entry")
		}

		wlt.BalanceCredits += ne.AmountCredits
		wlt.UpdatedAt = now
		return tx.Put(Collection, walletID, wlt)
	})
	if err != nil {
		return Wallet{}, Entry{}, err
	}
	return wlt, entry, nil
}

func (e *Engine) GetBalance(ctx context.Context, walletID string) (int64, error) {
	var wlt Wallet
	if err := e.store.Get(ctx, Collection, walletID, &wlt); err != nil {
		if errors.Cause(err) == document.ErrNotFound {
			return 0, core.ErrNotFound
		}
		return 0, errors.Wrap(err, "getting wallet")
	}
	return wlt.BalanceCredits, nil
}

// Entries returns the wallet's ledger ordered by creation time.
func (e *Engine) Entries(ctx context.Context, walletID string) ([]Entry, error) {
	var entries []Entry
	err := e.store.Query(ctx, EntryCollection,
		[]document.Filter{{Field: "walletId", Value: walletID}},
		&document.Ordering{Field: "createdAt", Ascending: true},
		&entries,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying ledger entries")
	}
	return entries, nil
}

// Replay folds the full ledger; the result must always equal the stored
// balance (reconciliation invariant).
func (e *Engine) Replay(ctx context.Context, walletID string) (int64, error) {
	entries, err := e.Entries(ctx, walletID)
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, entry := range entries {
		sum += entry.AmountCredits
	}
	return sum, nil
}
