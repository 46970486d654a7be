package wallet

import (
	"time"

	"github.com/trezcool/darasa/core"
)

const (
	Collection      = "wallets"
	EntryCollection = "ledger_entries"
)

// Wallet owner types. User wallets run a non-overdraft policy; host wallets
// belong to a course and may go negative (the host carries the float).
const (
	OwnerUser = "user"
	OwnerHost = "host"
)

// Ledger entry types. AmountCredits' sign encodes direction.
const (
	EntryGrant      = "grant"
	EntryCharge     = "charge"
	EntryRefund     = "refund"
	EntryAdjustment = "adjustment"
)

// Wallet is never written by a client; only the trusted backend path mutates
// it, and its balance is derivable from ledger replay.
type Wallet struct {
	ID             string    `json:"id" validate:"required,max=128"`
	OwnerType      string    `json:"ownerType" validate:"required,oneof=user host"`
	OwnerID        string    `json:"ownerId" validate:"required,max=128"`
	BalanceCredits int64     `json:"balanceCredits"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (w *Wallet) Validate() error {
	return core.Validate.Struct(w)
}

// Scope partitions entries for reporting only; it never affects balance arithmetic.
type Scope struct {
	CourseID       *string `json:"courseId"`
	TopicID        *string `json:"topicId"`
	AssignmentID   *string `json:"assignmentId"`
	ConversationID *string `json:"conversationId"`
}

type Provider struct {
	Name string `json:"name,omitempty" validate:"omitempty,max=100"`
	Ref  string `json:"ref,omitempty" validate:"omitempty,max=500"`
}

// Entry is append-only and immutable once written. IdempotencyKey, when
// present, is unique per wallet and guarantees at-most-once application of
// the external event it stands for.
type Entry struct {
	ID             string            `json:"id" validate:"required,max=128"`
	WalletID       string            `json:"walletId" validate:"required,max=128"`
	Type           string            `json:"type" validate:"required,oneof=grant charge refund adjustment"`
	AmountCredits  int64             `json:"amountCredits"`
	IdempotencyKey *string           `json:"idempotencyKey" validate:"omitempty,max=200"`
	Scope          Scope             `json:"scope"`
	Provider       Provider          `json:"provider"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedBy      *string           `json:"createdBy"`
	CreatedAt      time.Time         `json:"createdAt"`
}

func (e *Entry) Validate() error {
	return core.Validate.Struct(e)
}

// samePayload reports whether a replayed entry matches the stored one in the
// fields that make a replay a true no-op.
func (e Entry) samePayload(other Entry) bool {
	return e.Type == other.Type && e.AmountCredits == other.AmountCredits
}
