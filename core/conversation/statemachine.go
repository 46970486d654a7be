package conversation

import (
	"time"

	"github.com/trezcool/darasa/core"
)

var stateOrder = map[string]int{
	StateAwaitingIdea: 0,
	StateInProgress:   1,
	StateClosed:       2,
}

// CheckUpdate validates an update against the turn state machine:
//   - closed is terminal: nothing may touch a closed conversation;
//   - the pending gate: no update is accepted while the trailing turn's
//     PendingStartAt is non-nil (the external worker owns that transition);
//   - turns are append-only: earlier turns are immutable, the trailing turn
//     may only change its PendingStartAt and Analysis;
//   - state moves forward only; LastActionAt/UpdatedAt never decrease.
//
// The pending gate is skipped when trusted is set: the worker clearing the
// flag is the one caller allowed through the gate.
func CheckUpdate(before, after Conversation, trusted bool) error {
	if before.IsClosed() {
		return core.NewInvalidStateError("conversation is closed")
	}
	if !trusted && before.Locked() {
		return core.NewInvalidStateError("conversation is locked by a pending operation")
	}

	if stateOrder[after.State] < stateOrder[before.State] {
		return core.NewInvalidStateError("conversation state cannot move backwards")
	}
	if after.LastActionAt.Before(before.LastActionAt) {
		return core.NewInvalidStateError("lastActionAt cannot decrease")
	}
	if after.UpdatedAt.Before(before.UpdatedAt) {
		return core.NewInvalidStateError("updatedAt cannot decrease")
	}

	return checkTurnsAppendOnly(before.Turns, after.Turns)
}

func checkTurnsAppendOnly(before, after []Turn) error {
	if len(after) < len(before) {
		return core.NewInvalidStateError("turns cannot be removed")
	}
	for i, prev := range before {
		next := after[i]
		trailing := i == len(before)-1
		if !turnEqual(prev, next, trailing) {
			return core.NewInvalidStateError("existing turns cannot be edited")
		}
	}
	return nil
}

// turnEqual compares turns; the trailing turn may differ in PendingStartAt
// and Analysis only.
func turnEqual(prev, next Turn, trailing bool) bool {
	if prev.ID != next.ID || prev.Type != next.Type || prev.Text != next.Text || !prev.CreatedAt.Equal(next.CreatedAt) {
		return false
	}
	if trailing {
		return true
	}
	if prev.Analysis != next.Analysis {
		return false
	}
	return pendingEqual(prev.PendingStartAt, next.PendingStartAt)
}

func pendingEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
