package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/principal"
	"github.com/trezcool/darasa/storage/document"
)

// Authorizer decides whether a principal may act on a resource.
type Authorizer interface {
	Authorize(prn principal.Principal, op core.Op, res core.Resource, before, after interface{}) core.Decision
}

type Service struct {
	store document.Store
	auth  Authorizer
}

func NewService(store document.Store, auth Authorizer) *Service {
	return &Service{store: store, auth: auth}
}

// Create opens a conversation for the caller against an assignment. The
// conversation is the submission artifact for dialogue assignments.
func (svc *Service) Create(ctx context.Context, prn principal.Principal, assignmentID string) (Conversation, error) {
	now := time.Now().UTC()
	cnv := Conversation{
		ID:           uuid.New().String(),
		AssignmentID: assignmentID,
		UserID:       prn.ID,
		State:        StateAwaitingIdea,
		LastActionAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := svc.auth.Authorize(prn, core.OpCreate, core.ResourceConversation, nil, cnv).Err(); err != nil {
		return Conversation{}, err
	}
	if err := cnv.Validate(); err != nil {
		return Conversation{}, err
	}
	if err := svc.store.Create(ctx, Collection, cnv.ID, cnv); err != nil {
		return Conversation{}, errors.Wrap(err, "creating conversation")
	}
	return cnv, nil
}

func (svc *Service) Get(ctx context.Context, prn principal.Principal, id string) (Conversation, error) {
	var cnv Conversation
	if err := svc.store.Get(ctx, Collection, id, &cnv); err != nil {
		if errors.Cause(err) == document.ErrNotFound {
			return Conversation{}, core.ErrNotFound
		}
		return Conversation{}, errors.Wrap(err, "getting conversation")
	}
	if err := svc.auth.Authorize(prn, core.OpRead, core.ResourceConversation, cnv, nil).ReadErr(); err != nil {
		return Conversation{}, err
	}
	return cnv, nil
}

func (svc *Service) List(ctx context.Context, prn principal.Principal, assignmentID string) ([]Conversation, error) {
	if err := svc.auth.Authorize(prn, core.OpList, core.ResourceConversation, assignmentID, nil).ReadErr(); err != nil {
		return nil, err
	}
	var cnvs []Conversation
	err := svc.store.Query(ctx, Collection,
		[]document.Filter{{Field: "assignmentId", Value: assignmentID}},
		&document.Ordering{Field: "createdAt", Ascending: true},
		&cnvs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying conversations")
	}
	return cnvs, nil
}

// AddTurn appends a turn. When the turn requests a follow-up, its
// PendingStartAt is stamped and the conversation locks until the worker
// resolves it through ResolvePending.
func (svc *Service) AddTurn(ctx context.Context, prn principal.Principal, id string, nt NewTurn) (Conversation, error) {
	var after Conversation
	err := svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		var before Conversation
		if err := tx.Get(Collection, id, &before); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting conversation")
		}
		if err := svc.auth.Authorize(prn, core.OpUpdate, core.ResourceConversation, before, nil).Err(); err != nil {
			return err
		}

		now := time.Now().UTC()
		turn := Turn{
			ID:        uuid.New().String(),
			Type:      nt.Type,
			Text:      nt.Text,
			CreatedAt: now,
		}
		if nt.RequestFollowUp {
			turn.PendingStartAt = &now
		}

		after = before
		after.Turns = append(append([]Turn(nil), before.Turns...), turn)
		if after.State == StateAwaitingIdea {
			after.State = StateInProgress
		}
		after.LastActionAt = now
		after.UpdatedAt = now

		if err := CheckUpdate(before, after, false); err != nil {
			return err
		}
		if err := after.Validate(); err != nil {
			return err
		}
		return tx.Put(Collection, id, after)
	})
	if err != nil {
		return Conversation{}, err
	}
	return after, nil
}

// ResolvePending is the trusted worker path: it clears the trailing turn's
// pending flag and attaches the produced analysis. It is never exposed to
// end-user credentials.
func (svc *Service) ResolvePending(ctx context.Context, id, analysis string) (Conversation, error) {
	var after Conversation
	err := svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		var before Conversation
		if err := tx.Get(Collection, id, &before); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting conversation")
		}
		if !before.Locked() {
			return core.NewInvalidStateError("conversation has no pending operation")
		}

		now := time.Now().UTC()
		after = before
		after.Turns = append([]Turn(nil), before.Turns...)
		last := &after.Turns[len(after.Turns)-1]
		last.PendingStartAt = nil
		if analysis != "" {
			last.Analysis = analysis
		}
		after.LastActionAt = now
		after.UpdatedAt = now

		if err := CheckUpdate(before, after, true); err != nil {
			return err
		}
		return tx.Put(Collection, id, after)
	})
	if err != nil {
		return Conversation{}, err
	}
	return after, nil
}

// Close moves the conversation to its terminal state.
func (svc *Service) Close(ctx context.Context, prn principal.Principal, id string) (Conversation, error) {
	var after Conversation
	err := svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		var before Conversation
		if err := tx.Get(Collection, id, &before); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting conversation")
		}
		if err := svc.auth.Authorize(prn, core.OpUpdate, core.ResourceConversation, before, nil).Err(); err != nil {
			return err
		}

		now := time.Now().UTC()
		after = before
		after.State = StateClosed
		after.LastActionAt = now
		after.UpdatedAt = now

		if err := CheckUpdate(before, after, false); err != nil {
			return err
		}
		return tx.Put(Collection, id, after)
	})
	if err != nil {
		return Conversation{}, err
	}
	return after, nil
}
