package assignment

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

func (svc *Service) Create(ctx context.Context, prn principal.Principal, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	asg := Assignment{
		ID:            uuid.New().String(),
		CourseID:      na.CourseID,
		TopicID:       na.TopicID,
		Title:         na.Title,
		Prompt:        na.Prompt,
		Mode:          na.Mode,
		StartAt:       na.StartAt,
		DueAt:         na.DueAt,
		AllowLate:     na.AllowLate,
		AllowResubmit: na.AllowResubmit,
		CreatedBy:     prn.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if asg.StartAt.IsZero() {
		asg.StartAt = now
	}
	if err := svc.auth.Authorize(prn, core.OpCreate, core.ResourceAssignment, nil, asg).Err(); err != nil {
		return Assignment{}, err
	}
	if err := asg.Validate(); err != nil {
		return Assignment{}, err
	}
	if err := svc.store.Create(ctx, Collection, asg.ID, asg); err != nil {
		return Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return asg, nil
}

func (svc *Service) Get(ctx context.Context, prn principal.Principal, id string) (Assignment, error) {
	var asg Assignment
	if err := svc.store.Get(ctx, Collection, id, &asg); err != nil {
		if errors.Cause(err) == document.ErrNotFound {
			return Assignment{}, core.ErrNotFound
		}
		return Assignment{}, errors.Wrap(err, "getting assignment")
	}
	if err := svc.auth.Authorize(prn, core.OpRead, core.ResourceAssignment, asg, nil).ReadErr(); err != nil {
		return Assignment{}, err
	}
	return asg, nil
}

func (svc *Service) List(ctx context.Context, prn principal.Principal, courseID string) ([]Assignment, error) {
	if err := svc.auth.Authorize(prn, core.OpList, core.ResourceAssignment, courseID, nil).ReadErr(); err != nil {
		return nil, err
	}
	var asgs []Assignment
	err := svc.store.Query(ctx, Collection,
		[]document.Filter{{Field: "courseId", Value: courseID}},
		&document.Ordering{Field: "startAt", Ascending: true},
		&asgs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	return asgs, nil
}

func (svc *Service) Update(ctx context.Context, prn principal.Principal, id string, ua UpdateAssignment) (Assignment, error) {
	var asg Assignment
	err := svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		if err := tx.Get(Collection, id, &asg); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting assignment")
		}
		if err := svc.auth.Authorize(prn, core.OpUpdate, core.ResourceAssignment, asg, nil).Err(); err != nil {
			return err
		}

		if ua.TopicID != nil {
			asg.TopicID = ua.TopicID
		}
		if ua.Title != "" {
			asg.Title = ua.Title
		}
		if ua.Prompt != "" {
			asg.Prompt = ua.Prompt
		}
		if ua.DueAt != nil {
			asg.DueAt = ua.DueAt
		}
		if ua.AllowLate != nil {
			asg.AllowLate = *ua.AllowLate
		}
		if ua.AllowResubmit != nil {
			asg.AllowResubmit = *ua.AllowResubmit
		}
		asg.UpdatedAt = time.Now().UTC()
		if err := asg.Validate(); err != nil {
			return err
		}
		return tx.Put(Collection, id, asg)
	})
	if err != nil {
		return Assignment{}, err
	}
	return asg, nil
}

func (svc *Service) Delete(ctx context.Context, prn principal.Principal, id string) error {
	return svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		var asg Assignment
		if err := tx.Get(Collection, id, &asg); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting assignment")
		}
		if err := svc.auth.Authorize(prn, core.OpDelete, core.ResourceAssignment, asg, nil).Err(); err != nil {
			return err
		}
		return tx.Delete(Collection, asg.ID)
	})
}

// Submissions

// StartSubmission opens the caller's submission row for the assignment.
func (svc *Service) StartSubmission(ctx context.Context, prn principal.Principal, assignmentID string) (Submission, error) {
	now := time.Now().UTC()
	sub := Submission{
		ID:           SubmissionID(assignmentID, prn.ID),
		AssignmentID: assignmentID,
		UserID:       prn.ID,
		State:        StateInProgress,
		StartedAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := svc.auth.Authorize(prn, core.OpCreate, core.ResourceSubmission, nil, sub).Err(); err != nil {
		return Submission{}, err
	}
	if err := sub.Validate(); err != nil {
		return Submission{}, err
	}
	if err := svc.store.Create(ctx, SubmissionCollection, sub.ID, sub); err != nil {
		if errors.Cause(err) == document.ErrExists {
			return Submission{}, core.NewInvalidStateError("submission already started")
		}
		return Submission{}, errors.Wrap(err, "creating submission")
	}
	return sub, nil
}

func (svc *Service) GetSubmission(ctx context.Context, prn principal.Principal, assignmentID, userID string) (Submission, error) {
	var sub Submission
	if err := svc.store.Get(ctx, SubmissionCollection, SubmissionID(assignmentID, userID), &sub); err != nil {
		if errors.Cause(err) == document.ErrNotFound {
			return Submission{}, core.ErrNotFound
		}
		return Submission{}, errors.Wrap(err, "getting submission")
	}
	if err := svc.auth.Authorize(prn, core.OpRead, core.ResourceSubmission, sub, nil).ReadErr(); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func (svc *Service) ListSubmissions(ctx context.Context, prn principal.Principal, assignmentID string) ([]Submission, error) {
	if err := svc.auth.Authorize(prn, core.OpList, core.ResourceSubmission, assignmentID, nil).ReadErr(); err != nil {
		return nil, err
	}
	var subs []Submission
	err := svc.store.Query(ctx, SubmissionCollection,
		[]document.Filter{{Field: "assignmentId", Value: assignmentID}},
		&document.Ordering{Field: "startedAt", Ascending: true},
		&subs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return subs, nil
}

// UpdateSubmission applies a lifecycle update. The owning student is held to
// the student transition rules (editable only while in_progress, moving at
// most to submitted); anyone else the policy lets through is grading staff
// and is held to the forward-only rule.
func (svc *Service) UpdateSubmission(ctx context.Context, prn principal.Principal, assignmentID, userID string, us UpdateSubmission) (Submission, error) {
	var sub Submission
	err := svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		if err := tx.Get(SubmissionCollection, SubmissionID(assignmentID, userID), &sub); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting submission")
		}
		if err := svc.auth.Authorize(prn, core.OpUpdate, core.ResourceSubmission, sub, nil).Err(); err != nil {
			return err
		}

		before := sub
		now := time.Now().UTC()
		if us.State != "" {
			sub.State = us.State
		}
		if us.ScoreCompletion != nil {
			sub.ScoreCompletion = us.ScoreCompletion
		}
		if us.Notes != "" {
			sub.Notes = us.Notes
		}
		if prn.ID == sub.UserID {
			if err := CheckStudentTransition(before, sub); err != nil {
				return err
			}
		} else {
			if err := CheckStaffTransition(before, sub); err != nil {
				return err
			}
		}
		if before.State == StateInProgress && sub.State == StateSubmitted {
			sub.SubmittedAt = &now
			var asg Assignment
			if err := tx.Get(Collection, assignmentID, &asg); err == nil {
				sub.Late = asg.PastDue(now)
			}
		}
		sub.UpdatedAt = now
		if err := sub.Validate(); err != nil {
			return err
		}
		return tx.Put(SubmissionCollection, sub.ID, sub)
	})
	if err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func (svc *Service) DeleteSubmission(ctx context.Context, prn principal.Principal, assignmentID, userID string) error {
	return svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		var sub Submission
		if err := tx.Get(SubmissionCollection, SubmissionID(assignmentID, userID), &sub); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting submission")
		}
		if err := svc.auth.Authorize(prn, core.OpDelete, core.ResourceSubmission, sub, nil).Err(); err != nil {
			return err
		}
		return tx.Delete(SubmissionCollection, sub.ID)
	})
}
