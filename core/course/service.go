package course

import (
	"context"
	"fmt"
	"net/mail"
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
	store   document.Store
	auth    Authorizer
	mailSvc core.EmailService
	logger  core.Logger
}

func NewService(store document.Store, auth Authorizer, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{store: store, auth: auth, mailSvc: mailSvc, logger: logger}
}

// Create creates the course and seats the creator as its owner on the roster
// in the same transaction.
func (svc *Service) Create(ctx context.Context, prn principal.Principal, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		ID:         uuid.New().String(),
		Title:      nc.Title,
		Code:       nc.Code,
		OwnerID:    prn.ID,
		Visibility: nc.Visibility,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if crs.Visibility == "" {
		crs.Visibility = VisibilityPrivate
	}
	if err := svc.auth.Authorize(prn, core.OpCreate, core.ResourceCourse, nil, crs).Err(); err != nil {
		return Course{}, err
	}
	if err := crs.Validate(); err != nil {
		return Course{}, err
	}

	mbr := Membership{
		ID:        MembershipID(crs.ID, prn.ID),
		CourseID:  crs.ID,
		UserID:    &prn.ID,
		Email:     prn.Email,
		Role:      RoleOwner,
		Status:    StatusActive,
		JoinedAt:  &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := mbr.Validate(); err != nil {
		return Course{}, err
	}

	err := svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		if err := tx.Create(Collection, crs.ID, crs); err != nil {
			return errors.Wrap(err, "creating course")
		}
		return tx.Create(MembershipCollection, mbr.ID, mbr)
	})
	if err != nil {
		return Course{}, err
	}
	return crs, nil
}

func (svc *Service) Get(ctx context.Context, prn principal.Principal, id string) (Course, error) {
	var crs Course
	if err := svc.store.Get(ctx, Collection, id, &crs); err != nil {
		if errors.Cause(err) == document.ErrNotFound {
			return Course{}, core.ErrNotFound
		}
		return Course{}, errors.Wrap(err, "getting course")
	}
	if err := svc.auth.Authorize(prn, core.OpRead, core.ResourceCourse, crs, nil).ReadErr(); err != nil {
		return Course{}, err
	}
	return crs, nil
}

// List returns the courses visible to prn: public ones plus those prn owns or
// is an active member of. The per-course read rule does the filtering.
func (svc *Service) List(ctx context.Context, prn principal.Principal) ([]Course, error) {
	if err := svc.auth.Authorize(prn, core.OpList, core.ResourceCourse, nil, nil).ReadErr(); err != nil {
		return nil, err
	}
	var all []Course
	err := svc.store.Query(ctx, Collection, nil, &document.Ordering{Field: "createdAt", Ascending: true}, &all)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	visible := make([]Course, 0, len(all))
	for _, crs := range all {
		if svc.auth.Authorize(prn, core.OpRead, core.ResourceCourse, crs, nil).Allowed {
			visible = append(visible, crs)
		}
	}
	return visible, nil
}

func (svc *Service) Update(ctx context.Context, prn principal.Principal, id string, uc UpdateCourse) (Course, error) {
	var crs Course
	err := svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		if err := tx.Get(Collection, id, &crs); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting course")
		}
		if err := svc.auth.Authorize(prn, core.OpUpdate, core.ResourceCourse, crs, nil).Err(); err != nil {
			return err
		}

		if uc.Title != "" {
			crs.Title = uc.Title
		}
		if uc.Code != "" {
			crs.Code = uc.Code
		}
		if uc.Visibility != "" {
			crs.Visibility = uc.Visibility
		}
		crs.UpdatedAt = time.Now().UTC()
		if err := crs.Validate(); err != nil {
			return err
		}
		return tx.Put(Collection, id, crs)
	})
	if err != nil {
		return Course{}, err
	}
	return crs, nil
}

// Delete removes the course along with its roster and topics.
func (svc *Service) Delete(ctx context.Context, prn principal.Principal, id string) error {
	return svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		var crs Course
		if err := tx.Get(Collection, id, &crs); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting course")
		}
		if err := svc.auth.Authorize(prn, core.OpDelete, core.ResourceCourse, crs, nil).Err(); err != nil {
			return err
		}

		var roster []Membership
		if err := tx.Query(MembershipCollection, []document.Filter{{Field: "courseId", Value: id}}, nil, &roster); err != nil {
			return errors.Wrap(err, "querying roster")
		}
		for _, mbr := range roster {
			if err := tx.Delete(MembershipCollection, mbr.ID); err != nil {
				return errors.Wrap(err, "deleting roster row")
			}
		}
		var topics []Topic
		if err := tx.Query(TopicCollection, []document.Filter{{Field: "courseId", Value: id}}, nil, &topics); err != nil {
			return errors.Wrap(err, "querying topics")
		}
		for _, tpc := range topics {
			if err := tx.Delete(TopicCollection, tpc.ID); err != nil {
				return errors.Wrap(err, "deleting topic")
			}
		}
		return tx.Delete(Collection, id)
	})
}

// Roster

// AddMember creates a roster row. A row without a resolved userId starts as a
// pending email invitation and triggers an invitation email.
func (svc *Service) AddMember(ctx context.Context, prn principal.Principal, courseID string, nm NewMember) (Membership, error) {
	now := time.Now().UTC()
	mbr := Membership{
		ID:        MembershipID(courseID, nm.MemberID),
		CourseID:  courseID,
		UserID:    nm.UserID,
		Email:     nm.Email,
		Role:      nm.Role,
		Status:    StatusInvited,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nm.UserID != nil {
		mbr.Status = StatusActive
		mbr.JoinedAt = &now
	}
	if err := svc.auth.Authorize(prn, core.OpCreate, core.ResourceMembership, nil, mbr).Err(); err != nil {
		return Membership{}, err
	}
	if err := mbr.Validate(); err != nil {
		return Membership{}, err
	}
	if err := svc.store.Create(ctx, MembershipCollection, mbr.ID, mbr); err != nil {
		if errors.Cause(err) == document.ErrExists {
			return Membership{}, core.NewValidationError(errors.New("member already on the roster"),
				core.FieldError{Field: "memberId", Error: "member already on the roster"})
		}
		return Membership{}, errors.Wrap(err, "creating roster row")
	}

	if mbr.Status == StatusInvited {
		svc.sendInvitation(ctx, prn, mbr)
	}
	return mbr, nil
}

func (svc *Service) sendInvitation(ctx context.Context, prn principal.Principal, mbr Membership) {
	var crs Course
	if err := svc.store.Get(ctx, Collection, mbr.CourseID, &crs); err != nil {
		svc.logger.Error("loading course for invitation email", err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: mbr.Email}},
		Subject: fmt.Sprintf("%s - You have been invited to %s", core.Conf.AppName, crs.Title),
		TextContent: fmt.Sprintf(
			"%s invited you to join %q as %s.\n\nAccept the invitation at %s/courses/%s/join",
			prn.DisplayName, crs.Title, mbr.Role, core.Conf.FrontendBaseURL, crs.ID,
		),
	})
}

func (svc *Service) GetMember(ctx context.Context, prn principal.Principal, courseID, memberID string) (Membership, error) {
	var mbr Membership
	if err := svc.store.Get(ctx, MembershipCollection, MembershipID(courseID, memberID), &mbr); err != nil {
		if errors.Cause(err) == document.ErrNotFound {
			return Membership{}, core.ErrNotFound
		}
		return Membership{}, errors.Wrap(err, "getting roster row")
	}
	if err := svc.auth.Authorize(prn, core.OpRead, core.ResourceMembership, mbr, nil).ReadErr(); err != nil {
		return Membership{}, err
	}
	return mbr, nil
}

func (svc *Service) ListMembers(ctx context.Context, prn principal.Principal, courseID string) ([]Membership, error) {
	if err := svc.auth.Authorize(prn, core.OpList, core.ResourceMembership, courseID, nil).ReadErr(); err != nil {
		return nil, err
	}
	var roster []Membership
	err := svc.store.Query(ctx, MembershipCollection,
		[]document.Filter{{Field: "courseId", Value: courseID}},
		&document.Ordering{Field: "createdAt", Ascending: true},
		&roster,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	return roster, nil
}

// UpdateMember mutates a roster row; resolving an invitation (userId set,
// status flipped to active) stamps joinedAt.
func (svc *Service) UpdateMember(ctx context.Context, prn principal.Principal, courseID, memberID string, um UpdateMember) (Membership, error) {
	var mbr Membership
	err := svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		if err := tx.Get(MembershipCollection, MembershipID(courseID, memberID), &mbr); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting roster row")
		}
		if err := svc.auth.Authorize(prn, core.OpUpdate, core.ResourceMembership, mbr, nil).Err(); err != nil {
			return err
		}

		now := time.Now().UTC()
		if um.UserID != nil {
			mbr.UserID = um.UserID
		}
		if um.Role != "" {
			mbr.Role = um.Role
		}
		if um.Status != "" {
			if um.Status == StatusActive && mbr.Status != StatusActive && mbr.JoinedAt == nil {
				mbr.JoinedAt = &now
			}
			mbr.Status = um.Status
		}
		mbr.UpdatedAt = now
		if err := mbr.Validate(); err != nil {
			return err
		}
		return tx.Put(MembershipCollection, mbr.ID, mbr)
	})
	if err != nil {
		return Membership{}, err
	}
	return mbr, nil
}

func (svc *Service) RemoveMember(ctx context.Context, prn principal.Principal, courseID, memberID string) error {
	return svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		var mbr Membership
		if err := tx.Get(MembershipCollection, MembershipID(courseID, memberID), &mbr); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting roster row")
		}
		if err := svc.auth.Authorize(prn, core.OpDelete, core.ResourceMembership, mbr, nil).Err(); err != nil {
			return err
		}
		return tx.Delete(MembershipCollection, mbr.ID)
	})
}

// Topics

func (svc *Service) CreateTopic(ctx context.Context, prn principal.Principal, courseID string, nt NewTopic) (Topic, error) {
	now := time.Now().UTC()
	tpc := Topic{
		ID:          uuid.New().String(),
		CourseID:    courseID,
		Title:       nt.Title,
		Description: nt.Description,
		Order:       nt.Order,
		CreatedBy:   prn.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := svc.auth.Authorize(prn, core.OpCreate, core.ResourceTopic, nil, tpc).Err(); err != nil {
		return Topic{}, err
	}
	if err := tpc.Validate(); err != nil {
		return Topic{}, err
	}
	if err := svc.store.Create(ctx, TopicCollection, tpc.ID, tpc); err != nil {
		return Topic{}, errors.Wrap(err, "creating topic")
	}
	return tpc, nil
}

func (svc *Service) GetTopic(ctx context.Context, prn principal.Principal, id string) (Topic, error) {
	var tpc Topic
	if err := svc.store.Get(ctx, TopicCollection, id, &tpc); err != nil {
		if errors.Cause(err) == document.ErrNotFound {
			return Topic{}, core.ErrNotFound
		}
		return Topic{}, errors.Wrap(err, "getting topic")
	}
	if err := svc.auth.Authorize(prn, core.OpRead, core.ResourceTopic, tpc, nil).ReadErr(); err != nil {
		return Topic{}, err
	}
	return tpc, nil
}

func (svc *Service) ListTopics(ctx context.Context, prn principal.Principal, courseID string) ([]Topic, error) {
	if err := svc.auth.Authorize(prn, core.OpList, core.ResourceTopic, courseID, nil).ReadErr(); err != nil {
		return nil, err
	}
	var topics []Topic
	err := svc.store.Query(ctx, TopicCollection,
		[]document.Filter{{Field: "courseId", Value: courseID}},
		&document.Ordering{Field: "order", Ascending: true},
		&topics,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying topics")
	}
	return topics, nil
}

func (svc *Service) UpdateTopic(ctx context.Context, prn principal.Principal, id string, ut UpdateTopic) (Topic, error) {
	var tpc Topic
	err := svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		if err := tx.Get(TopicCollection, id, &tpc); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting topic")
		}
		if err := svc.auth.Authorize(prn, core.OpUpdate, core.ResourceTopic, tpc, nil).Err(); err != nil {
			return err
		}

		if ut.Title != "" {
			tpc.Title = ut.Title
		}
		if ut.Description != "" {
			tpc.Description = ut.Description
		}
		if ut.Order != nil {
			tpc.Order = *ut.Order
		}
		tpc.UpdatedAt = time.Now().UTC()
		if err := tpc.Validate(); err != nil {
			return err
		}
		return tx.Put(TopicCollection, id, tpc)
	})
	if err != nil {
		return Topic{}, err
	}
	return tpc, nil
}

func (svc *Service) DeleteTopic(ctx context.Context, prn principal.Principal, id string) error {
	return svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		var tpc Topic
		if err := tx.Get(TopicCollection, id, &tpc); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting topic")
		}
		if err := svc.auth.Authorize(prn, core.OpDelete, core.ResourceTopic, tpc, nil).Err(); err != nil {
			return err
		}
		return tx.Delete(TopicCollection, tpc.ID)
	})
}
