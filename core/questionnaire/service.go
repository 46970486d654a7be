package questionnaire

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

func (svc *Service) Create(ctx context.Context, prn principal.Principal, nq NewQuestionnaire) (Questionnaire, error) {
	now := time.Now().UTC()
	qn := Questionnaire{
		ID:            nq.ID,
		CourseID:      nq.CourseID,
		TopicID:       nq.TopicID,
		Title:         nq.Title,
		Questions:     nq.Questions,
		StartAt:       nq.StartAt,
		DueAt:         nq.DueAt,
		AllowLate:     nq.AllowLate,
		AllowResubmit: nq.AllowResubmit,
		CreatedBy:     prn.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if qn.ID == "" {
		qn.ID = uuid.New().String()
	}
	if qn.StartAt.IsZero() {
		qn.StartAt = now
	}
	if err := svc.auth.Authorize(prn, core.OpCreate, core.ResourceQuestionnaire, nil, qn).Err(); err != nil {
		return Questionnaire{}, err
	}
	if err := qn.Validate(); err != nil {
		return Questionnaire{}, err
	}
	if err := svc.store.Create(ctx, Collection, qn.ID, qn); err != nil {
		if errors.Cause(err) == document.ErrExists {
			return Questionnaire{}, core.NewValidationError(errors.New("questionnaire id already taken"),
				core.FieldError{Field: "id", Error: "questionnaire id already taken"})
		}
		return Questionnaire{}, errors.Wrap(err, "creating questionnaire")
	}
	return qn, nil
}

func (svc *Service) Get(ctx context.Context, prn principal.Principal, id string) (Questionnaire, error) {
	var qn Questionnaire
	if err := svc.store.Get(ctx, Collection, id, &qn); err != nil {
		if errors.Cause(err) == document.ErrNotFound {
			return Questionnaire{}, core.ErrNotFound
		}
		return Questionnaire{}, errors.Wrap(err, "getting questionnaire")
	}
	if err := svc.auth.Authorize(prn, core.OpRead, core.ResourceQuestionnaire, qn, nil).ReadErr(); err != nil {
		return Questionnaire{}, err
	}
	return qn, nil
}

func (svc *Service) List(ctx context.Context, prn principal.Principal, courseID string) ([]Questionnaire, error) {
	if err := svc.auth.Authorize(prn, core.OpList, core.ResourceQuestionnaire, courseID, nil).ReadErr(); err != nil {
		return nil, err
	}
	var qns []Questionnaire
	err := svc.store.Query(ctx, Collection,
		[]document.Filter{{Field: "courseId", Value: courseID}},
		&document.Ordering{Field: "startAt", Ascending: true},
		&qns,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying questionnaires")
	}
	return qns, nil
}

func (svc *Service) Update(ctx context.Context, prn principal.Principal, id string, uq UpdateQuestionnaire) (Questionnaire, error) {
	var qn Questionnaire
	err := svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		if err := tx.Get(Collection, id, &qn); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting questionnaire")
		}
		if err := svc.auth.Authorize(prn, core.OpUpdate, core.ResourceQuestionnaire, qn, nil).Err(); err != nil {
			return err
		}

		if uq.TopicID != nil {
			qn.TopicID = uq.TopicID
		}
		if uq.Title != "" {
			qn.Title = uq.Title
		}
		if len(uq.Questions) > 0 {
			qn.Questions = uq.Questions
		}
		if uq.DueAt != nil {
			qn.DueAt = uq.DueAt
		}
		if uq.AllowLate != nil {
			qn.AllowLate = *uq.AllowLate
		}
		if uq.AllowResubmit != nil {
			qn.AllowResubmit = *uq.AllowResubmit
		}
		qn.UpdatedAt = time.Now().UTC()
		if err := qn.Validate(); err != nil {
			return err
		}
		return tx.Put(Collection, id, qn)
	})
	if err != nil {
		return Questionnaire{}, err
	}
	return qn, nil
}

func (svc *Service) Delete(ctx context.Context, prn principal.Principal, id string) error {
	return svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		var qn Questionnaire
		if err := tx.Get(Collection, id, &qn); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting questionnaire")
		}
		if err := svc.auth.Authorize(prn, core.OpDelete, core.ResourceQuestionnaire, qn, nil).Err(); err != nil {
			return err
		}
		return tx.Delete(Collection, qn.ID)
	})
}

// Responses

// SubmitResponse records the caller's answers. The denormalized courseId is
// stamped from the questionnaire itself, so a stored response can never carry
// a forged parent reference.
func (svc *Service) SubmitResponse(ctx context.Context, prn principal.Principal, nr NewResponse) (Response, error) {
	var rsp Response
	err := svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		var qn Questionnaire
		if err := tx.Get(Collection, nr.QuestionnaireID, &qn); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting questionnaire")
		}

		now := time.Now().UTC()
		rsp = Response{
			ID:              uuid.New().String(),
			QuestionnaireID: nr.QuestionnaireID,
			UserID:          prn.ID,
			CourseID:        qn.CourseID,
			Responses:       nr.Responses,
			SubmittedAt:     now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := svc.auth.Authorize(prn, core.OpCreate, core.ResourceResponse, nil, rsp).Err(); err != nil {
			return err
		}
		if err := rsp.Validate(); err != nil {
			return err
		}
		if err := rsp.MatchesQuestions(qn); err != nil {
			return err
		}
		return tx.Create(ResponseCollection, rsp.ID, rsp)
	})
	if err != nil {
		return Response{}, err
	}
	return rsp, nil
}

func (svc *Service) GetResponse(ctx context.Context, prn principal.Principal, id string) (Response, error) {
	var rsp Response
	if err := svc.store.Get(ctx, ResponseCollection, id, &rsp); err != nil {
		if errors.Cause(err) == document.ErrNotFound {
			return Response{}, core.ErrNotFound
		}
		return Response{}, errors.Wrap(err, "getting response")
	}
	if err := svc.auth.Authorize(prn, core.OpRead, core.ResourceResponse, rsp, nil).ReadErr(); err != nil {
		return Response{}, err
	}
	return rsp, nil
}

func (svc *Service) ListResponses(ctx context.Context, prn principal.Principal, questionnaireID string) ([]Response, error) {
	if err := svc.auth.Authorize(prn, core.OpList, core.ResourceResponse, questionnaireID, nil).ReadErr(); err != nil {
		return nil, err
	}
	var rsps []Response
	err := svc.store.Query(ctx, ResponseCollection,
		[]document.Filter{{Field: "questionnaireId", Value: questionnaireID}},
		&document.Ordering{Field: "submittedAt", Ascending: true},
		&rsps,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying responses")
	}
	return rsps, nil
}

// UpdateResponse replaces the caller's answers; the respondent is immutable.
func (svc *Service) UpdateResponse(ctx context.Context, prn principal.Principal, id string, items []ResponseItem) (Response, error) {
	var rsp Response
	err := svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		if err := tx.Get(ResponseCollection, id, &rsp); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting response")
		}

		now := time.Now().UTC()
		after := rsp
		after.Responses = items
		after.SubmittedAt = now
		after.UpdatedAt = now
		if err := svc.auth.Authorize(prn, core.OpUpdate, core.ResourceResponse, rsp, after).Err(); err != nil {
			return err
		}
		if err := after.Validate(); err != nil {
			return err
		}

		var qn Questionnaire
		if err := tx.Get(Collection, after.QuestionnaireID, &qn); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting questionnaire")
		}
		if err := after.MatchesQuestions(qn); err != nil {
			return err
		}

		rsp = after
		return tx.Put(ResponseCollection, id, rsp)
	})
	if err != nil {
		return Response{}, err
	}
	return rsp, nil
}

func (svc *Service) DeleteResponse(ctx context.Context, prn principal.Principal, id string) error {
	return svc.store.RunTransaction(ctx, func(tx document.Tx) error {
		var rsp Response
		if err := tx.Get(ResponseCollection, id, &rsp); err != nil {
			if errors.Cause(err) == document.ErrNotFound {
				return core.ErrNotFound
			}
			return errors.Wrap(err, "getting response")
		}
		if err := svc.auth.Authorize(prn, core.OpDelete, core.ResourceResponse, rsp, nil).Err(); err != nil {
			return err
		}
		return tx.Delete(ResponseCollection, rsp.ID)
	})
}
