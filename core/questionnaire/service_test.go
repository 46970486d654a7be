package questionnaire_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/policy"
	"github.com/trezcool/darasa/core/principal"
	"github.com/trezcool/darasa/core/questionnaire"
	inmemdoc "github.com/trezcool/darasa/storage/document/inmem"
)

func authed(id string) principal.Principal {
	return principal.Principal{ID: id, Authenticated: true}
}

func strPtr(s string) *string { return &s }

func setupService(t *testing.T) *questionnaire.Service {
	db, err := inmemdoc.Open()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, db.Create(ctx, course.Collection, "math", course.Course{
		ID: "math", Title: "Math", OwnerID: "owner", Visibility: course.VisibilityPrivate,
	}))
	for _, m := range []course.Membership{
		{ID: course.MembershipID("math", "teach"), CourseID: "math", UserID: strPtr("teach"), Email: "teach@darasa.io", Role: course.RoleInstructor, Status: course.StatusActive},
		{ID: course.MembershipID("math", "stud"), CourseID: "math", UserID: strPtr("stud"), Email: "stud@darasa.io", Role: course.RoleStudent, Status: course.StatusActive},
	} {
		require.NoError(t, db.Create(ctx, course.MembershipCollection, m.ID, m))
	}
	return questionnaire.NewService(db, policy.NewEvaluator(policy.NewStoreDirectory(db)))
}

func newQuizInput(id string) questionnaire.NewQuestionnaire {
	return questionnaire.NewQuestionnaire{
		ID:       id,
		CourseID: strPtr("math"),
		Title:    "Weekly check-in",
		Questions: []questionnaire.QuestionItem{
			{Question: questionnaire.Question{
				Type: questionnaire.TypeSingleChoice, QuestionText: "Pick one", Options: []string{"a", "b"},
			}, Required: true},
		},
	}
}

func TestService_Create(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	qn, err := svc.Create(ctx, authed("teach"), newQuizInput("quiz01"))
	require.NoError(t, err)
	assert.Equal(t, "teach", qn.CreatedBy)

	t.Run("id already taken", func(t *testing.T) {
		_, err := svc.Create(ctx, authed("teach"), newQuizInput("quiz01"))
		assert.IsType(t, &core.ValidationError{}, errors.Cause(err))
	})

	t.Run("students cannot create course questionnaires", func(t *testing.T) {
		_, err := svc.Create(ctx, authed("stud"), newQuizInput("quiz02"))
		assert.IsType(t, &core.AuthorizationError{}, errors.Cause(err))
	})
}

func TestService_Update(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	stud, teach := authed("stud"), authed("teach")

	created, err := svc.Create(ctx, teach, newQuizInput("quiz01"))
	require.NoError(t, err)

	qn, err := svc.Update(ctx, teach, "quiz01", questionnaire.UpdateQuestionnaire{Title: "Revised check-in"})
	require.NoError(t, err)
	assert.Equal(t, "Revised check-in", qn.Title)
	assert.True(t, qn.UpdatedAt.After(created.UpdatedAt))

	t.Run("students cannot update", func(t *testing.T) {
		_, err := svc.Update(ctx, stud, "quiz01", questionnaire.UpdateQuestionnaire{Title: "Hijacked"})
		assert.IsType(t, &core.AuthorizationError{}, errors.Cause(err))
	})

	t.Run("unknown questionnaire", func(t *testing.T) {
		_, err := svc.Update(ctx, teach, "nope", questionnaire.UpdateQuestionnaire{Title: "Lost"})
		assert.Equal(t, core.ErrNotFound, errors.Cause(err))
	})
}

func TestService_SubmitResponse(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	stud, teach := authed("stud"), authed("teach")

	_, err := svc.Create(ctx, teach, newQuizInput("quiz01"))
	require.NoError(t, err)

	answer := []questionnaire.ResponseItem{
		{QuestionIndex: 0, Answer: questionnaire.Answer{Type: questionnaire.TypeSingleChoice, Choice: "a"}},
	}

	// a caller-supplied courseId is ignored; the stored copy always comes
	// from the questionnaire itself
	rsp, err := svc.SubmitResponse(ctx, stud, questionnaire.NewResponse{
		QuestionnaireID: "quiz01",
		CourseID:        strPtr("some-other-course"),
		Responses:       answer,
	})
	require.NoError(t, err)
	assert.Equal(t, "stud", rsp.UserID)
	require.NotNil(t, rsp.CourseID)
	assert.Equal(t, "math", *rsp.CourseID)

	t.Run("answer must match the question", func(t *testing.T) {
		_, err := svc.SubmitResponse(ctx, stud, questionnaire.NewResponse{
			QuestionnaireID: "quiz01",
			Responses: []questionnaire.ResponseItem{
				{QuestionIndex: 0, Answer: questionnaire.Answer{Type: questionnaire.TypeShortAnswer, Text: "b"}},
			},
		})
		assert.IsType(t, &core.ValidationError{}, errors.Cause(err))
	})

	t.Run("respondent and staff may read it", func(t *testing.T) {
		_, err := svc.GetResponse(ctx, stud, rsp.ID)
		assert.NoError(t, err)
		_, err = svc.GetResponse(ctx, teach, rsp.ID)
		assert.NoError(t, err)
		_, err = svc.GetResponse(ctx, authed("stranger"), rsp.ID)
		assert.Equal(t, core.ErrNotFound, errors.Cause(err))
	})

	t.Run("only the respondent may edit", func(t *testing.T) {
		_, err := svc.UpdateResponse(ctx, teach, rsp.ID, answer)
		assert.IsType(t, &core.AuthorizationError{}, errors.Cause(err))

		updated, err := svc.UpdateResponse(ctx, stud, rsp.ID, []questionnaire.ResponseItem{
			{QuestionIndex: 0, Answer: questionnaire.Answer{Type: questionnaire.TypeSingleChoice, Choice: "b"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "b", updated.Responses[0].Answer.Choice)
	})

	t.Run("listing responses is a staff surface", func(t *testing.T) {
		rsps, err := svc.ListResponses(ctx, teach, "quiz01")
		require.NoError(t, err)
		assert.Len(t, rsps, 1)
		_, err = svc.ListResponses(ctx, stud, "quiz01")
		assert.Equal(t, core.ErrNotFound, errors.Cause(err))
	})
}
