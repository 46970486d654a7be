package assignment_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/policy"
	"github.com/trezcool/darasa/core/principal"
	inmemdoc "github.com/trezcool/darasa/storage/document/inmem"
)

func authed(id string) principal.Principal {
	return principal.Principal{ID: id, Authenticated: true}
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func floatPtr(f float64) *float64 { return &f }

func setupService(t *testing.T) *assignment.Service {
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
	return assignment.NewService(db, policy.NewEvaluator(policy.NewStoreDirectory(db)))
}

func TestService_SubmissionLifecycle(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	stud, teach := authed("stud"), authed("teach")

	// due an hour ago, so the submission lands late
	asg, err := svc.Create(ctx, teach, assignment.NewAssignment{
		CourseID: strPtr("math"), Title: "Essay", Prompt: "Write.", Mode: assignment.ModeWritten,
		DueAt: timePtr(time.Now().UTC().Add(-time.Hour)), AllowLate: true,
	})
	require.NoError(t, err)

	sub, err := svc.StartSubmission(ctx, stud, asg.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.StateInProgress, sub.State)

	t.Run("starting twice", func(t *testing.T) {
		_, err := svc.StartSubmission(ctx, stud, asg.ID)
		assert.IsType(t, &core.InvalidStateError{}, errors.Cause(err))
	})

	sub, err = svc.UpdateSubmission(ctx, stud, asg.ID, "stud", assignment.UpdateSubmission{State: assignment.StateSubmitted})
	require.NoError(t, err)
	assert.Equal(t, assignment.StateSubmitted, sub.State)
	require.NotNil(t, sub.SubmittedAt)
	assert.True(t, sub.Late)

	t.Run("owner cannot edit after submitting", func(t *testing.T) {
		_, err := svc.UpdateSubmission(ctx, stud, asg.ID, "stud", assignment.UpdateSubmission{Notes: "wait"})
		assert.IsType(t, &core.InvalidStateError{}, errors.Cause(err))
	})

	sub, err = svc.UpdateSubmission(ctx, teach, asg.ID, "stud", assignment.UpdateSubmission{
		State: assignment.StateGradedComplete, ScoreCompletion: floatPtr(0.9),
	})
	require.NoError(t, err)
	assert.Equal(t, assignment.StateGradedComplete, sub.State)

	t.Run("grading cannot move backwards", func(t *testing.T) {
		_, err := svc.UpdateSubmission(ctx, teach, asg.ID, "stud", assignment.UpdateSubmission{State: assignment.StateSubmitted})
		assert.IsType(t, &core.InvalidStateError{}, errors.Cause(err))
	})
}

func TestService_SubmissionVisibility(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	stud, teach := authed("stud"), authed("teach")

	asg, err := svc.Create(ctx, teach, assignment.NewAssignment{
		CourseID: strPtr("math"), Title: "Essay", Prompt: "Write.", Mode: assignment.ModeWritten,
	})
	require.NoError(t, err)
	_, err = svc.StartSubmission(ctx, stud, asg.ID)
	require.NoError(t, err)

	// the owning student and course staff may read it, nobody else
	_, err = svc.GetSubmission(ctx, stud, asg.ID, "stud")
	assert.NoError(t, err)
	_, err = svc.GetSubmission(ctx, teach, asg.ID, "stud")
	assert.NoError(t, err)
	_, err = svc.GetSubmission(ctx, authed("stranger"), asg.ID, "stud")
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))

	// listing the class's submissions is a staff surface
	subs, err := svc.ListSubmissions(ctx, teach, asg.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	_, err = svc.ListSubmissions(ctx, stud, asg.ID)
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))
}

func TestService_StandaloneAssignment(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	maker := authed("maker")

	asg, err := svc.Create(ctx, maker, assignment.NewAssignment{
		Title: "Side quest", Prompt: "Explore.", Mode: assignment.ModeDialogue,
	})
	require.NoError(t, err)
	assert.True(t, asg.IsStandalone())

	// creator-only access outside any course
	_, err = svc.Get(ctx, maker, asg.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, authed("stranger"), asg.ID)
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))

	_, err = svc.Update(ctx, authed("stranger"), asg.ID, assignment.UpdateAssignment{Title: "Mine now"})
	assert.Error(t, err)
	asg, err = svc.Update(ctx, maker, asg.ID, assignment.UpdateAssignment{Title: "Side quest II"})
	require.NoError(t, err)
	assert.Equal(t, "Side quest II", asg.Title)
}
