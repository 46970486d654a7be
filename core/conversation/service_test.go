package conversation_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/conversation"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/policy"
	"github.com/trezcool/darasa/core/principal"
	"github.com/trezcool/darasa/storage/document"
	inmemdoc "github.com/trezcool/darasa/storage/document/inmem"
)

func authed(id string) principal.Principal {
	return principal.Principal{ID: id, Authenticated: true}
}

func strPtr(s string) *string { return &s }

func seedClassroom(t *testing.T, store document.Store) {
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, course.Collection, "math", course.Course{
		ID: "math", Title: "Math", OwnerID: "owner", Visibility: course.VisibilityPrivate,
	}))
	for _, m := range []course.Membership{
		{ID: course.MembershipID("math", "teach"), CourseID: "math", UserID: strPtr("teach"), Email: "teach@darasa.io", Role: course.RoleInstructor, Status: course.StatusActive},
		{ID: course.MembershipID("math", "stud"), CourseID: "math", UserID: strPtr("stud"), Email: "stud@darasa.io", Role: course.RoleStudent, Status: course.StatusActive},
	} {
		require.NoError(t, store.Create(ctx, course.MembershipCollection, m.ID, m))
	}
	require.NoError(t, store.Create(ctx, assignment.Collection, "hw1", assignment.Assignment{
		ID: "hw1", CourseID: strPtr("math"), Title: "HW 1", Prompt: "Reflect.", Mode: assignment.ModeDialogue, CreatedBy: "teach",
	}))
}

func setupService(t *testing.T) *conversation.Service {
	db, err := inmemdoc.Open()
	require.NoError(t, err)
	seedClassroom(t, db)
	return conversation.NewService(db, policy.NewEvaluator(policy.NewStoreDirectory(db)))
}

// Full dialogue lifecycle: create, append with a requested follow-up, hit the
// pending gate, resolve it through the worker path, append again, close, and
// verify the terminal state.
func TestService_DialogueLifecycle(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	stud, teach := authed("stud"), authed("teach")

	cnv, err := svc.Create(ctx, stud, "hw1")
	require.NoError(t, err)
	assert.Equal(t, conversation.StateAwaitingIdea, cnv.State)

	// first turn requests a follow-up; the gate was open (no prior pending turn)
	cnv, err = svc.AddTurn(ctx, stud, cnv.ID, conversation.NewTurn{
		Type: conversation.TurnIdea, Text: "I want to study primes", RequestFollowUp: true,
	})
	require.NoError(t, err)
	assert.Equal(t, conversation.StateInProgress, cnv.State)
	assert.True(t, cnv.Locked())

	// any update before the flag clears is rejected
	_, err = svc.AddTurn(ctx, stud, cnv.ID, conversation.NewTurn{Type: conversation.TurnResponse, Text: "more"})
	assert.IsType(t, &core.InvalidStateError{}, errors.Cause(err))
	_, err = svc.Close(ctx, teach, cnv.ID)
	assert.IsType(t, &core.InvalidStateError{}, errors.Cause(err))

	// the trusted worker clears the flag
	cnv, err = svc.ResolvePending(ctx, cnv.ID, "a promising direction")
	require.NoError(t, err)
	assert.False(t, cnv.Locked())
	assert.Equal(t, "a promising direction", cnv.Turns[0].Analysis)

	// the student may extend the dialogue again
	cnv, err = svc.AddTurn(ctx, stud, cnv.ID, conversation.NewTurn{Type: conversation.TurnResponse, Text: "narrowing to twin primes"})
	require.NoError(t, err)
	assert.Len(t, cnv.Turns, 2)

	// the instructor closes; closed is terminal for everyone
	cnv, err = svc.Close(ctx, teach, cnv.ID)
	require.NoError(t, err)
	assert.Equal(t, conversation.StateClosed, cnv.State)

	_, err = svc.AddTurn(ctx, stud, cnv.ID, conversation.NewTurn{Type: conversation.TurnResponse, Text: "one more"})
	assert.IsType(t, &core.InvalidStateError{}, errors.Cause(err))
	_, err = svc.Close(ctx, teach, cnv.ID)
	assert.IsType(t, &core.InvalidStateError{}, errors.Cause(err))
}

func TestService_Authorization(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	stud, teach := authed("stud"), authed("teach")

	cnv, err := svc.Create(ctx, stud, "hw1")
	require.NoError(t, err)

	// an outsider's read renders as not-found, never as forbidden
	_, err = svc.Get(ctx, authed("stranger"), cnv.ID)
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))

	// staff of the course resolved via the assignment may read
	got, err := svc.Get(ctx, teach, cnv.ID)
	require.NoError(t, err)
	assert.Equal(t, cnv.ID, got.ID)

	// listing by assignment is a staff surface
	_, err = svc.List(ctx, stud, "hw1")
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))
	cnvs, err := svc.List(ctx, teach, "hw1")
	require.NoError(t, err)
	assert.Len(t, cnvs, 1)
}
