package conversation

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
)

func turn(id, text string, createdAt time.Time) Turn {
	return Turn{ID: id, Type: TurnResponse, Text: text, CreatedAt: createdAt}
}

func conv(state string, at time.Time, turns ...Turn) Conversation {
	return Conversation{
		ID:           "c1",
		AssignmentID: "hw1",
		UserID:       "stud",
		State:        state,
		LastActionAt: at,
		UpdatedAt:    at,
		Turns:        turns,
	}
}

func TestCheckUpdate(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	first := turn("t1", "my idea", t0)
	second := turn("t2", "a follow-up", t1)

	pendingFirst := first
	pendingFirst.PendingStartAt = &t0

	clearedFirst := pendingFirst
	clearedFirst.PendingStartAt = nil
	clearedFirst.Analysis = "looks solid"

	editedFirst := first
	editedFirst.Text = "rewritten history"

	tests := []struct {
		name    string
		before  Conversation
		after   Conversation
		trusted bool
		wantErr string
	}{
		{
			name:   "appending a turn",
			before: conv(StateInProgress, t0, first),
			after:  conv(StateInProgress, t1, first, second),
		},
		{
			name:   "forward state transition",
			before: conv(StateAwaitingIdea, t0),
			after:  conv(StateInProgress, t1, first),
		},
		{
			name:    "closed is terminal",
			before:  conv(StateClosed, t0, first),
			after:   conv(StateClosed, t1, first, second),
			wantErr: "closed",
		},
		{
			name:    "pending gate blocks updates",
			before:  conv(StateInProgress, t0, pendingFirst),
			after:   conv(StateInProgress, t1, pendingFirst, second),
			wantErr: "locked",
		},
		{
			name:    "trusted worker passes the gate",
			before:  conv(StateInProgress, t0, pendingFirst),
			after:   conv(StateInProgress, t1, clearedFirst),
			trusted: true,
		},
		{
			name:    "state cannot move backwards",
			before:  conv(StateInProgress, t0, first),
			after:   conv(StateAwaitingIdea, t1, first),
			wantErr: "backwards",
		},
		{
			name:    "turns cannot be removed",
			before:  conv(StateInProgress, t0, first, second),
			after:   conv(StateInProgress, t1, first),
			wantErr: "removed",
		},
		{
			name:    "earlier turns are immutable",
			before:  conv(StateInProgress, t0, first, second),
			after:   conv(StateInProgress, t1, editedFirst, second),
			wantErr: "edited",
		},
		{
			name:   "trailing turn may gain analysis",
			before: conv(StateInProgress, t0, first),
			after:  conv(StateInProgress, t1, clearedFirst),
		},
		{
			name:    "lastActionAt cannot decrease",
			before:  conv(StateInProgress, t1, first),
			after:   conv(StateInProgress, t0, first),
			wantErr: "lastActionAt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckUpdate(tt.before, tt.after, tt.trusted)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.IsType(t, &core.InvalidStateError{}, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConversation_TurnsBounds(t *testing.T) {
	now := time.Now().UTC()

	turns := make([]Turn, 0, MaxTurns+1)
	for i := 0; i < MaxTurns; i++ {
		turns = append(turns, turn("t"+strconv.Itoa(i), "text", now))
	}

	cnv := conv(StateInProgress, now, turns...)
	assert.NoError(t, cnv.Validate())

	cnv.Turns = append(cnv.Turns, turn("overflow", "text", now))
	assert.Error(t, cnv.Validate())
}
