package conversation

import (
	"time"

	"github.com/trezcool/darasa/core"
)

const Collection = "conversations"

// Conversation states; forward-only, closed is terminal.
const (
	StateAwaitingIdea = "awaiting_idea"
	StateInProgress   = "in_progress"
	StateClosed       = "closed"
)

// Turn types.
const (
	TurnIdea     = "idea"
	TurnQuestion = "question"
	TurnResponse = "response"
)

// MaxTurns bounds the embedded turn sequence.
const MaxTurns = 1000

// Turn is embedded in its Conversation by value; it has no independent
// lifecycle. A non-nil PendingStartAt marks an in-flight asynchronous step
// and update-locks the whole conversation.
type Turn struct {
	ID             string     `json:"id" validate:"required,max=128"`
	Type           string     `json:"type" validate:"required,oneof=idea question response"`
	Text           string     `json:"text" validate:"required,max=20000"`
	Analysis       string     `json:"analysis,omitempty" validate:"omitempty,max=20000"`
	PendingStartAt *time.Time `json:"pendingStartAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Conversation is the submission artifact for dialogue assignments; no
// separate Submission row exists for that mode.
type Conversation struct {
	ID           string    `json:"id" validate:"required,max=128"`
	AssignmentID string    `json:"assignmentId" validate:"required,max=128"`
	UserID       string    `json:"userId" validate:"required,max=128"`
	State        string    `json:"state" validate:"required,oneof=awaiting_idea in_progress closed"`
	LastActionAt time.Time `json:"lastActionAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Turns        []Turn    `json:"turns" validate:"max=1000,dive"`
}

func (c *Conversation) Validate() error {
	return core.Validate.Struct(c)
}

func (c Conversation) LastTurn() (Turn, bool) {
	if len(c.Turns) == 0 {
		return Turn{}, false
	}
	return c.Turns[len(c.Turns)-1], true
}

// Locked reports whether the trailing turn has an in-flight pending operation.
func (c Conversation) Locked() bool {
	last, ok := c.LastTurn()
	return ok && last.PendingStartAt != nil
}

func (c Conversation) IsClosed() bool {
	return c.State == StateClosed
}

// NewTurn is the client payload for appending a turn.
type NewTurn struct {
	Type string `json:"type"`
	Text string `json:"text"`
	// RequestFollowUp marks the turn pending until an external worker resolves it.
	RequestFollowUp bool `json:"requestFollowUp"`
}
