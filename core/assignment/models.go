package assignment

import (
	"time"

	"github.com/trezcool/darasa/core"
)

const (
	Collection           = "assignments"
	SubmissionCollection = "submissions"
)

// Assignment modes. Dialogue assignments are submitted through a Conversation;
// written ones through a Submission row.
const (
	ModeDialogue = "dialogue"
	ModeWritten  = "written"
)

// Submission states.
const (
	StateInProgress     = "in_progress"
	StateSubmitted      = "submitted"
	StateGradedComplete = "graded_complete"
)

// Assignment is course-bound when CourseID is set (governed by course RBAC)
// and standalone otherwise (governed by creator-only RBAC).
type Assignment struct {
	ID            string     `json:"id" validate:"required,max=128"`
	CourseID      *string    `json:"courseId" validate:"omitempty,max=128"`
	TopicID       *string    `json:"topicId" validate:"omitempty,max=128"`
	Title         string     `json:"title" validate:"required,max=200"`
	Prompt        string     `json:"prompt" validate:"required,max=20000"`
	Mode          string     `json:"mode" validate:"required,oneof=dialogue written"`
	StartAt       time.Time  `json:"startAt"`
	DueAt         *time.Time `json:"dueAt"`
	AllowLate     bool       `json:"allowLate"`
	AllowResubmit bool       `json:"allowResubmit"`
	CreatedBy     string     `json:"createdBy" validate:"required,max=128"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (a *Assignment) Validate() error {
	a.Title = core.CleanString(a.Title)
	return core.Validate.Struct(a)
}

func (a Assignment) IsStandalone() bool {
	return a.CourseID == nil
}

// PastDue reports whether `at` falls after the due date, if any.
func (a Assignment) PastDue(at time.Time) bool {
	return a.DueAt != nil && at.After(*a.DueAt)
}

// Submission is keyed by (assignmentId, userId); created once by the
// submitting student, graded by staff.
type Submission struct {
	ID              string     `json:"id" validate:"required"`
	AssignmentID    string     `json:"assignmentId" validate:"required,max=128"`
	UserID          string     `json:"userId" validate:"required,max=128"`
	State           string     `json:"state" validate:"required,oneof=in_progress submitted graded_complete"`
	StartedAt       time.Time  `json:"startedAt"`
	SubmittedAt     *time.Time `json:"submittedAt"`
	Late            bool       `json:"late"`
	ScoreCompletion *float64   `json:"scoreCompletion" validate:"omitempty,min=0,max=1"`
	Notes           string     `json:"notes,omitempty" validate:"omitempty,max=10000"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// SubmissionID derives the row id from its composite key.
func SubmissionID(assignmentID, userID string) string {
	return assignmentID + ":" + userID
}

func (s *Submission) Validate() error {
	s.Notes = core.CleanString(s.Notes)
	return core.Validate.Struct(s)
}

// stateOrder supports forward-only checks on the submission lifecycle.
var stateOrder = map[string]int{
	StateInProgress:     0,
	StateSubmitted:      1,
	StateGradedComplete: 2,
}

// CheckStudentTransition validates a student-side submission update: only
// while in_progress, transitioning at most to submitted.
func CheckStudentTransition(before, after Submission) error {
	if before.State != StateInProgress {
		return core.NewInvalidStateError("submission can no longer be edited by its owner")
	}
	if after.State != StateInProgress && after.State != StateSubmitted {
		return core.NewInvalidStateError("submission may only move to submitted")
	}
	return nil
}

// CheckStaffTransition validates a grading update: state never moves backwards.
func CheckStaffTransition(before, after Submission) error {
	if stateOrder[after.State] < stateOrder[before.State] {
		return core.NewInvalidStateError("submission state cannot move backwards")
	}
	return nil
}

// Inputs

type NewAssignment struct {
	CourseID      *string    `json:"courseId"`
	TopicID       *string    `json:"topicId"`
	Title         string     `json:"title"`
	Prompt        string     `json:"prompt"`
	Mode          string     `json:"mode"`
	StartAt       time.Time  `json:"startAt"`
	DueAt         *time.Time `json:"dueAt"`
	AllowLate     bool       `json:"allowLate"`
	AllowResubmit bool       `json:"allowResubmit"`
}

type UpdateAssignment struct {
	TopicID       *string    `json:"topicId"`
	Title         string     `json:"title"`
	Prompt        string     `json:"prompt"`
	DueAt         *time.Time `json:"dueAt"`
	AllowLate     *bool      `json:"allowLate"`
	AllowResubmit *bool      `json:"allowResubmit"`
}

type UpdateSubmission struct {
	State           string   `json:"state"`
	ScoreCompletion *float64 `json:"scoreCompletion"`
	Notes           string   `json:"notes"`
}
