package questionnaire

import (
	"time"

	"github.com/trezcool/darasa/core"
)

const (
	Collection         = "questionnaires"
	ResponseCollection = "questionnaire_responses"
)

// Question/answer variants (tagged unions).
const (
	TypeSingleChoice = "single_answer_choice"
	TypeMultiChoice  = "multiple_answer_choice"
	TypeShortAnswer  = "short_answer"
	TypeSliderAnswer = "slider_answer"
)

// Question is a tagged union: each variant must carry exactly the fields its
// Type declares (enforced by the struct-level validator in validators.go).
// Option values are primitives only, never nested objects.
type Question struct {
	Type         string   `json:"type" validate:"required,oneof=single_answer_choice multiple_answer_choice short_answer slider_answer"`
	QuestionText string   `json:"questionText" validate:"required,max=2000"`
	Options      []string `json:"options,omitempty" validate:"omitempty,max=50,dive,required,max=500"`
	MinLabel     string   `json:"minLabel,omitempty" validate:"omitempty,max=100"`
	MaxLabel     string   `json:"maxLabel,omitempty" validate:"omitempty,max=100"`
	MinValue     float64  `json:"minValue,omitempty"`
	MaxValue     float64  `json:"maxValue,omitempty"`
	Step         float64  `json:"step,omitempty"`
}

type QuestionItem struct {
	Question Question `json:"question"`
	Required bool     `json:"required"`
}

// Questionnaire mirrors Assignment's course-bound/standalone split. CourseID
// here is authoritative; the denormalized copy on responses is display-only.
type Questionnaire struct {
	ID            string         `json:"id" validate:"required,min=6,max=128"`
	CourseID      *string        `json:"courseId" validate:"omitempty,max=128"`
	TopicID       *string        `json:"topicId" validate:"omitempty,max=128"`
	Title         string         `json:"title" validate:"required,max=200"`
	Questions     []QuestionItem `json:"questions" validate:"required,min=1,max=200,dive"`
	StartAt       time.Time      `json:"startAt"`
	DueAt         *time.Time     `json:"dueAt"`
	AllowLate     bool           `json:"allowLate"`
	AllowResubmit bool           `json:"allowResubmit"`
	CreatedBy     string         `json:"createdBy" validate:"required,max=128"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (q *Questionnaire) Validate() error {
	q.Title = core.CleanString(q.Title)
	return core.Validate.Struct(q)
}

func (q Questionnaire) IsStandalone() bool {
	return q.CourseID == nil
}

// Answer is the response-side tagged union; its Type must match the
// referenced question's Type.
type Answer struct {
	Type    string   `json:"type" validate:"required,oneof=single_answer_choice multiple_answer_choice short_answer slider_answer"`
	Choice  string   `json:"choice,omitempty" validate:"omitempty,max=500"`
	Choices []string `json:"choices,omitempty" validate:"omitempty,max=50,dive,max=500"`
	Text    string   `json:"text,omitempty" validate:"omitempty,max=10000"`
	Value   *float64 `json:"value,omitempty"`
}

type ResponseItem struct {
	QuestionIndex int    `json:"questionIndex" validate:"min=0"`
	Answer        Answer `json:"answer"`
}

// Response carries a denormalized CourseID for display; instructor access is
// always derived from the questionnaire's real courseId, never this copy.
type Response struct {
	ID              string         `json:"id" validate:"required,max=128"`
	QuestionnaireID string         `json:"questionnaireId" validate:"required,max=128"`
	UserID          string         `json:"userId" validate:"required,max=128"`
	CourseID        *string        `json:"courseId" validate:"omitempty,max=128"`
	Responses       []ResponseItem `json:"responses" validate:"required,min=1,max=200,dive"`
	SubmittedAt     time.Time      `json:"submittedAt"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func (r *Response) Validate() error {
	return core.Validate.Struct(r)
}

// MatchesQuestions checks each answer against the questionnaire: the index
// must exist and the answer variant must match the question variant.
func (r Response) MatchesQuestions(q Questionnaire) error {
	for _, item := range r.Responses {
		if item.QuestionIndex >= len(q.Questions) {
			return core.NewValidationError(nil, core.FieldError{
				Field: "questionIndex",
				Error: "answer references a question that does not exist",
			})
		}
		if want := q.Questions[item.QuestionIndex].Question.Type; item.Answer.Type != want {
			return core.NewValidationError(nil, core.FieldError{
				Field: "answer",
				Error: "answer type does not match question type " + want,
			})
		}
	}
	return nil
}

// Inputs

type NewQuestionnaire struct {
	ID            string         `json:"id"`
	CourseID      *string        `json:"courseId"`
	TopicID       *string        `json:"topicId"`
	Title         string         `json:"title"`
	Questions     []QuestionItem `json:"questions"`
	StartAt       time.Time      `json:"startAt"`
	DueAt         *time.Time     `json:"dueAt"`
	AllowLate     bool           `json:"allowLate"`
	AllowResubmit bool           `json:"allowResubmit"`
}

type UpdateQuestionnaire struct {
	TopicID       *string        `json:"topicId"`
	Title         string         `json:"title"`
	Questions     []QuestionItem `json:"questions"`
	DueAt         *time.Time     `json:"dueAt"`
	AllowLate     *bool          `json:"allowLate"`
	AllowResubmit *bool          `json:"allowResubmit"`
}

type NewResponse struct {
	QuestionnaireID string         `json:"questionnaireId"`
	CourseID        *string        `json:"courseId"`
	Responses       []ResponseItem `json:"responses"`
}
