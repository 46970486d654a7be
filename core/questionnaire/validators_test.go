package questionnaire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func choiceQ() Question {
	return Question{Type: TypeSingleChoice, QuestionText: "Pick one", Options: []string{"a", "b"}}
}

func sliderQ() Question {
	return Question{
		Type: TypeSliderAnswer, QuestionText: "Rate it",
		MinLabel: "bad", MaxLabel: "good", MinValue: 1, MaxValue: 5, Step: 1,
	}
}

func validQuestionnaire(qs ...Question) Questionnaire {
	items := make([]QuestionItem, 0, len(qs))
	for _, q := range qs {
		items = append(items, QuestionItem{Question: q, Required: true})
	}
	return Questionnaire{
		ID:        "quiz01",
		Title:     "Weekly check-in",
		Questions: items,
		StartAt:   time.Now().UTC(),
		CreatedBy: "teach",
	}
}

func TestQuestionnaire_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Questionnaire)
		wantErr bool
	}{
		{name: "valid"},
		{
			name:    "id shorter than 6 chars",
			mutate:  func(q *Questionnaire) { q.ID = "quiz" },
			wantErr: true,
		},
		{
			name:   "id at 6 chars",
			mutate: func(q *Questionnaire) { q.ID = "quiz-1" },
		},
		{
			name:    "no questions",
			mutate:  func(q *Questionnaire) { q.Questions = nil },
			wantErr: true,
		},
		{
			name: "choice question with one option",
			mutate: func(q *Questionnaire) {
				q.Questions[0].Question.Options = []string{"only"}
			},
			wantErr: true,
		},
		{
			name: "choice question with slider fields",
			mutate: func(q *Questionnaire) {
				q.Questions[0].Question.MinLabel = "low"
			},
			wantErr: true,
		},
		{
			name: "short answer carries options",
			mutate: func(q *Questionnaire) {
				q.Questions[0].Question = Question{Type: TypeShortAnswer, QuestionText: "Explain", Options: []string{"a", "b"}}
			},
			wantErr: true,
		},
		{
			name: "slider with inverted range",
			mutate: func(q *Questionnaire) {
				s := sliderQ()
				s.MinValue, s.MaxValue = 5, 1
				q.Questions[0].Question = s
			},
			wantErr: true,
		},
		{
			name: "slider with zero step",
			mutate: func(q *Questionnaire) {
				s := sliderQ()
				s.Step = 0
				q.Questions[0].Question = s
			},
			wantErr: true,
		},
		{
			name: "valid slider",
			mutate: func(q *Questionnaire) {
				q.Questions[0].Question = sliderQ()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qn := validQuestionnaire(choiceQ())
			if tt.mutate != nil {
				tt.mutate(&qn)
			}
			err := qn.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResponse_Validate(t *testing.T) {
	valid := func() Response {
		return Response{
			ID:              "resp1",
			QuestionnaireID: "quiz01",
			UserID:          "stud",
			Responses: []ResponseItem{
				{QuestionIndex: 0, Answer: Answer{Type: TypeSingleChoice, Choice: "a"}},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Response)
		wantErr bool
	}{
		{name: "valid"},
		{
			name:    "no answers",
			mutate:  func(r *Response) { r.Responses = nil },
			wantErr: true,
		},
		{
			name: "single choice answer missing its choice",
			mutate: func(r *Response) {
				r.Responses[0].Answer = Answer{Type: TypeSingleChoice}
			},
			wantErr: true,
		},
		{
			name: "single choice answer with stray text",
			mutate: func(r *Response) {
				r.Responses[0].Answer = Answer{Type: TypeSingleChoice, Choice: "a", Text: "extra"}
			},
			wantErr: true,
		},
		{
			name: "multi choice answer",
			mutate: func(r *Response) {
				r.Responses[0].Answer = Answer{Type: TypeMultiChoice, Choices: []string{"a", "b"}}
			},
		},
		{
			name: "multi choice with empty choices",
			mutate: func(r *Response) {
				r.Responses[0].Answer = Answer{Type: TypeMultiChoice}
			},
			wantErr: true,
		},
		{
			name: "short answer",
			mutate: func(r *Response) {
				r.Responses[0].Answer = Answer{Type: TypeShortAnswer, Text: "because"}
			},
		},
		{
			name: "slider answer",
			mutate: func(r *Response) {
				r.Responses[0].Answer = Answer{Type: TypeSliderAnswer, Value: floatPtr(3)}
			},
		},
		{
			name: "slider answer without a value",
			mutate: func(r *Response) {
				r.Responses[0].Answer = Answer{Type: TypeSliderAnswer}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			if tt.mutate != nil {
				tt.mutate(&r)
			}
			err := r.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResponse_MatchesQuestions(t *testing.T) {
	qn := validQuestionnaire(choiceQ(), sliderQ())

	r := Response{Responses: []ResponseItem{
		{QuestionIndex: 0, Answer: Answer{Type: TypeSingleChoice, Choice: "a"}},
		{QuestionIndex: 1, Answer: Answer{Type: TypeSliderAnswer, Value: floatPtr(2)}},
	}}
	require.NoError(t, r.MatchesQuestions(qn))

	t.Run("index out of range", func(t *testing.T) {
		r := Response{Responses: []ResponseItem{
			{QuestionIndex: 2, Answer: Answer{Type: TypeShortAnswer, Text: "x"}},
		}}
		assert.Error(t, r.MatchesQuestions(qn))
	})

	t.Run("answer type mismatch", func(t *testing.T) {
		r := Response{Responses: []ResponseItem{
			{QuestionIndex: 0, Answer: Answer{Type: TypeShortAnswer, Text: "x"}},
		}}
		assert.Error(t, r.MatchesQuestions(qn))
	})
}
