package questionnaire

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	choiceOptionsTag  = "qn_choice_options"
	choiceOptionsText = "choice questions require at least 2 options"

	strayFieldsTag  = "qn_stray_fields"
	strayFieldsText = "field is not part of this question type"

	sliderRangeTag  = "qn_slider_range"
	sliderRangeText = "slider range must satisfy minValue < maxValue with a positive step"

	answerShapeTag  = "qn_answer_shape"
	answerShapeText = "answer does not carry the fields its type declares"
)

func init() {
	core.Validate.RegisterStructValidation(questionStructValidation, Question{})
	core.Validate.RegisterStructValidation(answerStructValidation, Answer{})
	core.RegisterCustomTranslation(choiceOptionsTag, choiceOptionsText)
	core.RegisterCustomTranslation(strayFieldsTag, strayFieldsText)
	core.RegisterCustomTranslation(sliderRangeTag, sliderRangeText)
	core.RegisterCustomTranslation(answerShapeTag, answerShapeText)
}

// questionStructValidation enforces the tagged-union shape: a variant carries
// exactly the fields its type declares.
func questionStructValidation(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(Question)
	if !ok {
		return
	}

	hasSlider := q.MinLabel != "" || q.MaxLabel != "" || q.MinValue != 0 || q.MaxValue != 0 || q.Step != 0

	switch q.Type {
	case TypeSingleChoice, TypeMultiChoice:
		if len(q.Options) < 2 {
			sl.ReportError(q.Options, "options", "Options", choiceOptionsTag, "")
		}
		if hasSlider {
			sl.ReportError(q.MinLabel, "minLabel", "MinLabel", strayFieldsTag, "")
		}
	case TypeShortAnswer:
		if len(q.Options) > 0 {
			sl.ReportError(q.Options, "options", "Options", strayFieldsTag, "")
		}
		if hasSlider {
			sl.ReportError(q.MinLabel, "minLabel", "MinLabel", strayFieldsTag, "")
		}
	case TypeSliderAnswer:
		if len(q.Options) > 0 {
			sl.ReportError(q.Options, "options", "Options", strayFieldsTag, "")
		}
		if q.MinLabel == "" || q.MaxLabel == "" || q.MinValue >= q.MaxValue || q.Step <= 0 {
			sl.ReportError(q.MinValue, "minValue", "MinValue", sliderRangeTag, "")
		}
	}
}

// answerStructValidation enforces the answer-side union shape.
func answerStructValidation(sl validator.StructLevel) {
	a, ok := sl.Current().Interface().(Answer)
	if !ok {
		return
	}

	reportErr := func() {
		sl.ReportError(a.Type, "answer", "Answer", answerShapeTag, "")
	}

	switch a.Type {
	case TypeSingleChoice:
		if a.Choice == "" || len(a.Choices) > 0 || a.Text != "" || a.Value != nil {
			reportErr()
		}
	case TypeMultiChoice:
		if len(a.Choices) == 0 || a.Choice != "" || a.Text != "" || a.Value != nil {
			reportErr()
		}
	case TypeShortAnswer:
		if a.Text == "" || a.Choice != "" || len(a.Choices) > 0 || a.Value != nil {
			reportErr()
		}
	case TypeSliderAnswer:
		if a.Value == nil || a.Choice != "" || len(a.Choices) > 0 || a.Text != "" {
			reportErr()
		}
	}
}
