package generate

import (
	"context"

	"debatepad/internal/model"
)

// Static returns a fixed batch regardless of the title. It needs no credentials and is the
// default for local use and tests.
type Static struct{}

func (Static) Name() string { return "static" }

func (Static) Suggest(_ context.Context, title string) (model.SuggestionBatch, error) {
	return model.SuggestionBatch{
		Topic: title,
		ArgumentsFor: []model.Suggestion{
			{Point: "Personalized learning experiences", SupportingFacts: []string{"AI can adapt to individual learning styles", "Provides customized pace of learning"}},
			{Point: "24/7 availability for student support", SupportingFacts: []string{"AI tutors don't need breaks", "Instant feedback and help"}},
			{Point: "Enhanced accessibility for special needs", SupportingFacts: []string{"Text-to-speech capabilities", "Visual recognition for learning disabilities"}},
		},
		ArgumentsAgainst: []model.Suggestion{
			{Point: "Lack of human emotional connection", SupportingFacts: []string{"Students need empathy and understanding", "AI cannot provide emotional support"}},
			{Point: "Over-dependence on technology", SupportingFacts: []string{"Reduces critical thinking skills", "Creates technology addiction"}},
			{Point: "Privacy and data security concerns", SupportingFacts: []string{"Student data collection issues", "Potential misuse of personal information"}},
		},
	}, nil
}
