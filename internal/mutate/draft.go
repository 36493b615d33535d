package mutate

import (
	"strings"

	"debatepad/internal/api"
	"debatepad/internal/model"
	"debatepad/internal/state"
)

// SplitFacts turns free text into one fact per non-blank line, trimmed.
func SplitFacts(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// JoinFacts is the inverse used to prefill text inputs.
func JoinFacts(facts []string) string {
	return strings.Join(facts, "\n")
}

// Draft is a not-yet-submitted argument.
type Draft struct {
	Point string
	Facts string
	Side  model.Side
}

// DraftOf reads the current form contents.
func DraftOf(f *state.ArgumentForm) Draft {
	if f == nil {
		return Draft{}
	}
	return Draft{Point: f.Point, Facts: f.Facts, Side: f.Side}
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Point) == "" {
		return &api.Error{Kind: api.KindValidation, Op: "addArgument", Message: "point is required"}
	}
	if !d.Side.Valid() {
		return &api.Error{Kind: api.KindValidation, Op: "addArgument", Message: "side must be 'for' or 'against'"}
	}
	return nil
}

func (d Draft) Request() api.AddArgumentRequest {
	return api.AddArgumentRequest{
		Point:           strings.TrimSpace(d.Point),
		SupportingFacts: SplitFacts(d.Facts),
		Side:            d.Side,
	}
}
