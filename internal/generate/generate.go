// Package generate produces AI debate-argument suggestions for a topic title.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"debatepad/internal/config"
	"debatepad/internal/model"
)

var (
	// ErrMalformed means the model answered with something that is not a usable batch.
	ErrMalformed = errors.New("malformed suggestions")
	// ErrUnavailable means the generation backend could not be reached or is not configured.
	ErrUnavailable = errors.New("suggestion service unavailable")
)

type Generator interface {
	Suggest(ctx context.Context, title string) (model.SuggestionBatch, error)
	Name() string
}

// New builds the generator named by cfg.Server.Generator. Callers should Close the result
// when it implements io.Closer.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (Generator, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Server.Generator)) {
	case "", "static":
		return Static{}, nil
	case "gemini":
		return NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, log)
	case "openai":
		return NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, log)
	default:
		return nil, fmt.Errorf("unknown generator %q", cfg.Server.Generator)
	}
}

// Prompt asks for a JSON object with three arguments per side.
func Prompt(title string) string {
	return fmt.Sprintf(`Act as a debate coach preparing a student for the topic "%s".
Propose exactly 3 arguments in favour and 3 arguments against.
For each argument give a one-sentence point and 2 short supporting facts.

Required Output Format (JSON only, no prose):
{
  "arguments_for": [
    {"point": "text", "supporting_facts": ["text", "text"]}
  ],
  "arguments_against": [
    {"point": "text", "supporting_facts": ["text", "text"]}
  ]
}`, strings.TrimSpace(title))
}

// Parse decodes a model reply, tolerating Markdown code fences around the JSON.
func Parse(raw string) (model.SuggestionBatch, error) {
	cleaned := cleanModelOutput(raw)
	if cleaned == "" {
		return model.SuggestionBatch{}, fmt.Errorf("%w: empty reply", ErrMalformed)
	}
	var b model.SuggestionBatch
	if err := json.Unmarshal([]byte(cleaned), &b); err != nil {
		return model.SuggestionBatch{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	b.ArgumentsFor = tidy(b.ArgumentsFor)
	b.ArgumentsAgainst = tidy(b.ArgumentsAgainst)
	if err := b.Validate(); err != nil {
		return model.SuggestionBatch{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return b, nil
}

func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

func tidy(in []model.Suggestion) []model.Suggestion {
	out := make([]model.Suggestion, 0, len(in))
	for _, s := range in {
		s.Point = strings.TrimSpace(s.Point)
		facts := make([]string, 0, len(s.SupportingFacts))
		for _, f := range s.SupportingFacts {
			if f = strings.TrimSpace(f); f != "" {
				facts = append(facts, f)
			}
		}
		s.SupportingFacts = facts
		out = append(out, s)
	}
	return out
}
