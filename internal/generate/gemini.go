package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"debatepad/internal/model"
)

type Gemini struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

func NewGemini(ctx context.Context, apiKey, modelName string, log *slog.Logger) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: gemini api key not set (GEMINI_API_KEY)", ErrUnavailable)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	log.Info("gemini generator ready", "model", modelName)
	return &Gemini{client: client, model: modelName, log: log}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Close() error { return g.client.Close() }

func (g *Gemini) Suggest(ctx context.Context, title string) (model.SuggestionBatch, error) {
	m := g.client.GenerativeModel(g.model)
	m.ResponseMIMEType = "application/json"
	m.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockLowAndAbove},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockLowAndAbove},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockLowAndAbove},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockLowAndAbove},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(Prompt(title)))
	if err != nil {
		g.log.Error("gemini call failed", "error", err)
		return model.SuggestionBatch{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return model.SuggestionBatch{}, fmt.Errorf("%w: no candidates returned", ErrMalformed)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	b, err := Parse(text.String())
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			g.log.Warn("gemini reply unusable", "error", err)
		}
		return model.SuggestionBatch{}, err
	}
	b.Topic = title
	return b, nil
}
