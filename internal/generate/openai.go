package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"debatepad/internal/model"
)

const systemPrompt = "You are a debate coach. You reply with JSON only."

type OpenAI struct {
	client *openai.Client
	model  string
	log    *slog.Logger
}

func NewOpenAI(apiKey, modelName string, log *slog.Logger) (*OpenAI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: openai api key not set (OPENAI_API_KEY)", ErrUnavailable)
	}
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), modelName, log), nil
}

// NewOpenAIWithConfig allows a custom base URL (proxies, compatible servers, tests).
func NewOpenAIWithConfig(cfg openai.ClientConfig, modelName string, log *slog.Logger) *OpenAI {
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log.Info("openai generator ready", "model", modelName)
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: modelName, log: log}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Suggest(ctx context.Context, title string) (model.SuggestionBatch, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Prompt(title)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		o.log.Error("openai call failed", "error", err)
		return model.SuggestionBatch{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return model.SuggestionBatch{}, fmt.Errorf("%w: no choices returned", ErrMalformed)
	}
	o.log.Debug("openai reply", "finish_reason", resp.Choices[0].FinishReason)

	b, err := Parse(resp.Choices[0].Message.Content)
	if err != nil {
		return model.SuggestionBatch{}, err
	}
	b.Topic = title
	return b, nil
}
