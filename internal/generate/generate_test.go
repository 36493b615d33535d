package generate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debatepad/internal/config"
)

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestStatic(t *testing.T) {
	b, err := Static{}.Suggest(context.Background(), "AI in education")
	require.NoError(t, err)
	require.NoError(t, b.Validate())
	assert.Len(t, b.ArgumentsFor, 3)
	assert.Len(t, b.ArgumentsAgainst, 3)
	assert.Equal(t, "Personalized learning experiences", b.ArgumentsFor[0].Point)
	assert.Equal(t, "AI in education", b.Topic)
}

func TestParse(t *testing.T) {
	raw := "```json\n{\"arguments_for\":[{\"point\":\" Cheap \",\"supporting_facts\":[\"a\",\" \"]}],\"arguments_against\":[]}\n```"
	b, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Cheap", b.ArgumentsFor[0].Point)
	assert.Equal(t, []string{"a"}, b.ArgumentsFor[0].SupportingFacts)

	for _, bad := range []string{"", "not json", `{"arguments_for":[],"arguments_against":[]}`, `{"arguments_for":[{"point":""}]}`} {
		_, err := Parse(bad)
		require.ErrorIs(t, err, ErrMalformed, "input %q", bad)
	}
}

func TestNew(t *testing.T) {
	cfg := config.Default()
	g, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "static", g.Name())

	cfg.Server.Generator = "gemini"
	_, err = New(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrUnavailable)

	cfg.Server.Generator = "openai"
	_, err = New(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrUnavailable)

	cfg.Server.Generator = "oracle"
	_, err = New(context.Background(), cfg, nil)
	require.Error(t, err)
}

func openAIServer(t *testing.T, content string) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		assert.Contains(t, req.Messages[1].Content, `"Space tourism"`)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAIWithConfig(cfg, "gpt-test", quietLog())
}

func TestOpenAI_Suggest(t *testing.T) {
	g := openAIServer(t, `{"arguments_for":[{"point":"Jobs","supporting_facts":["launch sites"]}],"arguments_against":[{"point":"Emissions","supporting_facts":[]}]}`)

	b, err := g.Suggest(context.Background(), "Space tourism")
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, "Space tourism", b.Topic)
}

func TestOpenAI_MalformedReply(t *testing.T) {
	g := openAIServer(t, "I cannot help with that.")

	_, err := g.Suggest(context.Background(), "Space tourism")
	require.True(t, errors.Is(err, ErrMalformed))
}
