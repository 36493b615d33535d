// Package mutate runs argument mutations against the remote store and turns each one into
// an Outcome that carries the authoritative topic snapshot to install.
package mutate

import (
	"context"
	"io"
	"log/slog"

	"debatepad/internal/api"
	"debatepad/internal/model"
)

// Remote is the subset of the API client the engine needs.
type Remote interface {
	GetTopic(ctx context.Context, id string) (model.Topic, error)
	AddArgument(ctx context.Context, topicID string, req api.AddArgumentRequest) (model.Topic, error)
	DeleteArgument(ctx context.Context, topicID, argumentID string) error
	GenerateSuggestions(ctx context.Context, title string) (model.SuggestionBatch, error)
}

type Op string

const (
	OpLoad     Op = "load"
	OpAdd      Op = "add"
	OpDelete   Op = "delete"
	OpGenerate Op = "generate"
)

// BatchItem identifies one suggestion within a generated batch.
type BatchItem struct {
	Side            model.Side `json:"side"`
	Index           int        `json:"index"`
	Point           string     `json:"point"`
	SupportingFacts []string   `json:"supporting_facts"`
}

type BatchReport struct {
	Planned  int        `json:"planned"`
	Inserted int        `json:"inserted"`
	FailedAt *BatchItem `json:"failed_at,omitempty"`
}

// Outcome is the result of one mutation. Topic, when set, is a full server snapshot and
// replaces whatever the caller has cached.
type Outcome struct {
	Op         Op
	TopicID    string
	Topic      *model.Topic
	Err        error
	RefreshErr error
	Batch      *BatchReport
}

func (o Outcome) OK() bool { return o.Err == nil }

type Engine struct {
	remote Remote
	log    *slog.Logger
}

func NewEngine(r Remote, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{remote: r, log: log}
}

// Load fetches a topic snapshot.
func (e *Engine) Load(ctx context.Context, topicID string) (model.Topic, error) {
	return e.remote.GetTopic(ctx, topicID)
}

// Add validates locally, then inserts. The returned snapshot is used as is.
func (e *Engine) Add(ctx context.Context, topicID string, d Draft) Outcome {
	out := Outcome{Op: OpAdd, TopicID: topicID}
	if err := d.Validate(); err != nil {
		out.Err = err
		return out
	}
	t, err := e.remote.AddArgument(ctx, topicID, d.Request())
	if err != nil {
		e.log.Warn("add argument failed", "topic", topicID, "side", d.Side, "error", err)
		out.Err = err
		return out
	}
	out.Topic = &t
	return out
}

// Delete removes an argument and then re-fetches the topic. Nothing is removed locally.
func (e *Engine) Delete(ctx context.Context, topicID, argumentID string) Outcome {
	out := Outcome{Op: OpDelete, TopicID: topicID}
	if err := e.remote.DeleteArgument(ctx, topicID, argumentID); err != nil {
		e.log.Warn("delete argument failed", "topic", topicID, "argument", argumentID, "error", err)
		out.Err = err
		return out
	}
	e.refresh(ctx, &out)
	return out
}

// Generate asks for suggestions and inserts them one at a time, every "for" entry first
// and then every "against" entry, each in batch order. The first failed insert ends the
// batch; earlier inserts stay. Once a batch came back the topic is always re-fetched.
func (e *Engine) Generate(ctx context.Context, topic model.Topic) Outcome {
	out := Outcome{Op: OpGenerate, TopicID: topic.ID}
	batch, err := e.remote.GenerateSuggestions(ctx, topic.Title)
	if err != nil {
		e.log.Warn("generate suggestions failed", "topic", topic.ID, "error", err)
		out.Err = err
		return out
	}

	items := Plan(batch)
	rep := &BatchReport{Planned: len(items)}
	out.Batch = rep
	for _, it := range items {
		req := api.AddArgumentRequest{Point: it.Point, SupportingFacts: it.SupportingFacts, Side: it.Side}
		if _, err := e.remote.AddArgument(ctx, topic.ID, req); err != nil {
			failed := it
			rep.FailedAt = &failed
			out.Err = BatchError{Item: it, Err: err}
			e.log.Warn("bulk insert stopped", "topic", topic.ID, "inserted", rep.Inserted, "planned", rep.Planned, "error", err)
			break
		}
		rep.Inserted++
	}
	e.log.Info("suggestions inserted", "topic", topic.ID, "inserted", rep.Inserted, "planned", rep.Planned)

	e.refresh(ctx, &out)
	return out
}

// Plan flattens a batch into insertion order.
func Plan(b model.SuggestionBatch) []BatchItem {
	items := make([]BatchItem, 0, b.Len())
	for i, s := range b.ArgumentsFor {
		items = append(items, BatchItem{Side: model.SideFor, Index: i, Point: s.Point, SupportingFacts: s.SupportingFacts})
	}
	for i, s := range b.ArgumentsAgainst {
		items = append(items, BatchItem{Side: model.SideAgainst, Index: i, Point: s.Point, SupportingFacts: s.SupportingFacts})
	}
	return items
}

func (e *Engine) refresh(ctx context.Context, out *Outcome) {
	t, err := e.remote.GetTopic(ctx, out.TopicID)
	if err != nil {
		e.log.Warn("refresh after mutation failed", "op", out.Op, "topic", out.TopicID, "error", err)
		out.RefreshErr = err
		return
	}
	out.Topic = &t
}
