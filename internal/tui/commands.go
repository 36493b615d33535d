package tui

import (
	"context"
	"time"

	"debatepad/internal/model"
	"debatepad/internal/mutate"

	tea "github.com/charmbracelet/bubbletea"
)

// Remote is everything the TUI needs from the API.
type Remote interface {
	mutate.Remote
	ListTopics(ctx context.Context) ([]model.Topic, error)
	CreateTopic(ctx context.Context, title string) (model.Topic, error)
	DeleteTopic(ctx context.Context, id string) error
}

type topicsLoadedMsg struct {
	topics []model.Topic
	err    error
}

type topicCreatedMsg struct {
	topic model.Topic
	err   error
}

type topicDeletedMsg struct {
	id  string
	err error
}

// topicLoadedMsg answers an open (refresh=false) or a reload (refresh=true). view and seq
// are the appModel viewSeq and reqSeq at dispatch.
type topicLoadedMsg struct {
	id      string
	topic   model.Topic
	err     error
	refresh bool
	view    int
	seq     int
}

type outcomeMsg struct {
	out  mutate.Outcome
	view int
	seq  int
}

type flashClearMsg struct {
	seq int
}

func (m appModel) loadTopicsCmd() tea.Cmd {
	ctx, remote := m.ctx, m.remote
	return func() tea.Msg {
		topics, err := remote.ListTopics(ctx)
		return topicsLoadedMsg{topics: topics, err: err}
	}
}

func (m appModel) createTopicCmd(title string) tea.Cmd {
	ctx, remote := m.ctx, m.remote
	return func() tea.Msg {
		t, err := remote.CreateTopic(ctx, title)
		return topicCreatedMsg{topic: t, err: err}
	}
}

func (m appModel) deleteTopicCmd(id string) tea.Cmd {
	ctx, remote := m.ctx, m.remote
	return func() tea.Msg {
		return topicDeletedMsg{id: id, err: remote.DeleteTopic(ctx, id)}
	}
}

func (m appModel) loadTopicCmd(id string, refresh bool) tea.Cmd {
	ctx, engine, view, seq := m.ctx, m.engine, m.viewSeq, m.reqSeq
	return func() tea.Msg {
		t, err := engine.Load(ctx, id)
		return topicLoadedMsg{id: id, topic: t, err: err, refresh: refresh, view: view, seq: seq}
	}
}

func (m appModel) addArgumentCmd(topicID string, d mutate.Draft) tea.Cmd {
	ctx, engine, view, seq := m.ctx, m.engine, m.viewSeq, m.reqSeq
	return func() tea.Msg {
		return outcomeMsg{out: engine.Add(ctx, topicID, d), view: view, seq: seq}
	}
}

func (m appModel) deleteArgumentCmd(topicID, argumentID string) tea.Cmd {
	ctx, engine, view, seq := m.ctx, m.engine, m.viewSeq, m.reqSeq
	return func() tea.Msg {
		return outcomeMsg{out: engine.Delete(ctx, topicID, argumentID), view: view, seq: seq}
	}
}

func (m appModel) generateCmd(topic model.Topic) tea.Cmd {
	ctx, engine, view, seq := m.ctx, m.engine, m.viewSeq, m.reqSeq
	return func() tea.Msg {
		return outcomeMsg{out: engine.Generate(ctx, topic), view: view, seq: seq}
	}
}

func flashClearAfter(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return flashClearMsg{seq: seq} })
}
