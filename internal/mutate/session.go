package mutate

import (
	"context"

	"debatepad/internal/state"
)

// Session drives one topic view synchronously. It is the CLI's equivalent of the TUI's
// update loop and allows a single mutation at a time.
type Session struct {
	Engine *Engine
	View   *state.TopicView
	Form   *state.ArgumentForm

	deleting bool
}

func NewSession(e *Engine) *Session {
	return &Session{Engine: e, View: state.NewTopicView(), Form: state.NewArgumentForm()}
}

func (s *Session) busy() bool {
	return s.Form.Busy || s.View.Generating || s.deleting
}

// Open loads id into the view. A failed load leaves the view in PhaseNotFoundRedirect.
func (s *Session) Open(ctx context.Context, id string) error {
	s.View.Open(id)
	t, err := s.Engine.Load(ctx, s.View.TopicID())
	if err != nil {
		s.View.Fail(err)
		return err
	}
	s.View.Resolve(t)
	return nil
}

// Submit sends the form contents as a new argument.
func (s *Session) Submit(ctx context.Context) (Outcome, error) {
	if s.busy() {
		return Outcome{}, ErrBusy
	}
	if _, ok := s.View.Topic(); !ok {
		return Outcome{}, ErrNoTopic
	}
	d := DraftOf(s.Form)
	s.Form.Begin()
	out := s.Engine.Add(ctx, s.View.TopicID(), d)
	out.Apply(s.View, s.Form)
	return out, out.Err
}

func (s *Session) Delete(ctx context.Context, argumentID string) (Outcome, error) {
	if s.busy() {
		return Outcome{}, ErrBusy
	}
	if _, ok := s.View.Topic(); !ok {
		return Outcome{}, ErrNoTopic
	}
	s.deleting = true
	out := s.Engine.Delete(ctx, s.View.TopicID(), argumentID)
	s.deleting = false
	out.Apply(s.View, s.Form)
	return out, out.Err
}

// Generate runs AI generation for the loaded topic.
func (s *Session) Generate(ctx context.Context) (Outcome, error) {
	if s.busy() {
		return Outcome{}, ErrBusy
	}
	topic, ok := s.View.Topic()
	if !ok {
		return Outcome{}, ErrNoTopic
	}
	s.View.Generating = true
	out := s.Engine.Generate(ctx, topic)
	out.Apply(s.View, s.Form)
	return out, out.Err
}
