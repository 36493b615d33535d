// Package state holds the client-side view models: the open topic, the topic list and the
// input forms. Values here are caches of server snapshots and are only ever replaced
// wholesale; nothing in this package talks to the network.
package state

import (
	"strings"

	"debatepad/internal/model"
)

type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseNotFoundRedirect
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseNotFoundRedirect:
		return "not_found_redirect"
	default:
		return "unknown"
	}
}

// TopicView is the cached snapshot of the topic currently on screen.
type TopicView struct {
	phase Phase
	id    string
	topic *model.Topic
	err   error

	// Generating is set while an AI batch is running for this topic.
	Generating bool

	observers []func(from, to Phase)
}

func NewTopicView() *TopicView {
	return &TopicView{}
}

// OnTransition registers fn to be called on every phase change.
func (v *TopicView) OnTransition(fn func(from, to Phase)) {
	if fn != nil {
		v.observers = append(v.observers, fn)
	}
}

func (v *TopicView) Phase() Phase   { return v.phase }
func (v *TopicView) TopicID() string { return v.id }

// Err is the load failure that caused a redirect, if any.
func (v *TopicView) Err() error { return v.err }

func (v *TopicView) Topic() (model.Topic, bool) {
	if v.topic == nil {
		return model.Topic{}, false
	}
	return *v.topic, true
}

func (v *TopicView) Counts() (forN, againstN int) {
	if v.topic == nil {
		return 0, 0
	}
	return v.topic.Counts()
}

// Open starts loading id. Switching to another topic drops the old snapshot.
func (v *TopicView) Open(id string) {
	id = strings.TrimSpace(id)
	if id != v.id {
		v.topic = nil
		v.Generating = false
	}
	v.id = id
	v.err = nil
	v.set(PhaseLoading)
}

// Resolve installs a freshly fetched snapshot. Snapshots for a topic other than the open
// one are stale and ignored.
func (v *TopicView) Resolve(t model.Topic) bool {
	if v.foreign(t) {
		return false
	}
	if v.id == "" {
		v.id = t.ID
	}
	cp := t
	v.topic = &cp
	v.err = nil
	v.set(PhaseLoaded)
	return true
}

// Fail records a failed load. Any failure sends the user back to the topic list.
func (v *TopicView) Fail(err error) {
	v.err = err
	v.topic = nil
	v.Generating = false
	v.set(PhaseNotFoundRedirect)
}

// Refreshing marks a reload in progress while the last snapshot stays visible.
func (v *TopicView) Refreshing() {
	if v.phase == PhaseEmpty || v.phase == PhaseNotFoundRedirect {
		return
	}
	v.set(PhaseLoading)
}

// Replace swaps in the snapshot returned by a mutation. The old one is discarded, never merged.
func (v *TopicView) Replace(t model.Topic) bool {
	if v.foreign(t) {
		return false
	}
	v.Refreshing()
	return v.Resolve(t)
}

func (v *TopicView) foreign(t model.Topic) bool {
	return v.id != "" && t.ID != "" && t.ID != v.id
}

// Reset closes the view.
func (v *TopicView) Reset() {
	v.id = ""
	v.topic = nil
	v.err = nil
	v.Generating = false
	v.set(PhaseEmpty)
}

func (v *TopicView) set(to Phase) {
	from := v.phase
	if from == to {
		return
	}
	v.phase = to
	for _, fn := range v.observers {
		fn(from, to)
	}
}
