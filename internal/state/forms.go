package state

import (
	"strings"

	"debatepad/internal/model"
)

// ArgumentForm is the "add argument" input. Facts is free text, one fact per line.
type ArgumentForm struct {
	Point string
	Facts string
	Side  model.Side
	Busy  bool
}

func NewArgumentForm() *ArgumentForm {
	return &ArgumentForm{Side: model.SideFor}
}

// Reset clears the text after a successful submit and puts the side back to "for".
func (f *ArgumentForm) Reset() {
	f.Point = ""
	f.Facts = ""
	f.Side = model.SideFor
}

func (f *ArgumentForm) ToggleSide() {
	if !f.Side.Valid() {
		f.Side = model.SideFor
		return
	}
	f.Side = f.Side.Other()
}

// Begin marks a submission in flight. It returns false when one already is.
func (f *ArgumentForm) Begin() bool {
	if f.Busy {
		return false
	}
	f.Busy = true
	return true
}

func (f *ArgumentForm) End() { f.Busy = false }

func (f *ArgumentForm) CanSubmit() bool {
	return !f.Busy && strings.TrimSpace(f.Point) != ""
}

// TopicForm is the "new topic" input. The title survives a failed create.
type TopicForm struct {
	Title string
	Busy  bool
}

func (f *TopicForm) CanSubmit() bool {
	return !f.Busy && strings.TrimSpace(f.Title) != ""
}

func (f *TopicForm) Begin() bool {
	if f.Busy {
		return false
	}
	f.Busy = true
	return true
}

// Done ends a submission; the title is cleared only when it succeeded.
func (f *TopicForm) Done(ok bool) {
	f.Busy = false
	if ok {
		f.Title = ""
	}
}
