package mutate

import (
	"errors"

	"debatepad/internal/api"
	"debatepad/internal/state"
)

// Apply installs an Outcome into the view state. Busy flags are released whatever happened;
// form text is only cleared after a successful add.
func (o Outcome) Apply(v *state.TopicView, f *state.ArgumentForm) {
	switch o.Op {
	case OpAdd:
		if f != nil {
			f.End()
			if o.Err == nil {
				f.Reset()
			}
		}
	case OpGenerate:
		if v != nil {
			v.Generating = false
		}
	}
	if v == nil {
		return
	}
	if o.Topic != nil {
		v.Replace(*o.Topic)
		return
	}
	if o.RefreshErr != nil && errors.Is(o.RefreshErr, api.ErrNotFound) {
		v.Fail(o.RefreshErr)
	}
}
