package model

import (
	"fmt"
	"strings"
	"time"
)

type Side string

const (
	SideFor     Side = "for"
	SideAgainst Side = "against"
)

func (s Side) Valid() bool {
	return s == SideFor || s == SideAgainst
}

func (s Side) String() string { return string(s) }

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideFor {
		return SideAgainst
	}
	return SideFor
}

// ParseSide accepts "for" or "against" (case-insensitive, surrounding space ignored).
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideFor:
		return SideFor, nil
	case SideAgainst:
		return SideAgainst, nil
	default:
		return "", fmt.Errorf("side must be 'for' or 'against', got %q", s)
	}
}

type Argument struct {
	ID              string    `json:"id"`
	Point           string    `json:"point"`
	SupportingFacts []string  `json:"supporting_facts"`
	CreatedAt       time.Time `json:"created_at"`
}

type Topic struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	ArgumentsFor     []Argument `json:"arguments_for"`
	ArgumentsAgainst []Argument `json:"arguments_against"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Counts returns the number of arguments on each side.
func (t Topic) Counts() (forN, againstN int) {
	return len(t.ArgumentsFor), len(t.ArgumentsAgainst)
}

func (t Topic) Total() int {
	return len(t.ArgumentsFor) + len(t.ArgumentsAgainst)
}

// Arguments returns the argument list for one side.
func (t Topic) Arguments(side Side) []Argument {
	if side == SideAgainst {
		return t.ArgumentsAgainst
	}
	return t.ArgumentsFor
}

// FindArgument looks an argument up on both sides.
func (t Topic) FindArgument(id string) (Argument, Side, bool) {
	for _, a := range t.ArgumentsFor {
		if a.ID == id {
			return a, SideFor, true
		}
	}
	for _, a := range t.ArgumentsAgainst {
		if a.ID == id {
			return a, SideAgainst, true
		}
	}
	return Argument{}, "", false
}

// WasUpdated reports whether the topic changed after creation.
func (t Topic) WasUpdated() bool {
	return !t.UpdatedAt.IsZero() && !t.UpdatedAt.Equal(t.CreatedAt)
}

// Suggestion is one AI-proposed argument, not yet persisted.
type Suggestion struct {
	Point           string   `json:"point"`
	SupportingFacts []string `json:"supporting_facts"`
}

// SuggestionBatch is the ephemeral generator output for one topic title.
type SuggestionBatch struct {
	Topic            string       `json:"topic,omitempty"`
	ArgumentsFor     []Suggestion `json:"arguments_for"`
	ArgumentsAgainst []Suggestion `json:"arguments_against"`
}

func (b SuggestionBatch) Len() int {
	return len(b.ArgumentsFor) + len(b.ArgumentsAgainst)
}

// Validate rejects batches a generator should never produce: nothing at all, or entries
// without a point.
func (b SuggestionBatch) Validate() error {
	if b.Len() == 0 {
		return fmt.Errorf("suggestion batch is empty")
	}
	for i, s := range b.ArgumentsFor {
		if strings.TrimSpace(s.Point) == "" {
			return fmt.Errorf("arguments_for[%d]: missing point", i)
		}
	}
	for i, s := range b.ArgumentsAgainst {
		if strings.TrimSpace(s.Point) == "" {
			return fmt.Errorf("arguments_against[%d]: missing point", i)
		}
	}
	return nil
}
