package state

import (
	"strings"

	"debatepad/internal/model"
)

// Origin tells whether a list entry came from a listTopics fetch or was prepended locally
// after a create.
type Origin int

const (
	OriginConfirmed Origin = iota
	OriginLocal
)

type ListEntry struct {
	Topic  model.Topic
	Origin Origin
}

// Condition is what the list view should show; it is derived, not stored.
type Condition int

const (
	ListEmpty Condition = iota
	ListNoMatches
	ListHasMatches
)

func (c Condition) String() string {
	switch c {
	case ListEmpty:
		return "empty"
	case ListNoMatches:
		return "no_matches"
	default:
		return "has_matches"
	}
}

type TopicList struct {
	entries []ListEntry
	query   string
	loaded  bool
}

func NewTopicList() *TopicList {
	return &TopicList{}
}

// Load replaces the whole list with a server listing, kept in server order.
func (l *TopicList) Load(topics []model.Topic) {
	l.entries = make([]ListEntry, 0, len(topics))
	for _, t := range topics {
		l.entries = append(l.entries, ListEntry{Topic: t, Origin: OriginConfirmed})
	}
	l.loaded = true
}

// Prepend puts a newly created topic at the front without a refetch.
func (l *TopicList) Prepend(t model.Topic) {
	l.entries = append([]ListEntry{{Topic: t, Origin: OriginLocal}}, l.entries...)
}

// Remove drops a topic by id, reporting whether it was present.
func (l *TopicList) Remove(id string) bool {
	for i, e := range l.entries {
		if e.Topic.ID == id {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (l *TopicList) SetQuery(q string) { l.query = q }
func (l *TopicList) Query() string     { return l.query }
func (l *TopicList) Loaded() bool      { return l.loaded }
func (l *TopicList) Len() int          { return len(l.entries) }

func (l *TopicList) Entries() []ListEntry {
	out := make([]ListEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Filtered returns the topics whose title contains the query, ignoring case.
func (l *TopicList) Filtered() []model.Topic {
	out := make([]model.Topic, 0, len(l.entries))
	for _, e := range l.entries {
		if MatchTitle(e.Topic.Title, l.query) {
			out = append(out, e.Topic)
		}
	}
	return out
}

func (l *TopicList) Condition() Condition {
	if len(l.entries) == 0 {
		return ListEmpty
	}
	if len(l.Filtered()) == 0 {
		return ListNoMatches
	}
	return ListHasMatches
}

// MatchTitle is a case-insensitive substring test; an empty query matches everything.
func MatchTitle(title, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(query))
}
