package tui

import (
	"fmt"

	"debatepad/internal/model"
	"debatepad/internal/state"

	"github.com/charmbracelet/bubbles/list"
)

type topicItem struct {
	topic model.Topic
	local bool
}

func (i topicItem) FilterValue() string { return i.topic.Title }
func (i topicItem) Title() string {
	if i.local {
		return i.topic.Title + " •"
	}
	return i.topic.Title
}
func (i topicItem) Description() string {
	forN, againstN := i.topic.Counts()
	desc := fmt.Sprintf("%d for · %d against", forN, againstN)
	if !i.topic.CreatedAt.IsZero() {
		desc += " · " + i.topic.CreatedAt.Local().Format("2006-01-02 15:04")
	}
	return desc
}

// topicItems lists the entries that match the current query, in list order.
func topicItems(l *state.TopicList) []list.Item {
	items := []list.Item{}
	for _, e := range l.Entries() {
		if !state.MatchTitle(e.Topic.Title, l.Query()) {
			continue
		}
		items = append(items, topicItem{topic: e.Topic, local: e.Origin == state.OriginLocal})
	}
	return items
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	// The app draws its own header, footer and search line.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetKeys("q")

	cursorUpKeys := append([]string{}, l.KeyMap.CursorUp.Keys()...)
	l.KeyMap.CursorUp.SetKeys(append(cursorUpKeys, "ctrl+p")...)
	cursorDownKeys := append([]string{}, l.KeyMap.CursorDown.Keys()...)
	l.KeyMap.CursorDown.SetKeys(append(cursorDownKeys, "ctrl+n")...)
	return l
}

func selectedTopic(l list.Model) (model.Topic, bool) {
	it, ok := l.SelectedItem().(topicItem)
	if !ok {
		return model.Topic{}, false
	}
	return it.topic, true
}
