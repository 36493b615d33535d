package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"debatepad/internal/api"
	"debatepad/internal/model"
	"debatepad/internal/mutate"
	"debatepad/internal/state"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type view int

const (
	viewTopics view = iota
	viewTopic
)

type modalKind int

const (
	modalNone modalKind = iota
	modalNewTopic
	modalConfirmDeleteArgument
	modalConfirmDeleteTopic
)

type formFocus int

const (
	focusNone formFocus = iota
	focusPoint
	focusFacts
)

var flashTTL = 4 * time.Second

// opRefresh marks a manual reload in the pending set; it blocks mutations like one.
const opRefresh mutate.Op = "refresh"

type appModel struct {
	ctx    context.Context
	remote Remote
	engine *mutate.Engine
	log    *slog.Logger

	width  int
	height int

	view  view
	modal modalKind

	// Topics view.
	topics       *state.TopicList
	topicsList   list.Model
	listErr      error
	searching    bool
	search       textinput.Model
	topicForm    state.TopicForm
	titleInput   textinput.Model
	pendingTopic model.Topic

	// Topic view.
	topic        *state.TopicView
	form         *state.ArgumentForm
	pointInput   textinput.Model
	factsInput   textarea.Model
	focus        formFocus
	cursorSide   model.Side
	cursorIdx    int
	pendingArg   model.Argument
	confirmFocus confirmModalFocus
	showMarkdown bool
	spinner      spinner.Model

	// pending is the request in flight per topic id. It survives leaving the topic view,
	// so a re-opened topic stays busy until its earlier request answers.
	pending map[string]mutate.Op
	// viewSeq numbers each opening of a topic view; reqSeq numbers every load and
	// mutation dispatched; shownSeq is the reqSeq of the snapshot on screen.
	viewSeq  int
	reqSeq   int
	shownSeq int

	flash    string
	flashErr bool
	flashSeq int
}

func newAppModel(ctx context.Context, remote Remote, log *slog.Logger) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := appModel{
		ctx:        ctx,
		remote:     remote,
		engine:     mutate.NewEngine(remote, log),
		log:        log,
		view:       viewTopics,
		topics:     state.NewTopicList(),
		topic:      state.NewTopicView(),
		form:       state.NewArgumentForm(),
		cursorSide: model.SideFor,
		pending:    map[string]mutate.Op{},
	}
	m.topic.OnTransition(func(from, to state.Phase) {
		log.Debug("topic view", "from", from.String(), "to", to.String())
	})

	m.topicsList = newList("Topics", []list.Item{})

	m.search = textinput.New()
	m.search.Prompt = "/ "
	m.search.Placeholder = "search titles"

	m.titleInput = textinput.New()
	m.titleInput.Placeholder = "e.g. Universal basic income"
	m.titleInput.CharLimit = 200

	m.pointInput = textinput.New()
	m.pointInput.Placeholder = "Main point"
	m.pointInput.CharLimit = 500

	m.factsInput = textarea.New()
	m.factsInput.Placeholder = "Supporting facts, one per line"
	m.factsInput.ShowLineNumbers = false
	m.factsInput.CharLimit = 0
	m.factsInput.SetHeight(4)
	m.factsInput.SetWidth(60)

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot
	return m
}

func (m appModel) Init() tea.Cmd { return m.loadTopicsCmd() }

func (m appModel) busy() bool {
	_, inFlight := m.pending[m.topic.TopicID()]
	return inFlight || m.form.Busy
}

// track records a request for the open topic and numbers it.
func (m *appModel) track(op mutate.Op) {
	m.pending[m.topic.TopicID()] = op
	m.reqSeq++
}

// settle puts a view left in Loading by a dropped response back to Loaded.
func (m *appModel) settle() {
	if t, ok := m.topic.Topic(); ok && m.topic.Phase() == state.PhaseLoading {
		m.topic.Resolve(t)
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case topicsLoadedMsg:
		if msg.err != nil {
			m.listErr = msg.err
			return m.setFlash("Could not load topics: "+describeErr(msg.err), true)
		}
		m.listErr = nil
		m.topics.Load(msg.topics)
		m.refreshTopicItems()
		return m, nil

	case topicCreatedMsg:
		m.topicForm.Done(msg.err == nil)
		if msg.err != nil {
			m.log.Warn("create topic failed", "error", msg.err)
			return m.setFlash("Could not create topic: "+describeErr(msg.err), true)
		}
		m.topics.Prepend(msg.topic)
		m.refreshTopicItems()
		m.modal = modalNone
		m.titleInput.Reset()
		m.titleInput.Blur()
		m.topicsList.Select(0)
		return m.setFlash("Created "+fmt.Sprintf("%q", msg.topic.Title), false)

	case topicDeletedMsg:
		if msg.err != nil && !errors.Is(msg.err, api.ErrNotFound) {
			return m.setFlash("Could not delete topic: "+describeErr(msg.err), true)
		}
		m.topics.Remove(msg.id)
		m.refreshTopicItems()
		return m.setFlash("Topic deleted", false)

	case topicLoadedMsg:
		if msg.refresh && m.pending[msg.id] == opRefresh {
			delete(m.pending, msg.id)
		}
		if m.view != viewTopic || msg.id != m.topic.TopicID() || msg.view != m.viewSeq {
			return m, nil
		}
		if msg.err != nil {
			if msg.refresh && !errors.Is(msg.err, api.ErrNotFound) {
				m.settle()
				return m.setFlash("Refresh failed: "+describeErr(msg.err), true)
			}
			m.topic.Fail(msg.err)
			return m.redirect()
		}
		if msg.seq < m.shownSeq {
			m.log.Debug("dropping older topic snapshot", "topic", msg.id, "seq", msg.seq, "shown", m.shownSeq)
			m.settle()
			return m, nil
		}
		m.shownSeq = msg.seq
		if msg.refresh {
			m.topic.Replace(msg.topic)
		} else {
			m.topic.Resolve(msg.topic)
		}
		m.clampCursor()
		return m, nil

	case outcomeMsg:
		return m.applyOutcome(msg)

	case spinner.TickMsg:
		if !m.topic.Generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case flashClearMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		if m.view == viewTopic {
			return m.updateTopic(msg)
		}
		return m.updateTopics(msg)
	}

	return m.forwardToInputs(msg)
}

// forwardToInputs passes non-key messages (cursor blink) to whichever input has focus.
func (m appModel) forwardToInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.modal == modalNewTopic:
		m.titleInput, cmd = m.titleInput.Update(msg)
	case m.searching:
		m.search, cmd = m.search.Update(msg)
	case m.focus == focusPoint:
		m.pointInput, cmd = m.pointInput.Update(msg)
	case m.focus == focusFacts:
		m.factsInput, cmd = m.factsInput.Update(msg)
	}
	return m, cmd
}

func (m *appModel) resize() {
	h := m.height - 8
	if h < 6 {
		h = 6
	}
	w := m.width
	if w < 40 {
		w = 40
	}
	m.topicsList.SetSize(w, h)
	m.search.Width = w - 6
	m.pointInput.Width = w - 8
	m.factsInput.SetWidth(w - 4)
	m.titleInput.Width = modalBodyWidth(m.width) - 4
}

func (m appModel) setFlash(msg string, isErr bool) (appModel, tea.Cmd) {
	m.flashSeq++
	m.flash = msg
	m.flashErr = isErr
	return m, flashClearAfter(m.flashSeq, flashTTL)
}

func (m *appModel) refreshTopicItems() {
	m.topicsList.SetItems(topicItems(m.topics))
}

// Topics view.

func (m appModel) updateTopics(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "esc":
			m.searching = false
			m.search.Blur()
			m.search.SetValue("")
			m.topics.SetQuery("")
			m.refreshTopicItems()
			return m, nil
		case "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.topics.SetQuery(m.search.Value())
		m.refreshTopicItems()
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "esc":
		if m.topics.Query() != "" {
			m.search.SetValue("")
			m.topics.SetQuery("")
			m.refreshTopicItems()
		}
		return m, nil
	case "n":
		m.modal = modalNewTopic
		m.titleInput.SetValue(m.topicForm.Title)
		return m, m.titleInput.Focus()
	case "r":
		return m, m.loadTopicsCmd()
	case "d", "x":
		if t, ok := selectedTopic(m.topicsList); ok {
			m.pendingTopic = t
			m.confirmFocus = confirmFocusCancel
			m.modal = modalConfirmDeleteTopic
		}
		return m, nil
	case "enter":
		if t, ok := selectedTopic(m.topicsList); ok {
			return m.openTopic(t.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.topicsList, cmd = m.topicsList.Update(msg)
	return m, cmd
}

func (m appModel) openTopic(id string) (tea.Model, tea.Cmd) {
	m.view = viewTopic
	m.viewSeq++
	m.shownSeq = 0
	m.form = state.NewArgumentForm()
	m.pointInput.Reset()
	m.factsInput.Reset()
	m.focus = focusNone
	m.cursorSide = model.SideFor
	m.cursorIdx = 0
	m.showMarkdown = false
	m.topic.Open(id)

	var cmds []tea.Cmd
	if m.pending[m.topic.TopicID()] == mutate.OpGenerate {
		m.topic.Generating = true
		cmds = append(cmds, m.spinner.Tick)
	}
	m.reqSeq++
	cmds = append(cmds, m.loadTopicCmd(m.topic.TopicID(), false))
	return m, tea.Batch(cmds...)
}

func (m appModel) refreshTopic() (appModel, tea.Cmd) {
	m.topic.Refreshing()
	m.track(opRefresh)
	return m, m.loadTopicCmd(m.topic.TopicID(), true)
}

func (m *appModel) leaveTopic() {
	m.view = viewTopics
	m.modal = modalNone
	m.focus = focusNone
	m.pointInput.Blur()
	m.factsInput.Blur()
	m.form = state.NewArgumentForm()
	m.topic.Reset()
}

// redirect returns to the topic list after the open topic could not be loaded.
func (m appModel) redirect() (tea.Model, tea.Cmd) {
	err := m.topic.Err()
	m.leaveTopic()
	text := "Topic not found"
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		text = "Could not load topic: " + describeErr(err)
	}
	m, flash := m.setFlash(text, true)
	return m, tea.Batch(flash, m.loadTopicsCmd())
}

// Modals.

func (m appModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalNewTopic:
		switch msg.String() {
		case "esc", "ctrl+g":
			m.topicForm.Title = m.titleInput.Value()
			m.modal = modalNone
			m.titleInput.Blur()
			return m, nil
		case "enter", "ctrl+s":
			m.topicForm.Title = m.titleInput.Value()
			if m.topicForm.Busy {
				return m, nil
			}
			if !m.topicForm.CanSubmit() {
				return m.setFlash("Title is required", true)
			}
			m.topicForm.Begin()
			return m, m.createTopicCmd(strings.TrimSpace(m.topicForm.Title))
		}
		if m.topicForm.Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.titleInput, cmd = m.titleInput.Update(msg)
		m.topicForm.Title = m.titleInput.Value()
		return m, cmd

	case modalConfirmDeleteArgument, modalConfirmDeleteTopic:
		switch msg.String() {
		case "tab", "shift+tab", "left", "right", "h", "l":
			m.confirmFocus = m.confirmFocus.toggle()
			return m, nil
		case "esc", "n", "ctrl+g":
			m.modal = modalNone
			return m, nil
		case "y":
			return m.confirmDelete()
		case "enter":
			if m.confirmFocus == confirmFocusConfirm {
				return m.confirmDelete()
			}
			m.modal = modalNone
			return m, nil
		}
	}
	return m, nil
}

func (m appModel) confirmDelete() (tea.Model, tea.Cmd) {
	kind := m.modal
	m.modal = modalNone
	if kind == modalConfirmDeleteTopic {
		return m, m.deleteTopicCmd(m.pendingTopic.ID)
	}
	if m.busy() {
		return m.setFlash(mutate.ErrBusy.Error(), true)
	}
	m.track(mutate.OpDelete)
	return m, m.deleteArgumentCmd(m.topic.TopicID(), m.pendingArg.ID)
}

// Topic view.

func (m appModel) updateTopic(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focus != focusNone {
		return m.updateForm(msg)
	}
	_, loaded := m.topic.Topic()

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.leaveTopic()
		return m, m.loadTopicsCmd()
	case "a", "i", "tab":
		if !loaded {
			return m, nil
		}
		m.focus = focusPoint
		return m, m.pointInput.Focus()
	case "s":
		if !m.form.Busy {
			m.form.ToggleSide()
		}
		return m, nil
	case "left", "h":
		m.cursorSide = model.SideFor
		m.clampCursor()
	case "right", "l":
		m.cursorSide = model.SideAgainst
		m.clampCursor()
	case "up", "k":
		m.cursorIdx--
		m.clampCursor()
	case "down", "j":
		m.cursorIdx++
		m.clampCursor()
	case "x", "delete":
		if a, ok := m.selectedArgument(); ok {
			m.pendingArg = a
			m.confirmFocus = confirmFocusCancel
			m.modal = modalConfirmDeleteArgument
		}
	case "g":
		return m.startGenerate()
	case "m":
		m.showMarkdown = !m.showMarkdown
	case "r":
		if loaded && !m.busy() {
			return m.refreshTopic()
		}
	}
	return m, nil
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = focusNone
		m.pointInput.Blur()
		m.factsInput.Blur()
		return m, nil
	case "tab", "shift+tab":
		if m.focus == focusPoint {
			m.focus = focusFacts
			m.pointInput.Blur()
			return m, m.factsInput.Focus()
		}
		m.focus = focusPoint
		m.factsInput.Blur()
		return m, m.pointInput.Focus()
	case "ctrl+t":
		if !m.form.Busy {
			m.form.ToggleSide()
		}
		return m, nil
	case "ctrl+s":
		return m.submitArgument()
	case "enter":
		if m.focus == focusPoint {
			return m.submitArgument()
		}
	}

	if m.form.Busy {
		return m, nil
	}
	var cmd tea.Cmd
	if m.focus == focusPoint {
		m.pointInput, cmd = m.pointInput.Update(msg)
		m.form.Point = m.pointInput.Value()
	} else {
		m.factsInput, cmd = m.factsInput.Update(msg)
		m.form.Facts = m.factsInput.Value()
	}
	return m, cmd
}

func (m appModel) submitArgument() (tea.Model, tea.Cmd) {
	if m.busy() {
		return m.setFlash(mutate.ErrBusy.Error(), true)
	}
	if _, ok := m.topic.Topic(); !ok {
		return m, nil
	}
	m.form.Point = m.pointInput.Value()
	m.form.Facts = m.factsInput.Value()
	d := mutate.DraftOf(m.form)
	if err := d.Validate(); err != nil {
		return m.setFlash(describeErr(err), true)
	}
	m.form.Begin()
	m.track(mutate.OpAdd)
	return m, m.addArgumentCmd(m.topic.TopicID(), d)
}

func (m appModel) startGenerate() (tea.Model, tea.Cmd) {
	t, ok := m.topic.Topic()
	if !ok {
		return m, nil
	}
	if m.busy() {
		return m.setFlash(mutate.ErrBusy.Error(), true)
	}
	m.topic.Generating = true
	m.track(mutate.OpGenerate)
	return m, tea.Batch(m.spinner.Tick, m.generateCmd(t))
}

func (m appModel) applyOutcome(msg outcomeMsg) (tea.Model, tea.Cmd) {
	out := msg.out
	if m.pending[out.TopicID] == out.Op {
		delete(m.pending, out.TopicID)
	}
	if m.view != viewTopic || out.TopicID != m.topic.TopicID() {
		m.log.Debug("dropping outcome for a topic no longer open", "op", out.Op, "topic", out.TopicID)
		return m, nil
	}
	if msg.view != m.viewSeq {
		// Sent from an earlier visit to this topic: its form is gone, so only the server
		// copy matters.
		m.log.Debug("outcome from an earlier view, reloading", "op", out.Op, "topic", out.TopicID)
		if out.Op == mutate.OpGenerate {
			m.topic.Generating = false
		}
		return m.refreshTopic()
	}
	if out.Topic != nil {
		if msg.seq < m.shownSeq {
			out.Topic = nil
		} else {
			m.shownSeq = msg.seq
		}
	}

	out.Apply(m.topic, m.form)
	if m.topic.Phase() == state.PhaseNotFoundRedirect {
		return m.redirect()
	}
	m.clampCursor()

	if out.Op == mutate.OpAdd && out.Err == nil {
		m.pointInput.SetValue(m.form.Point)
		m.factsInput.SetValue(m.form.Facts)
	}

	switch {
	case out.Err != nil:
		return m.setFlash(outcomeFailure(out), true)
	case out.RefreshErr != nil:
		return m.setFlash("Saved, but the refresh failed: "+describeErr(out.RefreshErr), true)
	}
	switch out.Op {
	case mutate.OpAdd:
		return m.setFlash("Argument added", false)
	case mutate.OpDelete:
		return m.setFlash("Argument deleted", false)
	case mutate.OpGenerate:
		return m.setFlash(fmt.Sprintf("Added %d suggested arguments", out.Batch.Inserted), false)
	}
	return m, nil
}

func outcomeFailure(out mutate.Outcome) string {
	switch out.Op {
	case mutate.OpAdd:
		return "Could not add argument: " + describeErr(out.Err)
	case mutate.OpDelete:
		return "Could not delete argument: " + describeErr(out.Err)
	case mutate.OpGenerate:
		if out.Batch != nil {
			return fmt.Sprintf("Stopped after %d of %d suggestions: %s", out.Batch.Inserted, out.Batch.Planned, describeErr(out.Err))
		}
		return "Could not generate arguments: " + describeErr(out.Err)
	}
	return describeErr(out.Err)
}

func (m appModel) selectedArgument() (model.Argument, bool) {
	t, ok := m.topic.Topic()
	if !ok {
		return model.Argument{}, false
	}
	args := t.Arguments(m.cursorSide)
	if m.cursorIdx < 0 || m.cursorIdx >= len(args) {
		return model.Argument{}, false
	}
	return args[m.cursorIdx], true
}

func (m *appModel) clampCursor() {
	t, _ := m.topic.Topic()
	n := len(t.Arguments(m.cursorSide))
	if m.cursorIdx >= n {
		m.cursorIdx = n - 1
	}
	if m.cursorIdx < 0 {
		m.cursorIdx = 0
	}
}

func describeErr(err error) string {
	if err == nil {
		return ""
	}
	var e *api.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case api.KindNetwork:
			return "cannot reach the API server"
		case api.KindNotFound:
			return "not found"
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return err.Error()
}
