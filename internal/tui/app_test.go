package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"debatepad/internal/api"
	"debatepad/internal/model"
	"debatepad/internal/mutate"
	"debatepad/internal/state"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func init() {
	flashTTL = time.Millisecond
}

// memRemote is an in-memory API with the same snapshot semantics as the server.
type memRemote struct {
	mu      sync.Mutex
	topics  []model.Topic
	nextID  int
	batch   model.SuggestionBatch
	failAdd int // fail the n-th AddArgument call (1-based); 0 = never
	adds    int
}

func (r *memRemote) id(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", prefix, r.nextID)
}

func (r *memRemote) find(id string) (int, bool) {
	for i, t := range r.topics {
		if t.ID == id {
			return i, true
		}
	}
	return -1, false
}

func notFound(op string) error {
	return &api.Error{Kind: api.KindNotFound, Op: op, Status: 404, Message: "Topic not found"}
}

func (r *memRemote) ListTopics(context.Context) ([]model.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Topic, len(r.topics))
	copy(out, r.topics)
	return out, nil
}

func (r *memRemote) CreateTopic(_ context.Context, title string) (model.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := model.Topic{ID: r.id("t"), Title: title, ArgumentsFor: []model.Argument{}, ArgumentsAgainst: []model.Argument{}}
	r.topics = append([]model.Topic{t}, r.topics...)
	return t, nil
}

func (r *memRemote) DeleteTopic(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.find(id)
	if !ok {
		return notFound("deleteTopic")
	}
	r.topics = append(r.topics[:i], r.topics[i+1:]...)
	return nil
}

func (r *memRemote) GetTopic(_ context.Context, id string) (model.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.find(id)
	if !ok {
		return model.Topic{}, notFound("getTopic")
	}
	return r.topics[i], nil
}

func (r *memRemote) AddArgument(_ context.Context, topicID string, req api.AddArgumentRequest) (model.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adds++
	if r.failAdd != 0 && r.adds == r.failAdd {
		return model.Topic{}, &api.Error{Kind: api.KindUpstream, Op: "addArgument", Status: 500, Message: "boom"}
	}
	i, ok := r.find(topicID)
	if !ok {
		return model.Topic{}, notFound("addArgument")
	}
	a := model.Argument{ID: r.id("a"), Point: req.Point, SupportingFacts: req.SupportingFacts}
	t := r.topics[i]
	if req.Side == model.SideAgainst {
		t.ArgumentsAgainst = append(append([]model.Argument{}, t.ArgumentsAgainst...), a)
	} else {
		t.ArgumentsFor = append(append([]model.Argument{}, t.ArgumentsFor...), a)
	}
	r.topics[i] = t
	return t, nil
}

func (r *memRemote) DeleteArgument(_ context.Context, topicID, argumentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.find(topicID)
	if !ok {
		return notFound("deleteArgument")
	}
	t := r.topics[i]
	drop := func(in []model.Argument) ([]model.Argument, bool) {
		out := []model.Argument{}
		found := false
		for _, a := range in {
			if a.ID == argumentID {
				found = true
				continue
			}
			out = append(out, a)
		}
		return out, found
	}
	var f1, f2 bool
	t.ArgumentsFor, f1 = drop(t.ArgumentsFor)
	t.ArgumentsAgainst, f2 = drop(t.ArgumentsAgainst)
	if !f1 && !f2 {
		return &api.Error{Kind: api.KindNotFound, Op: "deleteArgument", Status: 404, Message: "Argument not found"}
	}
	r.topics[i] = t
	return nil
}

func (r *memRemote) GenerateSuggestions(context.Context, string) (model.SuggestionBatch, error) {
	if r.batch.Len() == 0 {
		return model.SuggestionBatch{}, &api.Error{Kind: api.KindUpstream, Op: "generateSuggestions", Status: 500, Message: "Failed to generate arguments"}
	}
	return r.batch, nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd (expanding batches) and returns the messages it produced. Spinner ticks
// and cursor blinks are dropped.
func run(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, run(t, c)...)
		}
		return out
	case spinner.TickMsg:
		return nil
	}
	switch msg.(type) {
	case topicsLoadedMsg, topicCreatedMsg, topicDeletedMsg, topicLoadedMsg, outcomeMsg, flashClearMsg:
		return []tea.Msg{msg}
	}
	return nil
}

// send delivers msg and then feeds back the app's own follow-up messages until quiet.
func send(t *testing.T, m appModel, msg tea.Msg) appModel {
	t.Helper()
	queue := []tea.Msg{msg}
	for i := 0; len(queue) > 0; i++ {
		if i > 50 {
			t.Fatalf("message loop did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		mm, cmd := m.Update(next)
		m = mm.(appModel)
		for _, out := range run(t, cmd) {
			if _, ok := out.(flashClearMsg); ok {
				continue
			}
			queue = append(queue, out)
		}
	}
	return m
}

func newTestApp(t *testing.T, r *memRemote) appModel {
	t.Helper()
	m := newAppModel(context.Background(), r, nil)
	// A blinking cursor's command sleeps; keep tests fast.
	for _, c := range []*cursor.Model{&m.search.Cursor, &m.titleInput.Cursor, &m.pointInput.Cursor, &m.factsInput.Cursor} {
		c.SetMode(cursor.CursorStatic)
	}
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return sendCmd(t, m, m.Init())
}

func sendCmd(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	for _, msg := range run(t, cmd) {
		m = send(t, m, msg)
	}
	return m
}

func seed(r *memRemote, titles ...string) {
	for i := len(titles) - 1; i >= 0; i-- {
		_, _ = r.CreateTopic(context.Background(), titles[i])
	}
}

func TestTopicsView_EmptyAndNoMatches(t *testing.T) {
	r := &memRemote{}
	m := newTestApp(t, r)
	if !strings.Contains(m.View(), "No topics yet") {
		t.Fatalf("expected empty message; got:\n%s", m.View())
	}

	seed(r, "AI in schools", "Universal basic income", "ai ethics")
	m = send(t, m, key("r"))
	if m.topics.Len() != 3 {
		t.Fatalf("expected 3 topics after reload, got %d", m.topics.Len())
	}

	m = send(t, m, key("/"))
	for _, ch := range "ai" {
		m = send(t, m, key(string(ch)))
	}
	if got := len(m.topicsList.Items()); got != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", m.topics.Query(), got)
	}

	for _, ch := range "zz" {
		m = send(t, m, key(string(ch)))
	}
	if m.topics.Condition() != state.ListNoMatches {
		t.Fatalf("expected no matches, got %v", m.topics.Condition())
	}
	if !strings.Contains(m.View(), "No topics match") {
		t.Fatalf("expected no-matches message; got:\n%s", m.View())
	}

	m = send(t, m, key("esc"))
	if m.topics.Query() != "" || len(m.topicsList.Items()) != 3 {
		t.Fatalf("expected esc to clear the search")
	}
}

func TestCreateTopic_PrependsLocally(t *testing.T) {
	r := &memRemote{}
	seed(r, "Older")
	m := newTestApp(t, r)

	m = send(t, m, key("n"))
	if m.modal != modalNewTopic {
		t.Fatalf("expected new topic modal, got %v", m.modal)
	}
	m = send(t, m, key("enter"))
	if m.modal != modalNewTopic || m.flash != "Title is required" {
		t.Fatalf("blank title should keep the modal open with an error; modal=%v flash=%q", m.modal, m.flash)
	}

	m.titleInput.SetValue("  Space exploration ")
	m = send(t, m, key("enter"))
	if m.modal != modalNone {
		t.Fatalf("expected modal to close after create")
	}
	entries := m.topics.Entries()
	if len(entries) != 2 || entries[0].Topic.Title != "Space exploration" || entries[0].Origin != state.OriginLocal {
		t.Fatalf("expected local prepend; got %+v", entries)
	}
	if m.topicForm.Title != "" || m.topicForm.Busy {
		t.Fatalf("expected topic form reset; got %+v", m.topicForm)
	}
}

func openFirst(t *testing.T, m appModel) appModel {
	t.Helper()
	m = send(t, m, key("enter"))
	if m.view != viewTopic || m.topic.Phase() != state.PhaseLoaded {
		t.Fatalf("expected loaded topic view; view=%v phase=%v", m.view, m.topic.Phase())
	}
	return m
}

func TestTopicView_AddArgument(t *testing.T) {
	r := &memRemote{}
	seed(r, "Nuclear power")
	m := openFirst(t, newTestApp(t, r))

	m = send(t, m, key("a"))
	if m.focus != focusPoint {
		t.Fatalf("expected point input focused")
	}
	m = send(t, m, key("ctrl+t"))
	if m.form.Side != model.SideAgainst {
		t.Fatalf("expected side toggled to against")
	}
	m.pointInput.SetValue("Waste storage")
	m.factsInput.SetValue("Long half-lives\n\nCost")
	m = send(t, m, key("ctrl+s"))

	_, againstN := m.topic.Counts()
	if againstN != 1 {
		t.Fatalf("expected 1 against argument, got %d", againstN)
	}
	tp, _ := m.topic.Topic()
	if got := tp.ArgumentsAgainst[0].SupportingFacts; len(got) != 2 || got[1] != "Cost" {
		t.Fatalf("unexpected facts: %v", got)
	}
	if m.form.Busy || m.form.Point != "" || m.form.Side != model.SideFor || m.pointInput.Value() != "" {
		t.Fatalf("expected form reset after success; form=%+v input=%q", m.form, m.pointInput.Value())
	}
}

func TestTopicView_BlankPointIsRejectedLocally(t *testing.T) {
	r := &memRemote{}
	seed(r, "x")
	m := openFirst(t, newTestApp(t, r))
	m = send(t, m, key("a"))
	m.pointInput.SetValue("   ")
	m = send(t, m, key("enter"))
	if r.adds != 0 {
		t.Fatalf("expected no remote call, got %d", r.adds)
	}
	if m.form.Busy {
		t.Fatalf("form should not be busy")
	}
}

func TestTopicView_DeleteWithConfirm(t *testing.T) {
	r := &memRemote{}
	seed(r, "x")
	_, _ = r.AddArgument(context.Background(), r.topics[0].ID, api.AddArgumentRequest{Point: "p1", Side: model.SideFor})
	_, _ = r.AddArgument(context.Background(), r.topics[0].ID, api.AddArgumentRequest{Point: "p2", Side: model.SideFor})
	m := openFirst(t, newTestApp(t, r))

	m = send(t, m, key("j"))
	m = send(t, m, key("x"))
	if m.modal != modalConfirmDeleteArgument || m.pendingArg.Point != "p2" {
		t.Fatalf("expected confirm for p2; modal=%v arg=%+v", m.modal, m.pendingArg)
	}
	m = send(t, m, key("n"))
	if m.modal != modalNone {
		t.Fatalf("expected n to cancel")
	}
	if forN, _ := m.topic.Counts(); forN != 2 {
		t.Fatalf("cancel must not delete")
	}

	m = send(t, m, key("x"))
	m = send(t, m, key("y"))
	forN, _ := m.topic.Counts()
	if forN != 1 || m.busy() {
		t.Fatalf("expected 1 remaining and nothing in flight; got %d pending=%v", forN, m.pending)
	}
	if tp, _ := m.topic.Topic(); tp.ArgumentsFor[0].Point != "p1" {
		t.Fatalf("wrong argument deleted: %+v", tp.ArgumentsFor)
	}
}

func TestTopicView_GenerateStopsAtFailure(t *testing.T) {
	r := &memRemote{
		batch: model.SuggestionBatch{
			ArgumentsFor:     []model.Suggestion{{Point: "f0"}, {Point: "f1"}},
			ArgumentsAgainst: []model.Suggestion{{Point: "a0"}},
		},
		failAdd: 3,
	}
	seed(r, "Remote work")
	m := openFirst(t, newTestApp(t, r))

	m = send(t, m, key("g"))
	if m.topic.Generating {
		t.Fatalf("generating flag should be cleared after the batch")
	}
	forN, againstN := m.topic.Counts()
	if forN != 2 || againstN != 0 {
		t.Fatalf("expected the two for-suggestions kept after the failure; got %d/%d", forN, againstN)
	}
	if !m.flashErr || !strings.Contains(m.flash, "Stopped after 2 of 3") {
		t.Fatalf("unexpected flash %q", m.flash)
	}
}

func TestTopicView_BusyRejectsSecondMutation(t *testing.T) {
	r := &memRemote{}
	seed(r, "x")
	m := openFirst(t, newTestApp(t, r))
	m.pending[m.topic.TopicID()] = mutate.OpGenerate

	mm, cmd := m.Update(key("g"))
	m = mm.(appModel)
	if msgs := run(t, cmd); len(msgs) != 1 {
		t.Fatalf("expected only a flash timer, got %v", msgs)
	}
	if !strings.Contains(m.flash, "in progress") {
		t.Fatalf("expected busy flash, got %q", m.flash)
	}
}

func TestTopicView_MissingTopicRedirects(t *testing.T) {
	r := &memRemote{}
	seed(r, "gone")
	m := newTestApp(t, r)
	_ = r.DeleteTopic(context.Background(), r.topics[0].ID)

	m = send(t, m, key("enter"))
	if m.view != viewTopics {
		t.Fatalf("expected redirect to topic list, got view %v", m.view)
	}
	if m.topic.Phase() != state.PhaseEmpty || m.flash != "Topic not found" {
		t.Fatalf("unexpected state after redirect: phase=%v flash=%q", m.topic.Phase(), m.flash)
	}
	if m.topics.Len() != 0 {
		t.Fatalf("expected the list to be reloaded")
	}
}

func TestStaleOutcomeIsIgnored(t *testing.T) {
	r := &memRemote{}
	seed(r, "one", "two")
	m := openFirst(t, newTestApp(t, r))
	first := m.topic.TopicID()

	m = send(t, m, key("a"))
	m.pointInput.SetValue("late")
	mm, cmd := m.Update(key("ctrl+s"))
	m = mm.(appModel)

	// Leave before the add comes back.
	m = send(t, m, key("esc"))
	m = send(t, m, key("esc"))
	for _, msg := range run(t, cmd) {
		m = send(t, m, msg)
	}
	if m.view != viewTopics || m.topic.TopicID() != "" {
		t.Fatalf("stale outcome must not reopen %s", first)
	}
}

func TestReopenedTopicStaysBusyAndKeepsDraft(t *testing.T) {
	r := &memRemote{batch: model.SuggestionBatch{ArgumentsFor: []model.Suggestion{{Point: "f0"}}}}
	seed(r, "Four-day week")
	m := openFirst(t, newTestApp(t, r))

	m = send(t, m, key("a"))
	m.pointInput.SetValue("Productivity")
	mm, held := m.Update(key("ctrl+s"))
	m = mm.(appModel)

	m = send(t, m, key("esc"))
	m = send(t, m, key("esc"))
	m = openFirst(t, m)
	if !m.busy() {
		t.Fatalf("re-opened topic must stay busy while its add is in flight")
	}

	m = send(t, m, key("g"))
	if m.topic.Generating || !strings.Contains(m.flash, "in progress") {
		t.Fatalf("expected generate to be refused; generating=%v flash=%q", m.topic.Generating, m.flash)
	}

	m = send(t, m, key("a"))
	m = send(t, m, key("unsent draft"))
	for _, msg := range run(t, held) {
		m = send(t, m, msg)
	}

	if m.form.Point != "unsent draft" || m.pointInput.Value() != "unsent draft" {
		t.Fatalf("draft lost: form=%q input=%q", m.form.Point, m.pointInput.Value())
	}
	if forN, _ := m.topic.Counts(); forN != 1 {
		t.Fatalf("expected the earlier add to show after the reload, got %d", forN)
	}
	if m.busy() || m.topic.Phase() != state.PhaseLoaded {
		t.Fatalf("expected idle loaded view; pending=%v phase=%v", m.pending, m.topic.Phase())
	}
}

func TestPendingRefreshBlocksMutations(t *testing.T) {
	r := &memRemote{}
	seed(r, "Rent control")
	m := openFirst(t, newTestApp(t, r))

	mm, held := m.Update(key("r"))
	m = mm.(appModel)

	m = send(t, m, key("a"))
	m.pointInput.SetValue("Stability for tenants")
	m = send(t, m, key("ctrl+s"))
	if r.adds != 0 || !strings.Contains(m.flash, "in progress") {
		t.Fatalf("expected add refused during refresh; adds=%d flash=%q", r.adds, m.flash)
	}
	if m.pointInput.Value() != "Stability for tenants" {
		t.Fatalf("refused submit must keep the input")
	}

	for _, msg := range run(t, held) {
		m = send(t, m, msg)
	}
	m = send(t, m, key("ctrl+s"))
	forN, _ := m.topic.Counts()
	tp, _ := r.GetTopic(context.Background(), m.topic.TopicID())
	if serverFor, _ := tp.Counts(); forN != 1 || serverFor != 1 {
		t.Fatalf("view and server disagree: view=%d server=%d", forN, serverFor)
	}
}

func TestOlderSnapshotIsDropped(t *testing.T) {
	r := &memRemote{}
	seed(r, "Congestion pricing")
	m := openFirst(t, newTestApp(t, r))
	old, _ := m.topic.Topic()

	m = send(t, m, key("a"))
	m.pointInput.SetValue("Cleaner air")
	m = send(t, m, key("ctrl+s"))

	m = send(t, m, topicLoadedMsg{id: old.ID, topic: old, refresh: true, view: m.viewSeq, seq: m.shownSeq - 1})
	if forN, _ := m.topic.Counts(); forN != 1 {
		t.Fatalf("older snapshot replaced a newer one; for=%d", forN)
	}
	if m.topic.Phase() != state.PhaseLoaded {
		t.Fatalf("expected loaded, got %v", m.topic.Phase())
	}
}
