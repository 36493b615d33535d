package tui

import (
	"fmt"
	"strings"

	"debatepad/internal/model"
	"debatepad/internal/publish"
	"debatepad/internal/state"

	"github.com/charmbracelet/lipgloss"
)

func (m appModel) View() string {
	if m.modal != modalNone {
		box := m.viewModal()
		if m.width > 0 && m.height > 0 {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
		}
		return box
	}

	var body string
	switch m.view {
	case viewTopic:
		body = m.viewTopic()
	default:
		body = m.viewTopics()
	}
	parts := []string{m.viewHeader(), body}
	if m.flash != "" {
		st := lipgloss.NewStyle().Foreground(colorFlashInfoFg)
		if m.flashErr {
			st = lipgloss.NewStyle().Bold(true).Foreground(colorFlashError)
		}
		parts = append(parts, st.Render(m.flash))
	}
	parts = append(parts, styleMuted().Render(m.footerHelp()))
	return strings.Join(parts, "\n\n")
}

func (m appModel) contentWidth() int {
	if m.width < 40 {
		return 80
	}
	return m.width
}

func (m appModel) viewHeader() string {
	crumb := "Debate Prep Pad"
	if m.view == viewTopic {
		if t, ok := m.topic.Topic(); ok {
			crumb += " › " + t.Title
		} else {
			crumb += " › …"
		}
	}
	return styleHeader().Render(truncate(crumb, m.contentWidth()))
}

func (m appModel) footerHelp() string {
	if m.view == viewTopic {
		if m.focus != focusNone {
			return "tab: point/facts  ctrl+t: switch side  enter/ctrl+s: add  esc: done"
		}
		return "a: add  s: side  ←/→ ↑/↓: select  x: delete  g: generate  m: markdown  r: reload  esc: back  q: quit"
	}
	if m.searching {
		return "type to filter  enter: keep  esc: clear"
	}
	return "enter: open  n: new topic  /: search  d: delete  r: reload  q: quit"
}

func (m appModel) viewTopics() string {
	var lines []string
	if m.searching || m.topics.Query() != "" {
		lines = append(lines, renderInputLine(m.contentWidth()-2, m.search.View()))
	}

	switch {
	case !m.topics.Loaded() && m.listErr != nil:
		lines = append(lines, styleMuted().Render("Could not load topics. Press r to retry."))
	case !m.topics.Loaded():
		lines = append(lines, styleMuted().Render("Loading topics…"))
	default:
		switch m.topics.Condition() {
		case state.ListEmpty:
			lines = append(lines, styleMuted().Render("No topics yet. Press n to create one."))
		case state.ListNoMatches:
			lines = append(lines, styleMuted().Render(fmt.Sprintf("No topics match %q.", m.topics.Query())))
		default:
			lines = append(lines, m.topicsList.View())
		}
	}
	return strings.Join(lines, "\n")
}

func (m appModel) viewTopic() string {
	t, ok := m.topic.Topic()
	if !ok {
		return styleMuted().Render("Loading topic…")
	}
	w := m.contentWidth()

	forN, againstN := t.Counts()
	status := fmt.Sprintf("%s · %s",
		styleSide("for").Render(fmt.Sprintf("%d for", forN)),
		styleSide("against").Render(fmt.Sprintf("%d against", againstN)))
	if m.topic.Generating {
		status += "  " + m.spinner.View() + " generating arguments…"
	} else if m.topic.Phase() == state.PhaseLoading {
		status += "  " + styleMuted().Render("refreshing…")
	}

	title := lipgloss.NewStyle().Bold(true).Render(truncate(t.Title, w))
	sections := []string{title, status}

	if m.showMarkdown {
		sections = append(sections, renderMarkdown(publish.RenderTopicMarkdown(t, publish.RenderOptions{}), w-4))
	} else {
		colW := (w - 3) / 2
		left := m.renderColumn(model.SideFor, t.ArgumentsFor, colW)
		right := m.renderColumn(model.SideAgainst, t.ArgumentsAgainst, colW)
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "   ", right))
	}

	sections = append(sections, m.viewForm(w))
	return strings.Join(sections, "\n\n")
}

func (m appModel) renderColumn(side model.Side, args []model.Argument, width int) string {
	if width < 16 {
		width = 16
	}
	lines := []string{styleSide(string(side)).Render(fmt.Sprintf("%s (%d)", sideHeading(side), len(args)))}
	if len(args) == 0 {
		lines = append(lines, styleMuted().Render("No arguments yet."))
		return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
	}

	for i, a := range args {
		selected := side == m.cursorSide && i == m.cursorIdx
		lines = append(lines, renderArgumentCard(a, width, selected))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func sideHeading(side model.Side) string {
	if side == model.SideAgainst {
		return "Against"
	}
	return "For"
}

func renderArgumentCard(a model.Argument, width int, selected bool) string {
	inner := width - 4
	border := colorCardBorder
	if selected {
		border = colorSelBorder
	}
	body := []string{lipgloss.NewStyle().Bold(true).Width(inner).Render(a.Point)}
	for _, f := range a.SupportingFacts {
		body = append(body, truncate("• "+f, inner))
	}
	st := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(width - 2)
	if selected {
		st = st.Background(colorSelectedBg).Foreground(colorSelectedFg)
	}
	return st.Render(strings.Join(body, "\n"))
}

func (m appModel) viewForm(width int) string {
	side := styleSide(string(m.form.Side)).Render(sideHeading(m.form.Side))
	head := "Add argument  side: " + side
	if m.form.Busy {
		head += "  " + styleMuted().Render("saving…")
	}
	if m.focus == focusNone {
		return styleMuted().Render("Add argument (press a)  side: ") + side
	}
	return strings.Join([]string{
		head,
		renderInputLine(width-2, m.pointInput.View()),
		m.factsInput.View(),
	}, "\n")
}

func (m appModel) viewModal() string {
	width := m.contentWidth()
	switch m.modal {
	case modalNewTopic:
		bodyW := modalBodyWidth(width)
		content := strings.Join([]string{
			renderInputLine(bodyW, m.titleInput.View()),
			"",
			styleMuted().Width(bodyW).Render("enter: create   esc: cancel"),
		}, "\n")
		return renderModalBox(width, "New topic", content)
	case modalConfirmDeleteTopic:
		body := fmt.Sprintf("Delete %q and all its arguments?", m.pendingTopic.Title)
		return renderConfirmModal(width, "Delete topic", body, "Delete", "Cancel", m.confirmFocus)
	case modalConfirmDeleteArgument:
		body := fmt.Sprintf("Delete argument %q?", truncate(m.pendingArg.Point, modalBodyWidth(width)-20))
		return renderConfirmModal(width, "Delete argument", body, "Delete", "Cancel", m.confirmFocus)
	}
	return ""
}
