// Package tui is the interactive terminal front end: a topic list and a two-column topic
// view backed by the same mutation engine as the CLI.
package tui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, remote Remote, log *slog.Logger) error {
	applyThemePreference()
	applyColorProfilePreference()

	m := newAppModel(ctx, remote, log)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
