package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"debatepad/internal/api"
	"debatepad/internal/config"
	"debatepad/internal/format"
	"debatepad/internal/logging"
	"debatepad/internal/mutate"
	"debatepad/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	APIURL     string
	ConfigPath string
	Format     string
	PrettyJSON bool
	LogLevel   string
	LogFile    string

	cfg *config.Config
	log *logging.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "debatepad",
		Short:         "Debate Prep Pad CLI + TUI",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  debatepad

  # Scriptable commands
  debatepad topics list --search ai
  debatepad topics create "Universal basic income"
  debatepad args add <topic-id> --side against --point "Inflation risk" --facts "Demand shock"

  # Direct topic lookup (shortcut for: debatepad topics show <topic-id>)
  debatepad 5f0c1c3e-8d7a-4c57-9a43-0b8e0c4f2a11

  # Run the API server
  debatepad serve --addr :8000
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd.Context(), app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := format.Check(app.Format); err != nil {
			app.Format = format.JSON
			return writeErr(cmd, app, usageError{msg: err.Error()})
		}
		cfg, err := config.Load(app.ConfigPath)
		if err != nil {
			return writeErr(cmd, app, err)
		}
		app.cfg = cfg
		if err := app.initLogging(cmd == cmd.Root()); err != nil {
			return writeErr(cmd, app, usageError{msg: err.Error()})
		}
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.log.Close()
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", envOr("DEBATEPAD_API_URL", ""), "Base URL of the Debate Prep Pad API (default from config, then http://localhost:8000)")
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to config.yml (default ~/.debatepad/config.yml)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("DEBATEPAD_FORMAT", "json"), "Output format (json|edn)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", "", "Append JSON logs to this file")

	cmd.AddCommand(newTopicsCmd(app))
	cmd.AddCommand(newArgsCmd(app))
	cmd.AddCommand(newGenerateCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newDoctorCmd(app))

	return cmd
}

func (app *App) initLogging(interactive bool) error {
	levelName := app.LogLevel
	if levelName == "" {
		levelName = app.cfg.Log.Level
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	file := app.LogFile
	if file == "" {
		file = app.cfg.Log.File
	}
	// The TUI owns the terminal, so its logs only go to a file.
	if interactive && file == "" {
		if dir, err := config.Dir(); err == nil {
			file = filepath.Join(dir, "tui.log")
		}
	}
	app.log = logging.New(logging.Config{Level: level, File: file, Quiet: interactive})
	return nil
}

func runTUI(ctx context.Context, app *App) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return tui.Run(ctx, newClient(app), app.log.Logger)
}

func newClient(app *App) *api.Client {
	return api.New(app.cfg.ResolveAPIURL(app.APIURL),
		api.WithTimeout(app.cfg.API.Timeout),
		api.WithLogger(app.log.Logger),
	)
}

func newSession(app *App) *mutate.Session {
	return mutate.NewSession(mutate.NewEngine(newClient(app), app.log.Logger))
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

// writeErr prints the error envelope to stderr and marks err as reported.
func writeErr(cmd *cobra.Command, app *App, err error) error {
	return writeErrWith(cmd, app, err, nil)
}

func writeErrWith(cmd *cobra.Command, app *App, err error, extra map[string]any) error {
	body := map[string]any{"kind": kindOf(err), "message": err.Error()}
	for k, v := range extra {
		body[k] = v
	}
	_ = format.Write(cmd.ErrOrStderr(), map[string]any{"error": body}, app.Format, app.PrettyJSON)
	return reportedError{err: err}
}
