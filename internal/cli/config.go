package cli

import (
	"errors"
	"fmt"
	"os"

	"debatepad/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigInitCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (secrets redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": app.cfg.Redacted(),
				"meta": map[string]any{"path": path, "api_url": app.cfg.ResolveAPIURL(app.APIURL)},
			})
		},
	}
	return cmd
}

func newConfigInitCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return writeErr(cmd, app, usageError{msg: fmt.Sprintf("%s already exists (use --force to replace it)", path)})
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return writeErr(cmd, app, err)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": path}})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing config file")
	return cmd
}

func configPath(app *App) (string, error) {
	if app.ConfigPath != "" {
		return app.ConfigPath, nil
	}
	return config.Path()
}
