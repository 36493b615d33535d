package cli

import (
	"io"
	"os"
	"strings"

	"debatepad/internal/model"
	"debatepad/internal/mutate"

	"github.com/spf13/cobra"
)

func newArgsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "args",
		Aliases: []string{"arguments"},
		Short:   "Argument commands",
	}
	cmd.AddCommand(newArgsAddCmd(app))
	cmd.AddCommand(newArgsRmCmd(app))
	return cmd
}

func newArgsAddCmd(app *App) *cobra.Command {
	var side string
	var point string
	var facts []string
	var factsFile string

	cmd := &cobra.Command{
		Use:   "add <topic-id>",
		Short: "Add an argument to one side of a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sd, err := model.ParseSide(side)
			if err != nil {
				return writeErr(cmd, app, usageError{msg: err.Error()})
			}
			text := strings.Join(facts, "\n")
			if factsFile != "" {
				if len(facts) > 0 {
					return writeErr(cmd, app, usageError{msg: "use either --facts or --facts-file, not both"})
				}
				b, err := readFactsFile(cmd, factsFile)
				if err != nil {
					return writeErr(cmd, app, err)
				}
				text = string(b)
			}

			s := newSession(app)
			if err := s.Open(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, app, err)
			}
			s.Form.Side = sd
			s.Form.Point = point
			s.Form.Facts = text

			out, err := s.Submit(cmd.Context())
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, map[string]any{"data": *out.Topic, "meta": countsMeta(*out.Topic)})
		},
	}

	cmd.Flags().StringVar(&side, "side", "for", "Side (for|against)")
	cmd.Flags().StringVar(&point, "point", "", "The argument's main point")
	cmd.Flags().StringArrayVar(&facts, "facts", nil, "Supporting fact (repeatable; newlines split into separate facts)")
	cmd.Flags().StringVar(&factsFile, "facts-file", "", "Read supporting facts from a file, one per line (- for stdin)")
	_ = cmd.MarkFlagRequired("point")
	return cmd
}

func readFactsFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func newArgsRmCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <topic-id> <argument-id>",
		Aliases: []string{"delete"},
		Short:   "Delete an argument, then re-fetch the topic",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newSession(app)
			if err := s.Open(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, app, err)
			}
			out, err := s.Delete(cmd.Context(), strings.TrimSpace(args[1]))
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, refreshedEnvelope(out))
		},
	}
	return cmd
}

// refreshedEnvelope prefers the re-fetched snapshot. When the refresh failed the mutation
// still happened, so the result is reported with the refresh error in meta.
func refreshedEnvelope(out mutate.Outcome) map[string]any {
	if out.Topic != nil {
		return map[string]any{"data": *out.Topic, "meta": countsMeta(*out.Topic)}
	}
	meta := map[string]any{}
	if out.RefreshErr != nil {
		meta["refresh_error"] = map[string]any{"kind": kindOf(out.RefreshErr), "message": out.RefreshErr.Error()}
	}
	return map[string]any{"data": map[string]any{"id": out.TopicID}, "meta": meta}
}
