package cli

import (
	"strings"

	"debatepad/internal/model"
	"debatepad/internal/publish"
	"debatepad/internal/state"
	"debatepad/internal/tui"

	"github.com/spf13/cobra"
)

func newTopicsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "topics",
		Aliases: []string{"topic"},
		Short:   "Topic commands",
	}
	cmd.AddCommand(newTopicsListCmd(app))
	cmd.AddCommand(newTopicsCreateCmd(app))
	cmd.AddCommand(newTopicsShowCmd(app))
	cmd.AddCommand(newTopicsDeleteCmd(app))
	cmd.AddCommand(newTopicsExportCmd(app))
	return cmd
}

func newTopicsListCmd(app *App) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List topics, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			topics, err := newClient(app).ListTopics(cmd.Context())
			if err != nil {
				return writeErr(cmd, app, err)
			}
			l := state.NewTopicList()
			l.Load(topics)
			l.SetQuery(search)
			return writeOut(cmd, app, map[string]any{
				"data": l.Filtered(),
				"meta": map[string]any{
					"total":     l.Len(),
					"query":     l.Query(),
					"condition": l.Condition().String(),
				},
			})
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive title substring filter")
	return cmd
}

func newTopicsCreateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <title...>",
		Short: "Create a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &state.TopicForm{Title: strings.Join(args, " ")}
			if !f.CanSubmit() {
				return writeErr(cmd, app, usageError{msg: "title is required"})
			}
			f.Begin()
			t, err := newClient(app).CreateTopic(cmd.Context(), f.Title)
			f.Done(err == nil)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
	return cmd
}

func newTopicsShowCmd(app *App) *cobra.Command {
	var asMarkdown bool
	var render bool
	var width int

	cmd := &cobra.Command{
		Use:   "show <topic-id>",
		Short: "Show a topic with both argument sides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := newClient(app).GetTopic(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if asMarkdown || render {
				md := publish.RenderTopicMarkdown(t, publish.RenderOptions{IncludeIDs: true})
				if render {
					out, err := tui.RenderMarkdown(md, width)
					if err != nil {
						return writeErr(cmd, app, err)
					}
					md = out
				}
				_, err := cmd.OutOrStdout().Write([]byte(md))
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": t, "meta": countsMeta(t)})
		},
	}

	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "Print the topic as Markdown")
	cmd.Flags().BoolVar(&render, "render", false, "Render the Markdown for the terminal")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	return cmd
}

func newTopicsDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <topic-id>",
		Short: "Delete a topic and all its arguments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if err := newClient(app).DeleteTopic(cmd.Context(), id); err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": id, "deleted": true}})
		},
	}
	return cmd
}

func newTopicsExportCmd(app *App) *cobra.Command {
	var to string
	var overwrite bool
	var includeIDs bool
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every topic as Markdown (index.md + topics/<id>.md) or HTML",
		RunE: func(cmd *cobra.Command, args []string) error {
			topics, err := newClient(app).ListTopics(cmd.Context())
			if err != nil {
				return writeErr(cmd, app, err)
			}
			res, err := publish.WriteTopics(topics, to, publish.WriteOptions{Overwrite: overwrite, IncludeIDs: includeIDs, HTML: asHTML})
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": res,
				"meta": map[string]any{"topics": len(topics)},
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	cmd.Flags().BoolVar(&includeIDs, "ids", false, "Include argument ids in the output")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Write standalone HTML pages instead of Markdown")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func countsMeta(t model.Topic) map[string]any {
	forN, againstN := t.Counts()
	return map[string]any{"counts": map[string]int{"for": forN, "against": againstN}}
}
