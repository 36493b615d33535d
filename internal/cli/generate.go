package cli

import (
	"github.com/spf13/cobra"
)

func newGenerateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <topic-id>",
		Short: "Ask the AI for arguments on both sides and add them to the topic",
		Long: `Requests a batch of suggested arguments for the topic's title and inserts them one at
a time: every "for" suggestion first, then every "against" suggestion. Insertion stops at
the first failure; suggestions already inserted are kept. The topic is re-fetched afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newSession(app)
			if err := s.Open(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, app, err)
			}
			out, err := s.Generate(cmd.Context())
			if err != nil {
				extra := map[string]any{}
				if out.Batch != nil {
					extra["batch"] = out.Batch
				}
				return writeErrWith(cmd, app, err, extra)
			}
			env := refreshedEnvelope(out)
			meta, _ := env["meta"].(map[string]any)
			meta["batch"] = out.Batch
			return writeOut(cmd, app, env)
		},
	}
	return cmd
}
