package cli

import (
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"debatepad/internal/generate"
	"debatepad/internal/server"
	"debatepad/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var storeDSN string
	var generator string
	var origins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Debate Prep Pad API server",
		Example: strings.TrimSpace(`
  debatepad serve --addr :8000 --store ~/.debatepad/debatepad.db
  debatepad serve --store mongodb://localhost:27017/debatepad --generator gemini
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if storeDSN != "" {
				cfg.Server.Store = storeDSN
			}
			if generator != "" {
				cfg.Server.Generator = strings.ToLower(generator)
			}
			if len(origins) > 0 {
				cfg.Server.CORSOrigins = origins
			}
			if err := cfg.Validate(); err != nil {
				return writeErr(cmd, app, usageError{msg: err.Error()})
			}
			if !strings.EqualFold(cfg.Log.Level, "debug") && app.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := app.log.Logger
			st, err := store.Open(ctx, cfg.Server.Store, log)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer st.Close()

			gen, err := generate.New(ctx, cfg, log)
			if err != nil {
				return writeErr(cmd, app, usageError{msg: err.Error()})
			}
			if c, ok := gen.(io.Closer); ok {
				defer c.Close()
			}

			srv := server.New(st, gen, log, server.Options{CORSOrigins: cfg.Server.CORSOrigins})
			if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
				return writeErr(cmd, app, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8000)")
	cmd.Flags().StringVar(&storeDSN, "store", "", "sqlite file path or mongodb:// URI")
	cmd.Flags().StringVar(&generator, "generator", "", "Suggestion generator (static|gemini|openai)")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "Allowed CORS origin (repeatable; default *)")
	return cmd
}
