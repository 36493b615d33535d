package cli

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var errDoctorFailed = errors.New("doctor found failing checks")

type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and API reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			var checks []doctorCheck

			path, err := configPath(app)
			if err != nil {
				checks = append(checks, doctorCheck{Name: "config", Detail: err.Error()})
			} else {
				checks = append(checks, doctorCheck{Name: "config", OK: true, Detail: path})
			}

			apiURL := app.cfg.ResolveAPIURL(app.APIURL)
			start := time.Now()
			if err := newClient(app).Health(cmd.Context()); err != nil {
				checks = append(checks, doctorCheck{Name: "api", Detail: apiURL + ": " + err.Error()})
			} else {
				checks = append(checks, doctorCheck{Name: "api", OK: true, Detail: apiURL + " (" + time.Since(start).Round(time.Millisecond).String() + ")"})
			}

			checks = append(checks, generatorCheck(app))

			failed := 0
			for _, c := range checks {
				if !c.OK {
					failed++
				}
			}
			if err := writeOut(cmd, app, map[string]any{
				"data":   map[string]any{"checks": checks},
				"meta":   map[string]any{"failed": failed},
				"_hints": []string{"debatepad config show", "debatepad serve"},
			}); err != nil {
				return err
			}
			if fail && failed > 0 {
				return errDoctorFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if any check fails")
	return cmd
}

// generatorCheck only looks at local settings; it matters when this machine runs `serve`.
func generatorCheck(app *App) doctorCheck {
	name := strings.ToLower(strings.TrimSpace(app.cfg.Server.Generator))
	switch name {
	case "gemini":
		if strings.TrimSpace(app.cfg.Gemini.APIKey) == "" {
			return doctorCheck{Name: "generator", Detail: "gemini selected but GEMINI_API_KEY is not set"}
		}
	case "openai":
		if strings.TrimSpace(app.cfg.OpenAI.APIKey) == "" {
			return doctorCheck{Name: "generator", Detail: "openai selected but OPENAI_API_KEY is not set"}
		}
	}
	return doctorCheck{Name: "generator", OK: true, Detail: name}
}
