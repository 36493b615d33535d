package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"debatepad/internal/cli"

	"github.com/google/uuid"
)

func isTopicID(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}

// rewriteDirectTopicLookupArgs makes `debatepad <topic-id>` work like
// `debatepad topics show <topic-id>`. Cobra treats the first non-flag token as a
// subcommand, so argv is rewritten before parsing. Persistent flags may come first.
func rewriteDirectTopicLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--api-url":   true,
		"--config":    true,
		"--format":    true,
		"--log-level": true,
		"--log-file":  true,
	}

	insert := func(i int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "topics", "show")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isTopicID(argv[i+1]) {
				return insert(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			// Unknown flags are skipped without consuming a value.
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isTopicID(a) {
			return insert(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectTopicLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
