package publish

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"debatepad/internal/model"
)

type RenderOptions struct {
	// IncludeIDs adds topic and argument ids, which the CLI needs for follow-up commands.
	IncludeIDs bool
}

func RenderTopicMarkdown(t model.Topic, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + strings.TrimSpace(t.Title))
	writeLn("")

	forN, againstN := t.Counts()
	writeLn("## Meta")
	writeLn("")
	if opt.IncludeIDs {
		writeLn("- ID: " + t.ID)
	}
	if !t.CreatedAt.IsZero() {
		writeLn("- Created: " + fmtTime(t.CreatedAt))
	}
	if t.WasUpdated() {
		writeLn("- Updated: " + fmtTime(t.UpdatedAt))
	}
	writeLn(fmt.Sprintf("- Arguments: %d for, %d against", forN, againstN))
	writeLn("")

	writeSide := func(heading string, args []model.Argument) {
		writeLn("## " + heading + " (" + strconv.Itoa(len(args)) + ")")
		writeLn("")
		if len(args) == 0 {
			writeLn("_None yet._")
			writeLn("")
			return
		}
		for i, a := range args {
			line := fmt.Sprintf("%d. **%s**", i+1, strings.TrimSpace(a.Point))
			if opt.IncludeIDs {
				line += " `" + a.ID + "`"
			}
			writeLn(line)
			for _, f := range a.SupportingFacts {
				f = strings.TrimSpace(f)
				if f != "" {
					writeLn("   - " + f)
				}
			}
		}
		writeLn("")
	}
	writeSide("For", t.ArgumentsFor)
	writeSide("Against", t.ArgumentsAgainst)

	return strings.TrimRight(buf.String(), "\n") + "\n"
}

// RenderIndexMarkdown lists topics with links to the per-topic files WriteTopics creates.
func RenderIndexMarkdown(topics []model.Topic) string {
	return renderIndex(topics, ".md")
}

func renderIndex(topics []model.Topic, ext string) string {
	var buf bytes.Buffer
	buf.WriteString("# Debate topics\n\n")
	if len(topics) == 0 {
		buf.WriteString("_No topics._\n")
		return buf.String()
	}
	for _, t := range topics {
		forN, againstN := t.Counts()
		fmt.Fprintf(&buf, "- [%s](topics/%s%s) (%d for, %d against)\n", strings.TrimSpace(t.Title), t.ID, ext, forN, againstN)
	}
	return buf.String()
}

func fmtTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
