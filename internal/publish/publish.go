// Package publish exports topics as Markdown or HTML.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"debatepad/internal/model"
)

type WriteOptions struct {
	Overwrite  bool
	IncludeIDs bool
	// HTML writes .html pages instead of Markdown.
	HTML bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteTopics writes <toDir>/index.md plus one <toDir>/topics/<id>.md per topic, stopping at
// the first error. With HTML set the files end in .html.
func WriteTopics(topics []model.Topic, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	topicsDir := filepath.Join(toDir, "topics")
	if err := os.MkdirAll(topicsDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	ext := ".md"
	if opt.HTML {
		ext = ".html"
	}
	render := func(title, md string) ([]byte, error) {
		if opt.HTML {
			return RenderHTML(title, md)
		}
		return []byte(md), nil
	}

	indexPath := filepath.Join(toDir, "index"+ext)
	index, err := render("Debate topics", renderIndex(topics, ext))
	if err != nil {
		return WriteResult{}, err
	}
	if err := writeFile(indexPath, index, opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	written := []string{indexPath}
	for _, t := range topics {
		if strings.TrimSpace(t.ID) == "" {
			continue
		}
		p := filepath.Join(topicsDir, t.ID+ext)
		b, err := render(t.Title, RenderTopicMarkdown(t, RenderOptions{IncludeIDs: opt.IncludeIDs}))
		if err != nil {
			return WriteResult{Written: written}, err
		}
		if err := writeFile(p, b, opt.Overwrite); err != nil {
			return WriteResult{Written: written}, err
		}
		written = append(written, p)
	}
	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
