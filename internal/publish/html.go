package publish

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in argument text is escaped: html.WithUnsafe is not set.
var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
h2 { border-bottom: 1px solid #ddd; }
code { font-size: 0.85em; color: #666; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// RenderHTML converts Markdown to a standalone HTML page.
func RenderHTML(title, md string) ([]byte, error) {
	var body bytes.Buffer
	if err := markdownRenderer.Convert([]byte(strings.TrimSpace(md)), &body); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	err := pageTmpl.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body.String())})
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
