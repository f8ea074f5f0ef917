package report

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdownHTML = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderHTML converts a Markdown report into a standalone right-to-left
// HTML page.
func RenderHTML(title, markdown string) ([]byte, error) {
	var body bytes.Buffer
	if err := markdownHTML.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!doctype html>\n<html lang=\"ar\" dir=\"rtl\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", html.EscapeString(title))
	out.WriteString("<style>body{font-family:sans-serif;max-width:72rem;margin:2rem auto;padding:0 1rem}" +
		"table{border-collapse:collapse}th,td{border:1px solid #ccc;padding:.25rem .5rem}</style>\n")
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
