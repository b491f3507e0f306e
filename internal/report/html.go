package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/plcdoc/internal/highlight"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
)

const htmlStyle = `body { font-family: Helvetica, Arial, sans-serif; margin: 2cm; }
pre.st { font-family: Courier, monospace; font-size: 7pt; line-height: 10pt; white-space: pre-wrap; }
.kw { color: #0000ff; }
.cm { color: #008000; }
.str { color: #a31515; }
hr { border: 0; break-after: page; }
`

// HTMLWriter builds the Markdown document and converts it with goldmark.
type HTMLWriter struct {
	md    *MarkdownWriter
	title string
}

func NewHTMLWriter(opts Options) *HTMLWriter {
	opts = opts.withDefaults()
	return &HTMLWriter{md: NewMarkdownWriter(opts), title: opts.Title}
}

func (w *HTMLWriter) TitlePage(title, label string, units int) { w.md.TitlePage(title, label, units) }
func (w *HTMLWriter) Contents(entries []Entry)                 { w.md.Contents(entries) }
func (w *HTMLWriter) PageBreak()                               { w.md.PageBreak() }
func (w *HTMLWriter) Heading(e Entry)                          { w.md.Heading(e) }

func (w *HTMLWriter) Segment(label string, lines []highlight.Line) {
	w.md.Segment(label, lines)
}

func (w *HTMLWriter) Flush(out io.Writer) error {
	md := goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe()))

	var body bytes.Buffer
	if err := md.Convert(w.md.Bytes(), &body); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}

	_, err := fmt.Fprintf(out, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n<style>\n%s</style>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(w.title), htmlStyle, body.Bytes())
	if err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	return nil
}
