package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/plcdoc/internal/highlight"
)

// MarkdownWriter renders CommonMark. Code goes into raw <pre class="st">
// blocks carrying the highlight classes, headings carry an anchor named
// after their section number, and page breaks become thematic breaks.
type MarkdownWriter struct {
	buf     bytes.Buffer
	opts    Options
	started bool
	pending bool
}

func NewMarkdownWriter(opts Options) *MarkdownWriter {
	return &MarkdownWriter{opts: opts.withDefaults()}
}

// block starts a new block, emitting a pending page break first.
func (w *MarkdownWriter) block() *bytes.Buffer {
	if w.pending {
		w.buf.WriteString("---\n\n")
		w.pending = false
	}
	w.started = true
	return &w.buf
}

func (w *MarkdownWriter) TitlePage(title, label string, units int) {
	b := w.block()
	fmt.Fprintf(b, "# %s\n\n", escapeMarkdown(title))
	fmt.Fprintf(b, "%s\n\n", escapeMarkdown(label))
	fmt.Fprintf(b, "Total files: %d\n\n", units)
}

func (w *MarkdownWriter) Contents(entries []Entry) {
	b := w.block()
	b.WriteString("## Table of Contents\n\n")
	for _, e := range entries {
		fmt.Fprintf(b, "%s- [%s](#%s)\n", strings.Repeat("  ", e.Depth), escapeMarkdown(e.Label()), e.Anchor())
	}
	b.WriteString("\n")
}

func (w *MarkdownWriter) PageBreak() {
	if w.started {
		w.pending = true
	}
}

func (w *MarkdownWriter) Heading(e Entry) {
	level := 3
	if e.Kind == FolderEntry {
		level = 2
	}
	b := w.block()
	fmt.Fprintf(b, "%s <a id=\"%s\"></a>%s\n\n", strings.Repeat("#", level), e.Anchor(), escapeMarkdown(e.Label()))
}

func (w *MarkdownWriter) Segment(label string, lines []highlight.Line) {
	b := w.block()
	fmt.Fprintf(b, "#### %s\n\n", escapeMarkdown(label))
	b.WriteString(`<pre class="st"><code>`)
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(l.HTML())
	}
	b.WriteString("</code></pre>\n\n")
}

func (w *MarkdownWriter) Flush(out io.Writer) error {
	if _, err := out.Write(w.buf.Bytes()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// Bytes returns the document rendered so far.
func (w *MarkdownWriter) Bytes() []byte {
	return w.buf.Bytes()
}

// escapeMarkdown backslash-escapes the punctuation that could start inline
// markup or raw HTML.
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '`', '*', '_', '[', ']', '<', '>', '#', '|', '~', '!', '&':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
