package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/plcdoc/internal/highlight"
	"github.com/fumiama/go-docx"
)

// DOCXWriter renders a Word document. Sizes are given to go-docx in
// half-points.
type DOCXWriter struct {
	doc     *docx.Docx
	opts    Options
	started bool
	pending bool
}

func NewDOCXWriter(opts Options) *DOCXWriter {
	opts = opts.withDefaults()
	doc := docx.New().WithDefaultTheme()
	size := docxPageSizes["A4"]
	for name, s := range docxPageSizes {
		if strings.EqualFold(name, opts.PageSize) {
			size = s
		}
	}
	m := int(opts.Margin * 20)
	doc.Document.Body.Items = append(doc.Document.Body.Items, &docx.SectPr{
		PgSz:  &size,
		PgMar: &docx.PgMar{Top: m, Left: m, Bottom: m, Right: m, Header: m / 2, Footer: m / 2},
	})
	return &DOCXWriter{doc: doc, opts: opts}
}

// docxPageSizes are portrait page dimensions in twips.
var docxPageSizes = map[string]docx.PgSz{
	"A3":     {W: 16838, H: 23811},
	"A4":     {W: 11906, H: 16838},
	"Letter": {W: 12240, H: 15840},
	"Legal":  {W: 12240, H: 20160},
}

func halfPoints(pt float64) string {
	return strconv.Itoa(int(pt * 2))
}

// paragraph adds a paragraph, carrying a pending page break into it.
func (w *DOCXWriter) paragraph() *docx.Paragraph {
	p := w.doc.AddParagraph()
	if w.pending {
		p.AddPageBreaks()
		w.pending = false
	}
	w.started = true
	return p
}

// text adds a run whose whitespace survives a round trip through Word.
func text(p *docx.Paragraph, s string) *docx.Run {
	r := p.AddText(s)
	for _, c := range r.Children {
		if t, ok := c.(*docx.Text); ok {
			t.XMLSpace = "preserve"
		}
	}
	return r
}

func (w *DOCXWriter) TitlePage(title, label string, units int) {
	for range 6 {
		w.paragraph()
	}
	p := w.paragraph().Justification("center")
	text(p, title).Bold().Size(halfPoints(24))
	w.paragraph()
	text(w.paragraph(), label).Size(halfPoints(10))
	text(w.paragraph(), fmt.Sprintf("Total files: %d", units)).Size(halfPoints(10))
}

func (w *DOCXWriter) Contents(entries []Entry) {
	text(w.paragraph(), "Table of Contents").Bold().Size(halfPoints(14))
	for _, e := range entries {
		indent := strings.Repeat("    ", e.Depth)
		text(w.paragraph(), indent+e.Label()).Size(halfPoints(10))
	}
}

func (w *DOCXWriter) PageBreak() {
	if w.started {
		w.pending = true
	}
}

func (w *DOCXWriter) Heading(e Entry) {
	size := 12.0
	if e.Kind == FolderEntry {
		size = 14
	}
	text(w.paragraph(), e.Label()).Bold().Size(halfPoints(size))
}

func (w *DOCXWriter) Segment(label string, lines []highlight.Line) {
	text(w.paragraph(), label).Bold().Size(halfPoints(12))

	size := halfPoints(w.opts.CodeFontSize)
	for _, l := range lines {
		p := w.paragraph()
		if l.Blank() {
			continue
		}
		for _, s := range l.Spans {
			r := text(p, s.Text).Size(size).Font("Courier New", "Courier New", "Courier New", "default")
			if c := docxColor(s.Kind); c != "" {
				r.Color(c)
			}
		}
	}
	w.paragraph()
}

func docxColor(k highlight.Kind) string {
	switch k {
	case highlight.Keyword:
		return "0000FF"
	case highlight.Comment:
		return "008000"
	case highlight.String:
		return "A31515"
	default:
		return ""
	}
}

func (w *DOCXWriter) Flush(out io.Writer) error {
	if _, err := w.doc.WriteTo(out); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
