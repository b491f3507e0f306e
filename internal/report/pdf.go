package report

import (
	"fmt"
	"io"
	"math"

	"github.com/dgallion1/plcdoc/internal/highlight"
	"github.com/go-pdf/fpdf"
)

// rgb is a text color.
type rgb struct{ r, g, b int }

var (
	colorPlain   = rgb{0, 0, 0}
	colorKeyword = rgb{0, 0, 255}
	colorComment = rgb{0, 128, 0}
	colorString  = rgb{163, 21, 21}
	colorFooter  = rgb{128, 128, 128}
)

// courierAdvance is the glyph width of Courier as a fraction of its size.
const courierAdvance = 0.6

// codeFamily is the family name a CodeFont is registered under.
const codeFamily = "plcdoc-code"

// PDFWriter renders with the core PDF fonts: Helvetica for headings and
// Courier for code. Table of contents entries link to their headings and
// every heading gets an outline bookmark.
//
// The core fonts only cover cp1252; other characters print as '.'. Setting
// Options.CodeFont embeds a TrueType font for code so that comments and
// strings keep their characters.
type PDFWriter struct {
	pdf    *fpdf.Fpdf
	opts   Options
	tr     func(string) string
	codeTr func(string) string
	code   string
	links  map[string]int // entry anchor -> internal link

	started bool
	pending bool // page break requested
	cols    int  // code columns per row
}

func NewPDFWriter(opts Options) *PDFWriter {
	opts = opts.withDefaults()
	pdf := fpdf.New("P", "pt", opts.PageSize, "")
	m := opts.Margin
	pdf.SetMargins(m, m, m)
	pdf.SetAutoPageBreak(true, m)
	pdf.SetCellMargin(0)
	pdf.AliasNbPages("")
	pdf.SetTitle(opts.Title, true)
	pdf.SetCreator("plcdoc", true)
	pdf.SetCreationDate(opts.Now())
	pdf.SetCatalogSort(true)

	w := &PDFWriter{
		pdf:   pdf,
		opts:  opts,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		code:  "Courier",
		links: make(map[string]int),
	}
	w.codeTr = w.tr
	if opts.CodeFont != "" {
		pdf.AddUTF8Font(codeFamily, "", opts.CodeFont)
		w.code = codeFamily
		w.codeTr = func(s string) string { return s }
	}

	// Wrapping assumes a fixed pitch, measured on a wide glyph.
	advance := courierAdvance * opts.CodeFontSize
	if opts.CodeFont != "" && pdf.Ok() {
		pdf.SetFont(w.code, "", opts.CodeFontSize)
		if a := pdf.GetStringWidth("M"); a > 0 {
			advance = a
		}
	}
	pageW, _ := pdf.GetPageSize()
	printable := pageW - 2*m
	w.cols = int(math.Floor(printable / advance))

	pdf.SetFooterFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		pdf.SetY(-m / 2)
		pdf.SetFont("Helvetica", "", 8)
		w.color(colorFooter)
		pdf.CellFormat(0, 10, fmt.Sprintf("%d / {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return w
}

func (w *PDFWriter) color(c rgb) {
	w.pdf.SetTextColor(c.r, c.g, c.b)
}

// ensurePage opens the first page or a requested one.
func (w *PDFWriter) ensurePage() {
	if !w.started || w.pending {
		w.pdf.AddPage()
		w.started = true
		w.pending = false
	}
}

// keepWithNext moves to a new page unless h points fit above the bottom
// margin, so a heading is never stranded at the foot of a page.
func (w *PDFWriter) keepWithNext(h float64) {
	_, pageH := w.pdf.GetPageSize()
	if w.pdf.GetY()+h > pageH-w.opts.Margin {
		w.pdf.AddPage()
	}
}

// atTop reports whether nothing has been drawn on the current page yet.
func (w *PDFWriter) atTop() bool {
	return w.pdf.GetY() <= w.opts.Margin+0.01
}

func (w *PDFWriter) TitlePage(title, label string, units int) {
	w.ensurePage()
	pdf := w.pdf
	w.color(colorPlain)

	pdf.SetY(w.opts.Margin + 141.73) // 5cm
	pdf.SetFont("Helvetica", "B", 24)
	pdf.MultiCell(0, 29, w.tr(title), "", "C", false)
	pdf.Ln(30 + 28.35)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 12, w.tr(label), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 12, fmt.Sprintf("Total files: %d", units), "", 1, "L", false, 0, "")
}

func (w *PDFWriter) Contents(entries []Entry) {
	w.ensurePage()
	pdf := w.pdf
	w.color(colorPlain)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Bookmark("Table of Contents", 0, -1)
	pdf.CellFormat(0, 17, "Table of Contents", "", 1, "L", false, 0, "")
	pdf.Ln(12 + 14.17)

	pdf.SetFont("Helvetica", "", 10)
	for _, e := range entries {
		link := pdf.AddLink()
		w.links[e.Anchor()] = link
		pdf.SetX(w.opts.Margin + float64(e.Depth)*18)
		pdf.CellFormat(0, 14, w.tr(e.Label()), "", 1, "L", false, link, "")
	}
}

func (w *PDFWriter) PageBreak() {
	if w.started {
		w.pending = true
	}
}

func (w *PDFWriter) Heading(e Entry) {
	w.ensurePage()
	pdf := w.pdf
	w.color(colorPlain)

	size := 12.0
	after := 6.0
	if e.Kind == FolderEntry {
		size, after = 14, 12
	}
	lineH := size * 1.2

	if !w.atTop() {
		pdf.Ln(6)
	}
	w.keepWithNext(lineH + after + 2*w.opts.CodeLeading)

	if link, ok := w.links[e.Anchor()]; ok {
		pdf.SetLink(link, -1, -1)
	}
	pdf.Bookmark(w.tr(e.Label()), e.Depth, -1)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, lineH, w.tr(e.Label()), "", "L", false)
	pdf.Ln(after)
}

func (w *PDFWriter) Segment(label string, lines []highlight.Line) {
	w.ensurePage()
	pdf := w.pdf
	lead := w.opts.CodeLeading

	w.color(colorPlain)
	if !w.atTop() {
		pdf.Ln(6)
	}
	w.keepWithNext(14.4 + 6 + lead)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.MultiCell(0, 14.4, w.tr(label), "", "L", false)
	pdf.Ln(6)

	pdf.SetFont(w.code, "", w.opts.CodeFontSize)
	for _, l := range lines {
		if l.Blank() {
			pdf.Ln(lead)
			continue
		}
		for _, row := range highlight.Wrap(l, w.cols) {
			for _, s := range row.Spans {
				w.color(spanColor(s.Kind))
				txt := w.codeTr(s.Text)
				pdf.CellFormat(pdf.GetStringWidth(txt), lead, txt, "", 0, "L", false, 0, "")
			}
			pdf.Ln(lead)
		}
	}
	w.color(colorPlain)
	pdf.Ln(14.17) // 0.5cm
}

func spanColor(k highlight.Kind) rgb {
	switch k {
	case highlight.Keyword:
		return colorKeyword
	case highlight.Comment:
		return colorComment
	case highlight.String:
		return colorString
	default:
		return colorPlain
	}
}

func (w *PDFWriter) Flush(out io.Writer) error {
	if err := w.pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := w.pdf.Output(out); err != nil {
		return fmt.Errorf("output pdf: %w", err)
	}
	return nil
}
