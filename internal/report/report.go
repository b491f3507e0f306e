package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/plcdoc/internal/doctree"
	"github.com/dgallion1/plcdoc/internal/highlight"
)

// DefaultTitle is printed on the title page when no title is configured.
const DefaultTitle = "TwinCAT PLC PDF Auto-Gen"

// Writer receives the laid-out document in reading order. Implementations
// buffer the document and emit it on Flush.
type Writer interface {
	TitlePage(title, label string, units int)
	Contents(entries []Entry)
	// PageBreak starts a new page before the next content. Consecutive
	// breaks collapse into one.
	PageBreak()
	Heading(e Entry)
	Segment(label string, lines []highlight.Line)
	Flush(w io.Writer) error
}

// Options configure the document. Zero values fall back to the defaults.
type Options struct {
	Title        string
	Label        string // empty means "Generated on: <timestamp>"
	Layout       Layout
	PageSize     string  // A4, A3, Letter or Legal
	Margin       float64 // points
	CodeFontSize float64 // points
	CodeLeading  float64 // points
	CodeFont     string  // TrueType file for PDF code; empty uses Courier
	TabWidth     int
	Now          func() time.Time
}

// DefaultOptions returns A4 with 2cm margins and 7/10pt code.
func DefaultOptions() Options {
	return Options{
		Title:        DefaultTitle,
		Layout:       LayoutFlat,
		PageSize:     "A4",
		Margin:       56.69,
		CodeFontSize: 7,
		CodeLeading:  10,
		TabWidth:     4,
		Now:          time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Title == "" {
		o.Title = d.Title
	}
	if o.Layout == "" {
		o.Layout = d.Layout
	}
	if o.PageSize == "" {
		o.PageSize = d.PageSize
	}
	if o.Margin <= 0 {
		o.Margin = d.Margin
	}
	if o.CodeFontSize <= 0 {
		o.CodeFontSize = d.CodeFontSize
	}
	if o.CodeLeading <= 0 {
		o.CodeLeading = d.CodeLeading
	}
	if o.TabWidth <= 0 {
		o.TabWidth = d.TabWidth
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}

func (o Options) label() string {
	if o.Label != "" {
		return o.Label
	}
	return "Generated on: " + o.Now().Format("2006-01-02 15:04:05")
}

// Format is an output document type.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// DisplayName is the format's name in console messages.
func (f Format) DisplayName() string {
	switch f {
	case FormatDOCX:
		return "DOCX"
	case FormatMarkdown:
		return "Markdown"
	case FormatHTML:
		return "HTML"
	default:
		return "PDF"
	}
}

// ParseFormat validates a format name. Empty is returned unchanged so the
// caller can fall back to FormatFor.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case "pdf":
		return FormatPDF, nil
	case "docx":
		return FormatDOCX, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want pdf, docx, md or html)", s)
	}
}

// FormatFor picks the format from the destination's extension. Unknown
// extensions get PDF.
func FormatFor(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil || f == "" {
		return FormatPDF
	}
	return f
}

// NewWriter returns a Writer for the format.
func NewWriter(f Format, opts Options) (Writer, error) {
	opts = opts.withDefaults()
	switch f {
	case FormatPDF, "":
		return NewPDFWriter(opts), nil
	case FormatDOCX:
		return NewDOCXWriter(opts), nil
	case FormatMarkdown:
		return NewMarkdownWriter(opts), nil
	case FormatHTML:
		return NewHTMLWriter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported format: %q", f)
	}
}

// Renderer lays out a folder tree and drives a Writer.
type Renderer struct {
	opts Options
	hl   *highlight.Highlighter
	log  *slog.Logger
}

func NewRenderer(opts Options, log *slog.Logger) *Renderer {
	opts = opts.withDefaults()
	return &Renderer{
		opts: opts,
		hl:   highlight.New(highlight.Keywords, opts.TabWidth),
		log:  log,
	}
}

// Render writes the title page, the table of contents and the body. The
// returned outline is the one both the contents and the headings used.
func (r *Renderer) Render(w Writer, root *doctree.Folder) []Entry {
	entries := Outline(root, r.opts.Layout)

	w.TitlePage(r.opts.Title, r.opts.label(), root.UnitCount())
	w.PageBreak()
	w.Contents(entries)
	w.PageBreak()

	first := true
	for _, e := range entries {
		if e.Kind == FolderEntry {
			if !first {
				w.PageBreak()
			}
			first = false
			w.Heading(e)
			continue
		}
		w.Heading(e)
		for _, s := range e.Unit.Segments {
			w.Segment(s.Label, r.hl.Lines(s.Text))
		}
	}
	return entries
}

// Build renders root in format f and saves it to dest.
func (r *Renderer) Build(root *doctree.Folder, f Format, dest string) error {
	w, err := NewWriter(f, r.opts)
	if err != nil {
		return err
	}
	entries := r.Render(w, root)
	r.log.Debug("document laid out", "format", f, "entries", len(entries))

	return Save(dest, w.Flush)
}

// Save writes a document through a temp file in the destination directory
// and renames it into place, so dest is either the old file or the complete
// new one.
func Save(dest string, write func(io.Writer) error) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("rename to %s: %w", dest, err)
	}
	return nil
}
