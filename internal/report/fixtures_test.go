package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dgallion1/plcdoc/internal/doctree"
	"github.com/dgallion1/plcdoc/internal/highlight"
)

var fixedNow = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }

func testOptions() Options {
	opts := DefaultOptions()
	opts.Now = fixedNow
	return opts
}

// exampleTree is POUs/Main.TcPOU (MAIN) and POUs/Sub/Helper.TcDUT (Point3D).
func exampleTree() *doctree.Folder {
	root := doctree.NewRoot()

	pous := root.Lookup("POUs")
	pous.Files = []string{"POUs/Main.TcPOU"}
	pous.Units = []*doctree.Unit{{
		Path:   "POUs/Main.TcPOU",
		Folder: "POUs",
		Kind:   doctree.KindProgramUnit,
		Name:   "MAIN",
		Title:  "POU: MAIN ",
		Segments: []doctree.Segment{
			{Label: "Declaration", Text: "VAR x : INT; END_VAR"},
			{Label: "Implementation", Text: "x := 1; // init"},
		},
	}}

	sub := root.Lookup("POUs/Sub")
	sub.Files = []string{"POUs/Sub/Helper.TcDUT"}
	sub.Units = []*doctree.Unit{{
		Path:   "POUs/Sub/Helper.TcDUT",
		Folder: "POUs/Sub",
		Kind:   doctree.KindDataType,
		Name:   "Point3D",
		Title:  "DUT: Point3D",
		Segments: []doctree.Segment{
			{Label: "Declaration", Text: "TYPE Point3D :\nSTRUCT\n\tx : LREAL;\n\n\ty : LREAL;\nEND_STRUCT\nEND_TYPE"},
		},
	}}
	return root
}

// recorder captures Writer calls as readable events.
type recorder struct {
	events   []string
	contents []Entry
	headings []Entry
	segments map[string][][]highlight.Line
	title    string
	label    string
	units    int
}

func newRecorder() *recorder {
	return &recorder{segments: make(map[string][][]highlight.Line)}
}

func (r *recorder) TitlePage(title, label string, units int) {
	r.title, r.label, r.units = title, label, units
	r.events = append(r.events, "title")
}

func (r *recorder) Contents(entries []Entry) {
	r.contents = entries
	r.events = append(r.events, fmt.Sprintf("contents:%d", len(entries)))
}

func (r *recorder) PageBreak() {
	r.events = append(r.events, "break")
}

func (r *recorder) Heading(e Entry) {
	r.headings = append(r.headings, e)
	r.events = append(r.events, "heading:"+e.Label())
}

func (r *recorder) Segment(label string, lines []highlight.Line) {
	r.segments[label] = append(r.segments[label], lines)
	r.events = append(r.events, "segment:"+label)
}

func (r *recorder) Flush(w io.Writer) error {
	_, err := io.WriteString(w, strings.Join(r.events, "\n"))
	return err
}

func labels(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label()
	}
	return out
}

// squash drops all whitespace so text extracted from a layout can be
// compared regardless of how it was split into runs.
func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}
