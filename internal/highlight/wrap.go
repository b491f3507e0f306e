package highlight

import (
	"strings"

	"golang.org/x/net/html"
)

// Wrap breaks a line into rows of at most width characters. Spans keep
// their kind across the break, so a wrapped comment stays a comment.
// width <= 0 disables wrapping.
func Wrap(l Line, width int) []Line {
	if width <= 0 || l.Blank() {
		return []Line{l}
	}

	var rows []Line
	var cur []Span
	col := 0
	flush := func() {
		rows = append(rows, Line{Spans: cur})
		cur = nil
		col = 0
	}

	for _, s := range l.Spans {
		r := []rune(s.Text)
		for len(r) > 0 {
			room := width - col
			if room == 0 {
				flush()
				room = width
			}
			take := min(room, len(r))
			cur = append(cur, Span{Kind: s.Kind, Text: string(r[:take])})
			col += take
			r = r[take:]
		}
	}
	if len(cur) > 0 {
		flush()
	}
	return rows
}

// HTML renders the line as markup. Text is escaped before it is wrapped
// in styling elements; keyword, comment and string spans get the classes
// "kw", "cm" and "str".
func (l Line) HTML() string {
	var b strings.Builder
	for _, s := range l.Spans {
		text := html.EscapeString(s.Text)
		switch s.Kind {
		case Keyword:
			b.WriteString(`<span class="kw">` + text + `</span>`)
		case Comment:
			b.WriteString(`<span class="cm">` + text + `</span>`)
		case String:
			b.WriteString(`<span class="str">` + text + `</span>`)
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}
