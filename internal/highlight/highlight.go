// Package highlight classifies Structured Text source lines into styled spans.
package highlight

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a span of a source line.
type Kind int

const (
	Whitespace Kind = iota
	Identifier
	Keyword
	Operator
	String
	Comment
)

// Span is a run of characters sharing one Kind.
type Span struct {
	Kind Kind
	Text string
}

// Line is one physical source line. A blank line has no spans.
type Line struct {
	Spans []Span
}

// Blank reports whether the line should render as a vertical gap.
func (l Line) Blank() bool {
	for _, s := range l.Spans {
		if s.Kind != Whitespace {
			return false
		}
	}
	return true
}

// Text returns the line's characters without styling.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Highlighter tokenizes lines against a fixed keyword set. It holds no
// mutable state and is safe for concurrent use.
type Highlighter struct {
	keywords map[string]bool
	// suffixed maps a word to the punctuation that completes a keyword,
	// e.g. THIS -> '^' for "THIS^".
	suffixed map[string]rune
	tabWidth int
}

// New builds a Highlighter. Tabs expand to tabWidth columns; tabWidth <= 0
// keeps them as single spaces.
func New(keywords []string, tabWidth int) *Highlighter {
	h := &Highlighter{
		keywords: make(map[string]bool, len(keywords)),
		suffixed: make(map[string]rune),
		tabWidth: tabWidth,
	}
	for _, kw := range keywords {
		last, size := utf8.DecodeLastRuneInString(kw)
		if size > 0 && size < len(kw) && !isWordRune(last) {
			h.suffixed[kw[:len(kw)-size]] = last
			continue
		}
		h.keywords[kw] = true
	}
	return h
}

// Default returns a Highlighter over Keywords with 4-column tabs.
func Default() *Highlighter {
	return New(Keywords, 4)
}

// Lines splits text into physical lines and highlights each one. A
// "(*" comment left open at the end of a line continues on the following
// lines until its "*)".
func (h *Highlighter) Lines(text string) []Line {
	raw := strings.Split(text, "\n")
	out := make([]Line, len(raw))
	open := false
	for i, s := range raw {
		out[i], open = h.scan(strings.TrimRight(s, "\r"), open)
	}
	return out
}

// Line tokenizes a single line in one left-to-right pass. A "//" or "(*"
// outside a string literal starts a comment; nothing inside a comment or
// string is ever marked as a keyword.
func (h *Highlighter) Line(s string) Line {
	l, _ := h.scan(s, false)
	return l
}

// scan tokenizes s. inComment means s starts inside a block comment; the
// result reports whether a block comment is still open at the end.
func (h *Highlighter) scan(s string, inComment bool) (Line, bool) {
	s = expandTabs(s, h.tabWidth)
	r := []rune(s)
	n := len(r)

	i := 0
	if inComment {
		i = closeComment(r, 0)
		inComment = i < 0
		if inComment {
			i = n
		}
	}
	if strings.TrimSpace(s) == "" {
		return Line{}, inComment
	}

	var spans []Span
	emit := func(k Kind, from, to int) {
		spans = append(spans, Span{Kind: k, Text: string(r[from:to])})
	}
	if i > 0 {
		emit(Comment, 0, i)
	}

	for i < n {
		switch {
		case hasPrefixAt(r, i, "//"):
			emit(Comment, i, n)
			i = n

		case hasPrefixAt(r, i, "(*"):
			end := closeComment(r, i+2)
			if end < 0 {
				end = n
				inComment = true
			}
			emit(Comment, i, end)
			i = end

		case unicode.IsSpace(r[i]):
			j := i
			for j < n && unicode.IsSpace(r[j]) {
				j++
			}
			emit(Whitespace, i, j)
			i = j

		case r[i] == '\'' || r[i] == '"':
			j := scanString(r, i)
			emit(String, i, j)
			i = j

		case isWordRune(r[i]):
			j := i
			for j < n && isWordRune(r[j]) {
				j++
			}
			word := string(r[i:j])
			switch {
			case h.keywords[word]:
				emit(Keyword, i, j)
			case j < n && h.suffixed[word] == r[j] && h.suffixed[word] != 0:
				j++
				emit(Keyword, i, j)
			default:
				emit(Identifier, i, j)
			}
			i = j

		default:
			j := i + 1
			for j < n && isOperatorRune(r[j]) && !hasPrefixAt(r, j, "//") && !hasPrefixAt(r, j, "(*") {
				j++
			}
			emit(Operator, i, j)
			i = j
		}
	}
	return Line{Spans: spans}, inComment
}

// closeComment returns the index just past the first "*)" at or after
// from, or -1 when the comment does not close on this line.
func closeComment(r []rune, from int) int {
	for j := from; j+1 < len(r); j++ {
		if r[j] == '*' && r[j+1] == ')' {
			return j + 2
		}
	}
	return -1
}

// scanString returns the index just past the literal starting at r[i].
// '$' escapes the next character; an unterminated literal runs to the end
// of the line.
func scanString(r []rune, i int) int {
	quote := r[i]
	j := i + 1
	for j < len(r) {
		switch r[j] {
		case '$':
			j += 2
			continue
		case quote:
			return j + 1
		}
		j++
	}
	return len(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isOperatorRune(r rune) bool {
	return r != '\'' && r != '"' && !unicode.IsSpace(r) && !isWordRune(r)
}

func hasPrefixAt(r []rune, i int, prefix string) bool {
	for _, p := range prefix {
		if i >= len(r) || r[i] != p {
			return false
		}
		i++
	}
	return true
}

// expandTabs replaces tabs with spaces up to the next tab stop.
func expandTabs(s string, width int) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	if width <= 0 {
		return strings.ReplaceAll(s, "\t", " ")
	}
	var b strings.Builder
	col := 0
	for _, c := range s {
		if c == '\t' {
			pad := width - col%width
			b.WriteString(strings.Repeat(" ", pad))
			col += pad
			continue
		}
		b.WriteRune(c)
		col++
	}
	return b.String()
}
