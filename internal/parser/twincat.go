package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/plcdoc/internal/doctree"
	"golang.org/x/net/html/charset"
)

// TwinCATParser extracts code segments from TwinCAT 3 object files
// (.TcPOU, .TcDUT, .TcGVL, .TcIO).
type TwinCATParser struct{}

// wrapperElement is the root element TwinCAT writes around the unit itself.
const wrapperElement = "TcPlcObject"

const unknownName = "Unknown"

var cdataPattern = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (p *TwinCATParser) Parse(r io.Reader, filename string) (*doctree.Unit, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	src = bytes.TrimPrefix(src, utf8BOM)

	dec := xml.NewDecoder(bytes.NewReader(src))
	dec.CharsetReader = charset.NewReaderLabel

	var root xmlNode
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	elem := &root
	if root.XMLName.Local == wrapperElement {
		inner, ok := root.firstElement()
		if !ok {
			return nil, fmt.Errorf("empty %s element", wrapperElement)
		}
		elem = inner
	}

	unit := &doctree.Unit{
		Kind: kindOf(elem.XMLName.Local),
		Name: elem.attrOr("Name", unknownName),
	}
	if unit.Kind == doctree.KindProgramUnit {
		unit.Qualifier, _ = elem.attr("SpecialFunc")
	}
	unit.Title = title(unit, elem.XMLName.Local, filename)
	unit.Segments = extractSegments(elem)

	return unit, nil
}

func kindOf(localName string) doctree.Kind {
	switch localName {
	case "POU":
		return doctree.KindProgramUnit
	case "Itf":
		return doctree.KindInterface
	case "DUT":
		return doctree.KindDataType
	case "GVL":
		return doctree.KindGlobalList
	default:
		return doctree.KindUnknown
	}
}

func title(u *doctree.Unit, localName, filename string) string {
	switch u.Kind {
	case doctree.KindProgramUnit:
		return fmt.Sprintf("%s: %s %s", localName, u.Name, u.Qualifier)
	case doctree.KindInterface:
		return "Interface: " + u.Name
	case doctree.KindDataType:
		return "DUT: " + u.Name
	case doctree.KindGlobalList:
		return "GVL: " + u.Name
	default:
		return filename
	}
}

// extractSegments walks the unit element in canonical order: own
// declaration and implementation, then methods, then properties with
// their accessors.
func extractSegments(elem *xmlNode) []doctree.Segment {
	var segs []doctree.Segment
	add := func(label string, n *xmlNode, ok bool) {
		if !ok {
			return
		}
		if text, ok := payload(n); ok {
			segs = append(segs, doctree.Segment{Label: label, Text: text})
		}
	}

	decl, ok := elem.child("Declaration")
	add("Declaration", decl, ok)
	impl, ok := elem.find("Implementation", "ST")
	add("Implementation", impl, ok)

	for _, m := range elem.descendants("Method") {
		name := m.attrOr("Name", unknownName)
		decl, ok := m.child("Declaration")
		add("Method "+name+" Declaration", decl, ok)
		impl, ok := m.find("Implementation", "ST")
		add("Method "+name+" Implementation", impl, ok)
	}

	for _, prop := range elem.descendants("Property") {
		name := prop.attrOr("Name", unknownName)
		decl, ok := prop.child("Declaration")
		add("Property "+name+" Declaration", decl, ok)

		for _, accessor := range []string{"Get", "Set"} {
			acc, ok := prop.child(accessor)
			if !ok {
				continue
			}
			decl, ok := acc.child("Declaration")
			add("Property "+name+" "+accessor+" Declaration", decl, ok)
			impl, ok := acc.find("Implementation", "ST")
			add("Property "+name+" "+accessor+" Implementation", impl, ok)
		}
	}

	return segs
}

// payload returns the literal text of a node. A CDATA envelope that
// survived decoding (e.g. entity-escaped markup) is stripped; the result
// is trimmed and reported absent when empty.
func payload(n *xmlNode) (string, bool) {
	text := n.Content
	if m := cdataPattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}
